package app

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/diffview/internal/integration/git"
	"github.com/dshills/diffview/internal/project"
	"github.com/dshills/diffview/internal/project/watcher"
)

// initTestRepo creates a git repository with one committed file and
// returns its path. Skips when git is unavailable.
func initTestRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init")
	content := "line one\nline two\nline three\nline four\nline five\n"
	if err := os.WriteFile(filepath.Join(dir, "main.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	run("add", ".")
	run("commit", "-m", "initial")

	return dir
}

func newTestApp(t *testing.T, dir string) *Application {
	t.Helper()
	a, err := New(Options{
		ConfigPath: filepath.Join(t.TempDir(), "absent.toml"),
		RootPath:   dir,
		LogLevel:   "error",
		LogOutput:  io.Discard,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

func TestNewRequiresRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	_, err := New(Options{
		RootPath:  t.TempDir(),
		LogOutput: io.Discard,
	})
	if err == nil {
		t.Fatal("expected an error outside a repository")
	}
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "git" {
		t.Errorf("error = %v, want git InitError", err)
	}
}

func TestRescanOnceBuildsDiffView(t *testing.T) {
	dir := initTestRepo(t)
	modified := "line one\nCHANGED\nline three\nline four\nline five\n"
	if err := os.WriteFile(filepath.Join(dir, "main.txt"), []byte(modified), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	a := newTestApp(t, dir)
	a.RescanOnce()

	if !a.Diff().HasChanges() {
		t.Error("expected tracked changes after rescan")
	}
	var sb strings.Builder
	if err := a.Render(&sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "main.txt") {
		t.Errorf("output missing file header:\n%s", out)
	}
	if !strings.Contains(out, "CHANGED") {
		t.Errorf("output missing changed line:\n%s", out)
	}
}

func TestCleanRepositoryRendersEmpty(t *testing.T) {
	dir := initTestRepo(t)

	a := newTestApp(t, dir)
	a.RescanOnce()

	if a.Diff().HasChanges() {
		t.Error("clean repository should have no changes")
	}
	var sb strings.Builder
	if err := a.Render(&sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if sb.Len() != 0 {
		t.Errorf("output should be empty, got:\n%s", sb.String())
	}
}

func TestRunAndShutdown(t *testing.T) {
	dir := initTestRepo(t)
	a := newTestApp(t, dir)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	// Give the watcher time to come up, then stop.
	time.Sleep(100 * time.Millisecond)
	a.Shutdown()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	// Second Run on a stopped application still errors cleanly.
	if err := a.Run(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run = %v, want ErrAlreadyRunning", err)
	}
}

func TestEntriesEventMapping(t *testing.T) {
	dir := initTestRepo(t)
	a := newTestApp(t, dir)

	ev := a.entriesEvent(watcher.Event{
		Path: filepath.Join(a.RootPath(), "sub", "f.txt"),
		Op:   watcher.OpWrite,
	})
	if ev.Kind != project.EventEntriesChanged {
		t.Errorf("Kind = %v, want entries-changed", ev.Kind)
	}
	if ev.Root != a.root {
		t.Error("event should target the tracked root")
	}
	if len(ev.Entries) != 1 {
		t.Fatalf("Entries = %v, want one entry", ev.Entries)
	}
	if ev.Entries[0].Path != "sub/f.txt" {
		t.Errorf("entry path = %q, want %q", ev.Entries[0].Path, "sub/f.txt")
	}
	if ev.Entries[0].Change != project.ChangeModified {
		t.Errorf("entry change = %v, want modified", ev.Entries[0].Change)
	}

	kinds := []struct {
		op   watcher.Op
		want project.ChangeKind
	}{
		{watcher.OpCreate, project.ChangeCreated},
		{watcher.OpRemove, project.ChangeDeleted},
		{watcher.OpRename, project.ChangeDeleted},
		{watcher.OpWrite, project.ChangeModified},
		{watcher.OpChmod, project.ChangeModified},
	}
	for _, tt := range kinds {
		if got := changeKind(tt.op); got != tt.want {
			t.Errorf("changeKind(%v) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestRunPicksUpFileChanges(t *testing.T) {
	dir := initTestRepo(t)
	a := newTestApp(t, dir)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	// Let the watcher and the initial rescan settle.
	time.Sleep(200 * time.Millisecond)
	if a.Diff().HasChanges() {
		t.Fatal("clean repository should start without changes")
	}

	modified := "line one\nCHANGED\nline three\nline four\nline five\n"
	if err := os.WriteFile(filepath.Join(dir, "main.txt"), []byte(modified), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !a.Diff().HasChanges() {
		if time.Now().After(deadline) {
			t.Fatal("file change never reached the diff view")
		}
		time.Sleep(20 * time.Millisecond)
	}

	a.Shutdown()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestOpenMatchesRepositoryRoot(t *testing.T) {
	dir := initTestRepo(t)
	a := newTestApp(t, dir)

	repo, err := git.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	want, _ := filepath.EvalSymlinks(repo.Path())
	got, _ := filepath.EvalSymlinks(a.RootPath())
	if got != want {
		t.Errorf("RootPath = %q, want %q", got, want)
	}
}
