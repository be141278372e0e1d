package projectdiff

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/diffview/internal/engine/buffer"
	"github.com/dshills/diffview/internal/project"
)

// fakeSource serves change snapshots from a mutable map and counts how
// many times it was asked.
type fakeSource struct {
	mu    sync.Mutex
	calls int
	files map[string]FileChange
}

func newFakeSource() *fakeSource {
	return &fakeSource{files: make(map[string]FileChange)}
}

func (s *fakeSource) Changes() ([]FileChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	out := make([]FileChange, 0, len(s.files))
	for _, fc := range s.files {
		out = append(out, fc)
	}
	return out, nil
}

func (s *fakeSource) set(path string, status Status, baseline string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = FileChange{Path: path, Status: status, Baseline: baseline}
}

func (s *fakeSource) drop(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ctlEnv wires a controller to a fake source and an in-memory disk. The
// debounce delay is effectively infinite so tests drive every pass
// explicitly through Rescan.
type ctlEnv struct {
	t     *testing.T
	disk  map[string]string
	src   *fakeSource
	store *project.BufferStore
	pd    *ProjectDiff
	root  project.RootID
}

func newCtlEnv(t *testing.T) *ctlEnv {
	disk := make(map[string]string)
	store := project.NewBufferStoreWithLoader(func(p string) (string, error) {
		content, ok := disk[p]
		if !ok {
			return "", errors.New("no such file")
		}
		return content, nil
	})
	pd := NewProjectDiff(Config{
		DebounceDelay: time.Hour,
		ContextLines:  3,
	}, store)
	e := &ctlEnv{
		t:     t,
		disk:  disk,
		src:   newFakeSource(),
		store: store,
		pd:    pd,
	}
	e.root = pd.AddRoot("/proj", e.src)
	return e
}

func (e *ctlEnv) abs(rel string) string {
	return filepath.Join("/proj", rel)
}

func (e *ctlEnv) modify(rel, baseline, current string) {
	e.disk[e.abs(rel)] = current
	e.src.set(rel, StatusModified, baseline)
}

func (e *ctlEnv) rescan() {
	e.t.Helper()
	select {
	case <-e.pd.Rescan(e.root):
	case <-time.After(5 * time.Second):
		e.t.Fatal("rescan timed out")
	}
}

func (e *ctlEnv) buffer(rel string) *buffer.Buffer {
	e.t.Helper()
	h, err := e.store.Acquire(e.abs(rel))
	if err != nil {
		e.t.Fatalf("acquire %s: %v", rel, err)
	}
	defer h.Release()
	return h.Buffer()
}

func TestRescanStatusWithoutHunks(t *testing.T) {
	e := newCtlEnv(t)
	base := fileLines("a", 20)
	e.modify("a.txt", base, base) // status present, content identical

	e.rescan()

	if n := e.pd.Document().Len(); n != 0 {
		t.Errorf("doc has %d excerpts, want 0 for a hunkless file", n)
	}
	if !e.pd.HasChanges() {
		t.Error("HasChanges should still report the tracked status")
	}
}

func TestRescanBootstrapsExcerpts(t *testing.T) {
	e := newCtlEnv(t)
	base := fileLines("a", 30)
	e.modify("a.txt", base, changeRows(base, 10, 12))

	e.rescan()

	doc := e.pd.Document()
	if doc.Len() != 1 {
		t.Fatalf("doc has %d excerpts, want 1", doc.Len())
	}
	snap := e.buffer("a.txt").Snapshot()
	rows := doc.Excerpts()[0].ContextRows(snap)
	if rows.Start != 7 || rows.End != 15 {
		t.Errorf("context rows = %v, want [7:15)", rows)
	}
}

func TestRescanExpandsInPlace(t *testing.T) {
	e := newCtlEnv(t)
	base := fileLines("a", 40)
	e.modify("a.txt", base, changeRows(base, 10, 12))
	e.rescan()

	doc := e.pd.Document()
	id := doc.Excerpts()[0].ID()

	// The hunk grows downward on disk.
	e.modify("a.txt", base, changeRows(base, 10, 20))
	e.rescan()

	excerpts := doc.Excerpts()
	if len(excerpts) != 1 {
		t.Fatalf("doc has %d excerpts, want 1", len(excerpts))
	}
	if excerpts[0].ID() != id {
		t.Fatal("excerpt was replaced instead of expanded")
	}
	snap := e.buffer("a.txt").Snapshot()
	rows := excerpts[0].ContextRows(snap)
	if rows.Start != 7 || rows.End != 23 {
		t.Errorf("context rows = %v, want [7:23)", rows)
	}
}

func TestRescanInsertsBetweenFiles(t *testing.T) {
	e := newCtlEnv(t)
	baseA := fileLines("a", 30)
	baseC := fileLines("c", 30)
	e.modify("a.txt", baseA, changeRows(baseA, 10, 12))
	e.modify("c.txt", baseC, changeRows(baseC, 10, 12))
	e.rescan()

	doc := e.pd.Document()
	before := doc.Excerpts()
	if len(before) != 2 {
		t.Fatalf("doc has %d excerpts, want 2", len(before))
	}
	idA, idC := before[0].ID(), before[1].ID()

	baseB := fileLines("b", 30)
	e.modify("b.txt", baseB, changeRows(baseB, 10, 12))
	e.rescan()

	after := doc.Excerpts()
	if len(after) != 3 {
		t.Fatalf("doc has %d excerpts, want 3", len(after))
	}
	if after[0].ID() != idA || after[2].ID() != idC {
		t.Error("neighboring excerpts disturbed by the insertion")
	}
	if after[1].Buffer() != e.buffer("b.txt") {
		t.Error("middle excerpt should window into b.txt")
	}
}

func TestRescanRemovesRevertedFile(t *testing.T) {
	e := newCtlEnv(t)
	baseA := fileLines("a", 30)
	baseB := fileLines("b", 30)
	e.modify("a.txt", baseA, changeRows(baseA, 10, 12))
	e.modify("b.txt", baseB, changeRows(baseB, 10, 12))
	e.rescan()

	doc := e.pd.Document()
	if doc.Len() != 2 {
		t.Fatalf("doc has %d excerpts, want 2", doc.Len())
	}
	idB := doc.Excerpts()[1].ID()

	// a.txt reverts: it leaves the snapshot entirely.
	e.src.drop("a.txt")
	e.rescan()

	excerpts := doc.Excerpts()
	if len(excerpts) != 1 {
		t.Fatalf("doc has %d excerpts, want 1", len(excerpts))
	}
	if excerpts[0].ID() != idB {
		t.Error("surviving excerpt identity changed")
	}
	if e.store.Open(e.abs("a.txt")) {
		t.Error("reverted file's buffer should be evicted")
	}
}

func TestRescanIdempotent(t *testing.T) {
	e := newCtlEnv(t)
	base := fileLines("a", 30)
	e.modify("a.txt", base, changeRows(base, 10, 12))
	e.rescan()

	doc := e.pd.Document()
	id := doc.Excerpts()[0].ID()
	snap := e.buffer("a.txt").Snapshot()
	rows := doc.Excerpts()[0].ContextRows(snap)

	e.rescan()

	after := doc.Excerpts()
	if len(after) != 1 || after[0].ID() != id {
		t.Fatal("identical snapshot must not touch excerpt identity")
	}
	if got := after[0].ContextRows(e.buffer("a.txt").Snapshot()); got != rows {
		t.Errorf("context rows changed: %v -> %v", rows, got)
	}
}

func TestNotifyCoalesces(t *testing.T) {
	disk := map[string]string{}
	store := project.NewBufferStoreWithLoader(func(p string) (string, error) {
		return disk[p], nil
	})
	pd := NewProjectDiff(Config{DebounceDelay: 50 * time.Millisecond}, store)
	defer pd.Close()

	src := newFakeSource()
	root := pd.AddRoot("/proj", src)
	for i := 0; i < 4; i++ {
		pd.Notify(root)
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced rescan never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if n := src.callCount(); n != 1 {
		t.Errorf("source queried %d times, want 1 coalesced rescan", n)
	}
}

func TestRemoveRootEvictsState(t *testing.T) {
	e := newCtlEnv(t)
	base := fileLines("a", 30)
	e.modify("a.txt", base, changeRows(base, 10, 12))
	e.rescan()

	if e.pd.Document().Len() == 0 {
		t.Fatal("expected excerpts before removal")
	}

	e.pd.RemoveRoot(e.root)

	if n := e.pd.Document().Len(); n != 0 {
		t.Errorf("doc has %d excerpts after removal, want 0", n)
	}
	if e.pd.HasChanges() {
		t.Error("HasChanges should be false after removal")
	}
	if e.store.Open(e.abs("a.txt")) {
		t.Error("root's buffers should be evicted")
	}
	if len(e.pd.Roots()) != 0 {
		t.Error("root still tracked after removal")
	}
}

// blockingSource holds a rescan inside Changes until released, so a test
// can remove the root mid-pipeline.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	files   []FileChange
}

func (s *blockingSource) Changes() ([]FileChange, error) {
	close(s.entered)
	<-s.release
	return s.files, nil
}

func TestRescanDiscardedWhenRootRemoved(t *testing.T) {
	base := fileLines("a", 30)
	disk := map[string]string{"/proj/a.txt": changeRows(base, 10, 12)}
	store := project.NewBufferStoreWithLoader(func(p string) (string, error) {
		content, ok := disk[p]
		if !ok {
			return "", errors.New("no such file")
		}
		return content, nil
	})
	pd := NewProjectDiff(Config{DebounceDelay: time.Hour}, store)

	src := &blockingSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		files:   []FileChange{{Path: "a.txt", Status: StatusModified, Baseline: base}},
	}
	root := pd.AddRoot("/proj", src)

	done := pd.Rescan(root)
	<-src.entered
	pd.RemoveRoot(root)
	close(src.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("rescan never finished")
	}

	if n := pd.Document().Len(); n != 0 {
		t.Errorf("doc has %d excerpts, want discarded result", n)
	}
	if store.Open("/proj/a.txt") {
		t.Error("discarded pass must release its buffer references")
	}
}

// laggingSource blocks its first Changes call until released; later calls
// report a clean root immediately.
type laggingSource struct {
	entered chan struct{}
	release chan struct{}
	first   []FileChange
	calls   int32
}

func (s *laggingSource) Changes() ([]FileChange, error) {
	if atomic.AddInt32(&s.calls, 1) == 1 {
		close(s.entered)
		<-s.release
		return s.first, nil
	}
	return nil, nil
}

func TestStaleRescanDoesNotOverwriteNewer(t *testing.T) {
	base := fileLines("a", 30)
	disk := map[string]string{"/proj/a.txt": changeRows(base, 10, 12)}
	store := project.NewBufferStoreWithLoader(func(p string) (string, error) {
		content, ok := disk[p]
		if !ok {
			return "", errors.New("no such file")
		}
		return content, nil
	})
	pd := NewProjectDiff(Config{DebounceDelay: time.Hour}, store)

	src := &laggingSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		first:   []FileChange{{Path: "a.txt", Status: StatusModified, Baseline: base}},
	}
	root := pd.AddRoot("/proj", src)

	// The first pass stalls inside the source while a second pass, seeing
	// the file already reverted, completes and empties the view.
	doneA := pd.Rescan(root)
	<-src.entered

	select {
	case <-pd.Rescan(root):
	case <-time.After(5 * time.Second):
		t.Fatal("second rescan timed out")
	}
	if n := pd.Document().Len(); n != 0 {
		t.Fatalf("doc has %d excerpts after clean pass, want 0", n)
	}

	close(src.release)
	select {
	case <-doneA:
	case <-time.After(5 * time.Second):
		t.Fatal("first rescan never finished")
	}

	if n := pd.Document().Len(); n != 0 {
		t.Errorf("stale rescan overwrote newer state: doc has %d excerpts, want 0", n)
	}
	if store.Open("/proj/a.txt") {
		t.Error("stale pass must release its buffer references")
	}
	if pd.HasChanges() {
		t.Error("stale pass must not resurrect tracked changes")
	}
}

func TestHandleEventRouting(t *testing.T) {
	e := newCtlEnv(t)
	base := fileLines("a", 30)
	e.modify("a.txt", base, changeRows(base, 10, 12))
	e.rescan()

	e.pd.HandleEvent(project.Event{Kind: project.EventRootRemoved, Root: e.root})

	if len(e.pd.Roots()) != 0 {
		t.Error("root-removed event should evict the root")
	}
	if e.pd.Document().Len() != 0 {
		t.Error("root-removed event should purge excerpts")
	}
}

func TestCloseEvictsEverything(t *testing.T) {
	e := newCtlEnv(t)
	base := fileLines("a", 30)
	e.modify("a.txt", base, changeRows(base, 10, 12))
	e.rescan()

	e.pd.Close()

	if e.pd.Document().Len() != 0 {
		t.Error("close should purge the merged document")
	}
	if e.store.Open(e.abs("a.txt")) {
		t.Error("close should release all buffer references")
	}

	// Rescans after close are no-ops.
	select {
	case <-e.pd.Rescan(e.root):
	case <-time.After(time.Second):
		t.Fatal("rescan after close should return immediately")
	}
}
