// Package git provides the version-control status and baseline-content
// source for the diff view. It shells out to the git binary; no state is
// persisted by this package.
package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Errors returned by repository operations.
var (
	ErrNotRepository = errors.New("not a git repository")
	ErrGitNotFound   = errors.New("git executable not found")
)

// Repository represents a git repository rooted at a working tree.
type Repository struct {
	path string
}

// Open opens the repository containing path.
// The repository root is discovered via git rev-parse.
func Open(path string) (*Repository, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrGitNotFound
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	out, err := runGit(absPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, ErrNotRepository
	}

	root := strings.TrimSpace(out)
	if root == "" {
		return nil, ErrNotRepository
	}

	return &Repository{path: root}, nil
}

// Path returns the repository root path.
func (r *Repository) Path() string {
	return r.path
}

// git runs a git command in the repository root.
func (r *Repository) git(args ...string) (string, error) {
	return runGit(r.path, args...)
}

// runGit executes git with the given args in dir.
func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0", // never prompt for credentials
		"LC_ALL=C",
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	return stdout.String(), nil
}
