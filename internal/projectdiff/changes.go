package projectdiff

import (
	"github.com/dshills/diffview/internal/engine/buffer"
	"github.com/dshills/diffview/internal/engine/diff"
	"github.com/dshills/diffview/internal/project"
)

// Status classifies a changed file.
type Status int

const (
	// StatusModified indicates tracked content changed.
	StatusModified Status = iota
	// StatusAdded indicates a new or untracked file.
	StatusAdded
	// StatusConflicted indicates a merge conflict.
	StatusConflicted
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusConflicted:
		return "conflicted"
	default:
		return "unknown"
	}
}

// Entry is one (path, file) pair in a root's path-sorted entry order.
// Path is relative to the root.
type Entry struct {
	Path   string
	FileID project.FileID
}

// Changes holds the change state for one file: its status, a shared
// reference to the source buffer, and the diff state whose hunks mark the
// changed lines. A root's Changes records are replaced wholesale on each
// successful rescan, never mutated in place.
type Changes struct {
	Status Status
	Handle *project.Handle
	Diff   *diff.State
}

// Hunks returns the current hunk anchor ranges, ordered by position.
func (c *Changes) Hunks() []buffer.AnchorRange {
	return c.Diff.Hunks()
}

// Buffer returns the shared source buffer.
func (c *Changes) Buffer() *buffer.Buffer {
	return c.Handle.Buffer()
}

// release frees the record's hunk anchors and drops its buffer reference.
func (c *Changes) release() {
	c.Diff.Release()
	c.Handle.Release()
}
