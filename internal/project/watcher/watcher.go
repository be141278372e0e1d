// Package watcher detects external filesystem changes under tracked roots
// and feeds them to the application layer, which maps them to project
// events. The watcher delivers raw events; coalescing and debouncing are
// the rescan scheduler's job.
package watcher

import (
	"errors"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of filesystem operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch {
	case op.Has(OpCreate):
		return "CREATE"
	case op.Has(OpWrite):
		return "WRITE"
	case op.Has(OpRemove):
		return "REMOVE"
	case op.Has(OpRename):
		return "RENAME"
	case op.Has(OpChmod):
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents one filesystem change.
type Event struct {
	// Path is the absolute path of the affected file or directory.
	Path string

	// Op is the operation that occurred.
	Op Op

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Stats provides watcher status information.
type Stats struct {
	// WatchedPaths is the number of directories being watched.
	WatchedPaths int

	// TotalEvents is the total number of events delivered.
	TotalEvents int64

	// Errors is the total number of errors encountered.
	Errors int64
}

// Watcher monitors filesystem changes.
type Watcher interface {
	// Watch starts watching a single path.
	// Returns ErrAlreadyWatching if the path is already being watched.
	Watch(path string) error

	// WatchRecursive starts watching a directory and all subdirectories,
	// skipping ignored ones.
	WatchRecursive(path string) error

	// Unwatch stops watching a path.
	// Returns ErrNotWatching if the path isn't being watched.
	Unwatch(path string) error

	// Events returns the channel of change events.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel of watcher errors.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error

	// Stats returns watcher statistics.
	Stats() Stats

	// IsWatching returns true if the path is being watched.
	IsWatching(path string) bool
}

// Config holds watcher configuration.
type Config struct {
	// BufferSize is the size of the event and error channels.
	// Default: 100
	BufferSize int

	// IgnorePatterns are glob patterns for paths to skip.
	IgnorePatterns []string

	// IgnoreHidden skips files and directories starting with a dot.
	IgnoreHidden bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:   100,
		IgnoreHidden: true,
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) Option {
	return func(c *Config) {
		c.BufferSize = size
	}
}

// WithIgnorePatterns sets the ignore patterns.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Config) {
		c.IgnorePatterns = patterns
	}
}

// WithIgnoreHidden controls skipping of dot-prefixed paths.
func WithIgnoreHidden(ignore bool) Option {
	return func(c *Config) {
		c.IgnoreHidden = ignore
	}
}
