package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FSNotifyWatcher implements Watcher using fsnotify.
type FSNotifyWatcher struct {
	mu      sync.RWMutex
	watcher *fsnotify.Watcher
	config  Config
	paths   map[string]bool
	ignore  *IgnoreMatcher

	events chan Event
	errors chan error

	totalEvents int64
	totalErrors int64

	closed  bool
	closeCh chan struct{}
	loopWg  sync.WaitGroup
}

var _ Watcher = (*FSNotifyWatcher)(nil)

// NewFSNotifyWatcher creates a new fsnotify-based watcher.
func NewFSNotifyWatcher(opts ...Option) (*FSNotifyWatcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FSNotifyWatcher{
		watcher: fsw,
		config:  config,
		paths:   make(map[string]bool),
		ignore:  NewIgnoreMatcher(config.IgnorePatterns),
		events:  make(chan Event, config.BufferSize),
		errors:  make(chan error, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.loopWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts watching a single path.
func (w *FSNotifyWatcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if w.paths[absPath] {
		return ErrAlreadyWatching
	}

	if err := w.watcher.Add(absPath); err != nil {
		return err
	}
	w.paths[absPath] = true
	return nil
}

// WatchRecursive watches a directory tree, skipping ignored directories.
func (w *FSNotifyWatcher) WatchRecursive(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return w.Watch(absPath)
	}

	return filepath.WalkDir(absPath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if watchErr := w.Watch(p); watchErr != nil && watchErr != ErrAlreadyWatching {
			atomic.AddInt64(&w.totalErrors, 1)
		}
		return nil
	})
}

// Unwatch stops watching a path.
func (w *FSNotifyWatcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !w.paths[absPath] {
		return ErrNotWatching
	}

	if err := w.watcher.Remove(absPath); err != nil {
		return err
	}
	delete(w.paths, absPath)
	return nil
}

// Events returns the event channel.
func (w *FSNotifyWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
func (w *FSNotifyWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes its channels.
func (w *FSNotifyWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.loopWg.Wait()
	close(w.events)
	close(w.errors)
	return w.watcher.Close()
}

// Stats returns watcher statistics.
func (w *FSNotifyWatcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Stats{
		WatchedPaths: len(w.paths),
		TotalEvents:  atomic.LoadInt64(&w.totalEvents),
		Errors:       atomic.LoadInt64(&w.totalErrors),
	}
}

// IsWatching returns true if the path is being watched.
func (w *FSNotifyWatcher) IsWatching(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return w.paths[absPath]
}

// processLoop converts fsnotify events until the watcher closes.
func (w *FSNotifyWatcher) processLoop() {
	defer w.loopWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			atomic.AddInt64(&w.totalErrors, 1)
			w.sendError(err)
		}
	}
}

// handleFSEvent converts and dispatches one fsnotify event.
func (w *FSNotifyWatcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 || w.shouldIgnore(fsEvent.Name) {
		return
	}

	w.sendEvent(Event{
		Path:      fsEvent.Name,
		Op:        op,
		Timestamp: time.Now(),
	})

	// Newly created directories join the watch set automatically.
	if op.Has(OpCreate) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			_ = w.Watch(fsEvent.Name)
		}
	}
}

// convertOp converts fsnotify.Op to watcher.Op.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}

// shouldIgnore checks a path against hidden-file and pattern rules.
func (w *FSNotifyWatcher) shouldIgnore(path string) bool {
	if w.config.IgnoreHidden {
		base := filepath.Base(path)
		if len(base) > 1 && base[0] == '.' {
			return true
		}
	}
	return w.ignore.Match(path)
}

// sendEvent delivers an event, dropping it if the channel is full.
func (w *FSNotifyWatcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		atomic.AddInt64(&w.totalEvents, 1)
	default:
		atomic.AddInt64(&w.totalErrors, 1)
	}
}

// sendError delivers an error, dropping it if the channel is full.
func (w *FSNotifyWatcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
