package project

import (
	"fmt"
	"os"
	"sync"

	"github.com/dshills/diffview/internal/engine/buffer"
	"github.com/dshills/diffview/internal/engine/diff"
)

// LoadFunc loads the content of a file. The default reads from disk.
type LoadFunc func(path string) (string, error)

// BufferStore owns the open source buffers, keyed by absolute path, with
// reference-counted shared ownership: a buffer stays alive while any
// handle references it and is evicted when the last reference releases.
// FileIDs are allocated per path and survive eviction.
type BufferStore struct {
	mu      sync.Mutex
	entries map[string]*storeEntry
	ids     map[string]FileID
	nextID  FileID
	load    LoadFunc
}

type storeEntry struct {
	path string
	id   FileID
	buf  *buffer.Buffer
	refs int
}

// NewBufferStore creates a store that loads buffers from disk.
func NewBufferStore() *BufferStore {
	return NewBufferStoreWithLoader(func(path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

// NewBufferStoreWithLoader creates a store with a custom content loader.
func NewBufferStoreWithLoader(load LoadFunc) *BufferStore {
	return &BufferStore{
		entries: make(map[string]*storeEntry),
		ids:     make(map[string]FileID),
		load:    load,
	}
}

// FileID returns the stable identifier for path, allocating one if needed.
func (s *BufferStore) FileID(path string) FileID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileIDLocked(path)
}

func (s *BufferStore) fileIDLocked(path string) FileID {
	if id, ok := s.ids[path]; ok {
		return id
	}
	s.nextID++
	s.ids[path] = s.nextID
	return s.nextID
}

// Acquire returns a handle referencing the buffer for path, loading the
// file on first use. Each successful Acquire adds one reference; load
// failures are per-file errors and leave no state behind.
func (s *BufferStore) Acquire(path string) (*Handle, error) {
	s.mu.Lock()
	if e, ok := s.entries[path]; ok {
		e.refs++
		s.mu.Unlock()
		return &Handle{store: s, entry: e}, nil
	}
	s.mu.Unlock()

	// Load outside the lock; loser of a concurrent race discards its copy.
	text, err := s.load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[path]; ok {
		e.refs++
		return &Handle{store: s, entry: e}, nil
	}

	e := &storeEntry{
		path: path,
		id:   s.fileIDLocked(path),
		buf:  buffer.NewBufferFromString(text),
		refs: 1,
	}
	s.entries[path] = e
	return &Handle{store: s, entry: e}, nil
}

// Sync reloads path's content through the loader and converges the open
// buffer to it with minimal edits, preserving anchors outside changed
// regions. A no-op when no buffer for path is open.
func (s *BufferStore) Sync(path string) error {
	s.mu.Lock()
	e, ok := s.entries[path]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	text, err := s.load(path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	return diff.SyncBuffer(e.buf, text)
}

// Open reports whether a buffer for path is currently loaded.
func (s *BufferStore) Open(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[path]
	return ok
}

// retain adds one reference to an entry.
func (s *BufferStore) retain(e *storeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs++
}

// release drops one reference, evicting the buffer on the last one.
func (s *BufferStore) release(e *storeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs <= 0 {
		delete(s.entries, e.path)
	}
}

// Handle is one reference to a shared buffer. Handles are retained and
// released independently; the buffer dies when the last reference goes.
// Handle satisfies the merged document's buffer handle contract.
type Handle struct {
	store *BufferStore
	entry *storeEntry
}

// Buffer returns the shared buffer.
func (h *Handle) Buffer() *buffer.Buffer {
	return h.entry.buf
}

// Path returns the buffer's file path.
func (h *Handle) Path() string {
	return h.entry.path
}

// FileID returns the stable file identifier.
func (h *Handle) FileID() FileID {
	return h.entry.id
}

// Retain adds one reference to the underlying buffer.
func (h *Handle) Retain() {
	h.store.retain(h.entry)
}

// Release drops one reference to the underlying buffer.
func (h *Handle) Release() {
	h.store.release(h.entry)
}
