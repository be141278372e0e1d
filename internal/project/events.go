package project

import "github.com/google/uuid"

// RootID identifies one tracked directory tree.
type RootID string

// NewRootID allocates a fresh root identifier.
func NewRootID() RootID {
	return RootID(uuid.NewString())
}

// FileID is a stable per-path identifier allocated by the buffer store.
// The ID survives buffer eviction: re-acquiring the same path yields the
// same FileID.
type FileID uint64

// EventKind discriminates project events.
type EventKind int

const (
	// EventRootAdded signals a new tracked root.
	EventRootAdded EventKind = iota
	// EventRootRemoved signals a root disappearing. Handled synchronously.
	EventRootRemoved
	// EventEntriesChanged signals file entries changing under a root.
	EventEntriesChanged
	// EventClosed signals the project shutting down.
	EventClosed
)

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	switch k {
	case EventRootAdded:
		return "root-added"
	case EventRootRemoved:
		return "root-removed"
	case EventEntriesChanged:
		return "entries-changed"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ChangeKind classifies one entry change.
type ChangeKind int

const (
	// ChangeCreated indicates a new entry.
	ChangeCreated ChangeKind = iota
	// ChangeModified indicates content modification.
	ChangeModified
	// ChangeDeleted indicates removal.
	ChangeDeleted
)

// EntryChange describes one changed file entry under a root.
type EntryChange struct {
	Path   string
	Change ChangeKind
}

// Event is one project notification. Everything except EventRootRemoved
// and EventClosed requests a rescan; those two evict state synchronously.
type Event struct {
	Kind    EventKind
	Root    RootID
	Entries []EntryChange
}
