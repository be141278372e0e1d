package projectdiff

import (
	"sync"
	"time"

	"github.com/dshills/diffview/internal/logging"
	"github.com/dshills/diffview/internal/merged"
	"github.com/dshills/diffview/internal/project"
	"github.com/dshills/diffview/internal/project/watcher"
)

// Config configures the project diff controller.
type Config struct {
	// DebounceDelay is how long rescans wait to coalesce notifications.
	DebounceDelay time.Duration

	// ContextLines is the minimum context padding around hunks.
	ContextLines uint32

	// IgnorePatterns are paths excluded from rescans.
	IgnorePatterns []string

	// Logger receives controller and pipeline logs.
	Logger *logging.Logger
}

// rootState is the per-root reconciliation state: the last-applied path
// ordering and the Changes records it refers to.
type rootState struct {
	id           project.RootID
	path         string
	source       Source
	order        []Entry
	changes      map[project.FileID]*Changes
	bootstrapped bool

	// gen increments when a rescan pass starts; a pass whose generation
	// is no longer current discards its result instead of applying it.
	gen uint64
}

// ProjectDiff owns the merged diff document and keeps it synchronized
// with per-root change snapshots. All state mutation is serialized on one
// mutex; background pipelines only touch shared state through it.
type ProjectDiff struct {
	mu     sync.Mutex
	roots  map[project.RootID]*rootState
	closed bool

	doc    *merged.Document
	rec    *Reconciler
	store  *project.BufferStore
	sched  *scheduler
	ignore *watcher.IgnoreMatcher
	log    *logging.Logger
}

// NewProjectDiff creates a controller over the given buffer store.
func NewProjectDiff(cfg Config, store *project.BufferStore) *ProjectDiff {
	log := cfg.Logger
	if log == nil {
		log = logging.NullLogger
	}

	doc := merged.NewDocument()
	pd := &ProjectDiff{
		roots:  make(map[project.RootID]*rootState),
		doc:    doc,
		rec:    NewReconciler(doc, cfg.ContextLines, log),
		store:  store,
		ignore: watcher.NewIgnoreMatcher(cfg.IgnorePatterns),
		log:    log.WithComponent("projectdiff"),
	}
	pd.sched = newScheduler(cfg.DebounceDelay, func(id project.RootID) {
		pd.rescan(id, make(chan struct{}))
	})
	return pd
}

// Document returns the merged diff document for read-only iteration.
func (pd *ProjectDiff) Document() *merged.Document {
	return pd.doc
}

// AddRoot starts tracking a root and schedules its first rescan.
func (pd *ProjectDiff) AddRoot(path string, src Source) project.RootID {
	id := project.NewRootID()

	pd.mu.Lock()
	pd.roots[id] = &rootState{
		id:      id,
		path:    path,
		source:  src,
		changes: make(map[project.FileID]*Changes),
	}
	pd.mu.Unlock()

	pd.log.Info("tracking root %s", path)
	pd.sched.notify(id)
	return id
}

// RemoveRoot evicts all state for a root synchronously: its pending
// rescan, its excerpts, and its buffer references. Never debounced.
func (pd *ProjectDiff) RemoveRoot(id project.RootID) {
	pd.sched.cancel(id)
	pd.evictRoot(id)
}

// Notify records that a root needs rescanning, debounced and coalesced.
func (pd *ProjectDiff) Notify(id project.RootID) {
	pd.sched.notify(id)
}

// HandleEvent routes a project event: removal and shutdown evict
// synchronously, everything else requests a rescan.
func (pd *ProjectDiff) HandleEvent(ev project.Event) {
	switch ev.Kind {
	case project.EventRootRemoved:
		pd.RemoveRoot(ev.Root)
	case project.EventClosed:
		pd.Close()
	default:
		pd.Notify(ev.Root)
	}
}

// HasChanges reports whether any tracked root currently has changed
// files.
func (pd *ProjectDiff) HasChanges() bool {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	for _, root := range pd.roots {
		if len(root.changes) > 0 {
			return true
		}
	}
	return false
}

// Roots returns the IDs of all tracked roots.
func (pd *ProjectDiff) Roots() []project.RootID {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	ids := make([]project.RootID, 0, len(pd.roots))
	for id := range pd.roots {
		ids = append(ids, id)
	}
	return ids
}

// Close evicts every root and stops the scheduler.
func (pd *ProjectDiff) Close() {
	pd.sched.close()

	pd.mu.Lock()
	pd.closed = true
	ids := make([]project.RootID, 0, len(pd.roots))
	for id := range pd.roots {
		ids = append(ids, id)
	}
	pd.mu.Unlock()

	for _, id := range ids {
		pd.evictRoot(id)
	}
}

// evictRoot drops a root's excerpts, buffer references and state.
func (pd *ProjectDiff) evictRoot(id project.RootID) {
	pd.mu.Lock()
	root, ok := pd.roots[id]
	if !ok {
		pd.mu.Unlock()
		return
	}
	delete(pd.roots, id)

	var excerptIDs []merged.ExcerptID
	for _, c := range root.changes {
		for _, info := range pd.doc.ExcerptsForBuffer(c.Buffer()) {
			excerptIDs = append(excerptIDs, info.ID)
		}
	}
	pd.doc.RemoveExcerpts(excerptIDs...)
	old := root.changes
	path := root.path
	pd.mu.Unlock()

	for _, c := range old {
		c.release()
	}
	pd.log.Info("evicted root %s", path)
}
