package projectdiff

import (
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/diffview/internal/engine/buffer"
	"github.com/dshills/diffview/internal/engine/diff"
	"github.com/dshills/diffview/internal/project"
)

// DefaultDebounceDelay is how long a root's rescan waits for further
// notifications before starting.
const DefaultDebounceDelay = 50 * time.Millisecond

// loadParallelism bounds concurrent buffer loads during a rescan.
const loadParallelism = 8

// scheduler debounces and coalesces rescans per root: at most one
// pending timer per root, and re-arming replaces the previous one.
type scheduler struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[project.RootID]*time.Timer
	run    func(project.RootID)
	closed bool
}

func newScheduler(delay time.Duration, run func(project.RootID)) *scheduler {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &scheduler{
		delay:  delay,
		timers: make(map[project.RootID]*time.Timer),
		run:    run,
	}
}

// notify schedules a rescan for the root, replacing any pending
// not-yet-started one.
func (s *scheduler) notify(id project.RootID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		closed := s.closed
		s.mu.Unlock()
		if !closed {
			s.run(id)
		}
	})
}

// cancel drops any pending rescan for the root.
func (s *scheduler) cancel(id project.RootID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// close stops all pending timers and rejects further notifications.
func (s *scheduler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Rescan runs the rescan pipeline for one root immediately, bypassing the
// debounce. The returned channel closes when the pass is fully complete,
// including post-apply diff recalculations.
func (pd *ProjectDiff) Rescan(id project.RootID) <-chan struct{} {
	done := make(chan struct{})
	go pd.rescan(id, done)
	return done
}

// rescan is the background pipeline for one pass: enumerate changed
// files, load buffers in parallel, extract hunks, sort by path, then
// deliver to the reconciler on the single-writer side.
func (pd *ProjectDiff) rescan(id project.RootID, done chan struct{}) {
	defer close(done)

	pd.mu.Lock()
	root, ok := pd.roots[id]
	if !ok || pd.closed {
		pd.mu.Unlock()
		return
	}
	root.gen++
	gen := root.gen
	src := root.source
	rootPath := root.path
	pd.mu.Unlock()

	files, err := src.Changes()
	if err != nil {
		pd.log.Error("rescan of %s failed: %v", rootPath, err)
		return
	}

	entries := make([]Entry, 0, len(files))
	changes := make(map[project.FileID]*Changes, len(files))
	var cmu sync.Mutex

	var g errgroup.Group
	g.SetLimit(loadParallelism)
	for _, fc := range files {
		if pd.ignore.Match(fc.Path) {
			continue
		}
		fc := fc
		g.Go(func() error {
			abs := filepath.Join(rootPath, fc.Path)
			handle, err := pd.store.Acquire(abs)
			if err != nil {
				// Load failures drop the file from this pass only.
				pd.log.Warn("skipping %s: %v", fc.Path, err)
				return nil
			}
			// A buffer opened on an earlier pass may be stale on disk.
			if err := pd.store.Sync(abs); err != nil {
				pd.log.Warn("skipping %s: %v", fc.Path, err)
				handle.Release()
				return nil
			}
			state := diff.NewState(handle.Buffer(), fc.Baseline)

			cmu.Lock()
			entries = append(entries, Entry{Path: fc.Path, FileID: handle.FileID()})
			changes[handle.FileID()] = &Changes{
				Status: fc.Status,
				Handle: handle,
				Diff:   state,
			}
			cmu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	SortEntries(entries)

	// Single-writer apply, with a liveness check: the root may have been
	// removed, or a newer pass may have started, while the pipeline ran.
	// A stale pass must never overwrite a newer one's result.
	pd.mu.Lock()
	root, ok = pd.roots[id]
	if !ok || pd.closed || root.gen != gen {
		pd.mu.Unlock()
		for _, c := range changes {
			c.release()
		}
		return
	}

	stats := pd.rec.Reconcile(root.order, root.changes, entries, changes, root.bootstrapped)
	old := root.changes
	root.order = entries
	root.changes = changes
	root.bootstrapped = true
	pd.mu.Unlock()

	for _, c := range old {
		c.release()
	}

	pd.log.Debug("rescan of %s: %d files, +%d -%d ~%d excerpts",
		rootPath, len(entries), stats.Inserted, stats.Removed, stats.Expanded)

	pd.recalculateOpenDiffs()
}

// recalculateOpenDiffs refreshes hunks for every buffer currently in the
// merged document and joins all completions. This covers buffers whose
// on-disk state changed underneath an already-open excerpt.
func (pd *ProjectDiff) recalculateOpenDiffs() {
	pd.mu.Lock()
	inDoc := make(map[*buffer.Buffer]bool)
	for _, buf := range pd.doc.Buffers() {
		inDoc[buf] = true
	}
	var states []*diff.State
	for _, root := range pd.roots {
		for _, c := range root.changes {
			if inDoc[c.Buffer()] {
				states = append(states, c.Diff)
			}
		}
	}
	pd.mu.Unlock()

	pending := make([]<-chan struct{}, 0, len(states))
	for _, st := range states {
		pending = append(pending, st.Recalculate())
	}
	for _, ch := range pending {
		<-ch
	}
}
