package diff

import (
	"sync"

	"github.com/dshills/diffview/internal/engine/buffer"
)

// State tracks the diff between a baseline text (typically the committed
// version of a file) and a live buffer. Hunks are stored as anchor ranges
// so they stay meaningful while the buffer is edited; Recalculate refreshes
// them from the current buffer content in the background.
type State struct {
	mu       sync.Mutex
	buf      *buffer.Buffer
	baseline string
	hunks    []buffer.AnchorRange
}

// NewState creates diff state for a buffer against the given baseline.
// The initial hunk set is computed synchronously.
func NewState(buf *buffer.Buffer, baseline string) *State {
	s := &State{buf: buf, baseline: baseline}
	s.recalculate()
	return s
}

// Buffer returns the buffer this state tracks.
func (s *State) Buffer() *buffer.Buffer {
	return s.buf
}

// SetBaseline replaces the baseline text. Hunks are stale until the next
// Recalculate.
func (s *State) SetBaseline(baseline string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = baseline
}

// Hunks returns the current hunk anchor ranges, ordered by position.
func (s *State) Hunks() []buffer.AnchorRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]buffer.AnchorRange, len(s.hunks))
	copy(out, s.hunks)
	return out
}

// HunkRows resolves the current hunks to row ranges against snap.
func (s *State) HunkRows(snap *buffer.Snapshot) []buffer.RowRange {
	hunks := s.Hunks()
	rows := make([]buffer.RowRange, len(hunks))
	for i, h := range hunks {
		rows[i] = snap.RowSpan(h)
	}
	return rows
}

// Recalculate recomputes hunks from the current buffer content in the
// background. The returned channel closes when the recalculation is done.
func (s *State) Recalculate() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.recalculate()
	}()
	return done
}

// Release frees the state's hunk anchors. The state must not be used
// afterwards.
func (s *State) Release() {
	s.mu.Lock()
	old := s.hunks
	s.hunks = nil
	s.mu.Unlock()

	for _, h := range old {
		s.buf.ReleaseRange(h)
	}
}

// recalculate diffs the baseline against a fresh snapshot and re-anchors
// the hunk set.
func (s *State) recalculate() {
	s.mu.Lock()
	baseline := s.baseline
	old := s.hunks
	s.mu.Unlock()

	snap := s.buf.Snapshot()
	rows := ChangedRows(baseline, snap.Text())

	hunks := make([]buffer.AnchorRange, 0, len(rows))
	for _, r := range rows {
		hunks = append(hunks, s.buf.AnchorRowRange(r))
	}

	s.mu.Lock()
	s.hunks = hunks
	s.mu.Unlock()

	for _, h := range old {
		s.buf.ReleaseRange(h)
	}
}
