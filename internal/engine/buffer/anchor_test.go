package buffer

import "testing"

func TestAnchorSurvivesInsertBefore(t *testing.T) {
	b := NewBufferFromString("hello world")
	a := b.Anchor(6, BiasLeft) // before "world"

	if _, err := b.Insert(0, "say: "); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	snap := b.Snapshot()
	if got := snap.Offset(a); got != 11 {
		t.Errorf("anchor offset = %d, want 11", got)
	}
}

func TestAnchorUnmovedByInsertAfter(t *testing.T) {
	b := NewBufferFromString("hello world")
	a := b.Anchor(5, BiasLeft)

	if _, err := b.Insert(11, "!!!"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	snap := b.Snapshot()
	if got := snap.Offset(a); got != 5 {
		t.Errorf("anchor offset = %d, want 5", got)
	}
}

func TestAnchorBiasAtInsertionPoint(t *testing.T) {
	b := NewBufferFromString("ab")
	left := b.Anchor(1, BiasLeft)
	right := b.Anchor(1, BiasRight)

	if _, err := b.Insert(1, "xy"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	snap := b.Snapshot()
	if got := snap.Offset(left); got != 1 {
		t.Errorf("left-biased anchor = %d, want 1", got)
	}
	if got := snap.Offset(right); got != 3 {
		t.Errorf("right-biased anchor = %d, want 3", got)
	}
}

func TestAnchorCollapsesIntoDeletion(t *testing.T) {
	b := NewBufferFromString("0123456789")
	a := b.Anchor(5, BiasLeft)

	if err := b.Delete(3, 8); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	snap := b.Snapshot()
	if got := snap.Offset(a); got != 3 {
		t.Errorf("anchor offset = %d, want 3", got)
	}
}

func TestAnchorAfterDeletionShifts(t *testing.T) {
	b := NewBufferFromString("0123456789")
	a := b.Anchor(8, BiasLeft)

	if err := b.Delete(0, 4); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	snap := b.Snapshot()
	if got := snap.Offset(a); got != 4 {
		t.Errorf("anchor offset = %d, want 4", got)
	}
}

func TestReleasedAnchorDoesNotResolve(t *testing.T) {
	b := NewBufferFromString("text")
	a := b.Anchor(2, BiasLeft)
	b.Release(a)

	snap := b.Snapshot()
	if got := snap.Offset(a); got != -1 {
		t.Errorf("released anchor should resolve to -1, got %d", got)
	}
}

func TestReleasedAnchorResolvesToZeroPoint(t *testing.T) {
	b := NewBufferFromString("one\ntwo\nthree")
	r := b.AnchorRowRange(RowRange{Start: 1, End: 2})
	b.ReleaseRange(r)

	snap := b.Snapshot()
	if got := snap.Point(r.Start); got != (Point{}) {
		t.Errorf("released anchor point = %v, want zero Point", got)
	}
	if got := snap.RowSpan(r); got.Start != 0 || got.End != 0 {
		t.Errorf("released RowSpan = %v, want empty rows[0:0)", got)
	}
}

func TestSnapshotCompare(t *testing.T) {
	b := NewBufferFromString("abcdef")
	a1 := b.Anchor(1, BiasLeft)
	a2 := b.Anchor(4, BiasLeft)

	snap := b.Snapshot()
	if snap.Compare(a1, a2) != -1 {
		t.Error("expected a1 < a2")
	}
	if snap.Compare(a2, a1) != 1 {
		t.Error("expected a2 > a1")
	}
	if snap.Compare(a1, a1) != 0 {
		t.Error("expected a1 == a1")
	}
}

func TestAnchorRangeGrowsWithBoundaryInserts(t *testing.T) {
	b := NewBufferFromString("aaabbbccc")
	r := b.AnchorRange(Range{Start: 3, End: 6}) // "bbb"

	// Insert at both boundaries: left-biased start stays, right-biased end moves.
	if _, err := b.Insert(6, "BB"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := b.Insert(3, "AA"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	snap := b.Snapshot()
	got := snap.Resolve(r)
	if got.Start != 3 || got.End != 10 {
		t.Errorf("range = %v, want [3:10)", got)
	}
}

func TestAnchorRowRange(t *testing.T) {
	b := NewBufferFromString("one\ntwo\nthree\nfour")
	r := b.AnchorRowRange(RowRange{Start: 1, End: 3})

	snap := b.Snapshot()
	if got := snap.RowSpan(r); got.Start != 1 || got.End != 3 {
		t.Errorf("RowSpan = %v, want rows[1:3)", got)
	}
}

func TestAnchorRowRangeAtBufferEnd(t *testing.T) {
	b := NewBufferFromString("one\ntwo")
	r := b.AnchorRowRange(RowRange{Start: 1, End: 2})

	snap := b.Snapshot()
	if got := snap.RowSpan(r); got.Start != 1 || got.End != 2 {
		t.Errorf("RowSpan = %v, want rows[1:2)", got)
	}
}

func TestRowSpanTracksEdits(t *testing.T) {
	b := NewBufferFromString("one\ntwo\nthree")
	r := b.AnchorRowRange(RowRange{Start: 2, End: 3}) // "three"

	// Prepend two lines; the anchored row should shift down.
	if _, err := b.Insert(0, "zero\nhalf\n"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	snap := b.Snapshot()
	if got := snap.RowSpan(r); got.Start != 4 || got.End != 5 {
		t.Errorf("RowSpan = %v, want rows[4:5)", got)
	}
}
