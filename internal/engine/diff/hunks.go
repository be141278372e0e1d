package diff

import "github.com/dshills/diffview/internal/engine/buffer"

// ChangedRows diffs baseline against current and returns the changed row
// ranges in the current text, ordered by start row and non-overlapping.
// A run of inserted or modified lines yields the rows it occupies; a pure
// deletion yields an empty range at the row where the lines used to be.
// Runs separated only by a shared boundary are already merged: each
// returned range is maximal.
func ChangedRows(baseline, current string) []buffer.RowRange {
	ops := diffLines(splitLines(baseline), splitLines(current))
	if len(ops) == 0 {
		return nil
	}

	var hunks []buffer.RowRange
	row := uint32(0) // current row in the new text
	runStart := int64(-1)

	flush := func() {
		if runStart >= 0 {
			hunks = append(hunks, buffer.RowRange{Start: uint32(runStart), End: row})
			runStart = -1
		}
	}

	for _, op := range ops {
		switch op.kind {
		case opEqual:
			flush()
			row++
		case opInsert:
			if runStart < 0 {
				runStart = int64(row)
			}
			row++
		case opDelete:
			if runStart < 0 {
				runStart = int64(row)
			}
			// Deleted lines occupy no rows in the new text.
		}
	}
	flush()

	return hunks
}

// ChangedRowsInBuffer diffs baseline against a buffer snapshot.
func ChangedRowsInBuffer(baseline string, snap *buffer.Snapshot) []buffer.RowRange {
	return ChangedRows(baseline, snap.Text())
}

// HunksInRowRange filters hunks (anchor ranges, resolved against snap) to
// those intersecting the given row window, preserving order.
func HunksInRowRange(snap *buffer.Snapshot, hunks []buffer.AnchorRange, window buffer.RowRange) []buffer.AnchorRange {
	var out []buffer.AnchorRange
	for _, h := range hunks {
		rows := snap.RowSpan(h)
		if rows.Start >= window.End && !(rows.IsEmpty() && rows.Start == window.End) {
			break
		}
		if rows.End < window.Start {
			continue
		}
		out = append(out, h)
	}
	return out
}
