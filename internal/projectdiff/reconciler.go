package projectdiff

import (
	"sort"

	"github.com/dshills/diffview/internal/engine/buffer"
	"github.com/dshills/diffview/internal/logging"
	"github.com/dshills/diffview/internal/merged"
	"github.com/dshills/diffview/internal/project"
)

// DefaultContextLines is the minimum context padding around a hunk.
const DefaultContextLines uint32 = 3

// Stats counts the operations one reconciliation applied.
type Stats struct {
	Inserted int
	Removed  int
	Expanded int
}

// Empty reports whether the reconciliation changed nothing.
func (s Stats) Empty() bool {
	return s.Inserted == 0 && s.Removed == 0 && s.Expanded == 0
}

// Reconciler transforms (old ordering, old excerpts) and (new ordering,
// new changes) into a minimal edit script against the merged document,
// preserving excerpt identity wherever the underlying hunks are unchanged.
// It must only run on the single-writer side.
type Reconciler struct {
	doc          *merged.Document
	contextLines uint32
	log          *logging.Logger
}

// NewReconciler creates a reconciler mutating doc with the given minimum
// context padding.
func NewReconciler(doc *merged.Document, contextLines uint32, log *logging.Logger) *Reconciler {
	if contextLines == 0 {
		contextLines = DefaultContextLines
	}
	if log == nil {
		log = logging.NullLogger
	}
	return &Reconciler{
		doc:          doc,
		contextLines: contextLines,
		log:          log.WithComponent("reconciler"),
	}
}

// placementKind classifies a hunk against one excerpt.
type placementKind int

const (
	// placeContained: the excerpt's context covers the hunk on both ends.
	placeContained placementKind = iota
	// placeExpandUp: the hunk extends past the excerpt's start.
	placeExpandUp
	// placeExpandDown: the hunk extends past the excerpt's end.
	placeExpandDown
	// placeExpandBoth: the hunk extends past both edges.
	placeExpandBoth
	// placeDisjoint: the hunk lies wholly beyond the excerpt's far edge.
	placeDisjoint
	// placeNeedsInsertion: the hunk lies wholly before the excerpt.
	placeNeedsInsertion
)

// placement is the tagged classification result for one hunk.
type placement struct {
	kind  placementKind
	lines uint32
}

// classifyHunk compares a hunk's rows against an excerpt's context rows.
// A hunk touching the context boundary counts as contiguous. Expansion
// amounts include the minimum padding beyond the hunk's new edge.
func classifyHunk(hunk, excerpt buffer.RowRange, pad uint32) placement {
	switch {
	case hunk.End < excerpt.Start:
		return placement{kind: placeNeedsInsertion}
	case hunk.Start > excerpt.End:
		return placement{kind: placeDisjoint}
	case hunk.Start >= excerpt.Start && hunk.End <= excerpt.End:
		return placement{kind: placeContained}
	}

	var up, down uint32
	if hunk.Start < excerpt.Start {
		up = excerpt.Start - hunk.Start + pad
	}
	if hunk.End > excerpt.End {
		down = hunk.End - excerpt.End + pad
	}

	switch {
	case up > 0 && down > 0:
		lines := up
		if down > lines {
			lines = down
		}
		return placement{kind: placeExpandBoth, lines: lines}
	case up > 0:
		return placement{kind: placeExpandUp, lines: up}
	default:
		return placement{kind: placeExpandDown, lines: down}
	}
}

// insertion is one queued excerpt insertion for a file.
type insertion struct {
	path   string
	handle *project.Handle
	ranges []merged.ExcerptRange
}

// expansion is one queued boundary expansion.
type expansion struct {
	id    merged.ExcerptID
	lines uint32
	dir   merged.ExpandDirection
}

// editScript accumulates the operations to apply in one transaction.
// Insertions are grouped by anchor excerpt; within a group files stay
// path-sorted so batched inserts preserve global path order.
type editScript struct {
	groups     map[merged.ExcerptID][]insertion
	groupOrder []merged.ExcerptID
	removals   []merged.ExcerptID
	expansions []expansion
}

func newEditScript() *editScript {
	return &editScript{groups: make(map[merged.ExcerptID][]insertion)}
}

// queueInsertion adds an insertion to its anchor group at the position
// that keeps the group sorted by path.
func (es *editScript) queueInsertion(after merged.ExcerptID, ins insertion) {
	group, ok := es.groups[after]
	if !ok {
		es.groupOrder = append(es.groupOrder, after)
	}
	pos := sort.Search(len(group), func(i int) bool {
		return ComparePaths(group[i].path, ins.path) > 0
	})
	group = append(group, insertion{})
	copy(group[pos+1:], group[pos:])
	group[pos] = ins
	es.groups[after] = group
}

// Reconcile updates the merged document from the previous snapshot to the
// new one. Both orders must be path-sorted. bootstrapped is false on the
// first reconciliation for a root, which skips the merge machinery and
// appends everything. Returns the applied operation counts.
func (r *Reconciler) Reconcile(
	prevOrder []Entry,
	prevChanges map[project.FileID]*Changes,
	newOrder []Entry,
	newChanges map[project.FileID]*Changes,
	bootstrapped bool,
) Stats {
	if !bootstrapped {
		return r.bootstrap(newOrder, newChanges)
	}

	es := newEditScript()
	latest := merged.ExcerptNone

	// Merge-join over the two path-sorted orders.
	i, j := 0, 0
	for i < len(prevOrder) || j < len(newOrder) {
		var cmp int
		switch {
		case i >= len(prevOrder):
			cmp = 1
		case j >= len(newOrder):
			cmp = -1
		default:
			cmp = ComparePaths(prevOrder[i].Path, newOrder[j].Path)
		}

		switch {
		case cmp < 0:
			// The file left the snapshot: every excerpt of its buffer goes.
			if old := prevChanges[prevOrder[i].FileID]; old != nil {
				infos := r.doc.ExcerptsForBuffer(old.Buffer())
				for _, info := range infos {
					es.removals = append(es.removals, info.ID)
				}
				if n := len(infos); n > 0 {
					latest = infos[n-1].ID
				}
			}
			i++

		case cmp > 0:
			// A wholly new file: queue its hunks after the last excerpt seen.
			if ch := newChanges[newOrder[j].FileID]; ch != nil {
				if ranges := r.excerptRanges(ch); len(ranges) > 0 {
					es.queueInsertion(latest, insertion{
						path:   newOrder[j].Path,
						handle: ch.Handle,
						ranges: ranges,
					})
				}
			}
			j++

		default:
			old := prevChanges[prevOrder[i].FileID]
			ch := newChanges[newOrder[j].FileID]
			if ch != nil {
				latest = r.reconcileFile(newOrder[j].Path, old, ch, latest, es)
			}
			i++
			j++
		}
	}

	return r.apply(es)
}

// bootstrap appends excerpts for every file with hunks, in path order,
// with symmetric context padding.
func (r *Reconciler) bootstrap(newOrder []Entry, newChanges map[project.FileID]*Changes) Stats {
	var stats Stats
	for _, entry := range newOrder {
		ch := newChanges[entry.FileID]
		if ch == nil {
			continue
		}
		snap := ch.Buffer().Snapshot()
		rows := resolveHunkRows(snap, ch.Hunks())
		if len(rows) == 0 {
			continue
		}
		ids := r.doc.PushExcerptsWithContext(ch.Handle, rows, r.contextLines)
		stats.Inserted += len(ids)
	}
	return stats
}

// reconcileFile handles the equal-path branch: diff the old hunk list
// against the new one, classify changed and new hunks against the file's
// current excerpts, and queue the resulting operations. Returns the new
// latest excerpt position.
func (r *Reconciler) reconcileFile(path string, old, ch *Changes, latest merged.ExcerptID, es *editScript) merged.ExcerptID {
	buf := ch.Buffer()
	snap := buf.Snapshot()

	var oldRows []buffer.RowRange
	if old != nil {
		oldRows = resolveHunkRows(snap, old.Hunks())
	}
	newRows := resolveHunkRows(snap, ch.Hunks())

	// Hunk diff: identical endpoints mean unchanged; everything else is
	// changed or new and needs boundary reconciliation.
	var unchanged, pending []buffer.RowRange
	oi := 0
	for _, rows := range newRows {
		for oi < len(oldRows) && rowLess(oldRows[oi], rows) {
			oi++
		}
		if oi < len(oldRows) && oldRows[oi] == rows {
			unchanged = append(unchanged, rows)
			oi++
		} else {
			pending = append(pending, rows)
		}
	}

	infos := r.doc.ExcerptsForBuffer(buf)
	ctxRows := make([]buffer.RowRange, len(infos))
	for k, info := range infos {
		ctxRows[k] = snap.RowSpan(info.Context)
	}
	touched := make([]bool, len(infos))

	lineCount := snap.LineCount()
	ei := 0
	for _, hunk := range pending {
		placed := false
		for !placed {
			if ei >= len(infos) {
				es.queueInsertion(latest, insertion{
					path:   path,
					handle: ch.Handle,
					ranges: merged.ContextRanges([]buffer.RowRange{hunk}, r.contextLines, lineCount),
				})
				placed = true
				continue
			}

			p := classifyHunk(hunk, ctxRows[ei], r.contextLines)
			switch p.kind {
			case placeNeedsInsertion:
				es.queueInsertion(latest, insertion{
					path:   path,
					handle: ch.Handle,
					ranges: merged.ContextRanges([]buffer.RowRange{hunk}, r.contextLines, lineCount),
				})
				placed = true

			case placeDisjoint:
				latest = infos[ei].ID
				ei++

			case placeContained:
				touched[ei] = true
				latest = infos[ei].ID
				placed = true

			case placeExpandUp, placeExpandDown, placeExpandBoth:
				dir := merged.ExpandUp
				switch p.kind {
				case placeExpandDown:
					dir = merged.ExpandDown
				case placeExpandBoth:
					dir = merged.ExpandUpAndDown
				}
				es.expansions = append(es.expansions, expansion{
					id:    infos[ei].ID,
					lines: p.lines,
					dir:   dir,
				})
				ctxRows[ei] = growRows(ctxRows[ei], p.lines, dir, lineCount)
				touched[ei] = true
				latest = infos[ei].ID
				placed = true
			}
		}
	}

	// Excerpts never touched and covering no unchanged hunk are stale.
	for k, info := range infos {
		if touched[k] {
			continue
		}
		keep := false
		for _, u := range unchanged {
			if rowsTouch(ctxRows[k], u) {
				keep = true
				break
			}
		}
		if !keep {
			es.removals = append(es.removals, info.ID)
		}
	}

	if n := len(infos); n > 0 {
		latest = infos[n-1].ID
	}
	return latest
}

// apply performs the edit script in one pass: insertions first so that
// anchor references stay valid, then removals, then expansions.
func (r *Reconciler) apply(es *editScript) Stats {
	var stats Stats

	for _, anchor := range es.groupOrder {
		after := anchor
		for _, ins := range es.groups[anchor] {
			ids := r.doc.InsertExcerptsAfter(after, ins.handle, ins.ranges)
			stats.Inserted += len(ids)
			if n := len(ids); n > 0 {
				after = ids[n-1]
			}
		}
	}

	r.doc.RemoveExcerpts(es.removals...)
	stats.Removed = len(es.removals)

	for _, ex := range es.expansions {
		r.doc.ExpandExcerpts([]merged.ExcerptID{ex.id}, ex.lines, ex.dir)
	}
	stats.Expanded = len(es.expansions)

	if !stats.Empty() {
		r.log.Debug("applied %d insertions, %d removals, %d expansions",
			stats.Inserted, stats.Removed, stats.Expanded)
	}
	return stats
}

// excerptRanges computes padded excerpt ranges for a file's hunks.
func (r *Reconciler) excerptRanges(ch *Changes) []merged.ExcerptRange {
	snap := ch.Buffer().Snapshot()
	rows := resolveHunkRows(snap, ch.Hunks())
	if len(rows) == 0 {
		return nil
	}
	return merged.ContextRanges(rows, r.contextLines, snap.LineCount())
}

// resolveHunkRows resolves hunk anchors to row ranges against snap.
func resolveHunkRows(snap *buffer.Snapshot, hunks []buffer.AnchorRange) []buffer.RowRange {
	rows := make([]buffer.RowRange, 0, len(hunks))
	for _, h := range hunks {
		rows = append(rows, snap.RowSpan(h))
	}
	return rows
}

// rowLess orders row ranges by start, then end.
func rowLess(a, b buffer.RowRange) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}

// rowsTouch reports whether two row ranges overlap or share a boundary.
func rowsTouch(a, b buffer.RowRange) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// growRows widens rows by lines in the given direction, clipped to the
// buffer. Mirrors what the document's expand operation will do.
func growRows(rows buffer.RowRange, lines uint32, dir merged.ExpandDirection, lineCount uint32) buffer.RowRange {
	if dir == merged.ExpandUp || dir == merged.ExpandUpAndDown {
		if rows.Start > lines {
			rows.Start -= lines
		} else {
			rows.Start = 0
		}
	}
	if dir == merged.ExpandDown || dir == merged.ExpandUpAndDown {
		rows.End += lines
		if rows.End > lineCount {
			rows.End = lineCount
		}
	}
	return rows
}
