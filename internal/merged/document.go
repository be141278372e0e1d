package merged

import (
	"strings"
	"sync"

	"github.com/dshills/diffview/internal/engine/buffer"
)

// Document is the merged diff view: an ordered sequence of excerpts drawn
// from many source buffers. A document has a single owner; mutation is
// serialized by that owner, but reads are safe from any goroutine.
type Document struct {
	mu       sync.Mutex
	excerpts []*Excerpt
	byID     map[ExcerptID]*Excerpt
	nextID   ExcerptID
}

// NewDocument creates an empty merged document.
func NewDocument() *Document {
	return &Document{
		byID: make(map[ExcerptID]*Excerpt),
	}
}

// Len returns the number of excerpts.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.excerpts)
}

// Excerpts returns the excerpts in document order.
func (d *Document) Excerpts() []*Excerpt {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Excerpt, len(d.excerpts))
	copy(out, d.excerpts)
	return out
}

// LastExcerptID returns the ID of the last excerpt, or ExcerptNone for an
// empty document.
func (d *Document) LastExcerptID() ExcerptID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.excerpts) == 0 {
		return ExcerptNone
	}
	return d.excerpts[len(d.excerpts)-1].id
}

// InsertExcerptsAfter inserts one excerpt per range immediately after the
// excerpt identified by after, preserving the given order. ExcerptNone
// inserts before the first excerpt; an unknown ID appends at the end.
// Context rows are clipped to the buffer bounds. The document retains one
// buffer reference per inserted excerpt. Returns the new IDs in order.
func (d *Document) InsertExcerptsAfter(after ExcerptID, handle Handle, ranges []ExcerptRange) []ExcerptID {
	if len(ranges) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf := handle.Buffer()
	lineCount := buf.LineCount()

	added := make([]*Excerpt, 0, len(ranges))
	ids := make([]ExcerptID, 0, len(ranges))
	for _, r := range ranges {
		ctx := clipRows(r.Context, lineCount)
		d.nextID++
		e := &Excerpt{
			id:      d.nextID,
			handle:  handle,
			context: buf.AnchorRowRange(ctx),
			primary: buf.AnchorRowRange(clipRows(r.Primary, lineCount)),
		}
		handle.Retain()
		d.byID[e.id] = e
		added = append(added, e)
		ids = append(ids, e.id)
	}

	pos := d.insertPosLocked(after)
	d.excerpts = append(d.excerpts[:pos], append(added, d.excerpts[pos:]...)...)
	return ids
}

// insertPosLocked returns the slice index at which excerpts anchored
// after the given ID should be placed.
func (d *Document) insertPosLocked(after ExcerptID) int {
	if after == ExcerptNone {
		return 0
	}
	for i, e := range d.excerpts {
		if e.id == after {
			return i + 1
		}
	}
	return len(d.excerpts)
}

// RemoveExcerpts removes the identified excerpts, releasing their anchors
// and their buffer references. Unknown IDs are ignored. The relative order
// of the remaining excerpts is unchanged.
func (d *Document) RemoveExcerpts(ids ...ExcerptID) {
	if len(ids) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	removing := make(map[ExcerptID]bool, len(ids))
	for _, id := range ids {
		if _, ok := d.byID[id]; ok {
			removing[id] = true
		}
	}
	if len(removing) == 0 {
		return
	}

	kept := d.excerpts[:0]
	for _, e := range d.excerpts {
		if !removing[e.id] {
			kept = append(kept, e)
			continue
		}
		buf := e.handle.Buffer()
		buf.ReleaseRange(e.context)
		buf.ReleaseRange(e.primary)
		e.handle.Release()
		delete(d.byID, e.id)
	}
	d.excerpts = kept
}

// ExpandExcerpts grows the context range of each identified excerpt by
// lines rows in the given direction, clipped to the buffer bounds.
// Unknown IDs are ignored.
func (d *Document) ExpandExcerpts(ids []ExcerptID, lines uint32, dir ExpandDirection) {
	if lines == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		e, ok := d.byID[id]
		if !ok {
			continue
		}

		buf := e.handle.Buffer()
		snap := buf.Snapshot()
		rows := snap.RowSpan(e.context)

		if dir == ExpandUp || dir == ExpandUpAndDown {
			if rows.Start > lines {
				rows.Start -= lines
			} else {
				rows.Start = 0
			}
		}
		if dir == ExpandDown || dir == ExpandUpAndDown {
			rows.End += lines
			if rows.End > snap.LineCount() {
				rows.End = snap.LineCount()
			}
		}

		buf.ReleaseRange(e.context)
		e.context = buf.AnchorRowRange(rows)
	}
}

// ExcerptInfo pairs an excerpt ID with its context range.
type ExcerptInfo struct {
	ID      ExcerptID
	Context buffer.AnchorRange
}

// ExcerptsForBuffer returns the excerpts windowing into buf, in document
// order.
func (d *Document) ExcerptsForBuffer(buf *buffer.Buffer) []ExcerptInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []ExcerptInfo
	for _, e := range d.excerpts {
		if e.handle.Buffer() == buf {
			out = append(out, ExcerptInfo{ID: e.id, Context: e.context})
		}
	}
	return out
}

// Buffers returns each distinct source buffer currently represented by at
// least one excerpt, in first-appearance order.
func (d *Document) Buffers() []*buffer.Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[*buffer.Buffer]bool)
	var out []*buffer.Buffer
	for _, e := range d.excerpts {
		buf := e.handle.Buffer()
		if !seen[buf] {
			seen[buf] = true
			out = append(out, buf)
		}
	}
	return out
}

// PushExcerptsWithContext appends excerpts for the given hunk rows at the
// end of the document, each padded by contextLines rows on both sides and
// clipped to the buffer bounds. Hunks whose padded contexts overlap or
// touch are merged into a single excerpt. Returns the new IDs.
func (d *Document) PushExcerptsWithContext(handle Handle, hunks []buffer.RowRange, contextLines uint32) []ExcerptID {
	ranges := ContextRanges(hunks, contextLines, handle.Buffer().LineCount())
	return d.InsertExcerptsAfter(d.LastExcerptID(), handle, ranges)
}

// Text renders the document as the concatenation of excerpt context texts,
// each terminated by a newline.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, e := range d.Excerpts() {
		text := e.Text()
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ContextRanges pads each hunk by contextLines rows on both sides, clips
// to lineCount, and merges padded ranges that overlap or touch. Each
// returned range carries the union of its hunks as the primary range.
func ContextRanges(hunks []buffer.RowRange, contextLines uint32, lineCount uint32) []ExcerptRange {
	var out []ExcerptRange
	for _, h := range hunks {
		ctx := padRows(h, contextLines, lineCount)
		if n := len(out); n > 0 && ctx.Start <= out[n-1].Context.End {
			// Touching or overlapping contexts become one excerpt.
			if ctx.End > out[n-1].Context.End {
				out[n-1].Context.End = ctx.End
			}
			if h.End > out[n-1].Primary.End {
				out[n-1].Primary.End = h.End
			}
			continue
		}
		out = append(out, ExcerptRange{Context: ctx, Primary: h})
	}
	return out
}

// padRows grows r by pad rows on each side, clipped to [0, lineCount].
func padRows(r buffer.RowRange, pad, lineCount uint32) buffer.RowRange {
	start := uint32(0)
	if r.Start > pad {
		start = r.Start - pad
	}
	end := r.End + pad
	if end > lineCount {
		end = lineCount
	}
	return buffer.RowRange{Start: start, End: end}
}

// clipRows clips r to [0, lineCount].
func clipRows(r buffer.RowRange, lineCount uint32) buffer.RowRange {
	if r.End > lineCount {
		r.End = lineCount
	}
	if r.Start > r.End {
		r.Start = r.End
	}
	return r
}
