package merged

import "github.com/dshills/diffview/internal/engine/buffer"

// ExcerptID identifies an excerpt within a document. IDs are never reused.
type ExcerptID uint64

// ExcerptNone is the zero ExcerptID. Passed as an insertion anchor it
// means "before the first excerpt".
const ExcerptNone ExcerptID = 0

// ExpandDirection selects which edge of an excerpt grows on expansion.
type ExpandDirection int

const (
	// ExpandUp grows the excerpt toward the buffer start.
	ExpandUp ExpandDirection = iota
	// ExpandDown grows the excerpt toward the buffer end.
	ExpandDown
	// ExpandUpAndDown grows both edges.
	ExpandUpAndDown
)

// String returns the string representation of an ExpandDirection.
func (d ExpandDirection) String() string {
	switch d {
	case ExpandUp:
		return "up"
	case ExpandDown:
		return "down"
	case ExpandUpAndDown:
		return "up-and-down"
	default:
		return "unknown"
	}
}

// Handle is a releasable reference to a shared source buffer. The document
// retains one reference per excerpt and releases it when the excerpt is
// removed; it never owns buffer teardown itself.
type Handle interface {
	Buffer() *buffer.Buffer
	Retain()
	Release()
}

// ExcerptRange describes one excerpt to insert: the context rows to show
// and the primary changed rows within them.
type ExcerptRange struct {
	Context buffer.RowRange
	Primary buffer.RowRange
}

// Excerpt is one window into a source buffer. Its ranges are anchor pairs,
// so they stay meaningful while the buffer is edited.
type Excerpt struct {
	id      ExcerptID
	handle  Handle
	context buffer.AnchorRange
	primary buffer.AnchorRange
}

// ID returns the excerpt's identifier.
func (e *Excerpt) ID() ExcerptID {
	return e.id
}

// Buffer returns the source buffer this excerpt windows into.
func (e *Excerpt) Buffer() *buffer.Buffer {
	return e.handle.Buffer()
}

// Handle returns the buffer handle backing this excerpt.
func (e *Excerpt) Handle() Handle {
	return e.handle
}

// Context returns the padded context range.
func (e *Excerpt) Context() buffer.AnchorRange {
	return e.context
}

// Primary returns the strict changed range within the context.
func (e *Excerpt) Primary() buffer.AnchorRange {
	return e.primary
}

// ContextRows resolves the context range to rows against snap.
func (e *Excerpt) ContextRows(snap *buffer.Snapshot) buffer.RowRange {
	return snap.RowSpan(e.context)
}

// Text returns the excerpt's current context text.
func (e *Excerpt) Text() string {
	snap := e.handle.Buffer().Snapshot()
	r := snap.Resolve(e.context)
	return snap.TextRange(r.Start, r.End)
}
