package buffer

// AnchorID identifies a registered anchor within its owning buffer.
type AnchorID uint64

// Bias controls how an anchor behaves when text is inserted exactly at
// its position: a left-biased anchor stays before the insertion, a
// right-biased anchor moves after it.
type Bias uint8

const (
	// BiasLeft keeps the anchor before text inserted at its position.
	BiasLeft Bias = iota
	// BiasRight moves the anchor after text inserted at its position.
	BiasRight
)

// Anchor is an edit-stable position in a buffer. It remains valid across
// edits: the owning buffer shifts it on every mutation. An Anchor is
// resolved to a concrete offset or point against a Snapshot.
// The zero Anchor is invalid.
type Anchor struct {
	id AnchorID
}

// IsValid returns true if the anchor was created by a buffer.
func (a Anchor) IsValid() bool {
	return a.id != 0
}

// anchorState is the buffer-side record backing an Anchor.
type anchorState struct {
	offset ByteOffset
	bias   Bias
}

// Anchor registers a new anchor at the given byte offset.
// The offset is clamped to the buffer bounds.
func (b *Buffer) Anchor(offset ByteOffset, bias Bias) Anchor {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if offset > ByteOffset(len(b.text)) {
		offset = ByteOffset(len(b.text))
	}

	b.nextAnchor++
	id := b.nextAnchor
	b.anchors[id] = &anchorState{offset: offset, bias: bias}
	return Anchor{id: id}
}

// AnchorAtPoint registers a new anchor at the given line/column position.
func (b *Buffer) AnchorAtPoint(point Point, bias Bias) Anchor {
	b.mu.RLock()
	offset := pointToOffset(b.text, b.lineStarts, point)
	b.mu.RUnlock()
	return b.Anchor(offset, bias)
}

// Release removes anchors from the buffer's tracking table.
// Released anchors no longer resolve against future snapshots.
func (b *Buffer) Release(anchors ...Anchor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range anchors {
		delete(b.anchors, a.id)
	}
}

// AnchorRange is a pair of anchors marking an edit-stable span.
// The start is left-biased and the end right-biased, so text inserted
// exactly at either boundary grows the span rather than escaping it.
type AnchorRange struct {
	Start Anchor
	End   Anchor
}

// IsValid returns true if both endpoints are valid anchors.
func (r AnchorRange) IsValid() bool {
	return r.Start.IsValid() && r.End.IsValid()
}

// AnchorRange registers an anchor pair spanning the given byte range.
func (b *Buffer) AnchorRange(r Range) AnchorRange {
	return AnchorRange{
		Start: b.Anchor(r.Start, BiasLeft),
		End:   b.Anchor(r.End, BiasRight),
	}
}

// AnchorRowRange registers an anchor pair spanning the given rows.
// The span covers the start of r.Start through the start of r.End
// (or end of buffer), so a row range converts losslessly back to rows.
func (b *Buffer) AnchorRowRange(r RowRange) AnchorRange {
	b.mu.RLock()
	start := lineStartOffset(b.text, b.lineStarts, r.Start)
	var end ByteOffset
	if int(r.End) >= len(b.lineStarts) {
		end = ByteOffset(len(b.text))
	} else {
		end = lineStartOffset(b.text, b.lineStarts, r.End)
	}
	b.mu.RUnlock()

	return AnchorRange{
		Start: b.Anchor(start, BiasLeft),
		End:   b.Anchor(end, BiasRight),
	}
}

// ReleaseRange releases both endpoints of an anchor range.
func (b *Buffer) ReleaseRange(r AnchorRange) {
	b.Release(r.Start, r.End)
}
