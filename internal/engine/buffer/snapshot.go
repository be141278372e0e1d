package buffer

// Snapshot provides a read-only view of a buffer at a specific point in time.
// It is safe for concurrent access and will not change even if the original
// buffer is modified. Anchor positions are frozen as of snapshot time.
type Snapshot struct {
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID
	anchors    map[AnchorID]ByteOffset
}

// Text returns the full snapshot content as a string.
func (s *Snapshot) Text() string {
	return s.text
}

// TextRange returns text in the given byte range.
func (s *Snapshot) TextRange(start, end ByteOffset) string {
	return sliceText(s.text, start, end)
}

// Len returns the total byte length of the snapshot.
func (s *Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.text))
}

// LineCount returns the number of lines.
func (s *Snapshot) LineCount() uint32 {
	return uint32(len(s.lineStarts))
}

// LineText returns the text of a specific line (without newline).
func (s *Snapshot) LineText(line uint32) string {
	return lineText(s.text, s.lineStarts, line)
}

// IsEmpty returns true if the snapshot is empty.
func (s *Snapshot) IsEmpty() bool {
	return len(s.text) == 0
}

// RevisionID returns the revision ID of this snapshot.
func (s *Snapshot) RevisionID() RevisionID {
	return s.revisionID
}

// OffsetToPoint converts a byte offset to line/column.
func (s *Snapshot) OffsetToPoint(offset ByteOffset) Point {
	return offsetToPoint(s.lineStarts, offset)
}

// PointToOffset converts line/column to byte offset.
func (s *Snapshot) PointToOffset(point Point) ByteOffset {
	return pointToOffset(s.text, s.lineStarts, point)
}

// LineStartOffset returns the byte offset of the start of a line.
func (s *Snapshot) LineStartOffset(line uint32) ByteOffset {
	return lineStartOffset(s.text, s.lineStarts, line)
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (s *Snapshot) LineEndOffset(line uint32) ByteOffset {
	return lineEndOffset(s.text, s.lineStarts, line)
}

// MaxPoint returns the position just past the last character.
func (s *Snapshot) MaxPoint() Point {
	return s.OffsetToPoint(ByteOffset(len(s.text)))
}

// MaxRow returns the last row index in the snapshot.
func (s *Snapshot) MaxRow() uint32 {
	return uint32(len(s.lineStarts)) - 1
}

// Anchor resolution

// Offset resolves an anchor to its byte offset as of this snapshot.
// Returns -1 for anchors unknown to the snapshot (released, invalid,
// or created after the snapshot was taken).
func (s *Snapshot) Offset(a Anchor) ByteOffset {
	off, ok := s.anchors[a.id]
	if !ok {
		return -1
	}
	return off
}

// Point resolves an anchor to a line/column position. Anchors unknown to
// the snapshot resolve to the zero Point.
func (s *Snapshot) Point(a Anchor) Point {
	off := s.Offset(a)
	if off < 0 {
		return Point{}
	}
	return s.OffsetToPoint(off)
}

// Compare orders two anchors by their resolved offsets.
// Returns -1, 0, or 1.
func (s *Snapshot) Compare(a, b Anchor) int {
	ao, bo := s.Offset(a), s.Offset(b)
	switch {
	case ao < bo:
		return -1
	case ao > bo:
		return 1
	default:
		return 0
	}
}

// Resolve converts an anchor range to a concrete byte range.
func (s *Snapshot) Resolve(r AnchorRange) Range {
	return Range{Start: s.Offset(r.Start), End: s.Offset(r.End)}
}

// ResolvePoints converts an anchor range to a concrete point range.
func (s *Snapshot) ResolvePoints(r AnchorRange) PointRange {
	return PointRange{Start: s.Point(r.Start), End: s.Point(r.End)}
}

// RowSpan converts an anchor range to the rows it covers.
// A span that ends mid-row counts that row as covered; a zero-length
// span yields an empty row range at its position.
func (s *Snapshot) RowSpan(r AnchorRange) RowRange {
	pts := s.ResolvePoints(r)
	end := pts.End.Line
	if pts.End.Column > 0 && pts.End.Compare(pts.Start) > 0 {
		end++
	}
	return RowRange{Start: pts.Start.Line, End: end}
}
