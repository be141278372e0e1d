package buffer

import (
	"errors"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// Buffer is a mutable text buffer with edit-stable anchors.
// Every mutation mints a new revision and adjusts all live anchors
// so that positions registered before the edit remain meaningful after it.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID

	anchors    map[AnchorID]*anchorState
	nextAnchor AnchorID
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return NewBufferFromString("")
}

// NewBufferFromString creates a buffer with initial content.
// Line endings are normalized to LF.
func NewBufferFromString(s string) *Buffer {
	s = normalizeLineEndings(s)
	return &Buffer{
		text:       s,
		lineStarts: indexLines(s),
		revisionID: NewRevisionID(),
		anchors:    make(map[AnchorID]*anchorState),
	}
}

// normalizeLineEndings converts CRLF and CR line endings to LF.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// indexLines returns the byte offset of the start of every line in s.
// The result always has at least one entry (offset 0).
func indexLines(s string) []ByteOffset {
	starts := []ByteOffset{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return starts
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// TextRange returns text in the given byte range.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return sliceText(b.text, start, end)
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(len(b.lineStarts))
}

// LineText returns the text of a specific line (without newline).
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lineText(b.text, b.lineStarts, line)
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text) == 0
}

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// Coordinate Conversion

// OffsetToPoint converts a byte offset to line/column.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return offsetToPoint(b.lineStarts, offset)
}

// PointToOffset converts line/column to byte offset.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return pointToOffset(b.text, b.lineStarts, point)
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lineStartOffset(b.text, b.lineStarts, line)
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lineEndOffset(b.text, b.lineStarts, line)
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > ByteOffset(len(b.text)) {
		return 0, ErrOffsetOutOfRange
	}

	text = normalizeLineEndings(text)
	b.applyEditLocked(offset, offset, text)
	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.text)) {
		return ErrRangeInvalid
	}

	b.applyEditLocked(start, end, "")
	return nil
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.text)) {
		return 0, ErrRangeInvalid
	}

	text = normalizeLineEndings(text)
	b.applyEditLocked(start, end, text)
	return start + ByteOffset(len(text)), nil
}

// SetText replaces the entire buffer content.
// Anchors are clamped into the new text bounds.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	text = normalizeLineEndings(text)
	b.applyEditLocked(0, ByteOffset(len(b.text)), text)
}

// applyEditLocked replaces [start, end) with text, reindexes lines,
// mints a new revision and shifts all live anchors. Caller holds the lock.
func (b *Buffer) applyEditLocked(start, end ByteOffset, text string) {
	b.text = b.text[:start] + text + b.text[end:]
	b.lineStarts = indexLines(b.text)
	b.revisionID = NewRevisionID()

	removed := end - start
	inserted := ByteOffset(len(text))
	for _, a := range b.anchors {
		a.offset = adjustOffset(a.offset, a.bias, start, removed, inserted)
	}
}

// adjustOffset maps an anchor offset across a single edit that replaced
// `removed` bytes at `start` with `inserted` bytes.
func adjustOffset(offset ByteOffset, bias Bias, start, removed, inserted ByteOffset) ByteOffset {
	end := start + removed
	switch {
	case offset < start:
		return offset
	case offset == start:
		// A pure insertion at the anchor position: right-biased anchors
		// move past the inserted text, left-biased anchors stay put.
		if removed == 0 && bias == BiasRight {
			return offset + inserted
		}
		return offset
	case offset >= end:
		return offset - removed + inserted
	default:
		// Anchor was inside the removed span; collapse to its start.
		return start
	}
}

// Snapshot returns a read-only snapshot of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	anchors := make(map[AnchorID]ByteOffset, len(b.anchors))
	for id, a := range b.anchors {
		anchors[id] = a.offset
	}

	return &Snapshot{
		text:       b.text,
		lineStarts: b.lineStarts,
		revisionID: b.revisionID,
		anchors:    anchors,
	}
}

// Shared helpers used by both Buffer and Snapshot.

func sliceText(text string, start, end ByteOffset) string {
	if start < 0 {
		start = 0
	}
	if end > ByteOffset(len(text)) {
		end = ByteOffset(len(text))
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}

func offsetToPoint(lineStarts []ByteOffset, offset ByteOffset) Point {
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Point{Line: uint32(lo), Column: uint32(offset - lineStarts[lo])}
}

func pointToOffset(text string, lineStarts []ByteOffset, point Point) ByteOffset {
	if int(point.Line) >= len(lineStarts) {
		return ByteOffset(len(text))
	}
	offset := lineStarts[point.Line] + ByteOffset(point.Column)
	end := lineEndOffset(text, lineStarts, point.Line)
	if offset > end {
		offset = end
	}
	return offset
}

func lineStartOffset(text string, lineStarts []ByteOffset, line uint32) ByteOffset {
	if int(line) >= len(lineStarts) {
		return ByteOffset(len(text))
	}
	return lineStarts[line]
}

func lineEndOffset(text string, lineStarts []ByteOffset, line uint32) ByteOffset {
	if int(line) >= len(lineStarts) {
		return ByteOffset(len(text))
	}
	if int(line)+1 < len(lineStarts) {
		return lineStarts[line+1] - 1 // before the newline
	}
	return ByteOffset(len(text))
}

func lineText(text string, lineStarts []ByteOffset, line uint32) string {
	start := lineStartOffset(text, lineStarts, line)
	end := lineEndOffset(text, lineStarts, line)
	return sliceText(text, start, end)
}
