package diff

import (
	"strings"

	"github.com/dshills/diffview/internal/engine/buffer"
)

// SyncBuffer converges buf to the given text by applying minimal
// line-level edits instead of wholesale replacement, so anchors outside
// the changed regions keep their positions. Used when a file changes on
// disk underneath an open buffer.
func SyncBuffer(buf *buffer.Buffer, text string) error {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	old := buf.Text()
	if old == text {
		return nil
	}

	oldLines := splitKeepingNewlines(old)
	newLines := splitKeepingNewlines(text)
	ops := diffLines(oldLines, newLines)
	oldStarts := lineOffsets(oldLines)

	type edit struct {
		start, end buffer.ByteOffset
		text       string
	}
	var edits []edit

	oldPos := 0 // old lines consumed so far
	runStart, runEnd := -1, -1
	var replacement strings.Builder

	flush := func() {
		if runStart < 0 {
			return
		}
		edits = append(edits, edit{
			start: oldStarts[runStart],
			end:   oldStarts[runEnd],
			text:  replacement.String(),
		})
		runStart, runEnd = -1, -1
		replacement.Reset()
	}

	for _, op := range ops {
		switch op.kind {
		case opEqual:
			flush()
			oldPos++
		case opDelete:
			if runStart < 0 {
				runStart, runEnd = oldPos, oldPos
			}
			oldPos++
			runEnd = oldPos
		case opInsert:
			if runStart < 0 {
				runStart, runEnd = oldPos, oldPos
			}
			replacement.WriteString(newLines[op.newIndex])
		}
	}
	flush()

	// Apply back to front so earlier offsets stay valid.
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		if _, err := buf.Replace(e.start, e.end, e.text); err != nil {
			return err
		}
	}
	return nil
}

// splitKeepingNewlines splits s into lines that retain their trailing
// newline, so joining them reproduces s exactly.
func splitKeepingNewlines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// lineOffsets returns the byte offset of each line plus one past-the-end
// entry.
func lineOffsets(lines []string) []buffer.ByteOffset {
	offsets := make([]buffer.ByteOffset, len(lines)+1)
	var off buffer.ByteOffset
	for i, line := range lines {
		offsets[i] = off
		off += buffer.ByteOffset(len(line))
	}
	offsets[len(lines)] = off
	return offsets
}
