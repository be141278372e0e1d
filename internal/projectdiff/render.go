package projectdiff

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/diffview/internal/merged"
)

// Render writes the merged document to w as plain text: excerpts in
// document order, grouped under a header per source file, each excerpt
// prefixed with its row span.
func (pd *ProjectDiff) Render(w io.Writer) error {
	lastPath := ""
	for _, e := range pd.doc.Excerpts() {
		path := excerptPath(e)
		if path != lastPath {
			if lastPath != "" {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "=== %s ===\n", path); err != nil {
				return err
			}
			lastPath = path
		}

		snap := e.Buffer().Snapshot()
		rows := e.ContextRows(snap)
		if _, err := fmt.Fprintf(w, "@@ lines %d-%d @@\n", rows.Start+1, rows.End); err != nil {
			return err
		}

		text := e.Text()
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
		if !strings.HasSuffix(text, "\n") {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// excerptPath recovers the file path behind an excerpt's buffer handle.
func excerptPath(e *merged.Excerpt) string {
	if ph, ok := e.Handle().(interface{ Path() string }); ok {
		return ph.Path()
	}
	return ""
}
