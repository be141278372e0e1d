package git

import "strings"

// HeadContent returns the content of path as committed at HEAD. Files that
// do not exist at HEAD (new or untracked files) yield an empty string with
// no error, so callers can diff them against an empty baseline.
func (r *Repository) HeadContent(path string) (string, error) {
	out, err := r.git("show", "HEAD:"+path)
	if err != nil {
		if isMissingAtHead(err) {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// isMissingAtHead reports whether a git show error means the path simply
// does not exist in the HEAD tree. This includes repositories with no
// commits at all, where HEAD itself is unresolvable.
func isMissingAtHead(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "exists on disk, but not in") ||
		strings.Contains(msg, "unknown revision") ||
		strings.Contains(msg, "bad revision") ||
		strings.Contains(msg, "Not a valid object name")
}
