package projectdiff

import (
	"path/filepath"
	"sort"
	"strings"
)

// ComparePaths orders two slash-separated relative paths component-wise
// and case-sensitively, with directories sorting before files at each
// level. Both the entry order and incoming snapshots are sorted with this
// comparator; the reconciler's merge-join depends on it.
func ComparePaths(a, b string) int {
	ac := strings.Split(filepath.ToSlash(a), "/")
	bc := strings.Split(filepath.ToSlash(b), "/")

	for i := 0; i < len(ac) && i < len(bc); i++ {
		aFile := i == len(ac)-1
		bFile := i == len(bc)-1
		if aFile != bFile {
			// The path still descending into a directory sorts first.
			if !aFile {
				return -1
			}
			return 1
		}
		if c := strings.Compare(ac[i], bc[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(ac) < len(bc):
		return -1
	case len(ac) > len(bc):
		return 1
	default:
		return 0
	}
}

// SortEntries sorts entries in place by path.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return ComparePaths(entries[i].Path, entries[j].Path) < 0
	})
}
