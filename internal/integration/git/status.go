package git

import "strings"

// StatusCode represents the status of a file in the working tree.
type StatusCode int

const (
	// StatusUnmodified indicates the file is unchanged.
	StatusUnmodified StatusCode = iota
	// StatusModified indicates the file has been modified.
	StatusModified
	// StatusAdded indicates the file is newly added (staged or untracked).
	StatusAdded
	// StatusDeleted indicates the file has been deleted.
	StatusDeleted
	// StatusConflict indicates a merge conflict.
	StatusConflict
)

// String returns the string representation of a StatusCode.
func (s StatusCode) String() string {
	switch s {
	case StatusUnmodified:
		return "unmodified"
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// FileStatus represents the status of a single file.
type FileStatus struct {
	// Path is the file path relative to the repository root.
	Path string

	// Status indicates the type of change.
	Status StatusCode
}

// Status returns the working tree status: every file whose status is
// non-empty, in the order git reports them. Ignored files are excluded.
func (r *Repository) Status() ([]FileStatus, error) {
	out, err := r.git("status", "--porcelain", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}

	var statuses []FileStatus
	entries := strings.Split(out, "\x00")
	skipNext := false
	for _, entry := range entries {
		if skipNext {
			// Origin path of a rename, already consumed.
			skipNext = false
			continue
		}
		if len(entry) < 4 {
			continue
		}

		x, y := entry[0], entry[1]
		path := entry[3:]

		if x == 'R' || x == 'C' {
			// Renames/copies report the origin path as the next entry.
			skipNext = true
		}

		code := parseStatusCode(x, y)
		if code == StatusUnmodified {
			continue
		}

		statuses = append(statuses, FileStatus{Path: path, Status: code})
	}

	return statuses, nil
}

// parseStatusCode maps porcelain XY codes onto a StatusCode.
func parseStatusCode(x, y byte) StatusCode {
	// Conflicts first: either side 'U', or both added/deleted.
	if x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D') {
		return StatusConflict
	}

	switch {
	case x == '?' && y == '?':
		return StatusAdded // untracked files surface as additions
	case x == '!' && y == '!':
		return StatusUnmodified // ignored
	case x == 'D' || y == 'D':
		return StatusDeleted
	case x == 'A' || x == 'R' || x == 'C':
		return StatusAdded
	case x == 'M' || y == 'M' || x == 'T' || y == 'T':
		return StatusModified
	default:
		return StatusUnmodified
	}
}
