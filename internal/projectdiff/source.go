package projectdiff

import (
	"github.com/dshills/diffview/internal/integration/git"
	"github.com/dshills/diffview/internal/logging"
)

// FileChange is one entry of a change snapshot: a path relative to the
// root, its status, and the baseline text the working copy is diffed
// against.
type FileChange struct {
	Path     string
	Status   Status
	Baseline string
}

// Source produces the change snapshot for one tracked root: every file
// with a non-empty VCS status, with its baseline content.
type Source interface {
	Changes() ([]FileChange, error)
}

// GitSource derives change snapshots from a git repository. Untracked
// files surface as added with an empty baseline; deleted files carry no
// working copy and are dropped from the snapshot.
type GitSource struct {
	repo *git.Repository
	log  *logging.Logger
}

var _ Source = (*GitSource)(nil)

// NewGitSource creates a source backed by repo.
func NewGitSource(repo *git.Repository, log *logging.Logger) *GitSource {
	if log == nil {
		log = logging.NullLogger
	}
	return &GitSource{repo: repo, log: log.WithComponent("git-source")}
}

// Changes returns the current change snapshot for the repository.
func (s *GitSource) Changes() ([]FileChange, error) {
	statuses, err := s.repo.Status()
	if err != nil {
		return nil, err
	}

	changes := make([]FileChange, 0, len(statuses))
	for _, st := range statuses {
		var status Status
		switch st.Status {
		case git.StatusModified:
			status = StatusModified
		case git.StatusAdded:
			status = StatusAdded
		case git.StatusConflict:
			status = StatusConflicted
		default:
			// Deleted files have no working copy to excerpt.
			continue
		}

		baseline, err := s.repo.HeadContent(st.Path)
		if err != nil {
			s.log.Warn("skipping %s: %v", st.Path, err)
			continue
		}

		changes = append(changes, FileChange{
			Path:     st.Path,
			Status:   status,
			Baseline: baseline,
		})
	}

	return changes, nil
}
