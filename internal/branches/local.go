package branches

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/agrahamlincoln/branchsweep/internal/staleness"
	"github.com/agrahamlincoln/branchsweep/pkg/git"
)

// RefLister enumerates local branches with tip commit metadata.
type RefLister interface {
	ListBranchRefs(repoPath string) ([]git.BranchRef, error)
}

// LocalScanner finds stale branches in a local repository.
type LocalScanner struct {
	git     RefLister
	exclude *Exclusion
}

// NewLocalScanner creates a LocalScanner.
func NewLocalScanner(g RefLister, exclude *Exclusion) *LocalScanner {
	return &LocalScanner{git: g, exclude: exclude}
}

// Scan returns the local branches whose last commit day is before the
// cutoff day, in refname order. Excluded names are dropped before age is
// considered.
func (s *LocalScanner) Scan(repoPath string, cutoff staleness.Cutoff) ([]Candidate, error) {
	repoName := filepath.Base(repoPath)

	refs, err := s.git.ListBranchRefs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	var results []Candidate
	for _, ref := range refs {
		if s.exclude.Matches(ref.Name) {
			slog.Debug("skipping protected branch", "repo", repoName, "branch", ref.Name)
			continue
		}
		if !cutoff.DayStale(ref.Date) {
			continue
		}
		results = append(results, Candidate{
			Name:       ref.Name,
			Origin:     Local,
			Date:       ref.Date,
			LastCommit: ref.LastCommit,
			Author:     ref.Author,
		})
	}
	return results, nil
}
