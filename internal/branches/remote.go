package branches

import (
	"context"
	"log/slog"
	"time"

	"github.com/agrahamlincoln/branchsweep/internal/github"
	"github.com/agrahamlincoln/branchsweep/internal/staleness"
)

// Paging limits for the branch listing endpoint.
const (
	PageSize = 100
	maxPages = 100
)

// BranchLister is the subset of the GitHub API the remote scan needs.
type BranchLister interface {
	ListBranches(ctx context.Context, repo github.Repo, page, perPage int) ([]github.Branch, error)
	Commit(ctx context.Context, repo github.Repo, sha string) (github.CommitInfo, error)
}

// LocalRefChecker reports whether a branch exists in the working copy.
type LocalRefChecker interface {
	HasLocalBranch(repoPath, branch string) bool
}

// RemoteScanner finds stale branches that exist only on GitHub.
type RemoteScanner struct {
	api     BranchLister
	local   LocalRefChecker
	exclude *Exclusion
}

// NewRemoteScanner creates a RemoteScanner. A nil api disables remote
// scanning: Scan then yields nothing.
func NewRemoteScanner(api BranchLister, local LocalRefChecker, exclude *Exclusion) *RemoteScanner {
	return &RemoteScanner{api: api, local: local, exclude: exclude}
}

// Scan pages through the repository's branches and returns stale ones
// with no local branch of the same name, in API order. A page error ends
// the listing; branches already collected are still evaluated. A branch
// whose commit cannot be fetched or whose date cannot be parsed is skipped.
func (s *RemoteScanner) Scan(ctx context.Context, repoPath string, repo *github.Repo, cutoff staleness.Cutoff) []Candidate {
	if s == nil || s.api == nil {
		return nil
	}
	if repo == nil {
		slog.Warn("skipping remote scan: repository is not hosted on GitHub", "repo", repoPath)
		return nil
	}

	listed := s.listAll(ctx, *repo)

	var results []Candidate
	for _, b := range listed {
		if s.exclude.Matches(b.Name) {
			continue
		}
		if s.local.HasLocalBranch(repoPath, b.Name) {
			continue
		}

		info, err := s.api.Commit(ctx, *repo, b.SHA)
		if err != nil {
			slog.Debug("could not fetch commit, skipping branch",
				"repo", repo.String(), "branch", b.Name, "error", err)
			continue
		}
		ts, err := time.Parse(time.RFC3339, info.Date)
		if err != nil {
			slog.Debug("unparsable commit date, skipping branch",
				"repo", repo.String(), "branch", b.Name, "date", info.Date)
			continue
		}
		if !cutoff.InstantStale(ts) {
			continue
		}

		results = append(results, Candidate{
			Name:       b.Name,
			Origin:     Remote,
			Date:       ts.UTC().Format(staleness.DayLayout),
			LastCommit: ts,
			Author:     info.Author,
		})
	}
	return results
}

func (s *RemoteScanner) listAll(ctx context.Context, repo github.Repo) []github.Branch {
	var all []github.Branch
	for page := 1; page <= maxPages; page++ {
		batch, err := s.api.ListBranches(ctx, repo, page, PageSize)
		if err != nil {
			if page == 1 {
				slog.Error("could not list remote branches", "repo", repo.String(), "error", err)
			} else {
				slog.Warn("stopped listing remote branches early",
					"repo", repo.String(), "page", page, "error", err)
			}
			break
		}
		all = append(all, batch...)
		if len(batch) < PageSize {
			break
		}
		if page == maxPages {
			slog.Warn("remote branch listing truncated",
				"repo", repo.String(), "pages", maxPages, "branches", len(all))
		}
	}
	return all
}
