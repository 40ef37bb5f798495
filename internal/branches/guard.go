package branches

import (
	"context"
	"log/slog"

	"github.com/agrahamlincoln/branchsweep/internal/github"
)

// PRCounter counts open pull requests with a given head branch.
type PRCounter interface {
	OpenPullRequests(ctx context.Context, repo github.Repo, branch string) (int, error)
}

// Guard vetoes candidates that have an open pull request. It fails open:
// when the lookup errors, the branch is treated as having no open PR so
// transient API trouble never hides a deletable branch.
type Guard struct {
	prs  PRCounter
	repo *github.Repo
}

// NewGuard creates a Guard. With a nil counter or repo the guard never
// blocks.
func NewGuard(prs PRCounter, repo *github.Repo) *Guard {
	return &Guard{prs: prs, repo: repo}
}

// HasOpenPR reports whether branch is the head of an open pull request.
func (g *Guard) HasOpenPR(ctx context.Context, branch string) bool {
	if g == nil || g.prs == nil || g.repo == nil {
		return false
	}
	n, err := g.prs.OpenPullRequests(ctx, *g.repo, branch)
	if err != nil {
		slog.Debug("PR check failed, assuming no open PR",
			"repo", g.repo.String(), "branch", branch, "error", err)
		return false
	}
	return n > 0
}

// Filter splits candidates into those that may be offered and those
// guarded by an open pull request, preserving order.
func (g *Guard) Filter(ctx context.Context, candidates []Candidate) (kept, guarded []Candidate) {
	for _, c := range candidates {
		if g.HasOpenPR(ctx, c.Name) {
			guarded = append(guarded, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, guarded
}
