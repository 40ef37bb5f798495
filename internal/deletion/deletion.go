// Package deletion executes a deletion plan against the local repository
// and the GitHub remote.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agrahamlincoln/branchsweep/internal/github"
)

var (
	// ErrNoCredential is returned when remote deletion is attempted without
	// an authenticated API client.
	ErrNoCredential = errors.New("remote deletion requires a GitHub token")
	// ErrNoIdentity is returned when the repository's GitHub owner/name is
	// unknown.
	ErrNoIdentity = errors.New("repository is not hosted on GitHub")
)

// LocalDeleter force-deletes a local branch.
type LocalDeleter interface {
	DeleteLocalBranch(repoPath, branch string, force bool) error
}

// RemoteDeleter deletes a branch on GitHub.
type RemoteDeleter interface {
	DeleteBranch(ctx context.Context, repo github.Repo, branch string) error
}

// Failure records one branch that could not be deleted.
type Failure struct {
	Branch string
	Err    error
}

// Result tallies a batch.
type Result struct {
	Kind     string
	Deleted  []string
	Failures []Failure
}

// Total returns the number of branches attempted.
func (r Result) Total() int {
	return len(r.Deleted) + len(r.Failures)
}

// Summary returns the tally line, e.g. "Deleted 2 out of 3 local branches".
func (r Result) Summary() string {
	return fmt.Sprintf("Deleted %d out of %d %s branches", len(r.Deleted), r.Total(), r.Kind)
}

// DeleteLocal runs "git branch -D" for each name. A failure is recorded and
// the batch continues.
func DeleteLocal(g LocalDeleter, repoPath string, names []string) Result {
	res := Result{Kind: "local"}
	for _, name := range names {
		if err := g.DeleteLocalBranch(repoPath, name, true); err != nil {
			slog.Debug("local delete failed", "repo", repoPath, "branch", name, "error", err)
			res.Failures = append(res.Failures, Failure{Branch: name, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, name)
	}
	return res
}

// DeleteRemote deletes each name on GitHub. Without an API client or a
// repository identity nothing is attempted. Branches already gone on the
// remote count as deleted.
func DeleteRemote(ctx context.Context, api RemoteDeleter, repo *github.Repo, names []string) (Result, error) {
	res := Result{Kind: "remote"}
	if api == nil {
		return res, ErrNoCredential
	}
	if repo == nil {
		return res, ErrNoIdentity
	}

	for _, name := range names {
		if err := api.DeleteBranch(ctx, *repo, name); err != nil {
			slog.Debug("remote delete failed", "repo", repo.String(), "branch", name, "error", err)
			res.Failures = append(res.Failures, Failure{Branch: name, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, name)
	}
	return res, nil
}
