// Package cleaner drives a sweep: for each repository it scans for stale
// branches, filters them, asks the user which to delete, and deletes them.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/agrahamlincoln/branchsweep/internal/branches"
	"github.com/agrahamlincoln/branchsweep/internal/deletion"
	"github.com/agrahamlincoln/branchsweep/internal/github"
	"github.com/agrahamlincoln/branchsweep/internal/metrics"
	"github.com/agrahamlincoln/branchsweep/internal/prompt"
	"github.com/agrahamlincoln/branchsweep/internal/selection"
	"github.com/agrahamlincoln/branchsweep/internal/staleness"
	"github.com/agrahamlincoln/branchsweep/internal/ui"
)

var (
	// ErrGitNotFound is returned when no git executable is on PATH.
	ErrGitNotFound = errors.New("git executable not found in PATH")
	// ErrTokenRequired is returned when remote scanning is enabled without
	// a GitHub token.
	ErrTokenRequired = errors.New("remote scanning requires a GitHub token (--token, GITHUB_TOKEN, or gh auth login)")
	// ErrNotRepository is returned for a path that is not a git repository.
	ErrNotRepository = errors.New("not a git repository")
)

const (
	originRemote = "origin"
	confirmWord  = "yes"
)

// Options is the resolved configuration for one run.
type Options struct {
	StaleDays      int
	CheckPRs       bool
	IncludeRemote  bool
	Token          string
	DryRun         bool
	ExcludePattern string
}

// CheckPreconditions verifies the run can start at all.
func CheckPreconditions(opts Options, lookPath func(string) (string, error)) error {
	if _, err := lookPath("git"); err != nil {
		return fmt.Errorf("%w: %v", ErrGitNotFound, err)
	}
	if opts.IncludeRemote && opts.Token == "" {
		return ErrTokenRequired
	}
	return nil
}

// Git is the local repository interface the cleaner needs.
type Git interface {
	IsRepo(path string) bool
	HasRemote(repoPath, remote string) bool
	FetchPrune(repoPath, remote string) error
	RemoteURL(repoPath, remote string) (string, error)
	CurrentBranch(repoPath string) (string, error)
	branches.RefLister
	branches.LocalRefChecker
	deletion.LocalDeleter
}

// API is the GitHub interface the cleaner needs.
type API interface {
	branches.BranchLister
	branches.PRCounter
	deletion.RemoteDeleter
}

// Deps are the collaborators of a Cleaner. API is nil when no token is
// configured. Metrics may be nil. Now defaults to time.Now.
type Deps struct {
	Git      Git
	API      API
	Prompter prompt.Prompter
	Reporter *ui.Reporter
	Metrics  *metrics.Logger
	Now      func() time.Time
}

// Cleaner sweeps repositories one at a time.
type Cleaner struct {
	opts    Options
	deps    Deps
	exclude *branches.Exclusion
}

// New validates opts and creates a Cleaner.
func New(opts Options, deps Deps) (*Cleaner, error) {
	if opts.StaleDays < 0 {
		return nil, fmt.Errorf("%w: %d days", staleness.ErrInvalidThreshold, opts.StaleDays)
	}
	exclude, err := branches.NewExclusion(opts.ExcludePattern)
	if err != nil {
		return nil, err
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Cleaner{opts: opts, deps: deps, exclude: exclude}, nil
}

// Report summarizes one repository.
type Report struct {
	Path    string
	Local   int
	Remote  int
	Guarded int
	Deleted int
	Failed  int
}

// Run processes each path in order. A path that cannot be processed is
// reported and skipped; neither that nor a deletion failure makes Run fail.
// Only cancellation of ctx is returned.
func (c *Cleaner) Run(ctx context.Context, paths []string) error {
	cutoff, err := staleness.NewCutoff(c.deps.Now(), c.opts.StaleDays)
	if err != nil {
		return err
	}

	var skipped, deleted int
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := c.ProcessRepository(ctx, path, cutoff)
		deleted += report.Deleted
		switch {
		case errors.Is(err, ErrNotRepository):
			c.deps.Reporter.Error("%s is not a git repository", path)
			skipped++
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.deps.Reporter.Error("%s: %v", path, err)
			skipped++
		}
	}

	if len(paths) > 1 {
		c.deps.Reporter.Header("Processed %d repositories (%d skipped), deleted %d branches",
			len(paths), skipped, deleted)
	}
	return nil
}

// ProcessRepository sweeps a single repository against cutoff.
func (c *Cleaner) ProcessRepository(ctx context.Context, path string, cutoff staleness.Cutoff) (Report, error) {
	report := Report{Path: path}
	r := c.deps.Reporter

	if !c.deps.Git.IsRepo(path) {
		return report, fmt.Errorf("%s: %w", path, ErrNotRepository)
	}
	r.Header("Repository: %s", displayName(path))

	if c.deps.Git.HasRemote(path, originRemote) {
		slog.Debug("fetching", "repo", path)
		if err := c.deps.Git.FetchPrune(path, originRemote); err != nil {
			r.Warn("could not fetch %s: %v", originRemote, err)
		}
	}

	repo := c.identity(path)

	start := time.Now()
	local, err := branches.NewLocalScanner(c.deps.Git, c.exclude).Scan(path, cutoff)
	if err != nil {
		return report, fmt.Errorf("scanning local branches: %w", err)
	}
	var remote []branches.Candidate
	if c.opts.IncludeRemote {
		remote = branches.NewRemoteScanner(c.deps.API, c.deps.Git, c.exclude).Scan(ctx, path, repo, cutoff)
	}

	var guard *branches.Guard
	if c.opts.CheckPRs && c.deps.API != nil {
		guard = branches.NewGuard(c.deps.API, repo)
	}
	candidates, guarded := guard.Filter(ctx, append(local, remote...))
	for _, g := range guarded {
		r.Info("Skipping %s: it has an open pull request", g.Name)
	}
	report.Local = len(local)
	report.Remote = len(remote)
	report.Guarded = len(guarded)
	_ = c.deps.Metrics.LogScan(len(local), len(remote), len(guarded), time.Since(start))

	deleted, failed, err := c.session(ctx, path, repo, cutoff, candidates)
	report.Deleted = deleted
	report.Failed = failed
	return report, err
}

// identity resolves the GitHub owner/name when a remote feature needs it.
func (c *Cleaner) identity(path string) *github.Repo {
	if c.deps.API == nil || !(c.opts.IncludeRemote || c.opts.CheckPRs) {
		return nil
	}
	repo, err := github.ResolveRepo(c.deps.Git, path)
	if err != nil {
		c.deps.Reporter.Warn("%s: remote checks skipped: %v", displayName(path), err)
		return nil
	}
	slog.Debug("resolved repository", "path", path, "repo", repo.String())
	return &repo
}

// session shows the candidates, reads the selection and confirmation, and
// executes the resulting plan.
func (c *Cleaner) session(ctx context.Context, path string, repo *github.Repo, cutoff staleness.Cutoff, candidates []branches.Candidate) (deleted, failed int, err error) {
	r := c.deps.Reporter

	ordered := selection.Order(candidates)
	if len(ordered) == 0 {
		r.Info("No branches older than %d days; nothing to delete.", c.opts.StaleDays)
		return 0, 0, nil
	}

	r.Info("Found %d stale %s (last commit before %s):",
		len(ordered), plural(len(ordered), "branch", "branches"), cutoff.Day())
	selection.Render(r.Out(), ordered)

	answer, err := c.deps.Prompter.Selection(len(ordered))
	if err != nil {
		return 0, 0, err
	}
	indices, err := selection.Parse(answer, len(ordered))
	if err != nil {
		r.Error("invalid selection %q: %v", answer, err)
		return 0, 0, nil
	}
	plan := selection.Build(ordered, indices)
	c.logDecisions(path, repo, ordered, indices)

	if plan.Empty() {
		r.Info("No branches selected.")
		return 0, 0, nil
	}
	c.warnCheckedOut(path, plan)

	if c.opts.DryRun {
		r.Info("Would delete %d local and %d remote branches", len(plan.Local), len(plan.Remote))
		listPlan(r, plan)
		_ = c.deps.Metrics.LogDeletion(branches.Local.String(), len(plan.Local), 0, true)
		_ = c.deps.Metrics.LogDeletion(branches.Remote.String(), len(plan.Remote), 0, true)
		return 0, 0, nil
	}

	r.Info("The following branches will be deleted:")
	listPlan(r, plan)
	answer, err = c.deps.Prompter.Confirm(fmt.Sprintf("Type '%s' to confirm:", confirmWord))
	if err != nil {
		return 0, 0, err
	}
	if strings.TrimSpace(answer) != confirmWord {
		r.Info("Deletion cancelled.")
		return 0, 0, nil
	}

	if len(plan.Local) > 0 {
		res := deletion.DeleteLocal(c.deps.Git, path, plan.Local)
		c.reportResult(res)
		deleted += len(res.Deleted)
		failed += len(res.Failures)
	}
	if len(plan.Remote) > 0 {
		res, err := deletion.DeleteRemote(ctx, c.deps.API, repo, plan.Remote)
		if err != nil {
			r.Error("remote deletion skipped: %v", err)
			failed += len(plan.Remote)
		} else {
			c.reportResult(res)
			deleted += len(res.Deleted)
			failed += len(res.Failures)
		}
	}
	return deleted, failed, nil
}

// warnCheckedOut flags a selected local branch that is checked out, since
// git refuses to delete it.
func (c *Cleaner) warnCheckedOut(path string, plan selection.Plan) {
	current, err := c.deps.Git.CurrentBranch(path)
	if err != nil {
		slog.Debug("could not read current branch", "repo", path, "error", err)
		return
	}
	if current == "" {
		return
	}
	for _, name := range plan.Local {
		if name == current {
			c.deps.Reporter.Warn("%s is checked out and cannot be deleted; switch to another branch first", name)
			return
		}
	}
}

func (c *Cleaner) reportResult(res deletion.Result) {
	r := c.deps.Reporter
	for _, f := range res.Failures {
		r.Error("failed to delete %s branch %s: %v", res.Kind, f.Branch, f.Err)
	}
	if len(res.Failures) == 0 {
		r.Success("%s", res.Summary())
	} else {
		r.Info("%s", res.Summary())
	}
	_ = c.deps.Metrics.LogDeletion(res.Kind, len(res.Deleted), len(res.Failures), false)
}

func (c *Cleaner) logDecisions(path string, repo *github.Repo, ordered []branches.Candidate, indices []int) {
	if c.deps.Metrics == nil {
		return
	}
	selected := make(map[int]bool, len(indices))
	for _, i := range indices {
		selected[i] = true
	}
	scope := path
	if repo != nil {
		scope = repo.String()
	}
	now := c.deps.Now()
	for i, cand := range ordered {
		ageDays := int(now.Sub(cand.LastCommit).Hours() / 24)
		fp := metrics.Fingerprint(scope, cand.Origin.String(), cand.Name)
		_ = c.deps.Metrics.LogDecision(fp, cand.Origin.String(), selected[i+1], ageDays)
	}
}

func listPlan(r *ui.Reporter, plan selection.Plan) {
	for _, name := range plan.Local {
		r.Info("  %s", name)
	}
	for _, name := range plan.Remote {
		r.Info("  [remote] %s", name)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func displayName(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Base(abs)
	}
	return path
}
