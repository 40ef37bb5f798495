package branches_test

import (
	"errors"
	"testing"
	"time"

	"github.com/agrahamlincoln/branchsweep/internal/branches"
	"github.com/agrahamlincoln/branchsweep/internal/staleness"
	"github.com/agrahamlincoln/branchsweep/pkg/git"
	"github.com/agrahamlincoln/branchsweep/test/helpers"
)

// realRefs adapts pkg/git for the scanner.
type realRefs struct{}

func (realRefs) ListBranchRefs(repoPath string) ([]git.BranchRef, error) {
	return git.ListBranchRefs(repoPath)
}

type fakeRefs struct {
	refs []git.BranchRef
	err  error
}

func (f fakeRefs) ListBranchRefs(string) ([]git.BranchRef, error) {
	return f.refs, f.err
}

func mustExclusion(t *testing.T, pattern string) *branches.Exclusion {
	t.Helper()
	ex, err := branches.NewExclusion(pattern)
	if err != nil {
		t.Fatalf("NewExclusion(%q): %v", pattern, err)
	}
	return ex
}

func mustCutoff(t *testing.T, now time.Time, days int) staleness.Cutoff {
	t.Helper()
	c, err := staleness.NewCutoff(now, days)
	if err != nil {
		t.Fatalf("NewCutoff: %v", err)
	}
	return c
}

func TestLocalScan_OneStaleBranch(t *testing.T) {
	repo := helpers.NewTestRepo(t, "one-stale")
	now := time.Now()
	repo.BranchWithCommit("feat-a", now.AddDate(0, 0, -40))
	repo.BranchWithCommit("feat-b", now.AddDate(0, 0, -5))

	scanner := branches.NewLocalScanner(realRefs{}, mustExclusion(t, branches.DefaultExcludePattern))
	results, err := scanner.Scan(repo.Path, mustCutoff(t, now, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(results), results)
	}
	got := results[0]
	if got.Name != "feat-a" || got.Origin != branches.Local {
		t.Errorf("unexpected candidate %+v", got)
	}
	if got.Author != "Test User" {
		t.Errorf("expected author Test User, got %q", got.Author)
	}
	if got.Date != now.AddDate(0, 0, -40).Format(staleness.DayLayout) {
		t.Errorf("unexpected date %q", got.Date)
	}
}

func TestLocalScan_ExclusionBeatsAge(t *testing.T) {
	repo := helpers.NewTestRepo(t, "exclusion")
	old := time.Now().AddDate(0, 0, -400)
	repo.BranchWithCommit("develop", old)
	repo.BranchWithCommit("dev-tools", old)

	scanner := branches.NewLocalScanner(realRefs{}, mustExclusion(t, branches.DefaultExcludePattern))
	results, err := scanner.Scan(repo.Path, mustCutoff(t, time.Now(), 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Name != "dev-tools" {
		t.Fatalf("expected only dev-tools, got %+v", results)
	}
}

func TestLocalScan_RespectsThreshold(t *testing.T) {
	repo := helpers.NewTestRepo(t, "threshold")
	now := time.Now()
	repo.BranchWithCommit("feature/ten-days", now.AddDate(0, 0, -10))

	scanner := branches.NewLocalScanner(realRefs{}, mustExclusion(t, branches.DefaultExcludePattern))

	results, err := scanner.Scan(repo.Path, mustCutoff(t, now, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no candidates with 30-day threshold, got %d", len(results))
	}

	results, err = scanner.Scan(repo.Path, mustCutoff(t, now, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 candidate with 7-day threshold, got %d", len(results))
	}
}

func TestLocalScan_DetachedHEAD(t *testing.T) {
	repo := helpers.NewTestRepo(t, "detached-head")
	repo.BranchWithCommit("feature/old", time.Now().AddDate(0, 0, -60))
	repo.DetachHead()

	scanner := branches.NewLocalScanner(realRefs{}, mustExclusion(t, branches.DefaultExcludePattern))
	results, err := scanner.Scan(repo.Path, mustCutoff(t, time.Now(), 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Name != "feature/old" {
		t.Fatalf("expected feature/old, got %+v", results)
	}
}

func TestLocalScan_DayBoundary(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	refs := fakeRefs{refs: []git.BranchRef{
		{Name: "day-before", Date: "2025-06-04"},
		{Name: "cutoff-day", Date: "2025-06-05"},
		{Name: "day-after", Date: "2025-06-06"},
	}}

	scanner := branches.NewLocalScanner(refs, nil)
	results, err := scanner.Scan("/repo", mustCutoff(t, now, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Name != "day-before" {
		t.Fatalf("expected only day-before, got %+v", results)
	}
}

func TestLocalScan_CommitterInOtherTimezone(t *testing.T) {
	// Pin both this process and the git subprocesses to UTC.
	t.Setenv("TZ", "UTC")
	saved := time.Local
	time.Local = time.UTC
	t.Cleanup(func() { time.Local = saved })

	now := time.Date(2025, 6, 16, 0, 30, 0, 0, time.UTC)
	cutoff := mustCutoff(t, now, 10) // 2025-06-06 00:30 UTC
	west := time.FixedZone("west", -11*60*60)

	repo := helpers.NewTestRepo(t, "other-timezone")
	// One hour after the cutoff, but still June 5th at -11:00.
	repo.BranchWithCommit("fresh", cutoff.Instant().Add(time.Hour).In(west))
	repo.BranchWithCommit("old", cutoff.Instant().AddDate(0, 0, -2).In(west))

	scanner := branches.NewLocalScanner(realRefs{}, mustExclusion(t, branches.DefaultExcludePattern))
	results, err := scanner.Scan(repo.Path, cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Name != "old" {
		t.Fatalf("expected only old, got %+v", results)
	}
}

func TestLocalScan_ListError(t *testing.T) {
	scanner := branches.NewLocalScanner(fakeRefs{err: errors.New("boom")}, nil)
	if _, err := scanner.Scan("/repo", mustCutoff(t, time.Now(), 30)); err == nil {
		t.Error("expected error when listing fails")
	}
}
