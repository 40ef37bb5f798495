// Package helpers provides test utilities for creating git repositories and scenarios.
package helpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestRepo represents a test git repository
type TestRepo struct {
	Path string
	t    *testing.T
}

// NewTestRepo creates a new test repository in a temporary directory with a
// single initial commit on main.
func NewTestRepo(t *testing.T, name string) *TestRepo {
	t.Helper()
	return NewTestRepoIn(t, t.TempDir(), name)
}

// NewTestRepoIn creates a new test repository at dir/name.
func NewTestRepoIn(t *testing.T, dir, name string) *TestRepo {
	t.Helper()

	repoPath := filepath.Join(dir, name)
	if err := os.MkdirAll(repoPath, 0750); err != nil {
		t.Fatalf("Failed to create test repo directory: %v", err)
	}

	repo := &TestRepo{
		Path: repoPath,
		t:    t,
	}

	repo.run("init", "--initial-branch=main")
	repo.run("config", "user.name", "Test User")
	repo.run("config", "user.email", "test@example.com")

	repo.WriteFile("README.md", "# Test Repository\n")
	repo.run("add", "README.md")
	repo.CommitWithDate("Initial commit", time.Now())

	return repo
}

// WriteFile writes a file to the repository
func (r *TestRepo) WriteFile(filename, content string) {
	r.t.Helper()
	path := filepath.Join(r.Path, filename)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		r.t.Fatalf("Failed to write file %s: %v", filename, err)
	}
}

// AddFile stages a file for commit
func (r *TestRepo) AddFile(filename string) {
	r.t.Helper()
	r.run("add", filename)
}

// Commit creates a commit with the current timestamp
func (r *TestRepo) Commit(message string) {
	r.t.Helper()
	r.CommitWithDate(message, time.Now())
}

// CommitWithDate creates a commit with a specific author and committer
// timestamp, so staleness can be tested without waiting.
func (r *TestRepo) CommitWithDate(message string, date time.Time) {
	r.t.Helper()
	dateStr := date.Format(time.RFC3339)
	// #nosec G204 - git command with controlled inputs in test code
	cmd := exec.Command("git", "commit", "-m", message, "--date", dateStr)
	cmd.Dir = r.Path
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("GIT_AUTHOR_DATE=%s", dateStr),
		fmt.Sprintf("GIT_COMMITTER_DATE=%s", dateStr),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		r.t.Fatalf("Failed to commit: %v\n%s", err, output)
	}
}

// BranchWithCommit creates a branch off main holding one commit dated at
// date, then switches back to main.
func (r *TestRepo) BranchWithCommit(name string, date time.Time) {
	r.t.Helper()
	r.CreateBranch(name)
	file := strings.ReplaceAll(name, "/", "_") + ".txt"
	r.WriteFile(file, name)
	r.AddFile(file)
	r.CommitWithDate("work on "+name, date)
	r.Checkout("main")
}

// CreateBranch creates a new branch and checks it out
func (r *TestRepo) CreateBranch(name string) {
	r.t.Helper()
	r.run("checkout", "-b", name)
}

// Checkout switches to a branch
func (r *TestRepo) Checkout(branch string) {
	r.t.Helper()
	r.run("checkout", branch)
}

// DetachHead checks out the current commit directly.
func (r *TestRepo) DetachHead() {
	r.t.Helper()
	r.run("checkout", "--detach")
}

// AddRemote adds a remote to the repository
func (r *TestRepo) AddRemote(name, url string) {
	r.t.Helper()
	r.run("remote", "add", name, url)
}

// Branches returns a list of all branch names
func (r *TestRepo) Branches() []string {
	r.t.Helper()
	cmd := exec.Command("git", "branch", "--format=%(refname:short)")
	cmd.Dir = r.Path
	output, err := cmd.Output()
	if err != nil {
		r.t.Fatalf("Failed to list branches: %v", err)
	}

	var branches []string
	for _, line := range strings.Split(string(output), "\n") {
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches
}

// HasBranch reports whether the named local branch exists.
func (r *TestRepo) HasBranch(name string) bool {
	r.t.Helper()
	for _, b := range r.Branches() {
		if b == name {
			return true
		}
	}
	return false
}

// run executes a git command in the repository
func (r *TestRepo) run(args ...string) {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	if output, err := cmd.CombinedOutput(); err != nil {
		r.t.Fatalf("Git command failed: git %v\n%s", args, output)
	}
}
