// Package git provides functions for interacting with git repositories
// by shelling out to the git CLI.
package git

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// BranchRef describes a local branch together with its tip commit metadata.
type BranchRef struct {
	Name string
	// Date is the committer date of the tip commit as YYYY-MM-DD in local
	// time, so it compares directly with a local cutoff day.
	Date       string
	LastCommit time.Time
	Author     string
}

// fieldSep separates for-each-ref fields. Branch names cannot contain it.
const fieldSep = "\x1f"

var branchRefFormat = strings.Join([]string{
	"%(refname:short)",
	"%(committerdate:short-local)",
	"%(committerdate:iso-strict)",
	"%(authorname)",
}, fieldSep)

// run executes a git command in the given directory and returns its output.
func run(repoPath string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo returns true if the given path is inside a git repository.
func IsRepo(path string) bool {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--git-dir")
	return cmd.Run() == nil
}

// CurrentBranch returns the name of the currently checked-out branch, or an
// empty string for a detached HEAD.
func CurrentBranch(repoPath string) (string, error) {
	return run(repoPath, "branch", "--show-current")
}

// ListBranchRefs returns every branch under refs/heads with the date and
// author of its tip commit, in refname order.
func ListBranchRefs(repoPath string) ([]BranchRef, error) {
	out, err := run(repoPath, "for-each-ref", "--format="+branchRefFormat, "refs/heads")
	if err != nil {
		return nil, err
	}

	var refs []BranchRef
	for _, line := range splitNonEmpty(out) {
		ref, err := parseBranchRef(line)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func parseBranchRef(line string) (BranchRef, error) {
	fields := strings.Split(line, fieldSep)
	if len(fields) != 4 {
		return BranchRef{}, fmt.Errorf("unexpected for-each-ref line %q", line)
	}
	ref := BranchRef{
		Name:   fields[0],
		Date:   fields[1],
		Author: fields[3],
	}
	if ts, err := time.Parse(time.RFC3339, fields[2]); err == nil {
		ref.LastCommit = ts
	}
	return ref, nil
}

// HasLocalBranch reports whether refs/heads/<branch> exists.
func HasLocalBranch(repoPath, branch string) bool {
	_, err := run(repoPath, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// RemoteURL returns the fetch URL of the given remote (usually "origin").
func RemoteURL(repoPath, remote string) (string, error) {
	return run(repoPath, "remote", "get-url", remote)
}

// HasRemote returns true if the given remote exists.
func HasRemote(repoPath, remote string) bool {
	_, err := run(repoPath, "remote", "get-url", remote)
	return err == nil
}

// FetchPrune fetches from the given remote and prunes deleted
// remote-tracking refs.
func FetchPrune(repoPath, remote string) error {
	_, err := run(repoPath, "fetch", "--prune", remote)
	return err
}

// DeleteLocalBranch deletes a local branch. If force is true, uses -D instead of -d.
func DeleteLocalBranch(repoPath, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := run(repoPath, "branch", flag, branch)
	return err
}

// splitNonEmpty splits a newline-separated string and returns non-empty lines.
func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
