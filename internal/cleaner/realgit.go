package cleaner

import "github.com/agrahamlincoln/branchsweep/pkg/git"

// RealGit implements Git using the pkg/git package.
type RealGit struct{}

// IsRepo returns true if path is inside a git repository.
func (RealGit) IsRepo(path string) bool {
	return git.IsRepo(path)
}

// HasRemote returns true if the given remote exists.
func (RealGit) HasRemote(repoPath, remote string) bool {
	return git.HasRemote(repoPath, remote)
}

// FetchPrune fetches from remote and prunes deleted remote-tracking refs.
func (RealGit) FetchPrune(repoPath, remote string) error {
	return git.FetchPrune(repoPath, remote)
}

// RemoteURL returns the fetch URL of the given remote.
func (RealGit) RemoteURL(repoPath, remote string) (string, error) {
	return git.RemoteURL(repoPath, remote)
}

// CurrentBranch returns the checked-out branch, or "" for a detached HEAD.
func (RealGit) CurrentBranch(repoPath string) (string, error) {
	return git.CurrentBranch(repoPath)
}

// ListBranchRefs returns local branches with tip commit metadata.
func (RealGit) ListBranchRefs(repoPath string) ([]git.BranchRef, error) {
	return git.ListBranchRefs(repoPath)
}

// HasLocalBranch returns true if refs/heads/<branch> exists.
func (RealGit) HasLocalBranch(repoPath, branch string) bool {
	return git.HasLocalBranch(repoPath, branch)
}

// DeleteLocalBranch deletes a local branch.
func (RealGit) DeleteLocalBranch(repoPath, branch string, force bool) error {
	return git.DeleteLocalBranch(repoPath, branch, force)
}
