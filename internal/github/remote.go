package github

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotGitHubRepo is returned when a repository has no origin remote or
// its URL does not point at github.com.
var ErrNotGitHubRepo = errors.New("not a GitHub repository")

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// remoteRe matches the host[:/]owner/name[.git] shape of GitHub remotes:
//
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo.git
//	https://github.com/owner/repo
var remoteRe = regexp.MustCompile(`^(?:[a-z+]+://)?(?:[^@/]+@)?github\.com[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRemote extracts owner and repository name from a GitHub remote URL.
// Supports SSH (git@github.com:owner/repo.git, ssh://git@github.com/owner/repo)
// and HTTP(S) (https://github.com/owner/repo.git) forms.
func ParseRemote(url string) (Repo, bool) {
	m := remoteRe.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil || m[1] == "" || m[2] == "" {
		return Repo{}, false
	}
	return Repo{Owner: m[1], Name: m[2]}, true
}

// RemoteURLReader reads a configured remote URL from a local repository.
type RemoteURLReader interface {
	RemoteURL(repoPath, remote string) (string, error)
}

// ResolveRepo derives the GitHub identity of the repository at repoPath
// from its origin remote.
func ResolveRepo(r RemoteURLReader, repoPath string) (Repo, error) {
	url, err := r.RemoteURL(repoPath, "origin")
	if err != nil {
		return Repo{}, fmt.Errorf("%w: no origin remote: %v", ErrNotGitHubRepo, err)
	}
	repo, ok := ParseRemote(url)
	if !ok {
		return Repo{}, fmt.Errorf("%w: unrecognized remote %q", ErrNotGitHubRepo, url)
	}
	return repo, nil
}
