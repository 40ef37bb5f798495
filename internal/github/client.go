// Package github provides a client for the GitHub REST API endpoints used
// to list, inspect, and delete branches and to look up open pull requests.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
)

// DefaultHost is the GitHub host all requests are sent to.
const DefaultHost = "github.com"

// Defaults for network behavior.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
)

// ErrNoToken is returned when a client is requested without a credential.
var ErrNoToken = errors.New("no GitHub token configured")

// Options configures a Client.
type Options struct {
	Token string
	// Timeout bounds every HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after a transient
	// failure. Zero disables retries.
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles each attempt.
	Backoff time.Duration
	// Transport overrides the HTTP transport. Used by tests.
	Transport http.RoundTripper
}

// Client wraps GitHub REST API access.
type Client struct {
	rest       *api.RESTClient
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a GitHub client authenticated with opts.Token.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, ErrNoToken
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}

	rest, err := api.NewRESTClient(api.ClientOptions{
		AuthToken: opts.Token,
		Host:      DefaultHost,
		Timeout:   opts.Timeout,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitHub REST client: %w", err)
	}
	return &Client{
		rest:       rest,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}, nil
}

// Branch is one entry of the branch listing endpoint.
type Branch struct {
	Name string
	SHA  string
}

type branchResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// ListBranches returns one page (1-based) of the repository's branches.
func (c *Client) ListBranches(ctx context.Context, repo Repo, page, perPage int) ([]Branch, error) {
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(perPage))
	q.Set("page", fmt.Sprint(page))
	path := fmt.Sprintf("repos/%s/%s/branches?%s", repo.Owner, repo.Name, q.Encode())

	var resp []branchResponse
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, fmt.Errorf("listing branches of %s (page %d): %w", repo, page, err)
	}

	branches := make([]Branch, len(resp))
	for i, b := range resp {
		branches[i] = Branch{Name: b.Name, SHA: b.Commit.SHA}
	}
	return branches, nil
}

// CommitInfo holds the commit fields needed for staleness checks. Date is
// the raw ISO-8601 committer timestamp as returned by the API.
type CommitInfo struct {
	Date   string
	Author string
}

type commitResponse struct {
	Commit struct {
		Author struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
		Committer struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// Commit returns the committer date and author name of a commit.
func (c *Client) Commit(ctx context.Context, repo Repo, sha string) (CommitInfo, error) {
	path := fmt.Sprintf("repos/%s/%s/commits/%s", repo.Owner, repo.Name, url.PathEscape(sha))

	var resp commitResponse
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return CommitInfo{}, fmt.Errorf("fetching commit %s of %s: %w", sha, repo, err)
	}

	info := CommitInfo{
		Date:   resp.Commit.Committer.Date,
		Author: resp.Commit.Author.Name,
	}
	if info.Author == "" {
		info.Author = resp.Commit.Committer.Name
	}
	return info, nil
}

type pullResponse struct {
	Number int `json:"number"`
}

// OpenPullRequests returns the number of open pull requests whose head is
// owner:branch in repo.
func (c *Client) OpenPullRequests(ctx context.Context, repo Repo, branch string) (int, error) {
	q := url.Values{}
	q.Set("state", "open")
	q.Set("head", repo.Owner+":"+branch)
	q.Set("per_page", "100")
	path := fmt.Sprintf("repos/%s/%s/pulls?%s", repo.Owner, repo.Name, q.Encode())

	var prs []pullResponse
	if err := c.do(ctx, http.MethodGet, path, &prs); err != nil {
		return 0, fmt.Errorf("querying open PRs for %s branch %s: %w", repo, branch, err)
	}
	return len(prs), nil
}

// DeleteBranch deletes refs/heads/<branch>. A reference that is already
// gone counts as deleted.
func (c *Client) DeleteBranch(ctx context.Context, repo Repo, branch string) error {
	path := fmt.Sprintf("repos/%s/%s/git/refs/heads/%s", repo.Owner, repo.Name, escapeRef(branch))

	err := c.do(ctx, http.MethodDelete, path, nil)
	if err == nil {
		return nil
	}
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && refAlreadyGone(httpErr) {
		slog.Debug("remote branch already absent", "repo", repo.String(), "branch", branch,
			"status", httpErr.StatusCode, "message", httpErr.Message)
		return nil
	}
	return fmt.Errorf("deleting %s branch %s: %w", repo, branch, err)
}

// refAlreadyGone reports whether a delete failure means the ref does not
// exist. GitHub answers 422 "Reference does not exist" for missing refs.
func refAlreadyGone(err *api.HTTPError) bool {
	switch err.StatusCode {
	case http.StatusNotFound:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(err.Message), "does not exist")
	}
	return false
}

// escapeRef escapes each path segment of a branch name, keeping the
// slashes that separate them.
func escapeRef(branch string) string {
	parts := strings.Split(branch, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// do issues a request, retrying transient failures with exponential
// backoff up to c.maxRetries additional attempts.
func (c *Client) do(ctx context.Context, method, path string, response any) error {
	delay := c.backoff
	var err error
	for attempt := 0; ; attempt++ {
		err = c.rest.DoWithContext(ctx, method, path, nil, response)
		if err == nil || attempt >= c.maxRetries || !isTransient(ctx, err) {
			return err
		}
		slog.Debug("retrying GitHub request", "method", method, "path", path,
			"attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// isTransient reports whether err is worth retrying: transport failures,
// rate limiting, and server errors.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	return true
}
