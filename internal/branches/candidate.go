// Package branches finds stale branch candidates in a local repository and
// on its GitHub remote, and filters out those guarded by open pull requests.
package branches

import (
	"fmt"
	"regexp"
	"time"
)

// Origin says where a candidate branch lives.
type Origin int

const (
	// Local is a branch under refs/heads of the working copy.
	Local Origin = iota
	// Remote is a branch that exists only on GitHub.
	Remote
)

// String returns "local" or "remote".
func (o Origin) String() string {
	switch o {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Candidate is a stale branch eligible for deletion.
type Candidate struct {
	Name   string
	Origin Origin
	// Date is the last commit day as YYYY-MM-DD.
	Date       string
	LastCommit time.Time
	Author     string
}

// DefaultExcludePattern protects the usual long-lived branches.
const DefaultExcludePattern = "main|master|develop|dev"

// Exclusion matches branch names that must never be offered for deletion.
// The pattern must match the whole name.
type Exclusion struct {
	re *regexp.Regexp
}

// NewExclusion compiles pattern anchored at both ends. An empty pattern
// excludes nothing.
func NewExclusion(pattern string) (*Exclusion, error) {
	if pattern == "" {
		return &Exclusion{}, nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
	}
	return &Exclusion{re: re}, nil
}

// Matches reports whether name is protected. A nil Exclusion protects nothing.
func (e *Exclusion) Matches(name string) bool {
	if e == nil || e.re == nil {
		return false
	}
	return e.re.MatchString(name)
}
