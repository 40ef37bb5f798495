// Package selection turns the user's answer to the numbered branch list
// into a deletion plan.
package selection

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/agrahamlincoln/branchsweep/internal/branches"
)

// ErrMixedSelection is returned for input that combines a range and a list,
// such as "1-3,5".
var ErrMixedSelection = errors.New("cannot combine a range and a comma list")

// Plan is the set of branches chosen for deletion, bucketed by origin.
type Plan struct {
	Local  []string
	Remote []string
}

// Len returns the total number of branches in the plan.
func (p Plan) Len() int {
	return len(p.Local) + len(p.Remote)
}

// Empty reports whether nothing was selected.
func (p Plan) Empty() bool {
	return p.Len() == 0
}

// Order returns candidates with local branches first and remote branches
// second, each group keeping its scan order. The result's positions are the
// display numbers minus one.
func Order(candidates []branches.Candidate) []branches.Candidate {
	ordered := make([]branches.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Origin == branches.Local {
			ordered = append(ordered, c)
		}
	}
	for _, c := range candidates {
		if c.Origin != branches.Local {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// Render writes the numbered list, starting at 1. Candidates must already
// be in display order.
func Render(w io.Writer, candidates []branches.Candidate) {
	dim := color.New(color.FgHiBlack)
	cyan := color.New(color.FgCyan)

	for i, c := range candidates {
		marker := ""
		if c.Origin == branches.Remote {
			marker = cyan.Sprint("[remote] ")
		}
		_, _ = fmt.Fprintf(w, "  %3d) %s%s  %s\n", i+1, marker, c.Name,
			dim.Sprintf("(%s, %s)", c.Date, c.Author))
	}
}

// Parse resolves a selection against a list of n entries and returns the
// chosen 1-based indices in ascending order. Accepted forms:
//
//	""  or "none"  nothing
//	"all"          every entry
//	"2-5"          inclusive range, clamped to the list
//	"1,3,7"        comma list; invalid entries are dropped
//	"4"            a single entry
//
// Malformed or out-of-range input selects nothing rather than erroring;
// only a mix of range and list syntax is rejected.
func Parse(input string, n int) ([]int, error) {
	input = strings.TrimSpace(input)

	switch {
	case input == "" || input == "none":
		return nil, nil
	case input == "all":
		return span(1, n), nil
	case strings.Contains(input, "-") && strings.Contains(input, ","):
		return nil, ErrMixedSelection
	case strings.Contains(input, "-"):
		return parseRange(input, n), nil
	case strings.Contains(input, ","):
		return parseList(input, n), nil
	default:
		if i, ok := index(input, n); ok {
			return []int{i}, nil
		}
		return nil, nil
	}
}

func parseRange(input string, n int) []int {
	lo, hi, ok := strings.Cut(input, "-")
	if !ok {
		return nil
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return nil
	}
	start = max(start, 1)
	end = min(end, n)
	if start > end {
		return nil
	}
	return span(start, end)
}

func parseList(input string, n int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, field := range strings.Split(input, ",") {
		i, ok := index(field, n)
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func index(s string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i, true
}

func span(start, end int) []int {
	if end < start {
		return nil
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}

// Build maps 1-based indices onto candidates in display order and buckets
// the chosen names by origin. Indices outside the list are ignored.
func Build(candidates []branches.Candidate, indices []int) Plan {
	var plan Plan
	for _, i := range indices {
		if i < 1 || i > len(candidates) {
			continue
		}
		c := candidates[i-1]
		if c.Origin == branches.Remote {
			plan.Remote = append(plan.Remote, c.Name)
		} else {
			plan.Local = append(plan.Local, c.Name)
		}
	}
	return plan
}
