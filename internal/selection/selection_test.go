package selection_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/agrahamlincoln/branchsweep/internal/branches"
	"github.com/agrahamlincoln/branchsweep/internal/selection"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  []int
	}{
		{name: "empty", input: "", n: 5, want: nil},
		{name: "whitespace only", input: "   ", n: 5, want: nil},
		{name: "none", input: "none", n: 5, want: nil},
		{name: "all", input: "all", n: 3, want: []int{1, 2, 3}},
		{name: "all with padding", input: "  all\n", n: 2, want: []int{1, 2}},
		{name: "all of nothing", input: "all", n: 0, want: nil},
		{name: "keywords are case-sensitive", input: "ALL", n: 3, want: nil},
		{name: "capitalized none", input: "None", n: 3, want: nil},
		{name: "range", input: "2-4", n: 5, want: []int{2, 3, 4}},
		{name: "range with spaces", input: " 2 - 3 ", n: 5, want: []int{2, 3}},
		{name: "range clamped high", input: "2-10", n: 3, want: []int{2, 3}},
		{name: "range clamped low", input: "0-2", n: 3, want: []int{1, 2}},
		{name: "range reversed", input: "4-2", n: 5, want: nil},
		{name: "range beyond list", input: "7-9", n: 5, want: nil},
		{name: "range single", input: "3-3", n: 5, want: []int{3}},
		{name: "range malformed start", input: "a-3", n: 5, want: nil},
		{name: "range malformed end", input: "1-", n: 5, want: nil},
		{name: "negative number", input: "-2", n: 5, want: nil},
		{name: "list", input: "1,3", n: 5, want: []int{1, 3}},
		{name: "list drops invalid", input: "1,x,9,3", n: 5, want: []int{1, 3}},
		{name: "list collapses duplicates", input: "2,2, 2", n: 5, want: []int{2}},
		{name: "list sorted", input: "3,1", n: 5, want: []int{1, 3}},
		{name: "list all invalid", input: "0,6", n: 5, want: nil},
		{name: "single", input: "4", n: 5, want: []int{4}},
		{name: "single out of range", input: "6", n: 5, want: nil},
		{name: "single zero", input: "0", n: 5, want: nil},
		{name: "garbage", input: "yes", n: 5, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selection.Parse(tt.input, tt.n)
			if err != nil {
				t.Fatalf("Parse(%q, %d) unexpected error: %v", tt.input, tt.n, err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Parse(%q, %d) = %v, want %v", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestParse_MixedRejected(t *testing.T) {
	for _, input := range []string{"1-3,5", "1,2-4", "-,"} {
		got, err := selection.Parse(input, 10)
		if !errors.Is(err, selection.ErrMixedSelection) {
			t.Errorf("Parse(%q): expected ErrMixedSelection, got %v", input, err)
		}
		if len(got) != 0 {
			t.Errorf("Parse(%q): expected no selection, got %v", input, got)
		}
	}
}

func mixedCandidates() []branches.Candidate {
	return []branches.Candidate{
		{Name: "r1", Origin: branches.Remote, Date: "2024-01-01", Author: "Ann"},
		{Name: "l1", Origin: branches.Local, Date: "2024-02-01", Author: "Bob"},
		{Name: "r2", Origin: branches.Remote, Date: "2024-03-01", Author: "Cy"},
		{Name: "l2", Origin: branches.Local, Date: "2024-04-01", Author: "Di"},
	}
}

func TestOrder(t *testing.T) {
	ordered := selection.Order(mixedCandidates())

	var names []string
	for _, c := range ordered {
		names = append(names, c.Name)
	}
	if fmt.Sprint(names) != "[l1 l2 r1 r2]" {
		t.Errorf("expected locals then remotes in scan order, got %v", names)
	}
}

func TestRender(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	selection.Render(&buf, selection.Order(mixedCandidates()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	want := []string{
		"    1) l1  (2024-02-01, Bob)",
		"    2) l2  (2024-04-01, Di)",
		"    3) [remote] r1  (2024-01-01, Ann)",
		"    4) [remote] r2  (2024-03-01, Cy)",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i+1, lines[i], w)
		}
	}
}

func TestBuild(t *testing.T) {
	ordered := selection.Order(mixedCandidates())

	plan := selection.Build(ordered, []int{1, 3, 4, 9})
	if fmt.Sprint(plan.Local) != "[l1]" {
		t.Errorf("unexpected local bucket %v", plan.Local)
	}
	if fmt.Sprint(plan.Remote) != "[r1 r2]" {
		t.Errorf("unexpected remote bucket %v", plan.Remote)
	}
	if plan.Len() != 3 || plan.Empty() {
		t.Errorf("expected 3 selected, got %d", plan.Len())
	}

	if !selection.Build(ordered, nil).Empty() {
		t.Error("no indices should produce an empty plan")
	}
}

func TestParseThenBuild_All(t *testing.T) {
	ordered := selection.Order(mixedCandidates())
	indices, err := selection.Parse("all", len(ordered))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plan := selection.Build(ordered, indices)
	if len(plan.Local) != 2 || len(plan.Remote) != 2 {
		t.Errorf("expected every candidate in the plan, got %+v", plan)
	}
}
