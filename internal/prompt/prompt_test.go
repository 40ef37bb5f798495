package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestLine_Selection(t *testing.T) {
	var out bytes.Buffer
	l := NewLine(strings.NewReader("1,3\n"), &out)

	got, err := l.Selection(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1,3" {
		t.Errorf("expected 1,3, got %q", got)
	}
	if !strings.Contains(out.String(), "1-4") {
		t.Errorf("question should mention the list size, got %q", out.String())
	}
}

func TestLine_SequentialAnswers(t *testing.T) {
	var out bytes.Buffer
	l := NewLine(strings.NewReader("2\r\nyes\n"), &out)

	sel, err := l.Selection(2)
	if err != nil || sel != "2" {
		t.Fatalf("Selection = %q, %v", sel, err)
	}
	ans, err := l.Confirm("Type 'yes' to confirm:")
	if err != nil || ans != "yes" {
		t.Fatalf("Confirm = %q, %v", ans, err)
	}
	if !strings.HasSuffix(out.String(), "Type 'yes' to confirm: ") {
		t.Errorf("unexpected prompt output %q", out.String())
	}
}

func TestLine_EOF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "closed input", input: "", want: ""},
		{name: "final line without newline", input: "all", want: "all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLine(strings.NewReader(tt.input), &bytes.Buffer{})
			got, err := l.Selection(3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
