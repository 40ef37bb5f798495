// Package prompt reads the user's selection and confirmation answers.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Prompter asks the two questions of a cleanup session. Answers are
// returned verbatim; interpreting them is the caller's job.
type Prompter interface {
	Selection(count int) (string, error)
	Confirm(question string) (string, error)
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// New returns a Form when stdin and stdout are terminals and a Line
// prompter over them otherwise.
func New() Prompter {
	if Interactive(os.Stdin) && Interactive(os.Stdout) {
		return Form{}
	}
	return NewLine(os.Stdin, os.Stdout)
}

func selectionQuestion(count int) string {
	return fmt.Sprintf("Select branches to delete (1-%d, e.g. 1,3 or 2-5, all, none)", count)
}

// Line prompts by writing a question and reading one line.
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLine creates a Line prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

// Selection asks which of count numbered branches to delete.
func (l *Line) Selection(count int) (string, error) {
	return l.ask(selectionQuestion(count) + ": ")
}

// Confirm asks question and returns the raw answer.
func (l *Line) Confirm(question string) (string, error) {
	return l.ask(question + " ")
}

func (l *Line) ask(question string) (string, error) {
	_, _ = fmt.Fprint(l.out, question)
	answer, err := l.in.ReadString('\n')
	// Closed input counts as whatever was typed so far.
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimRight(answer, "\r\n"), nil
}

// Form prompts with huh input fields.
type Form struct{}

// Selection asks which of count numbered branches to delete.
func (Form) Selection(count int) (string, error) {
	return runInput(selectionQuestion(count), "none")
}

// Confirm asks question and returns the raw answer.
func (Form) Confirm(question string) (string, error) {
	return runInput(question, "")
}

func runInput(title, placeholder string) (string, error) {
	var answer string
	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&answer)
	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return answer, nil
}
