// Package ui writes leveled, colored messages for the user.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter prints user-facing output. Diagnostics go through slog instead.
type Reporter struct {
	out io.Writer
	err io.Writer

	bold   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
}

// NewReporter creates a Reporter writing informational lines to out and
// warnings and errors to errOut.
func NewReporter(out, errOut io.Writer) *Reporter {
	return &Reporter{
		out:    out,
		err:    errOut,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
}

// Out returns the writer for plain output such as the branch list.
func (r *Reporter) Out() io.Writer {
	return r.out
}

// Header prints a bold section title preceded by a blank line.
func (r *Reporter) Header(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, "\n%s\n", r.bold.Sprintf(format, args...))
}

// Info prints a plain line.
func (r *Reporter) Info(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format+"\n", args...)
}

// Success prints a green line.
func (r *Reporter) Success(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.green.Sprintf(format, args...))
}

// Warn prints a yellow line to the error stream.
func (r *Reporter) Warn(format string, args ...any) {
	_, _ = fmt.Fprintln(r.err, r.yellow.Sprintf("Warning: "+format, args...))
}

// Error prints a red line to the error stream.
func (r *Reporter) Error(format string, args ...any) {
	_, _ = fmt.Fprintln(r.err, r.red.Sprintf("Error: "+format, args...))
}
