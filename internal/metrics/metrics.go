// Package metrics implements a write-only JSONL event log recording which
// stale branches were offered, which were chosen, and how long scans took.
// Nothing is ever sent anywhere; the files stay on the local machine.
package metrics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const schemaVersion = 2

// Event is one line of the JSONL log. Exactly one payload field is set.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`

	Command  *CommandEvent  `json:"command,omitempty"`
	Decision *DecisionEvent `json:"decision,omitempty"`
	Deletion *DeletionEvent `json:"deletion,omitempty"`
	Scan     *ScanEvent     `json:"scan,omitempty"`
}

// CommandEvent records an invocation and the flags that were set.
type CommandEvent struct {
	Name  string   `json:"name"`
	Flags []string `json:"flags"`
}

// DecisionEvent records one offered candidate and whether the user picked it.
type DecisionEvent struct {
	BranchFingerprint string `json:"branch_fingerprint"`
	Origin            string `json:"origin"`
	Selected          bool   `json:"selected"`
	AgeDays           int    `json:"age_days"`
}

// DeletionEvent records the outcome of one deletion batch.
type DeletionEvent struct {
	Origin  string `json:"origin"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// ScanEvent records per-repository scan results and timing.
type ScanEvent struct {
	LocalCandidates  int `json:"local_candidates"`
	RemoteCandidates int `json:"remote_candidates"`
	Guarded          int `json:"guarded"`
	DurationMs       int `json:"duration_ms"`
}

// Logger writes events to monthly JSONL files.
type Logger struct {
	mu        sync.Mutex
	dir       string
	sessionID string
	file      *os.File
	filePath  string
}

// DefaultDir returns $XDG_DATA_HOME/branchsweep/metrics, falling back to
// ~/.local/share/branchsweep/metrics.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "branchsweep", "metrics"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("metrics: home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "branchsweep", "metrics"), nil
}

// New creates a Logger writing to DefaultDir.
func New() (*Logger, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewWithDir(dir)
}

// NewOrNil returns a Logger using the default directory, or nil when
// disabled or when initialization fails. A nil Logger discards events, so
// callers never need to check.
func NewOrNil(enabled bool) *Logger {
	if !enabled {
		return nil
	}
	l, err := New()
	if err != nil {
		slog.Debug("metrics disabled", "error", err)
		return nil
	}
	return l
}

// NewWithDir creates a Logger writing to dir, creating it if needed.
func NewWithDir(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("metrics: create directory: %w", err)
	}

	sid, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("metrics: generate session ID: %w", err)
	}

	return &Logger{
		dir:       dir,
		sessionID: sid,
	}, nil
}

// Log appends event to the current month's file, stamping the schema
// version, time, and session. A nil Logger silently discards the event.
func (l *Logger) Log(event Event) error {
	if l == nil {
		return nil
	}
	event.SchemaVersion = schemaVersion
	event.Timestamp = time.Now()
	event.SessionID = l.sessionID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("metrics: marshal event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.openFile()
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("metrics: write event: %w", err)
	}
	return nil
}

// LogCommand records an invocation.
func (l *Logger) LogCommand(name string, flags []string) error {
	return l.Log(Event{Command: &CommandEvent{Name: name, Flags: flags}})
}

// LogDecision records whether an offered branch was selected.
func (l *Logger) LogDecision(fingerprint, origin string, selected bool, ageDays int) error {
	return l.Log(Event{Decision: &DecisionEvent{
		BranchFingerprint: fingerprint,
		Origin:            origin,
		Selected:          selected,
		AgeDays:           ageDays,
	}})
}

// LogDeletion records a deletion batch outcome.
func (l *Logger) LogDeletion(origin string, deleted, failed int, dryRun bool) error {
	return l.Log(Event{Deletion: &DeletionEvent{
		Origin:  origin,
		Deleted: deleted,
		Failed:  failed,
		DryRun:  dryRun,
	}})
}

// LogScan records one repository's scan.
func (l *Logger) LogScan(local, remote, guarded int, d time.Duration) error {
	return l.Log(Event{Scan: &ScanEvent{
		LocalCandidates:  local,
		RemoteCandidates: remote,
		Guarded:          guarded,
		DurationMs:       int(d.Milliseconds()),
	}})
}

// Close closes the underlying file. It is safe on a nil Logger and safe
// to call twice.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.filePath = ""
		return err
	}
	return nil
}

// Fingerprint produces a SHA-256 hex digest for tracking a branch across
// sessions without storing its name or repository. Each part is
// length-prefixed so that ("ab","c") and ("a","bc") hash differently.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = fmt.Fprintf(h, "%d:%s", len(p), p) // sha256.Write never returns an error
	}
	return hex.EncodeToString(h.Sum(nil))
}

// openFile returns the handle for the current month's file, rotating when
// the month changes. Caller must hold l.mu.
func (l *Logger) openFile() (*os.File, error) {
	want := filepath.Join(l.dir, eventFileName())
	if l.file != nil && l.filePath == want {
		return l.file, nil
	}
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
		l.filePath = ""
	}

	// #nosec G304 - path constructed from configured dir and deterministic filename
	f, err := os.OpenFile(want, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("metrics: open file: %w", err)
	}
	l.file = f
	l.filePath = want
	return f, nil
}

func eventFileName() string {
	return time.Now().Format("events-2006-01") + ".jsonl"
}

// generateSessionID returns a UUID v4 string.
func generateSessionID() (string, error) {
	var uuid [16]byte
	if _, err := rand.Read(uuid[:]); err != nil {
		return "", err
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16]), nil
}
