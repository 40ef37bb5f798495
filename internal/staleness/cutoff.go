// Package staleness converts a day threshold into a cutoff and decides
// whether a commit falls before it.
package staleness

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the fixed-width, zero-padded date format used for
// day-granularity comparison. Lexical order equals chronological order.
const DayLayout = "2006-01-02"

// ErrInvalidThreshold is returned when the cutoff cannot be computed.
var ErrInvalidThreshold = errors.New("invalid staleness threshold")

// Cutoff is the instant before which a branch's last commit makes it stale.
type Cutoff struct {
	instant time.Time
}

// NewCutoff returns now minus staleDays days.
func NewCutoff(now time.Time, staleDays int) (Cutoff, error) {
	if now.IsZero() {
		return Cutoff{}, fmt.Errorf("%w: current time unavailable", ErrInvalidThreshold)
	}
	if staleDays < 0 {
		return Cutoff{}, fmt.Errorf("%w: %d days", ErrInvalidThreshold, staleDays)
	}
	return Cutoff{instant: now.AddDate(0, 0, -staleDays)}, nil
}

// Instant returns the cutoff as a timestamp.
func (c Cutoff) Instant() time.Time {
	return c.instant
}

// Day returns the cutoff date in local time as YYYY-MM-DD.
func (c Cutoff) Day() string {
	return c.instant.Local().Format(DayLayout)
}

// DayStale reports whether a YYYY-MM-DD date is strictly earlier than the
// cutoff day.
func (c Cutoff) DayStale(date string) bool {
	return date < c.Day()
}

// InstantStale reports whether t is strictly earlier than the cutoff. A
// commit exactly at the cutoff is not stale.
func (c Cutoff) InstantStale(t time.Time) bool {
	return t.Before(c.instant)
}
