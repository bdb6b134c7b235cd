// Package timeutil provides the clock and display-timezone helpers used by gradebook.
// Timestamps are stored in UTC; they are converted to the configured display
// location only when rendered.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns the current time. Production code uses SystemClock; tests
// inject a fixed clock.
type Clock func() time.Time

// SystemClock returns the current time in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

var (
	locMu    sync.RWMutex
	location = time.UTC
)

// SetLocation sets the display timezone by IANA name (e.g. "Asia/Almaty").
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("timeutil: unknown timezone %q: %w", name, err)
	}
	locMu.Lock()
	location = loc
	locMu.Unlock()
	return nil
}

// Location returns the current display timezone.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return location
}

// ToLocal converts a time to the display timezone.
func ToLocal(t time.Time) time.Time {
	return t.In(Location())
}

// FormatDateTime is the full date and time display format.
const FormatDateTime = "2006-01-02 15:04:05"

// FormatDateTimeStr formats a time as a datetime string in the display timezone.
func FormatDateTimeStr(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return ToLocal(t).Format(FormatDateTime)
}

// FormatRelative returns a human-readable relative time string.
func FormatRelative(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		return "in the future"
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d weeks ago", int(d.Hours()/24/7))
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("%d months ago", months)
		}
		return fmt.Sprintf("%d years ago", months/12)
	}
}
