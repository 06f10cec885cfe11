package booking

import (
	"fmt"
	"time"
)

// ClockMinute is a time of day expressed as minutes after midnight.
// Provider hours and appointment start times are stored this way so
// slot arithmetic stays integer-only.
type ClockMinute int

const minutesPerDay = 24 * 60

// ParseClock parses "15:04" into a ClockMinute.
func ParseClock(s string) (ClockMinute, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return ClockMinute(t.Hour()*60 + t.Minute()), nil
}

func (c ClockMinute) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Valid reports whether c names a real time of day.
func (c ClockMinute) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// OnDate combines the clock time with a calendar date into an instant.
// The date's own clock component is ignored.
func (c ClockMinute) OnDate(d time.Time) time.Time {
	year, month, day := d.Date()
	return time.Date(year, month, day, int(c)/60, int(c)%60, 0, 0, time.UTC)
}

// DateOnly truncates an instant to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
