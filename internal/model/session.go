package model

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day, in seconds since midnight.
type ClockTime int

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q, want HH:MM", s)
}

// MustClock is ParseClock for constants; it panics on malformed input.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/3600, int(c)%3600/60)
}

// SessionWindow is a fixed time-of-day window.
type SessionWindow struct {
	Name  string
	Start ClockTime
	End   ClockTime
}

// Contains reports whether c lies in [Start, End).
func (w SessionWindow) Contains(c ClockTime) bool {
	return c >= w.Start && c < w.End
}

// ContainsInclusive reports whether c lies in [Start, End].
func (w SessionWindow) ContainsInclusive(c ClockTime) bool {
	return c >= w.Start && c <= w.End
}
