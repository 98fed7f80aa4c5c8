package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day in whole seconds since midnight, in [0, 86400).
type Clock int

const (
	// Midnight is the zero Clock; the resolver returns it when there is nothing to choose from.
	Midnight Clock = 0

	secondsPerDay = 24 * 60 * 60
)

// cutoffLayouts are tried in order; the first match wins.
var cutoffLayouts = []string{
	"3:04:05 PM",
	"3:04 PM",
	"15:04:05",
	"15:04",
}

// NewClock builds a Clock from its parts, wrapping values past one day.
func NewClock(hour, minute, second int) Clock {
	total := (hour*3600 + minute*60 + second) % secondsPerDay
	if total < 0 {
		total += secondsPerDay
	}
	return Clock(total)
}

// ClockOf returns the wall-clock time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute(), t.Second())
}

// ParseClock parses a cutoff string such as "2:30 PM" or "14:30:00".
func ParseClock(raw string) (Clock, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return Midnight, fmt.Errorf("empty cutoff time")
	}
	for _, layout := range cutoffLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return Midnight, fmt.Errorf("unrecognised cutoff time %q", raw)
}

// Hour, Minute and Second return the clock components.
func (c Clock) Hour() int   { return int(c) / 3600 }
func (c Clock) Minute() int { return int(c) % 3600 / 60 }
func (c Clock) Second() int { return int(c) % 60 }

// String renders HH:MM, adding seconds only when they are set.
func (c Clock) String() string {
	if c.Second() != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText keeps clocks readable in JSON and YAML documents.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())), nil
}

// UnmarshalText accepts every cutoff layout.
func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
