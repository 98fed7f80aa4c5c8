// Package schedule decides which cutoff bucket of a menu is being served right now.
//
// Cutoff times recur daily. The active bucket is the earliest cutoff strictly after the current
// time of day; once the last cutoff has passed the schedule wraps to the first one of the next day.
// The current time of day is always taken at one fixed UTC offset, never a per-user zone.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/menubot/bot/catalog"
)

// DefaultOffset is the baseline UTC offset used when none is configured.
const DefaultOffset = 8 * time.Hour

// Slot is the resolved bucket and the dishes that belong to it.
type Slot struct {
	Cutoff catalog.Clock
	Dishes []catalog.Dish
}

// Empty reports whether nothing is available in the slot.
func (s Slot) Empty() bool { return len(s.Dishes) == 0 }

// Resolver converts instants to the baseline time of day and picks active buckets.
// The zero value resolves against UTC.
type Resolver struct {
	Offset time.Duration
}

// NewResolver returns a Resolver for the given baseline offset.
func NewResolver(offset time.Duration) Resolver {
	return Resolver{Offset: offset}
}

// TimeOfDay returns now's time of day at the baseline offset.
func (r Resolver) TimeOfDay(now time.Time) catalog.Clock {
	return catalog.ClockOf(now.UTC().Add(r.Offset))
}

// Active resolves the bucket that is current at now.
func (r Resolver) Active(now time.Time, dishes []catalog.Dish) Slot {
	return Select(r.TimeOfDay(now), dishes)
}

// Select picks the bucket for time of day t. An empty dish set yields the Midnight
// sentinel and no dishes.
func Select(t catalog.Clock, dishes []catalog.Dish) Slot {
	buckets := Buckets(dishes)
	if len(buckets) == 0 {
		return Slot{Cutoff: catalog.Midnight}
	}
	cutoff := Next(t, buckets)
	var picked []catalog.Dish
	for _, d := range dishes {
		if d.Cutoff == cutoff {
			picked = append(picked, d)
		}
	}
	return Slot{Cutoff: cutoff, Dishes: picked}
}

// Next returns the smallest bucket strictly greater than t, or the smallest bucket overall
// when t is at or past the last one. buckets must be sorted and non-empty.
func Next(t catalog.Clock, buckets []catalog.Clock) catalog.Clock {
	i := sort.Search(len(buckets), func(i int) bool { return buckets[i] > t })
	if i == len(buckets) {
		return buckets[0]
	}
	return buckets[i]
}

// Buckets returns the distinct cutoff times of dishes in ascending order.
func Buckets(dishes []catalog.Dish) []catalog.Clock {
	seen := make(map[catalog.Clock]struct{}, len(dishes))
	out := make([]catalog.Clock, 0, len(dishes))
	for _, d := range dishes {
		if _, ok := seen[d.Cutoff]; ok {
			continue
		}
		seen[d.Cutoff] = struct{}{}
		out = append(out, d.Cutoff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseOffset reads offsets such as "+08:00", "-0530", "UTC+2" or "3".
func ParseOffset(raw string) (time.Duration, error) {
	s := strings.TrimSpace(strings.ToUpper(raw))
	s = strings.TrimPrefix(s, "UTC")
	s = strings.TrimPrefix(s, "GMT")
	if s == "" {
		return 0, nil
	}
	sign := time.Duration(1)
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	hours, minutes := s, "0"
	if h, m, ok := strings.Cut(s, ":"); ok {
		hours, minutes = h, m
	} else if len(s) == 4 {
		hours, minutes = s[:2], s[2:]
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", raw)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m >= 60 || h < 0 || h > 14 {
		return 0, fmt.Errorf("invalid offset %q", raw)
	}
	return sign * (time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// FormatOffset renders an offset as "+08:00".
func FormatOffset(d time.Duration) string {
	sign := '+'
	if d < 0 {
		sign = '-'
		d = -d
	}
	return fmt.Sprintf("%c%02d:%02d", sign, int(d.Hours()), int(d.Minutes())%60)
}
