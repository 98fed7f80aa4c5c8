package logger

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Status maps err to the status field: ok, canceled or fail.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "fail"
	}
}

// RoundMS rounds d to the millisecond; negative durations become 0.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview joins at most limit values and returns how many were left out.
func Preview(values []string, limit int) (string, int) {
	limit = max(limit, 0)
	if len(values) <= limit {
		return strings.Join(values, ", "), 0
	}
	return strings.Join(values[:limit], ", "), len(values) - limit
}
