// Package journal records dashboard selections and usage events.
//
// Records are append-only. The file backend keeps two JSON arrays on disk and
// rewrites them whole on every append; the postgres backend writes one row per record.
package journal

import (
	"context"
	"time"
)

// Usage event names.
const (
	EventStart        = "start"
	EventFAQ          = "faq"
	EventHistory      = "history"
	EventTimezone     = "timezone"
	EventMenuList     = "menu_list"
	EventMenuSelected = "menu_selected"
	EventDishSelected = "dish_selected"
)

// Selection is one dashboard record: a user picked a dish and received its challenge.
type Selection struct {
	Date           string    `json:"date" db:"-"`
	RecordedAt     time.Time `json:"recorded_at" db:"recorded_at"`
	UserID         int64     `json:"user_id" db:"user_id"`
	Username       string    `json:"username,omitempty" db:"username"`
	ChallengeID    string    `json:"challenge_id" db:"challenge_id"`
	Dish           string    `json:"dish" db:"dish"`
	Menu           string    `json:"menu" db:"menu"`
	SubmissionCode string    `json:"submission_code,omitempty" db:"submission_code"`
}

// Event is one usage record.
type Event struct {
	UserID    int64          `json:"user_id"`
	Username  string         `json:"username,omitempty"`
	Name      string         `json:"event"`
	Timestamp time.Time      `json:"timestamp_utc"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Journal is the append-only store behind the dashboard and usage logs.
type Journal interface {
	RecordSelection(ctx context.Context, s Selection) error
	RecordEvent(ctx context.Context, e Event) error
	// Selections returns a user's records, most recent first, at most limit (0 means all).
	Selections(ctx context.Context, userID int64, limit int) ([]Selection, error)
}

// stamp fills the time fields a caller left empty.
func (s *Selection) stamp(now time.Time) {
	if s.RecordedAt.IsZero() {
		s.RecordedAt = now
	}
	s.RecordedAt = s.RecordedAt.UTC()
	if s.Date == "" {
		s.Date = s.RecordedAt.Format(time.DateOnly)
	}
}

func (e *Event) stamp(now time.Time) {
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	e.Timestamp = e.Timestamp.UTC()
}
