package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/menubot/core/logger"
)

// Postgres stores records in the selections and events tables.
type Postgres struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgres wraps an open connection. The schema comes from the migrations directory.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

const insertSelection = `
INSERT INTO selections (recorded_at, user_id, username, challenge_id, dish, menu, submission_code)
VALUES (:recorded_at, :user_id, :username, :challenge_id, :dish, :menu, :submission_code)`

const insertEvent = `
INSERT INTO events (occurred_at, user_id, username, name, extra)
VALUES (:occurred_at, :user_id, :username, :name, CAST(:extra AS jsonb))`

const selectSelections = `
SELECT recorded_at, user_id, username, challenge_id, dish, menu, submission_code
FROM selections
WHERE user_id = $1
ORDER BY recorded_at DESC, id DESC
LIMIT $2`

type eventRow struct {
	OccurredAt time.Time `db:"occurred_at"`
	UserID     int64     `db:"user_id"`
	Username   string    `db:"username"`
	Name       string    `db:"name"`
	Extra      string    `db:"extra"`
}

func (p *Postgres) RecordSelection(ctx context.Context, s Selection) error {
	s.stamp(p.now())
	start := time.Now()
	if _, err := p.db.NamedExecContext(ctx, insertSelection, s); err != nil {
		logger.LogEvent(ctx, logger.Journal, slog.LevelError, "journal.selection",
			slog.String("backend", "postgres"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("insert selection: %w", err)
	}
	logger.LogEvent(ctx, logger.Journal, slog.LevelDebug, "journal.selection",
		slog.String("backend", "postgres"),
		slog.Int64("user_id", s.UserID),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *Postgres) RecordEvent(ctx context.Context, e Event) error {
	e.stamp(p.now())
	extra := e.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("encode event extra: %w", err)
	}
	row := eventRow{OccurredAt: e.Timestamp, UserID: e.UserID, Username: e.Username, Name: e.Name, Extra: string(raw)}
	if _, err := p.db.NamedExecContext(ctx, insertEvent, row); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (p *Postgres) Selections(ctx context.Context, userID int64, limit int) ([]Selection, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	var out []Selection
	if err := p.db.SelectContext(ctx, &out, selectSelections, userID, lim); err != nil {
		return nil, fmt.Errorf("select selections: %w", err)
	}
	for i := range out {
		out[i].RecordedAt = out[i].RecordedAt.UTC()
		out[i].Date = out[i].RecordedAt.Format(time.DateOnly)
	}
	return out, nil
}
