package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/telegram/state"
)

// Manager loads and saves sessions through a state.Store.
type Manager struct {
	store state.Store[Session]
	log   *slog.Logger
}

// NewManager wraps store. A nil log falls back to the session component logger.
func NewManager(store state.Store[Session], log *slog.Logger) *Manager {
	return &Manager{store: store, log: log}
}

func (m *Manager) warn(ctx context.Context, event string, attrs ...slog.Attr) {
	log := m.log
	if log == nil {
		log = logger.Component("session")
	}
	logger.LogEvent(ctx, log, slog.LevelWarn, event, attrs...)
}

// Load returns the session for chatID. Missing, unreadable or inconsistent state
// yields a fresh or repaired session and a warning; it never fails.
func (m *Manager) Load(ctx context.Context, chatID int64) Session {
	s, ok, err := m.store.Get(ctx, chatID)
	if err != nil {
		m.warn(ctx, "session.load_failed",
			slog.Int64("chat_id", chatID),
			slog.String("reason", logger.Sanitize(err.Error())),
		)
		return Session{}
	}
	if !ok {
		return Session{}
	}
	if err := s.Validate(); err != nil {
		m.warn(ctx, "session.repaired",
			slog.Int64("chat_id", chatID),
			slog.String("reason", err.Error()),
		)
		s.ClearVisible()
	}
	return s
}

// Save persists s for chatID.
func (m *Manager) Save(ctx context.Context, chatID int64, s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := m.store.Put(ctx, chatID, s); err != nil {
		return fmt.Errorf("save session %d: %w", chatID, err)
	}
	return nil
}

// Reset removes the stored session for chatID.
func (m *Manager) Reset(ctx context.Context, chatID int64) error {
	if err := m.store.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("reset session %d: %w", chatID, err)
	}
	return nil
}
