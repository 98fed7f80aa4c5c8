package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3rciful/menubot/core/logger"
)

// File appends records to two JSON array files.
type File struct {
	dashboardPath string
	eventsPath    string
	now           func() time.Time

	mu sync.Mutex
}

// NewFile returns a file journal. Missing files are created on the first append.
func NewFile(dashboardPath, eventsPath string) *File {
	return &File{dashboardPath: dashboardPath, eventsPath: eventsPath, now: time.Now}
}

func (f *File) RecordSelection(ctx context.Context, s Selection) error {
	s.stamp(f.now())
	if err := f.appendRecord(f.dashboardPath, s); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Journal, slog.LevelDebug, "journal.selection",
		slog.String("backend", "file"),
		slog.Int64("user_id", s.UserID),
		slog.String("challenge_id", s.ChallengeID),
	)
	return nil
}

func (f *File) RecordEvent(ctx context.Context, e Event) error {
	e.stamp(f.now())
	if err := f.appendRecord(f.eventsPath, e); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Journal, slog.LevelDebug, "journal.event",
		slog.String("backend", "file"),
		slog.Int64("user_id", e.UserID),
		slog.String("name", e.Name),
	)
	return nil
}

func (f *File) Selections(_ context.Context, userID int64, limit int) ([]Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []Selection
	if err := readArray(f.dashboardPath, &all); err != nil {
		return nil, err
	}
	var out []Selection
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID != userID {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *File) appendRecord(path string, rec any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var records []json.RawMessage
	if err := readArray(path, &records); err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// readArray decodes a JSON array file. A missing or blank file is an empty array.
func readArray(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
