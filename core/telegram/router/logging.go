package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/logger"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
	"github.com/m3rciful/menubot/core/telegram/middleware"
)

// summary collects what one handler invocation did and writes a single
// handler.handled line for it.
type summary struct {
	name   string
	start  time.Time
	extras []slog.Attr
}

func newSummary(name string, extras ...slog.Attr) *summary {
	return &summary{name: normalizeHandlerName(name), start: time.Now(), extras: extras}
}

// run tags the context with the handler name, calls fn and logs the result.
func (s *summary) run(c tele.Context, fn tele.HandlerFunc) error {
	tghelpers.WithHandler(c, s.name)
	err := fn(c)
	s.log(c, logger.Status(err), err)
	return err
}

// skip logs an update that no handler took.
func (s *summary) skip(c tele.Context) {
	s.log(c, "skip", nil)
}

func (s *summary) log(c tele.Context, status string, err error) {
	ctx := tghelpers.WithHandler(c, s.name)
	msgs, kb := middleware.GetCounters(c)

	attrs := make([]slog.Attr, 0, 9+len(s.extras))
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("handler", s.name),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(s.start)).Milliseconds()),
	)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, s.extras...)
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// errorCode names an error for grouping in logs. Telegram API errors map to
// TG_<status>; other errors use an explicit Code() or their type name.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var flood tele.FloodError
	var floodPtr *tele.FloodError
	if errors.As(err, &flood) || errors.As(err, &floodPtr) {
		return "TG_FLOOD"
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		return "TG_" + strconv.Itoa(apiErr.Code)
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
