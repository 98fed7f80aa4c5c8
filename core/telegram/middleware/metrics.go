package middleware

import (
	"context"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
)

const countersKey = "metrics"

type countersCtxKey struct{}

// Counters tracks outbound messages produced while handling one update.
type Counters struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

func (m *Counters) add(hasKB bool) {
	if m == nil {
		return
	}
	m.messages.Add(1)
	if hasKB {
		m.keyboard.Store(true)
	}
}

// Count records an outbound message against the counters carried by ctx.
// Senders that bypass tele.Context (the bot API used directly) call it.
func Count(ctx context.Context, hasKB bool) {
	if ctx == nil {
		return
	}
	if m, ok := ctx.Value(countersCtxKey{}).(*Counters); ok {
		m.add(hasKB)
	}
}

// metricsContext wraps tele.Context to count sent messages and detect keyboard usage.
type metricsContext struct {
	tele.Context
	counters *Counters
}

// HasKeyboard reports whether send options carry reply markup.
func HasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating message counters.
func (m metricsContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.counters.add(HasKeyboard(opts))
	}
	return err
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m metricsContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.counters.add(HasKeyboard(opts))
	}
	return err
}

// Edit proxies tele.Context.Edit while updating message counters.
func (m metricsContext) Edit(what any, opts ...any) error {
	err := m.Context.Edit(what, opts...)
	if err == nil {
		m.counters.add(HasKeyboard(opts))
	}
	return err
}

// EditOrSend proxies tele.Context.EditOrSend while updating message counters.
func (m metricsContext) EditOrSend(what any, opts ...any) error {
	err := m.Context.EditOrSend(what, opts...)
	if err == nil {
		m.counters.add(HasKeyboard(opts))
	}
	return err
}

// MessageMetricsMiddleware attaches per-update counters to both the telebot
// context and the request context.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		m, ok := c.Get(countersKey).(*Counters)
		if !ok {
			m = &Counters{}
			c.Set(countersKey, m)
			ctx := context.WithValue(tghelpers.BuildContext(c), countersCtxKey{}, m)
			tghelpers.StoreContext(c, ctx)
		}
		return next(metricsContext{Context: c, counters: m})
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	m, ok := c.Get(countersKey).(*Counters)
	if !ok {
		return 0, false
	}
	return int(m.messages.Load()), m.keyboard.Load()
}
