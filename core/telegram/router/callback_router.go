package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/callbacks"
	"github.com/m3rciful/menubot/core/telegram/middleware"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
	// Accept, when set, vets the payload of a known key. A rejected payload
	// is treated like an unknown key.
	Accept     func(key, payload string) bool
	PanicReply string
}

// CallbackRoute dispatches button presses by their unique key.
// Known keys get an empty answer before the handler runs so the client stops
// its spinner; unknown keys and rejected payloads go to the not-found
// fallback, which answers the callback itself.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, payload := callbacks.ParseCallbackData(c.Callback())
		s := newSummary("callback."+key, slog.String("cb_key", key))

		reason := "not_found"
		if h, ok := reg.GetCallback(key); ok && h != nil {
			if opts.Accept == nil || opts.Accept(key, payload) {
				_ = c.Respond()
				return s.run(c, h)
			}
			reason = "malformed"
		}

		s.extras = append(s.extras, slog.String("reason", reason))
		return s.run(c, notFound(reg, opts.NotFound))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.Recover(middleware.RecoverOptions{Reply: opts.PanicReply})(middleware.LoggerMiddleware(handler)),
	}
}

func notFound(reg *tg.Registry, override tele.HandlerFunc) tele.HandlerFunc {
	if override != nil {
		return override
	}
	if fb := reg.CallbackNotFound(); fb != nil {
		return fb
	}
	return func(c tele.Context) error { return c.Respond() }
}
