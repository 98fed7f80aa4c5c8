package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/middleware"
)

// TextOptions controls fallback behaviour for text and media updates.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
	PanicReply   string
}

// TextRoutes builds handlers for plain messages. Text that names a registered
// command (in any case, or through an alias) runs that command unless it is
// admin-only, which is reachable through its own endpoint alone; anything else
// goes to the registry text fallback, then to UnknownText. Media messages
// (photos, documents, stickers, ...) go to UnknownMedia or the text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return newSummary(key).run(c, cmd.Handler)
			}
		}
		if fb := textFallback(reg, opts.UnknownText); fb != nil {
			return newSummary("fallback").run(c, fb)
		}
		newSummary("unknown_text").skip(c)
		return nil
	}

	mediaHandler := func(c tele.Context) error {
		s := newSummary("unexpected_media")
		fb := opts.UnknownMedia
		if fb == nil {
			fb = textFallback(reg, opts.UnknownText)
		}
		if fb == nil {
			s.skip(c)
			return nil
		}
		return s.run(c, fb)
	}

	guard := middleware.Recover(middleware.RecoverOptions{Reply: opts.PanicReply})
	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  guard(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnMedia,
			Handler:  guard(middleware.LoggerMiddleware(mediaHandler)),
		},
	}
}

func textFallback(reg *tg.Registry, unknown tele.HandlerFunc) tele.HandlerFunc {
	if reg != nil {
		if fb := reg.TextFallback(); fb != nil {
			return fb
		}
	}
	return unknown
}
