package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain: recover, logger,
// rate limit (when configured) and metrics, outermost first. panicReply is
// sent to the chat when a handler panics; empty sends nothing.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc, panicReply string) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.Recover(middleware.RecoverOptions{Reply: panicReply})},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			ex[kind] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:   ex,
				OnLimited: onLimited,
			}),
		})
	}

	return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}
