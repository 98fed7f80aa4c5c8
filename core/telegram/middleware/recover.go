package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/logger"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
)

// RecoverOptions configures Recover.
type RecoverOptions struct {
	// Reply is sent to the chat after a panic. Empty sends nothing.
	Reply string
}

// Recover catches panics in handlers, logs them with the stack and answers
// the user with opts.Reply.
func Recover(opts RecoverOptions) func(tele.HandlerFunc) tele.HandlerFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctx := tghelpers.BuildContext(c)
					logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.panic",
						slog.String("err", fmt.Sprint(r)),
						slog.String("stack", string(debug.Stack())),
					)
					if opts.Reply != "" {
						if sendErr := replyAfterPanic(c, opts.Reply); sendErr != nil {
							logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.panic_reply",
								slog.String("status", "fail"),
								slog.String("err", logger.SanitizeLimit(sendErr.Error(), 256)),
							)
						}
					}
					err = nil
				}
			}()
			return next(c)
		}
	}
}

// replyAfterPanic stops a pending button spinner and sends text to the chat.
// A panic raised while replying is swallowed.
func replyAfterPanic(c tele.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reply panicked: %v", r)
		}
	}()
	if c.Callback() != nil {
		_ = c.Respond()
	}
	return c.Send(text)
}
