package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/bot/render"
	"github.com/m3rciful/menubot/bot/session"
	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/telegram/keyboard"
	"github.com/m3rciful/menubot/core/telegram/middleware"
	tgsender "github.com/m3rciful/menubot/core/telegram/sender"
)

// ErrNotAttached is returned when the gateway is used before the bot exists.
var ErrNotAttached = errors.New("gateway: bot not attached")

// botAPI is the subset of *tele.Bot the gateway needs.
type botAPI interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
	Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error)
}

// queue is the subset of the sender dispatcher the gateway needs.
type queue interface {
	Submit(ctx context.Context, j tgsender.Job) error
}

// Gateway delivers rendered views through the Telegram bot API.
// Synchronous sends and edits go straight to the API; Enqueue goes through the
// outbound dispatcher, which keeps one chat's follow-ups in order.
type Gateway struct {
	mu    sync.RWMutex
	api   botAPI
	queue queue
}

// Attach binds the bot and the dispatcher once they exist.
func (g *Gateway) Attach(api botAPI, q queue) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.api = api
	g.queue = q
}

func (g *Gateway) deps() (botAPI, queue, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.api == nil {
		return nil, nil, ErrNotAttached
	}
	return g.api, g.queue, nil
}

// Send delivers v as a new message and returns its reference.
func (g *Gateway) Send(ctx context.Context, chatID int64, v render.View) (session.Ref, error) {
	api, _, err := g.deps()
	if err != nil {
		return session.Ref{}, err
	}
	opts := sendOptions(v)
	msg, err := api.Send(tele.ChatID(chatID), v.Text, opts)
	if err != nil {
		return session.Ref{}, fmt.Errorf("send message: %w", err)
	}
	middleware.Count(ctx, opts.ReplyMarkup != nil)
	ref := session.Ref{ChatID: chatID, MessageID: msg.ID}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	return ref, nil
}

// Edit replaces the text and keyboard of the referenced message. Telegram's
// "message is not modified" reply counts as success.
func (g *Gateway) Edit(ctx context.Context, ref session.Ref, v render.View) error {
	api, _, err := g.deps()
	if err != nil {
		return err
	}
	opts := sendOptions(v)
	stored := tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
	if _, err := api.Edit(stored, v.Text, opts); err != nil {
		if notModified(err) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.edit_unchanged",
				slog.Int64("chat_id", ref.ChatID),
				slog.Int("message_id", ref.MessageID),
			)
			return nil
		}
		return fmt.Errorf("edit message %d: %w", ref.MessageID, err)
	}
	middleware.Count(ctx, opts.ReplyMarkup != nil)
	return nil
}

// Enqueue hands v to the outbound dispatcher.
func (g *Gateway) Enqueue(ctx context.Context, chatID int64, v render.View) error {
	api, q, err := g.deps()
	if err != nil {
		return err
	}
	if q == nil {
		_, err := g.Send(ctx, chatID, v)
		return err
	}
	opts := sendOptions(v)
	if err := q.Submit(context.WithoutCancel(ctx), tgsender.Job{
		ChatID:   chatID,
		Action:   "send",
		Endpoint: "sendMessage",
		Run: func() error {
			_, err := api.Send(tele.ChatID(chatID), v.Text, opts)
			return err
		},
	}); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	middleware.Count(ctx, opts.ReplyMarkup != nil)
	return nil
}

func sendOptions(v render.View) *tele.SendOptions {
	opts := &tele.SendOptions{
		DisableWebPagePreview: v.DisablePreview,
		ReplyMarkup:           markup(v),
	}
	if v.HTML {
		opts.ParseMode = tele.ModeHTML
	}
	return opts
}

func markup(v render.View) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(v.Keyboard))
	for _, row := range v.Keyboard {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{
				Text:   b.Text,
				Unique: b.Action.Key(),
				Data:   b.Action.Payload(),
			})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}

func notModified(err error) bool {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Description, "message is not modified")
	}
	return strings.Contains(err.Error(), "message is not modified")
}
