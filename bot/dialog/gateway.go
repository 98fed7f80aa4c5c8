package dialog

import (
	"context"
	"time"

	"github.com/m3rciful/menubot/bot/render"
	"github.com/m3rciful/menubot/bot/session"
)

// Gateway delivers views to a chat.
type Gateway interface {
	// Send delivers a new message and returns a reference that can be edited later.
	Send(ctx context.Context, chatID int64, v render.View) (session.Ref, error)
	// Edit replaces the text and keyboard of an earlier message.
	Edit(ctx context.Context, ref session.Ref, v render.View) error
	// Enqueue delivers a message in the background, in order with other enqueued messages.
	Enqueue(ctx context.Context, chatID int64, v render.View) error
}

// User identifies who triggered an update.
type User struct {
	ID       int64
	Username string
}

// Update is one inbound interaction, already stripped of transport details.
type Update struct {
	ChatID int64
	User   User
	// Origin is the message whose button was pressed; nil for commands and text.
	Origin *session.Ref
	At     time.Time
}
