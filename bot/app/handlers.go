package app

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/bot/action"
	"github.com/m3rciful/menubot/bot/dialog"
	"github.com/m3rciful/menubot/bot/session"
	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/callbacks"
	"github.com/m3rciful/menubot/core/telegram/commands"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
)

const unsupportedText = "Unsupported action"

// handlers adapts telebot updates to controller calls.
type handlers struct {
	ctrl *dialog.Controller
	now  func() time.Time
}

func (h handlers) update(c tele.Context) dialog.Update {
	u := dialog.Update{At: h.now()}
	if sender := c.Sender(); sender != nil {
		u.User = dialog.User{ID: sender.ID, Username: sender.Username}
		u.ChatID = sender.ID
	}
	if chat := c.Chat(); chat != nil {
		u.ChatID = chat.ID
	}
	if cb := c.Callback(); cb != nil && cb.Message != nil && cb.Message.Chat != nil {
		u.Origin = &session.Ref{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}
	}
	return u
}

func (h handlers) start(c tele.Context) error {
	return h.ctrl.Start(tghelpers.BuildContext(c), h.update(c))
}

func (h handlers) menus(c tele.Context) error {
	return h.ctrl.ShowMenus(tghelpers.BuildContext(c), h.update(c))
}

func (h handlers) faq(c tele.Context) error {
	return h.ctrl.FAQ(tghelpers.BuildContext(c), h.update(c))
}

func (h handlers) history(c tele.Context) error {
	return h.ctrl.History(tghelpers.BuildContext(c), h.update(c))
}

func (h handlers) timezone(c tele.Context) error {
	var arg string
	if msg := c.Message(); msg != nil {
		arg = strings.TrimSpace(msg.Payload)
	}
	return h.ctrl.Timezone(tghelpers.BuildContext(c), h.update(c), arg)
}

func (h handlers) slots(c tele.Context) error {
	return h.ctrl.Slots(tghelpers.BuildContext(c), h.update(c))
}

func (h handlers) text(c tele.Context) error {
	return h.ctrl.Text(tghelpers.BuildContext(c), h.update(c))
}

// callback decodes the button token once and dispatches it.
func (h handlers) callback(c tele.Context) error {
	key, payload := callbacks.ParseCallbackData(c.Callback())
	cmd, err := action.Decode(key, payload)
	if err != nil {
		return h.ctrl.Unsupported(tghelpers.BuildContext(c), h.update(c), key+"|"+payload)
	}
	return h.ctrl.Dispatch(tghelpers.BuildContext(c), h.update(c), cmd)
}

// acceptCallback reports whether a registered key carries a payload the
// controller can decode.
func acceptCallback(key, payload string) bool {
	_, err := action.Decode(key, payload)
	return err == nil
}

// unknownCallback answers a button with no registered key and re-shows the menus.
func (h handlers) unknownCallback(c tele.Context) error {
	_ = c.Respond(&tele.CallbackResponse{Text: unsupportedText})
	key, payload := callbacks.ParseCallbackData(c.Callback())
	return h.ctrl.Unsupported(tghelpers.BuildContext(c), h.update(c), key+"|"+payload)
}

// rateLimited stops the button spinner for throttled callbacks.
func rateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "One moment…"})
	}
	return nil
}

// register fills reg with the bot's commands, callbacks and fallbacks.
func (h handlers) register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.start,
		Description: "See what's on the menu today",
		Aliases:     []string{"today"},
	})
	reg.RegisterCommand("/menus", commands.Command{Handler: h.menus, Description: "Pick a menu"})
	reg.RegisterCommand("/faq", commands.Command{Handler: h.faq, Description: "How it works"})
	reg.RegisterCommand("/history", commands.Command{Handler: h.history, Description: "Your recent picks"})
	reg.RegisterCommand("/timezone", commands.Command{Handler: h.timezone, Description: "Tell us your UTC offset"})
	reg.RegisterCommand("/slot", commands.Command{
		Handler:     h.slots,
		Description: "Active time slots",
		AdminOnly:   true,
		Hidden:      true,
	})

	for _, key := range action.Keys {
		if err := reg.RegisterCallback(key, h.callback); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(h.unknownCallback)
	reg.SetTextFallback(h.text)
	return nil
}
