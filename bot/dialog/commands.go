package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/menubot/bot/journal"
	"github.com/m3rciful/menubot/bot/render"
	"github.com/m3rciful/menubot/bot/schedule"
)

// Start greets the user with the entry prompt. The session is reset.
func (c *Controller) Start(ctx context.Context, u Update) error {
	c.record(ctx, u, journal.EventStart, nil)
	unlock := c.lockChat(u.ChatID)
	err := c.opts.Sessions.Reset(ctx, u.ChatID)
	unlock()
	if err != nil {
		c.log(ctx, slog.LevelWarn, "dialog.reset_failed",
			slog.Int64("chat_id", u.ChatID),
			slog.String("err", err.Error()),
		)
	}
	c.reply(ctx, u, render.Welcome())
	return nil
}

// Text answers free-form messages without touching the session.
func (c *Controller) Text(ctx context.Context, u Update) error {
	c.reply(ctx, u, render.UseButtons())
	return nil
}

// FAQ sends the FAQ text.
func (c *Controller) FAQ(ctx context.Context, u Update) error {
	c.record(ctx, u, journal.EventFAQ, nil)
	c.reply(ctx, u, render.FAQ(c.opts.FAQ.Text()))
	return nil
}

// History lists the user's most recent picks.
func (c *Controller) History(ctx context.Context, u Update) error {
	items, err := c.opts.Journal.Selections(ctx, u.User.ID, historyLimit)
	if err != nil {
		c.fail(ctx, u, "command.history", fmt.Errorf("load history: %w", err))
		return nil
	}
	c.record(ctx, u, journal.EventHistory, map[string]any{"count": len(items)})
	c.reply(ctx, u, render.History(items))
	return nil
}

// Timezone records the offset a user says they live at. It is never used to pick slots.
func (c *Controller) Timezone(ctx context.Context, u Update, arg string) error {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		c.reply(ctx, u, render.TimezoneUsage())
		return nil
	}
	offset, err := schedule.ParseOffset(arg)
	if err != nil {
		c.reply(ctx, u, render.TimezoneUsage())
		return nil
	}
	formatted := schedule.FormatOffset(offset)
	c.record(ctx, u, journal.EventTimezone, map[string]any{"offset": formatted})
	c.reply(ctx, u, render.TimezoneSaved(formatted))
	return nil
}

// Slots reports the active slot of every menu. Access control is up to the caller.
func (c *Controller) Slots(ctx context.Context, u Update) error {
	now := c.now(u)
	menus := c.opts.Catalog.Menus()
	rows := make([]render.SlotRow, 0, len(menus))
	for _, m := range menus {
		slot := c.opts.Resolver.Active(now, c.opts.Catalog.Dishes(m.ID))
		rows = append(rows, render.SlotRow{Menu: m, Cutoff: slot.Cutoff, Dishes: len(slot.Dishes)})
	}
	c.reply(ctx, u, render.SlotReport(c.opts.Resolver.TimeOfDay(now), schedule.FormatOffset(c.opts.Resolver.Offset), rows))
	return nil
}
