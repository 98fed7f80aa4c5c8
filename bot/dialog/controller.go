// Package dialog drives the menu conversation: menu list, dish list, dish detail.
//
// The Controller receives decoded commands, updates the conversation's Session,
// asks the schedule for the active slot and hands rendered views to a Gateway.
// Navigation problems (stale buttons, out-of-range indexes, unknown menus) never
// surface as errors; the user is sent back to the menu list instead.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/menubot/bot/action"
	"github.com/m3rciful/menubot/bot/catalog"
	"github.com/m3rciful/menubot/bot/faq"
	"github.com/m3rciful/menubot/bot/journal"
	"github.com/m3rciful/menubot/bot/render"
	"github.com/m3rciful/menubot/bot/schedule"
	"github.com/m3rciful/menubot/bot/session"
	"github.com/m3rciful/menubot/core/logger"
)

// ListMode selects how a menu's dishes are listed.
type ListMode string

const (
	// ListSlots shows only the active time slot with numbered select buttons.
	ListSlots ListMode = "slots"
	// ListPages shows the whole menu in fixed-size pages.
	ListPages ListMode = "pages"
)

const historyLimit = 10

// Options configures a Controller. Catalog, Sessions, Gateway and Journal are required.
type Options struct {
	Catalog  *catalog.Catalog
	Resolver schedule.Resolver
	Sessions *session.Manager
	Gateway  Gateway
	Journal  journal.Journal
	FAQ      faq.Source

	Mode       ListMode
	PageSize   int
	MenuSample int

	SubmitURL   string
	WindowHours int

	Now     func() time.Time
	Rand    *rand.Rand
	NewCode func() string
	Logger  *slog.Logger
}

// chatStripes is the number of locks chats are spread over.
const chatStripes = 64

// Controller is the conversation state machine. Updates of one chat are
// handled one at a time even when the transport delivers them concurrently.
type Controller struct {
	opts Options

	rngMu sync.Mutex
	chats [chatStripes]sync.Mutex
}

// New validates opts and fills defaults.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Catalog == nil:
		return nil, errors.New("dialog: catalog is required")
	case opts.Sessions == nil:
		return nil, errors.New("dialog: session manager is required")
	case opts.Gateway == nil:
		return nil, errors.New("dialog: gateway is required")
	case opts.Journal == nil:
		return nil, errors.New("dialog: journal is required")
	}
	if opts.FAQ == nil {
		opts.FAQ = faq.Static(faq.Default)
	}
	switch opts.Mode {
	case "":
		opts.Mode = ListSlots
	case ListSlots, ListPages:
	default:
		return nil, fmt.Errorf("dialog: unknown list mode %q", opts.Mode)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 8
	}
	if opts.MenuSample <= 0 || opts.MenuSample > 3 {
		opts.MenuSample = 3
	}
	if opts.WindowHours <= 0 {
		opts.WindowHours = 24
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.NewCode == nil {
		opts.NewCode = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = logger.Component("dialog")
	}
	return &Controller{opts: opts}, nil
}

func (c *Controller) log(ctx context.Context, level slog.Level, event string, attrs ...slog.Attr) {
	logger.LogEvent(ctx, c.opts.Logger, level, event, attrs...)
}

func (c *Controller) now(u Update) time.Time {
	if !u.At.IsZero() {
		return u.At
	}
	return c.opts.Now()
}

// transition runs fn against a copy of the chat's session and stores the result.
// When fn fails the user gets a generic apology and the stored session is left as it was.
func (c *Controller) transition(ctx context.Context, u Update, name string, fn func(*session.Session) error) error {
	defer c.lockChat(u.ChatID)()
	stored := c.opts.Sessions.Load(ctx, u.ChatID)
	work := stored.Clone()
	if err := fn(&work); err != nil {
		c.fail(ctx, u, name, err)
		return nil
	}
	if err := c.opts.Sessions.Save(ctx, u.ChatID, work); err != nil {
		c.log(ctx, slog.LevelError, "dialog.save_failed",
			slog.String("handler", name),
			slog.Int64("chat_id", u.ChatID),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// lockChat blocks until no other update of chatID is in flight and returns the unlock.
func (c *Controller) lockChat(chatID int64) func() {
	mu := &c.chats[uint64(chatID)%chatStripes]
	mu.Lock()
	return mu.Unlock
}

func (c *Controller) fail(ctx context.Context, u Update, name string, err error) {
	c.log(ctx, slog.LevelError, "dialog.failed",
		slog.String("handler", name),
		slog.Int64("chat_id", u.ChatID),
		slog.String("err", err.Error()),
	)
	if _, sendErr := c.opts.Gateway.Send(ctx, u.ChatID, render.Failure()); sendErr != nil {
		c.log(ctx, slog.LevelWarn, "dialog.send_failed",
			slog.String("handler", name),
			slog.String("err", sendErr.Error()),
		)
	}
}

// Dispatch handles one button press.
func (c *Controller) Dispatch(ctx context.Context, u Update, cmd action.Command) error {
	name := "callback." + cmd.Key()
	return c.transition(ctx, u, name, func(s *session.Session) error {
		switch cmd.Kind {
		case action.ShowMenuList, action.Back:
			return c.showMenuList(ctx, u, s)
		case action.RandomMenu:
			c.rngMu.Lock()
			id := c.opts.Catalog.Random(c.opts.Rand)
			c.rngMu.Unlock()
			return c.openMenu(ctx, u, s, id, true)
		case action.SelectMenu:
			return c.openMenu(ctx, u, s, cmd.MenuID, false)
		case action.SelectDish:
			return c.selectDish(ctx, u, s, cmd)
		case action.Page:
			return c.turnPage(ctx, u, s, cmd.Page)
		}
		return c.redirect(ctx, u, s, "unknown_action")
	})
}

// Unsupported re-shows the menu list after a button the bot cannot decode.
func (c *Controller) Unsupported(ctx context.Context, u Update, raw string) error {
	c.log(ctx, slog.LevelWarn, "dialog.unsupported",
		slog.Int64("chat_id", u.ChatID),
		slog.String("data", logger.SanitizeLimit(raw, 64)),
	)
	return c.transition(ctx, u, "callback.unsupported", func(s *session.Session) error {
		return c.showMenuList(ctx, u, s)
	})
}

// ShowMenus sends a fresh menu list, as the /menus command does.
func (c *Controller) ShowMenus(ctx context.Context, u Update) error {
	u.Origin = nil
	return c.transition(ctx, u, "command.menus", func(s *session.Session) error {
		return c.showMenuList(ctx, u, s)
	})
}

func (c *Controller) showMenuList(ctx context.Context, u Update, s *session.Session) error {
	s.Clear()
	c.rngMu.Lock()
	subset := c.opts.Catalog.Sample(c.opts.Rand, c.opts.MenuSample)
	c.rngMu.Unlock()

	menus := make([]catalog.Menu, 0, len(subset))
	for _, id := range subset {
		if m, ok := c.opts.Catalog.Menu(id); ok {
			menus = append(menus, m)
		}
	}
	ref := c.editOrSend(ctx, u.ChatID, u.Origin, render.MenuList(menus))
	s.SetMenuList(ref, subset)
	c.record(ctx, u, journal.EventMenuList, map[string]any{"menus": subset})
	return nil
}

func (c *Controller) openMenu(ctx context.Context, u Update, s *session.Session, menuID string, random bool) error {
	menu, ok := c.opts.Catalog.Menu(menuID)
	if !ok {
		c.log(ctx, slog.LevelWarn, "dialog.menu_unavailable",
			slog.Int64("chat_id", u.ChatID),
			slog.String("menu_id", logger.SanitizeLimit(menuID, 64)),
		)
		c.editOrSend(ctx, u.ChatID, u.Origin, render.Unavailable())
		return nil
	}

	s.SetMenu(menu.ID)
	if u.Origin != nil {
		if err := c.opts.Gateway.Edit(ctx, *u.Origin, render.MenuChosen(menu)); err != nil {
			c.editFailed(ctx, *u.Origin, "collapse_menu_list", err)
		}
	}

	v, visible, page := c.listView(menu, 0, c.now(u))
	ref, err := c.opts.Gateway.Send(ctx, u.ChatID, v)
	if err != nil {
		c.log(ctx, slog.LevelWarn, "dialog.send_failed",
			slog.Int64("chat_id", u.ChatID),
			slog.String("menu_id", menu.ID),
			slog.String("err", err.Error()),
		)
		return nil
	}
	s.SetVisible(visible, &ref)
	s.Page = page

	c.record(ctx, u, journal.EventMenuSelected, map[string]any{
		"menu_id": menu.ID,
		"random":  random,
		"visible": len(visible),
	})
	return nil
}

// listView renders the first screen of a menu for the configured list mode and
// returns the ids of the selectable dishes in button order.
func (c *Controller) listView(menu catalog.Menu, page int, now time.Time) (render.View, []string, int) {
	dishes := c.opts.Catalog.Dishes(menu.ID)
	if c.opts.Mode == ListPages {
		start, end, _, clamped := render.PageBounds(len(dishes), page, c.opts.PageSize)
		return render.PagedList(menu, dishes, clamped, c.opts.PageSize), dishIDs(dishes[start:end]), clamped
	}
	slot := c.opts.Resolver.Active(now, dishes)
	return render.SlotList(menu, slot), dishIDs(slot.Dishes), 0
}

func dishIDs(dishes []catalog.Dish) []string {
	ids := make([]string, len(dishes))
	for i, d := range dishes {
		ids[i] = d.ID
	}
	return ids
}

func (c *Controller) turnPage(ctx context.Context, u Update, s *session.Session, page int) error {
	if c.opts.Mode != ListPages {
		return c.redirect(ctx, u, s, "paging_disabled")
	}
	menu, ok := c.opts.Catalog.Menu(s.SelectedMenuID)
	if !ok {
		return c.redirect(ctx, u, s, "no_menu")
	}
	target := u.Origin
	if target == nil {
		target = s.ActiveList
	}
	v, visible, clamped := c.listView(menu, page, c.now(u))
	ref := c.editOrSend(ctx, u.ChatID, target, v)
	s.SetVisible(visible, ref)
	s.Page = clamped
	return nil
}

func (c *Controller) selectDish(ctx context.Context, u Update, s *session.Session, cmd action.Command) error {
	dish, reason := c.resolveDish(u, s, cmd)
	if reason != "" {
		c.log(ctx, slog.LevelWarn, "dialog.redirect",
			slog.Int64("chat_id", u.ChatID),
			slog.String("reason", reason),
			slog.Int("index", cmd.Index),
			slog.Int("visible", len(s.Visible)),
			slog.String("outcome", "redirect"),
		)
		return c.redirect(ctx, u, s, "")
	}

	code := c.opts.NewCode()
	if err := c.opts.Journal.RecordSelection(ctx, journal.Selection{
		RecordedAt:     c.now(u),
		UserID:         u.User.ID,
		Username:       u.User.Username,
		ChallengeID:    dish.ChallengeID,
		Dish:           dish.Name,
		Menu:           dish.MenuName,
		SubmissionCode: code,
	}); err != nil {
		return fmt.Errorf("record selection: %w", err)
	}

	backPage := -1
	if c.opts.Mode == ListPages {
		backPage = s.Page
	}
	detail := render.DishDetail(dish, backPage)
	if err := c.opts.Gateway.Edit(ctx, *s.ActiveList, detail); err != nil {
		c.editFailed(ctx, *s.ActiveList, "dish_detail", err)
		if _, err := c.opts.Gateway.Send(ctx, u.ChatID, detail); err != nil {
			c.log(ctx, slog.LevelWarn, "dialog.send_failed",
				slog.Int64("chat_id", u.ChatID),
				slog.String("dish_id", dish.ID),
				slog.String("err", err.Error()),
			)
		}
	}
	s.ClearVisible()

	c.record(ctx, u, journal.EventDishSelected, map[string]any{
		"menu_id":      dish.MenuID,
		"dish":         dish.Name,
		"challenge_id": dish.ChallengeID,
	})
	c.enqueue(ctx, u.ChatID, render.Challenge(dish))
	c.enqueue(ctx, u.ChatID, render.Submission(c.opts.SubmitURL, c.opts.WindowHours, code))
	return nil
}

// resolveDish checks that cmd points at a dish on the list the user is looking at.
// It returns a non-empty reason when it does not.
func (c *Controller) resolveDish(u Update, s *session.Session, cmd action.Command) (catalog.Dish, string) {
	if _, ok := c.opts.Catalog.Menu(s.SelectedMenuID); !ok {
		return catalog.Dish{}, "no_menu"
	}
	if !s.HasVisible() {
		return catalog.Dish{}, "no_list"
	}
	if u.Origin != nil && *u.Origin != *s.ActiveList {
		return catalog.Dish{}, "stale_message"
	}
	if c.opts.Mode == ListPages && cmd.Page >= 0 && cmd.Page != s.Page {
		return catalog.Dish{}, "stale_page"
	}
	id, ok := s.CurrentDish(cmd.Index)
	if !ok {
		return catalog.Dish{}, "index_out_of_range"
	}
	dish, ok := c.opts.Catalog.Dish(id)
	if !ok || dish.MenuID != s.SelectedMenuID {
		return catalog.Dish{}, "unknown_dish"
	}
	return dish, ""
}

// redirect sends the user back to the menu list.
func (c *Controller) redirect(ctx context.Context, u Update, s *session.Session, reason string) error {
	if reason != "" {
		c.log(ctx, slog.LevelWarn, "dialog.redirect",
			slog.Int64("chat_id", u.ChatID),
			slog.String("reason", reason),
			slog.String("outcome", "redirect"),
		)
	}
	return c.showMenuList(ctx, u, s)
}

// editOrSend edits ref when given, falling back to a new message. It returns the
// reference of the message now showing v, or nil when nothing could be delivered.
func (c *Controller) editOrSend(ctx context.Context, chatID int64, ref *session.Ref, v render.View) *session.Ref {
	if ref != nil {
		err := c.opts.Gateway.Edit(ctx, *ref, v)
		if err == nil {
			r := *ref
			return &r
		}
		c.editFailed(ctx, *ref, "edit_or_send", err)
	}
	sent, err := c.opts.Gateway.Send(ctx, chatID, v)
	if err != nil {
		c.log(ctx, slog.LevelWarn, "dialog.send_failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return &sent
}

func (c *Controller) editFailed(ctx context.Context, ref session.Ref, step string, err error) {
	c.log(ctx, slog.LevelWarn, "dialog.edit_failed",
		slog.Int64("chat_id", ref.ChatID),
		slog.Int("message_id", ref.MessageID),
		slog.String("step", step),
		slog.String("err", err.Error()),
		slog.String("outcome", "fallback"),
	)
}

func (c *Controller) enqueue(ctx context.Context, chatID int64, v render.View) {
	if err := c.opts.Gateway.Enqueue(ctx, chatID, v); err != nil {
		c.log(ctx, slog.LevelWarn, "dialog.send_failed",
			slog.Int64("chat_id", chatID),
			slog.String("step", "follow_up"),
			slog.String("err", err.Error()),
		)
	}
}

// record appends a usage event. Journal failures are logged and otherwise ignored.
func (c *Controller) record(ctx context.Context, u Update, name string, extra map[string]any) {
	err := c.opts.Journal.RecordEvent(ctx, journal.Event{
		UserID:    u.User.ID,
		Username:  u.User.Username,
		Name:      name,
		Timestamp: c.now(u),
		Extra:     extra,
	})
	if err != nil {
		c.log(ctx, slog.LevelWarn, "dialog.journal_failed",
			slog.String("name", name),
			slog.String("err", err.Error()),
		)
	}
}

// reply sends a standalone message that does not touch the session.
func (c *Controller) reply(ctx context.Context, u Update, v render.View) {
	if _, err := c.opts.Gateway.Send(ctx, u.ChatID, v); err != nil {
		c.log(ctx, slog.LevelWarn, "dialog.send_failed",
			slog.Int64("chat_id", u.ChatID),
			slog.String("err", err.Error()),
		)
	}
}
