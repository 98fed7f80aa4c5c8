package app

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/bot/action"
	"github.com/m3rciful/menubot/bot/catalog"
	"github.com/m3rciful/menubot/bot/dialog"
	"github.com/m3rciful/menubot/bot/journal"
	"github.com/m3rciful/menubot/bot/schedule"
	"github.com/m3rciful/menubot/bot/session"
	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/state"
)

const testChat = int64(10)

var testNow = time.Date(2025, 8, 23, 10, 30, 0, 0, time.UTC)

type fakeContext struct {
	tele.Context
	update   tele.Update
	store    map[string]any
	response *tele.CallbackResponse
}

func commandContext(text, payload string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{
			Text:    text,
			Payload: payload,
			Sender:  &tele.User{ID: testChat, Username: "ana"},
			Chat:    &tele.Chat{ID: testChat},
		}},
		store: map[string]any{},
	}
}

func buttonContext(data string, messageID int) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 2, Callback: &tele.Callback{
			Data:    data,
			Sender:  &tele.User{ID: testChat, Username: "ana"},
			Message: &tele.Message{ID: messageID, Chat: &tele.Chat{ID: testChat}},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Message() *tele.Message   { return f.update.Message }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	return f.update.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Callback != nil {
		return f.update.Callback.Message.Chat
	}
	return f.update.Message.Chat
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) > 0 {
		f.response = resp[0]
	}
	return nil
}

type stack struct {
	h     handlers
	api   *fakeAPI
	store *state.Memory[session.Session]
	jr    *journal.File
}

func newStack(t *testing.T) *stack {
	t.Helper()
	at := func(h int) catalog.Clock { return catalog.NewClock(h, 0, 0) }
	cat, err := catalog.New(
		[]catalog.Menu{{ID: "M1", Name: "Focus Kitchen"}},
		[]catalog.Dish{
			{MenuID: "M1", Name: "Deep Work Toast", Challenge: "Block 90 minutes", ChallengeID: "C-101", Cutoff: at(11)},
			{MenuID: "M1", Name: "Shutdown Soup", Cutoff: at(22)},
		},
	)
	require.NoError(t, err)

	s := &stack{
		api:   &fakeAPI{},
		store: state.NewMemory[session.Session](),
	}
	dir := t.TempDir()
	s.jr = journal.NewFile(filepath.Join(dir, "dashboard.json"), filepath.Join(dir, "events.json"))

	gw := &Gateway{}
	gw.Attach(s.api, &fakeQueue{})
	now := func() time.Time { return testNow }
	ctrl, err := dialog.New(dialog.Options{
		Catalog:  cat,
		Resolver: schedule.NewResolver(0),
		Sessions: session.NewManager(s.store, nil),
		Gateway:  gw,
		Journal:  s.jr,
		Now:      now,
		Rand:     rand.New(rand.NewPCG(1, 2)),
		NewCode:  func() string { return "code-1" },
	})
	require.NoError(t, err)
	s.h = handlers{ctrl: ctrl, now: now}
	return s
}

func (s *stack) session(t *testing.T) session.Session {
	t.Helper()
	got, _, err := s.store.Get(context.Background(), testChat)
	require.NoError(t, err)
	return got
}

func uniques(m *tele.ReplyMarkup) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.Unique)
		}
	}
	return out
}

func TestHandlersMenuToDishFlow(t *testing.T) {
	s := newStack(t)

	require.NoError(t, s.h.menus(commandContext("/menus", "")))
	require.Len(t, s.api.sends, 1)
	assert.Contains(t, uniques(s.api.sends[0].opts.ReplyMarkup), action.KeyMenu)
	menuList := s.session(t).MenuList
	require.NotNil(t, menuList)

	require.NoError(t, s.h.callback(buttonContext("\fmenu|M1", menuList.MessageID)))
	require.Len(t, s.api.edits, 1, "menu list collapses")
	assert.Equal(t, tele.StoredMessage{MessageID: "101", ChatID: testChat}, s.api.edits[0])
	require.Len(t, s.api.sends, 2)
	assert.Contains(t, uniques(s.api.sends[1].opts.ReplyMarkup), action.KeyDish)

	sess := s.session(t)
	assert.Equal(t, "M1", sess.SelectedMenuID)
	require.NotNil(t, sess.ActiveList)
	require.NotEmpty(t, sess.Visible)

	require.NoError(t, s.h.callback(buttonContext("\fdish|0", sess.ActiveList.MessageID)))
	picks, err := s.jr.Selections(context.Background(), testChat, 10)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, "Deep Work Toast", picks[0].Dish)
}

func TestHandlersMalformedCallbackShowsMenus(t *testing.T) {
	s := newStack(t)

	require.NoError(t, s.h.callback(buttonContext("\fdish|abc", 77)))
	require.Len(t, s.api.edits, 1)
	assert.Equal(t, "77", s.api.edits[0].MessageID)
	assert.NotNil(t, s.session(t).MenuList)
}

func TestAcceptCallback(t *testing.T) {
	assert.True(t, acceptCallback(action.KeyDish, "0"))
	assert.True(t, acceptCallback(action.KeyMenu, "M1"))
	assert.False(t, acceptCallback(action.KeyDish, "abc"))
	assert.False(t, acceptCallback(action.KeyMenu, ""))
}

func TestHandlersUnknownCallback(t *testing.T) {
	s := newStack(t)
	c := buttonContext("\fwhat|ever", 88)

	require.NoError(t, s.h.unknownCallback(c))
	require.NotNil(t, c.response)
	assert.Equal(t, unsupportedText, c.response.Text)
	assert.NotNil(t, s.session(t).MenuList)
}

func TestHandlersTimezoneUsesPayload(t *testing.T) {
	s := newStack(t)

	require.NoError(t, s.h.timezone(commandContext("/timezone +05:30", "+05:30")))
	require.Len(t, s.api.sends, 1)
	assert.Contains(t, s.api.sends[0].text, "+05:30")
}

func TestHandlersUpdate(t *testing.T) {
	h := handlers{now: func() time.Time { return testNow }}

	u := h.update(commandContext("/start", ""))
	assert.Equal(t, testChat, u.ChatID)
	assert.Equal(t, dialog.User{ID: testChat, Username: "ana"}, u.User)
	assert.Nil(t, u.Origin)
	assert.Equal(t, testNow, u.At)

	u = h.update(buttonContext("\flist", 5))
	require.NotNil(t, u.Origin)
	assert.Equal(t, session.Ref{ChatID: testChat, MessageID: 5}, *u.Origin)
}

func TestRateLimitedRespondsToCallbacksOnly(t *testing.T) {
	c := buttonContext("\flist", 1)
	require.NoError(t, rateLimited(c))
	assert.NotNil(t, c.response)

	m := commandContext("hi", "")
	require.NoError(t, rateLimited(m))
	assert.Nil(t, m.response)
}

func TestRegister(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, newStack(t).h.register(reg))

	assert.Equal(t, []string{"back", "dish", "list", "menu", "page", "rand"}, reg.ListCallbacks())

	key, _, ok := reg.LookupCommand("/today")
	require.True(t, ok)
	assert.Equal(t, "/start", key)

	var visible []string
	for _, c := range reg.ListCommands(true) {
		visible = append(visible, c.Text)
	}
	assert.Equal(t, []string{"/faq", "/history", "/menus", "/start", "/timezone"}, visible)
	assert.True(t, reg.Commands()["/slot"].AdminOnly)
	assert.NotNil(t, reg.TextFallback())
}
