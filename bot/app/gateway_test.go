package app

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/bot/action"
	"github.com/m3rciful/menubot/bot/render"
	"github.com/m3rciful/menubot/bot/session"
	tgsender "github.com/m3rciful/menubot/core/telegram/sender"
)

type sentCall struct {
	chat string
	text string
	opts *tele.SendOptions
}

type fakeAPI struct {
	sends   []sentCall
	edits   []tele.StoredMessage
	editErr error
	sendErr error
}

func (f *fakeAPI) Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	call := sentCall{chat: to.Recipient(), text: what.(string)}
	if len(opts) > 0 {
		call.opts, _ = opts[0].(*tele.SendOptions)
	}
	f.sends = append(f.sends, call)
	id, _ := strconv.ParseInt(to.Recipient(), 10, 64)
	return &tele.Message{ID: 100 + len(f.sends), Chat: &tele.Chat{ID: id}}, nil
}

func (f *fakeAPI) Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edits = append(f.edits, msg.(tele.StoredMessage))
	return &tele.Message{}, nil
}

type fakeQueue struct {
	chats []int64
	err   error
}

func (q *fakeQueue) Submit(_ context.Context, j tgsender.Job) error {
	if q.err != nil {
		return q.err
	}
	q.chats = append(q.chats, j.ChatID)
	return j.Run()
}

func menuView() render.View {
	return render.View{
		Text: "<b>Menus</b>",
		HTML: true,
		Keyboard: [][]render.Button{
			{{Text: "Focus", Action: action.Menu("M1")}, {Text: "Dice", Action: action.Random()}},
			{},
			{{Text: "Dish 2", Action: action.DishOnPage(1, 3)}},
		},
		DisablePreview: true,
	}
}

func TestGatewayNotAttached(t *testing.T) {
	g := &Gateway{}
	ctx := context.Background()

	_, err := g.Send(ctx, 1, render.View{Text: "hi"})
	assert.ErrorIs(t, err, ErrNotAttached)
	assert.ErrorIs(t, g.Edit(ctx, session.Ref{ChatID: 1, MessageID: 2}, render.View{}), ErrNotAttached)
	assert.ErrorIs(t, g.Enqueue(ctx, 1, render.View{}), ErrNotAttached)
}

func TestGatewaySendMapsView(t *testing.T) {
	api := &fakeAPI{}
	g := &Gateway{}
	g.Attach(api, nil)

	ref, err := g.Send(context.Background(), 42, menuView())
	require.NoError(t, err)
	assert.Equal(t, session.Ref{ChatID: 42, MessageID: 101}, ref)

	require.Len(t, api.sends, 1)
	call := api.sends[0]
	assert.Equal(t, "42", call.chat)
	assert.Equal(t, "<b>Menus</b>", call.text)
	require.NotNil(t, call.opts)
	assert.Equal(t, tele.ModeHTML, call.opts.ParseMode)
	assert.True(t, call.opts.DisableWebPagePreview)

	require.NotNil(t, call.opts.ReplyMarkup)
	rows := call.opts.ReplyMarkup.InlineKeyboard
	require.Len(t, rows, 2, "empty rows are dropped")
	assert.Equal(t, "Focus", rows[0][0].Text)
	assert.Equal(t, action.KeyMenu, rows[0][0].Unique)
	assert.Equal(t, "M1", rows[0][0].Data)
	assert.Equal(t, action.KeyRand, rows[0][1].Unique)
	assert.Equal(t, action.KeyDish, rows[1][0].Unique)
	assert.Equal(t, "1|3", rows[1][0].Data)
}

func TestGatewaySendPlainText(t *testing.T) {
	api := &fakeAPI{}
	g := &Gateway{}
	g.Attach(api, nil)

	_, err := g.Send(context.Background(), 5, render.View{Text: "plain"})
	require.NoError(t, err)
	assert.Empty(t, api.sends[0].opts.ParseMode)
	assert.Nil(t, api.sends[0].opts.ReplyMarkup)
}

func TestGatewaySendError(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("network down")}
	g := &Gateway{}
	g.Attach(api, nil)

	_, err := g.Send(context.Background(), 5, render.View{Text: "x"})
	assert.ErrorContains(t, err, "network down")
}

func TestGatewayEdit(t *testing.T) {
	api := &fakeAPI{}
	g := &Gateway{}
	g.Attach(api, nil)

	require.NoError(t, g.Edit(context.Background(), session.Ref{ChatID: 7, MessageID: 55}, menuView()))
	require.Len(t, api.edits, 1)
	assert.Equal(t, tele.StoredMessage{MessageID: "55", ChatID: 7}, api.edits[0])
}

func TestGatewayEditErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"not modified api error", &tele.Error{Code: 400, Description: "Bad Request: message is not modified"}, false},
		{"not modified plain", errors.New("telegram: message is not modified (400)"), false},
		{"message gone", &tele.Error{Code: 400, Description: "Bad Request: message to edit not found"}, true},
		{"transport", errors.New("timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Gateway{}
			g.Attach(&fakeAPI{editErr: tt.err}, nil)
			err := g.Edit(context.Background(), session.Ref{ChatID: 1, MessageID: 2}, render.View{Text: "x"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGatewayEnqueue(t *testing.T) {
	api := &fakeAPI{}
	q := &fakeQueue{}
	g := &Gateway{}
	g.Attach(api, q)

	require.NoError(t, g.Enqueue(context.Background(), 9, render.View{Text: "first"}))
	require.NoError(t, g.Enqueue(context.Background(), 9, render.View{Text: "second"}))

	assert.Equal(t, []int64{9, 9}, q.chats)
	require.Len(t, api.sends, 2)
	assert.Equal(t, "first", api.sends[0].text)
	assert.Equal(t, "second", api.sends[1].text)
}

func TestGatewayEnqueueWithoutQueueSendsDirectly(t *testing.T) {
	api := &fakeAPI{}
	g := &Gateway{}
	g.Attach(api, nil)

	require.NoError(t, g.Enqueue(context.Background(), 9, render.View{Text: "now"}))
	require.Len(t, api.sends, 1)
}

func TestGatewayEnqueueQueueError(t *testing.T) {
	g := &Gateway{}
	g.Attach(&fakeAPI{}, &fakeQueue{err: errors.New("queue full")})

	err := g.Enqueue(context.Background(), 9, render.View{Text: "x"})
	assert.ErrorContains(t, err, "queue full")
}
