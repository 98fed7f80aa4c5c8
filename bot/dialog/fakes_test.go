package dialog

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/menubot/bot/journal"
	"github.com/m3rciful/menubot/bot/render"
	"github.com/m3rciful/menubot/bot/session"
)

type op struct {
	kind string // send, edit, enqueue
	ref  session.Ref
	view render.View
}

type fakeGateway struct {
	mu      sync.Mutex
	nextID  int
	ops     []op
	editErr error
	sendErr error

	editDelay time.Duration
}

func newFakeGateway() *fakeGateway { return &fakeGateway{nextID: 500} }

func (g *fakeGateway) Send(_ context.Context, chatID int64, v render.View) (session.Ref, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return session.Ref{}, g.sendErr
	}
	ref := session.Ref{ChatID: chatID, MessageID: g.nextID}
	g.nextID++
	g.ops = append(g.ops, op{kind: "send", ref: ref, view: v})
	return ref, nil
}

func (g *fakeGateway) Edit(_ context.Context, ref session.Ref, v render.View) error {
	time.Sleep(g.editDelay)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editErr != nil {
		return g.editErr
	}
	g.ops = append(g.ops, op{kind: "edit", ref: ref, view: v})
	return nil
}

func (g *fakeGateway) Enqueue(_ context.Context, chatID int64, v render.View) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = append(g.ops, op{kind: "enqueue", ref: session.Ref{ChatID: chatID}, view: v})
	return nil
}

func (g *fakeGateway) last() op {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ops[len(g.ops)-1]
}

func (g *fakeGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = nil
}

func (g *fakeGateway) all() []op {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]op(nil), g.ops...)
}

type memJournal struct {
	mu         sync.Mutex
	selections []journal.Selection
	events     []journal.Event
	selErr     error
	readErr    error
}

func (j *memJournal) RecordSelection(_ context.Context, s journal.Selection) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.selErr != nil {
		return j.selErr
	}
	j.selections = append(j.selections, s)
	return nil
}

func (j *memJournal) RecordEvent(_ context.Context, e journal.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
	return nil
}

func (j *memJournal) Selections(_ context.Context, userID int64, limit int) ([]journal.Selection, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.readErr != nil {
		return nil, j.readErr
	}
	var out []journal.Selection
	for i := len(j.selections) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if j.selections[i].UserID == userID {
			out = append(out, j.selections[i])
		}
	}
	return out, nil
}

func (j *memJournal) eventNames() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	names := make([]string, len(j.events))
	for i, e := range j.events {
		names[i] = e.Name
	}
	return names
}
