package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start", Aliases: []string{"today"}})
	reg.RegisterCommand("/slot", commands.Command{Handler: noop, Description: "Slots", AdminOnly: true, Hidden: true})
	reg.RegisterCommand("/faq", commands.Command{Handler: noop, Description: "FAQ"})
	reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/empty", commands.Command{Handler: noop})
	reg.RegisterCommand("/faq", commands.Command{Handler: noop, Description: "duplicate"})

	require.Len(t, reg.Commands(), 3)
	assert.Equal(t, "FAQ", reg.Commands()["/faq"].Description)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 2)
	assert.Equal(t, "/faq", visible[0].Text)
	assert.Equal(t, "/start", visible[1].Text)
	assert.Len(t, reg.ListCommands(false), 3)
}

func TestRegistryLookupCommand(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start", Aliases: []string{"today"}})
	reg.RegisterCommand("/timezone", commands.Command{Handler: noop, Description: "Time zone"})

	tests := []struct {
		text string
		key  string
		ok   bool
	}{
		{"/start", "/start", true},
		{"/START", "/start", true},
		{"/start@menu_bot", "/start", true},
		{"/today", "/start", true},
		{"/timezone +08:00", "/timezone", true},
		{"start", "", false},
		{"hello there", "", false},
		{"", "", false},
		{"/unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			key, _, ok := reg.LookupCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("menu", noop))
	require.NoError(t, reg.RegisterCallback("dish", noop))
	assert.Error(t, reg.RegisterCallback("menu", noop))
	assert.Error(t, reg.RegisterCallback("", noop))
	assert.Error(t, reg.RegisterCallback("x", nil))

	_, ok := reg.GetCallback("menu")
	assert.True(t, ok)
	_, ok = reg.GetCallback("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"dish", "menu"}, reg.ListCallbacks())

	assert.NotNil(t, reg.CallbackNotFound())
	called := false
	reg.SetCallbackNotFound(func(tele.Context) error { called = true; return nil })
	require.NoError(t, reg.CallbackNotFound()(nil))
	assert.True(t, called)
}

func TestBuildPoller(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll
	p, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, p.Timeout)

	cfg.Telegram.LongPollTimeoutSeconds = 25
	p, ok = BuildPoller(PollerOptionsFrom(cfg)).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 25*time.Second, p.Timeout)

	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook = coreconfig.WebhookConfig{URL: "https://bot.example.com/hook", Listen: "0.0.0.0", Port: 8443}
	wh, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://bot.example.com/hook", wh.Endpoint.PublicURL)
}
