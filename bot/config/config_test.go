package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/menubot/core/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "telegram:\n  token: \"1:abc\"\n"))
	require.NoError(t, err)

	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "data/Menulist.json", cfg.Catalog.MenusFile)
	assert.Equal(t, "data/MenuAndDishes.json", cfg.Catalog.DishesFile)
	assert.Equal(t, "+08:00", cfg.Schedule.BaselineOffset)
	assert.Equal(t, 8*time.Hour, cfg.Schedule.Offset)
	assert.Equal(t, ListModeSlots, cfg.Listing.Mode)
	assert.Equal(t, 8, cfg.Listing.PageSize)
	assert.Equal(t, 3, cfg.Listing.MenuSample)
	assert.Equal(t, DefaultSubmitURL, cfg.Challenge.SubmitURL)
	assert.Equal(t, 24, cfg.Challenge.WindowHours)
	assert.Equal(t, SessionsMemory, cfg.Sessions.Backend)
	assert.Equal(t, JournalFile, cfg.Journal.Backend)
	assert.Equal(t, "data/dashboard.json", cfg.Journal.DashboardFile)
	assert.Equal(t, "data/events.json", cfg.Journal.EventsFile)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadFullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "1:abc"
  admin_id: 42
logging:
  level: debug
catalog:
  menus_file: fixtures/menus.json
  dishes_file: fixtures/dishes.json
schedule:
  baseline_offset: "-0530"
listing:
  mode: Pages
  page_size: 5
challenge:
  window_hours: 12
faq:
  file: faq.txt
sessions:
  backend: redis
  redis_addr: localhost:6379
  ttl: 72h
journal:
  backend: postgres
  database:
    host: db
    user: menubot
    name: menubot
    migrations_dir: migrations
`))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "fixtures/menus.json", cfg.Catalog.MenusFile)
	assert.Equal(t, "-05:30", cfg.Schedule.BaselineOffset)
	assert.Equal(t, -(5*time.Hour + 30*time.Minute), cfg.Schedule.Offset)
	assert.Equal(t, ListModePages, cfg.Listing.Mode)
	assert.Equal(t, 5, cfg.Listing.PageSize)
	assert.Equal(t, 12, cfg.Challenge.WindowHours)
	assert.Equal(t, "faq.txt", cfg.FAQ.File)
	assert.Equal(t, SessionsRedis, cfg.Sessions.Backend)
	assert.Equal(t, "menubot:session:", cfg.Sessions.RedisPrefix)
	assert.Equal(t, 72*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, JournalPostgres, cfg.Journal.Backend)
	assert.Equal(t, "5432", cfg.Journal.Database.Port)
	assert.Equal(t, "migrations", cfg.Journal.Database.MigrationsDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "9:env")
	t.Setenv("LISTING_MODE", "pages")
	t.Setenv("SCHEDULE_BASELINE_OFFSET", "UTC+2")
	t.Setenv("SESSIONS_BACKEND", "file")

	cfg, err := Load(writeConfig(t, "listing:\n  mode: slots\n"))
	require.NoError(t, err)
	assert.Equal(t, "9:env", cfg.Telegram.Token)
	assert.Equal(t, ListModePages, cfg.Listing.Mode)
	assert.Equal(t, 2*time.Hour, cfg.Schedule.Offset)
	assert.Equal(t, SessionsFile, cfg.Sessions.Backend)
	assert.Equal(t, "data/sessions.yaml", cfg.Sessions.File)
}

func TestNormalizeRejects(t *testing.T) {
	base := func() Config {
		var c Config
		c.Telegram.Token = "1:abc"
		return c
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"bad offset", func(c *Config) { c.Schedule.BaselineOffset = "+25:00" }},
		{"bad list mode", func(c *Config) { c.Listing.Mode = "carousel" }},
		{"negative page size", func(c *Config) { c.Listing.PageSize = -1 }},
		{"menu sample above three", func(c *Config) { c.Listing.MenuSample = 5 }},
		{"negative window", func(c *Config) { c.Challenge.WindowHours = -2 }},
		{"redis without addr", func(c *Config) { c.Sessions.Backend = SessionsRedis }},
		{"unknown session backend", func(c *Config) { c.Sessions.Backend = "etcd" }},
		{"negative ttl", func(c *Config) { c.Sessions.TTL = -time.Second }},
		{"postgres without host", func(c *Config) { c.Journal.Backend = JournalPostgres }},
		{"unknown journal backend", func(c *Config) { c.Journal.Backend = "kafka" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, Normalize(&cfg))
		})
	}
	assert.Error(t, Normalize(nil))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
