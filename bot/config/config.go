// Package config holds the menubot configuration: the reusable core sections
// plus catalog, schedule, listing, challenge, FAQ, session and journal settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/menubot/bot/schedule"
	coreconfig "github.com/m3rciful/menubot/core/config"
	coredatabase "github.com/m3rciful/menubot/core/database"
)

// Listing modes.
const (
	ListModeSlots = "slots"
	ListModePages = "pages"
)

// Session backends.
const (
	SessionsMemory = "memory"
	SessionsFile   = "file"
	SessionsRedis  = "redis"
)

// Journal backends.
const (
	JournalFile     = "file"
	JournalPostgres = "postgres"
)

// MaxMenuSample caps how many menus one menu list offers.
const MaxMenuSample = 3

// DefaultSubmitURL is where challenge submissions are uploaded.
const DefaultSubmitURL = "https://www.fundamentaldecisions.com/2025/08/23/submission/"

// CatalogConfig points at the two JSON exports the catalog is built from.
type CatalogConfig struct {
	MenusFile  string `yaml:"menus_file" envconfig:"CATALOG_MENUS_FILE"`
	DishesFile string `yaml:"dishes_file" envconfig:"CATALOG_DISHES_FILE"`
}

// ScheduleConfig fixes the UTC offset used to read cutoff times.
type ScheduleConfig struct {
	BaselineOffset string        `yaml:"baseline_offset" envconfig:"SCHEDULE_BASELINE_OFFSET"`
	Offset         time.Duration `yaml:"-" ignored:"true"`
}

// ListingConfig chooses how dishes are listed.
type ListingConfig struct {
	Mode       string `yaml:"mode" envconfig:"LISTING_MODE"`
	PageSize   int    `yaml:"page_size" envconfig:"LISTING_PAGE_SIZE"`
	MenuSample int    `yaml:"menu_sample" envconfig:"LISTING_MENU_SAMPLE"`
}

// ChallengeConfig drives the follow-up sent after a dish is picked.
type ChallengeConfig struct {
	SubmitURL   string `yaml:"submit_url" envconfig:"CHALLENGE_SUBMIT_URL"`
	WindowHours int    `yaml:"window_hours" envconfig:"CHALLENGE_WINDOW_HOURS"`
}

// FAQConfig optionally replaces the built-in FAQ text.
type FAQConfig struct {
	File string `yaml:"file" envconfig:"FAQ_FILE"`
}

// SessionsConfig selects where navigation sessions live.
type SessionsConfig struct {
	Backend       string        `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	File          string        `yaml:"file" envconfig:"SESSIONS_FILE"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB"`
	RedisPrefix   string        `yaml:"redis_prefix" envconfig:"REDIS_PREFIX"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSIONS_TTL"`
}

// JournalConfig selects where selections and usage events are recorded.
type JournalConfig struct {
	Backend       string              `yaml:"backend" envconfig:"JOURNAL_BACKEND"`
	DashboardFile string              `yaml:"dashboard_file" envconfig:"JOURNAL_DASHBOARD_FILE"`
	EventsFile    string              `yaml:"events_file" envconfig:"JOURNAL_EVENTS_FILE"`
	Database      coredatabase.Config `yaml:"database"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Catalog   CatalogConfig   `yaml:"catalog"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Listing   ListingConfig   `yaml:"listing"`
	Challenge ChallengeConfig `yaml:"challenge"`
	FAQ       FAQConfig       `yaml:"faq"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Journal   JournalConfig   `yaml:"journal"`
}

// CoreConfig exposes the embedded core section to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core and application sections and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	if cfg.Catalog.MenusFile == "" {
		cfg.Catalog.MenusFile = "data/Menulist.json"
	}
	if cfg.Catalog.DishesFile == "" {
		cfg.Catalog.DishesFile = "data/MenuAndDishes.json"
	}

	raw := strings.TrimSpace(cfg.Schedule.BaselineOffset)
	if raw == "" {
		raw = "+08:00"
	}
	offset, err := schedule.ParseOffset(raw)
	if err != nil {
		return fmt.Errorf("invalid schedule.baseline_offset: %w", err)
	}
	cfg.Schedule.BaselineOffset = schedule.FormatOffset(offset)
	cfg.Schedule.Offset = offset

	cfg.Listing.Mode = strings.ToLower(strings.TrimSpace(cfg.Listing.Mode))
	switch cfg.Listing.Mode {
	case "":
		cfg.Listing.Mode = ListModeSlots
	case ListModeSlots, ListModePages:
	default:
		return fmt.Errorf("invalid listing.mode %q; allowed: slots, pages", cfg.Listing.Mode)
	}
	if cfg.Listing.PageSize < 0 || cfg.Listing.MenuSample < 0 {
		return errors.New("listing.page_size and listing.menu_sample must be >= 0")
	}
	if cfg.Listing.PageSize == 0 {
		cfg.Listing.PageSize = 8
	}
	if cfg.Listing.MenuSample == 0 {
		cfg.Listing.MenuSample = MaxMenuSample
	}
	if cfg.Listing.MenuSample > MaxMenuSample {
		return fmt.Errorf("invalid listing.menu_sample %d; allowed: 1-%d", cfg.Listing.MenuSample, MaxMenuSample)
	}

	if strings.TrimSpace(cfg.Challenge.SubmitURL) == "" {
		cfg.Challenge.SubmitURL = DefaultSubmitURL
	}
	if cfg.Challenge.WindowHours < 0 {
		return errors.New("challenge.window_hours must be >= 0")
	}
	if cfg.Challenge.WindowHours == 0 {
		cfg.Challenge.WindowHours = 24
	}

	if err := normalizeSessions(&cfg.Sessions); err != nil {
		return err
	}
	return normalizeJournal(&cfg.Journal)
}

func normalizeSessions(s *SessionsConfig) error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = SessionsMemory
	case SessionsMemory:
	case SessionsFile:
		if s.File == "" {
			s.File = "data/sessions.yaml"
		}
	case SessionsRedis:
		if strings.TrimSpace(s.RedisAddr) == "" {
			return errors.New("sessions.redis_addr is required when sessions.backend is 'redis'")
		}
		if s.RedisPrefix == "" {
			s.RedisPrefix = "menubot:session:"
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, file, redis", s.Backend)
	}
	if s.TTL < 0 {
		return errors.New("sessions.ttl must be >= 0")
	}
	return nil
}

func normalizeJournal(j *JournalConfig) error {
	j.Backend = strings.ToLower(strings.TrimSpace(j.Backend))
	switch j.Backend {
	case "", JournalFile:
		j.Backend = JournalFile
		if j.DashboardFile == "" {
			j.DashboardFile = "data/dashboard.json"
		}
		if j.EventsFile == "" {
			j.EventsFile = "data/events.json"
		}
	case JournalPostgres:
		db := &j.Database
		if db.Host == "" || db.Name == "" || db.User == "" {
			return errors.New("journal.database host, name and user are required when journal.backend is 'postgres'")
		}
		if db.Port == "" {
			db.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid journal.backend %q; allowed: file, postgres", j.Backend)
	}
	return nil
}
