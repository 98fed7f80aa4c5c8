// Package app wires the menubot together: configuration, catalog, sessions,
// journal, the dialogue controller and the Telegram runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/bot/catalog"
	"github.com/m3rciful/menubot/bot/config"
	"github.com/m3rciful/menubot/bot/dialog"
	"github.com/m3rciful/menubot/bot/faq"
	"github.com/m3rciful/menubot/bot/journal"
	"github.com/m3rciful/menubot/bot/render"
	"github.com/m3rciful/menubot/bot/schedule"
	"github.com/m3rciful/menubot/bot/session"
	"github.com/m3rciful/menubot/core/bootstrap"
	coredatabase "github.com/m3rciful/menubot/core/database"
	"github.com/m3rciful/menubot/core/logger"
	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/router"
	tgsender "github.com/m3rciful/menubot/core/telegram/sender"
	"github.com/m3rciful/menubot/core/telegram/state"
)

// App holds the initialized bot components.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	redis    *redis.Client
	catalog  *catalog.Catalog
	gateway  *Gateway
	ctrl     *dialog.Controller
	registry *tg.Registry
}

// Options lets callers replace infrastructure steps, mostly in tests.
type Options struct {
	// Bootstrap defaults to bootstrap.Run.
	Bootstrap func(context.Context, bootstrap.Options) (*bootstrap.Result, error)
	Now       func() time.Time
}

// New loads the catalog and builds every component described by cfg.
// A catalog that cannot be loaded is fatal.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if opts.Bootstrap == nil {
		opts.Bootstrap = bootstrap.Run
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	infra, err := opts.Bootstrap(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: databaseConfig(cfg),
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra, gateway: &Gateway{}}
	if err := a.build(ctx, opts.Now); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, now func() time.Time) error {
	cfg := a.cfg

	cat, _, err := catalog.LoadFiles(ctx, cfg.Catalog.MenusFile, cfg.Catalog.DishesFile)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.catalog = cat

	faqSource, err := faq.Load(cfg.FAQ.File)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	store, err := a.sessionStore(ctx)
	if err != nil {
		return err
	}

	jr, err := a.journal()
	if err != nil {
		return err
	}

	ctrl, err := dialog.New(dialog.Options{
		Catalog:     cat,
		Resolver:    schedule.NewResolver(cfg.Schedule.Offset),
		Sessions:    session.NewManager(store, nil),
		Gateway:     a.gateway,
		Journal:     jr,
		FAQ:         faqSource,
		Mode:        dialog.ListMode(cfg.Listing.Mode),
		PageSize:    cfg.Listing.PageSize,
		MenuSample:  cfg.Listing.MenuSample,
		SubmitURL:   cfg.Challenge.SubmitURL,
		WindowHours: cfg.Challenge.WindowHours,
		Now:         now,
	})
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.ctrl = ctrl

	a.registry = tg.NewRegistry()
	if err := (handlers{ctrl: ctrl, now: now}).register(a.registry); err != nil {
		return fmt.Errorf("app: register handlers: %w", err)
	}

	logger.Info(ctx, "app", "app.built",
		slog.Int("menus", cat.Len()),
		slog.Int("dishes", cat.DishCount()),
		slog.String("list_mode", cfg.Listing.Mode),
		slog.String("sessions", cfg.Sessions.Backend),
		slog.String("journal", cfg.Journal.Backend),
		slog.String("baseline_offset", cfg.Schedule.BaselineOffset),
	)
	return nil
}

func (a *App) sessionStore(ctx context.Context) (state.Store[session.Session], error) {
	sc := a.cfg.Sessions
	switch sc.Backend {
	case config.SessionsFile:
		st, err := state.OpenFile[session.Session](sc.File)
		if err != nil {
			return nil, fmt.Errorf("app: open session file: %w", err)
		}
		return st, nil
	case config.SessionsRedis:
		client, err := state.ConnectRedis(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("app: connect redis: %w", err)
		}
		a.redis = client
		return state.NewRedis[session.Session](client, sc.RedisPrefix, sc.TTL), nil
	default:
		return state.NewMemory[session.Session](), nil
	}
}

func (a *App) journal() (journal.Journal, error) {
	jc := a.cfg.Journal
	if jc.Backend == config.JournalPostgres {
		if a.infra == nil || a.infra.DB == nil {
			return nil, errors.New("app: postgres journal selected but no database connection")
		}
		return journal.NewPostgres(a.infra.DB), nil
	}
	return journal.NewFile(jc.DashboardFile, jc.EventsFile), nil
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry { return a.registry }

// Controller exposes the dialogue controller.
func (a *App) Controller() *dialog.Controller { return a.ctrl }

// TelegramRunOptions builds the runtime options for core/telegram.RunTelegram.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.registry == nil {
		return tg.RunOptions{}, errors.New("app: not built")
	}
	core := &a.cfg.Config

	failure := render.Failure().Text
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: handlers{ctrl: a.ctrl, now: time.Now}.text,
		PanicReply:    failure,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		Accept:     acceptCallback,
		PanicReply: failure,
	}))
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{PanicReply: failure})...)

	return tg.RunOptions{
		Config:            core,
		Registry:          a.registry,
		DispatcherOptions: tgsender.OptionsFrom(core.Sender),
		Middlewares:       tg.DefaultMiddlewares(core, rateLimited, failure),
		Routes:            routes,
		OnBot: func(bot *tele.Bot, d *tgsender.Dispatcher) error {
			a.gateway.Attach(bot, d)
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	if a.infra != nil {
		errs = append(errs, a.infra.Close())
		a.infra = nil
	}
	return errors.Join(errs...)
}

// databaseConfig is non-nil only when the journal lives in postgres.
func databaseConfig(cfg *config.Config) *coredatabase.Config {
	if cfg.Journal.Backend != config.JournalPostgres {
		return nil
	}
	db := cfg.Journal.Database
	return &db
}
