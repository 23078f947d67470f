// Package app wires configuration, storage, the question source, the quiz
// engine and the Telegram runtime together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/quizbot/core/bootstrap"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/core/logger"
	coretelegram "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/sender"
	"github.com/m3rciful/quizbot/core/telegram/state"
	"github.com/m3rciful/quizbot/internal/bot"
	"github.com/m3rciful/quizbot/internal/llm"
	"github.com/m3rciful/quizbot/internal/ops"
	"github.com/m3rciful/quizbot/internal/question"
	"github.com/m3rciful/quizbot/internal/quiz"
	"github.com/m3rciful/quizbot/internal/users"
	"github.com/m3rciful/quizbot/migrations"
)

// App holds the long-lived components of a running bot.
type App struct {
	cfg       *Config
	db        *sqlx.DB
	users     users.Store
	engine    *quiz.Engine
	transport *bot.Transport
	handlers  *bot.Handlers
	ops       *ops.Server
	outbox    *sender.Dispatcher
}

// Bootstrap initialises logging and storage and builds the quiz engine.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	res, err := bootstrap.Run(context.Background(), bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: res.DB, users: userStore(res.DB)}
	if err := a.build(context.Background()); err != nil {
		_ = a.closeDB()
		return nil, err
	}
	return a, nil
}

func userStore(db *sqlx.DB) users.Store {
	if db == nil {
		return users.NewMemoryStore()
	}
	return users.NewSQLStore(db)
}

func (a *App) build(ctx context.Context) error {
	provider, err := llm.NewProvider(ctx, a.cfg.LLM)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	variant, err := question.ParseVariant(a.cfg.Quiz.Variant)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	source, err := question.NewSource(provider, variant,
		question.WithSubtopics(a.cfg.Quiz.Subtopics),
		question.WithGeneration(a.cfg.LLM.MaxTokens, a.cfg.LLM.Temperature),
	)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	a.transport = bot.NewTransport(nil, nil)
	a.engine, err = quiz.NewEngine(source, a.transport, a.cfg.Quiz)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.handlers = bot.NewHandlers(a.engine, a.users, state.NewMemoryManager(), a.cfg.Telegram.AdminID)
	if a.cfg.Ops.Listen != "" {
		a.ops = ops.New(a.cfg.Ops, a.engine,
			ops.WithTraffic(middleware.Traffic),
			ops.WithOutbox(a.outboxStats),
		)
	}

	logger.Info(ctx, "app", "wired",
		slog.String("driver", a.cfg.Database.Driver),
		slog.String("provider", a.cfg.LLM.Provider),
		slog.String("model", provider.ModelID()),
		slog.String("pacing", string(a.cfg.Quiz.Pacing)),
		slog.String("variant", string(variant)),
	)
	return nil
}

// TelegramRunOptions registers handlers and hooks the engine and the ops
// server into the bot lifecycle.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.handlers.Register(reg)
	if a.outbox == nil {
		a.outbox = sender.NewDispatcher(a.cfg.Sender.options())
	}

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Dispatcher:  a.outbox,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      a.handlers.Routes(reg),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) outboxStats() sender.Stats {
	if a.outbox == nil {
		return sender.Stats{}
	}
	return a.outbox.Stats()
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.transport.Bind(rt.Bot, rt.Dispatcher)
	if a.ops != nil {
		if err := a.ops.Start(ctx); err != nil {
			return fmt.Errorf("app: ops listener: %w", err)
		}
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	a.engine.Close()
	var errs []error
	if a.ops != nil {
		if err := a.ops.Shutdown(context.WithoutCancel(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("ops shutdown: %w", err))
		}
	}
	if err := a.closeDB(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("db close: %w", err)
	}
	return nil
}

// OpenUsers opens only the user store, for offline commands. The returned
// func closes it.
func OpenUsers(cfg *Config) (users.Store, func() error, error) {
	if cfg.Database.Driver == coredatabase.DriverMemory {
		return nil, nil, errors.New("app: the memory driver keeps no users between runs")
	}
	res, err := bootstrap.Run(context.Background(), bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, nil, err
	}
	return users.NewSQLStore(res.DB), res.DB.Close, nil
}
