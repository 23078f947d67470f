// Package cmd runs a Telegram app from a config file until SIGINT or SIGTERM.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/logger"
	coretelegram "github.com/m3rciful/quizbot/core/telegram"
)

// ConfigCarrier is an app config that embeds the core one.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is a bootstrapped app ready to describe its bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

type Options struct {
	ConfigPath string
	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	// Context is canceled on SIGINT or SIGTERM; defaults to Background.
	Context context.Context
	// Test hooks.
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads the config, bootstraps the app and runs the bot. The logger is
// flushed on the way out whatever happened.
func Run(opts Options) error {
	switch {
	case opts.LoadConfig == nil || opts.Bootstrap == nil:
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	case opts.ConfigPath == "":
		return errors.New("cmd: no config path")
	}
	if opts.ShutdownLogger == nil {
		opts.ShutdownLogger = logger.Shutdown
	}
	if opts.RunTelegram == nil {
		opts.RunTelegram = coretelegram.RunTelegram
	}
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}

	started := time.Now()
	// the logger is not up yet
	log.Printf("loading config %s", opts.ConfigPath)
	cfg, err := opts.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return errors.New("load config: core section missing")
	}

	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("telegram options: %w", err)
	}
	announceLifecycle(&runOpts, started)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return opts.RunTelegram(ctx, runOpts)
}

// announceLifecycle wraps the hooks with app.ready and app.shutdown lines.
func announceLifecycle(o *coretelegram.RunOptions, started time.Time) {
	onStart, onStop := o.OnStart, o.OnStop
	o.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup_duration", time.Since(started)))
		return nil
	}
	o.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown", slog.Duration("uptime", time.Since(started)))
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}
