// Package bootstrap brings up the infrastructure a bot needs before its
// own wiring: logging, then the database and its schema.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/core/logger"
)

type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations holds one directory of SQL files per driver.
	Migrations fs.FS

	// Overrides for tests; nil means the real implementation.
	InitLogger func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config, fs.FS) error
}

func (o *Options) fill() {
	if o.InitLogger == nil {
		o.InitLogger = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.Migrate
	}
}

// Result is what Run brought up. DB is nil for the memory driver.
type Result struct {
	DB *sqlx.DB
}

// Run initialises the logger, connects and migrates the schema. Connect
// waits for a Postgres server that is still starting.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	opts.fill()

	if err := opts.InitLogger(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	if opts.Database.Driver == coredatabase.DriverMemory {
		return &Result{}, nil
	}

	db, err := opts.Connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if err := opts.Migrate(ctx, opts.Database, opts.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return &Result{DB: db}, nil
}
