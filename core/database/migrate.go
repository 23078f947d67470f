package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/quizbot/core/logger"
)

// Migrate applies the up migrations in <driver>/ of schema. A non-empty
// cfg.MigrationsDir replaces schema with that directory on disk.
func Migrate(ctx context.Context, cfg Config, schema fs.FS) error {
	if cfg.Driver == DriverMemory {
		return nil
	}
	origin := "embedded"
	if cfg.MigrationsDir != "" {
		schema, origin = os.DirFS(cfg.MigrationsDir), cfg.MigrationsDir
	}
	if schema == nil {
		return errors.New("migrate: no migrations source")
	}

	files, err := fs.Glob(schema, path.Join(cfg.Driver, "*.up.sql"))
	if err != nil || len(files) == 0 {
		return fmt.Errorf("migrate: no %s migrations in %s", cfg.Driver, origin)
	}
	src, err := iofs.New(schema, cfg.Driver)
	if err != nil {
		return fmt.Errorf("migrate: open source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn(ctx, "migrate", "close", slog.Any("err", errors.Join(srcErr, dbErr)))
		}
	}()

	from, dirty, _ := m.Version()
	if dirty {
		return fmt.Errorf("migrate: database is dirty at version %d, fix it by hand", from)
	}

	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, "migrate", "apply",
			slog.String("driver", cfg.Driver),
			slog.Uint64("from_ver", uint64(from)),
			slog.Duration("duration", time.Since(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrate: up: %w", err)
	}
	to, _, _ := m.Version()

	applied := between(files, uint64(from), uint64(to))
	preview, cut := logger.SummarizeStrings(applied, 6)
	logger.Info(ctx, "migrate", "summary",
		slog.String("driver", cfg.Driver),
		slog.String("target", origin),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("count", len(applied)),
		slog.String("files", preview),
		slog.Bool("files_truncated", cut),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// between returns the migration files with a version in (from, to].
func between(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		num, _, _ := strings.Cut(path.Base(f), "_")
		v, err := strconv.ParseUint(num, 10, 64)
		if err == nil && v > from && v <= to {
			out = append(out, path.Base(f))
		}
	}
	return out
}
