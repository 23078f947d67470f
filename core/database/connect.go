package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/quizbot/core/logger"
)

const (
	connectWait  = 30 * time.Second
	connectRetry = time.Second
)

// Connect opens the database and pings it. Postgres is retried until ctx
// ends or 30s pass, so a server still starting up is waited for.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if cfg.Driver == DriverMemory {
		return nil, fmt.Errorf("db connect: driver %q has no connection", cfg.Driver)
	}
	wait := time.Duration(0)
	if cfg.Driver == DriverPostgres {
		wait = connectWait
	}
	ctx, cancel := context.WithTimeout(ctx, wait+5*time.Second)
	defer cancel()

	start := time.Now()
	var (
		db      *sqlx.DB
		err     error
		attempt int
	)
	for {
		attempt++
		db, err = sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
		if err == nil || time.Since(start) >= wait {
			break
		}
		logger.Debug(ctx, "db", "db.connect.retry",
			slog.String("target", cfg.Target()),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			err = fmt.Errorf("%w (last: %v)", ctx.Err(), err)
		case <-time.After(connectRetry):
			continue
		}
		break
	}
	if err != nil {
		logger.Error(ctx, "db", "db.connect",
			slog.String("driver", cfg.Driver),
			slog.String("target", cfg.Target()),
			slog.Int("attempts", attempt),
			slog.Duration("duration", time.Since(start)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pool := cfg.MaxConnections
	if cfg.Driver == DriverSQLite {
		// one writer at a time
		pool = 1
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)

	logger.Info(ctx, "db", "db.connect",
		slog.String("driver", cfg.Driver),
		slog.String("target", cfg.Target()),
		slog.Int("pool_open", pool),
		slog.Int("attempts", attempt),
		slog.Duration("duration", time.Since(start)),
	)
	return db, nil
}
