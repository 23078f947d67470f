package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/quizbot/core/logger"
)

const component = "service.users"

// SQLStore keeps users in postgres or sqlite.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open connection whose schema is migrated.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

const userColumns = "id, telegram_id, name, region, created_at"

func (s *SQLStore) FindByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	var u User
	q := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE telegram_id = ?")
	if err := s.db.GetContext(ctx, &u, q, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user %d: %w", telegramID, err)
	}
	return u, nil
}

func (s *SQLStore) Create(ctx context.Context, telegramID int64, name, region string) (User, error) {
	name, region, err := validate(telegramID, name, region)
	if err != nil {
		return User{}, err
	}
	q := s.db.Rebind(`INSERT INTO users (telegram_id, name, region, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (telegram_id) DO UPDATE SET name = excluded.name, region = excluded.region
RETURNING ` + userColumns)

	start := time.Now()
	var u User
	if err := s.db.GetContext(ctx, &u, q, telegramID, name, region, time.Now().UTC()); err != nil {
		logger.Error(ctx, component, "user.create",
			slog.Int64("user_id", telegramID),
			slog.String("err", err.Error()),
		)
		return User{}, fmt.Errorf("create user %d: %w", telegramID, err)
	}
	logger.Info(ctx, component, "user.create",
		slog.Int64("user_id", telegramID),
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return u, nil
}

func (s *SQLStore) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := s.db.SelectContext(ctx, &out, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}
