// Package users stores the people who finished onboarding.
package users

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// User is a registered quiz participant.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Name       string    `db:"name"`
	Region     string    `db:"region"`
	CreatedAt  time.Time `db:"created_at"`
}

// Store persists users. Create on an existing Telegram id updates name and
// region and keeps the original id and creation time.
type Store interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (User, error)
	Create(ctx context.Context, telegramID int64, name, region string) (User, error)
	List(ctx context.Context) ([]User, error)
}

// ValidationError reports unusable onboarding input.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string { return "invalid user " + e.Field }

// Code satisfies the router's error code lookup.
func (e *ValidationError) Code() string { return "invalid_" + e.Field }

// MaxFieldLen bounds names and regions in runes.
const MaxFieldLen = 64

// CleanField trims s and rejects empty or oversized values.
func CleanField(field, s string) (string, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || len([]rune(s)) > MaxFieldLen {
		return "", &ValidationError{Field: field}
	}
	return s, nil
}

func validate(telegramID int64, name, region string) (string, string, error) {
	if telegramID == 0 {
		return "", "", &ValidationError{Field: "telegram_id"}
	}
	name, err := CleanField("name", name)
	if err != nil {
		return "", "", err
	}
	region, err = CleanField("region", region)
	if err != nil {
		return "", "", err
	}
	return name, region, nil
}
