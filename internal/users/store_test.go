package users

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/migrations"
)

func sqliteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	cfg := coredatabase.Config{
		Driver: coredatabase.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "users.db"),
	}
	require.NoError(t, cfg.Normalize())
	require.NoError(t, coredatabase.Migrate(ctx, cfg, migrations.FS))
	db, err := coredatabase.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db)
}

func TestStores(t *testing.T) {
	stores := map[string]func(*testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return sqliteStore(t) },
	}
	for name, build := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("find missing", func(t *testing.T) {
				_, err := build(t).FindByTelegramID(context.Background(), 42)
				assert.ErrorIs(t, err, ErrNotFound)
			})
			t.Run("create and find", func(t *testing.T) {
				testCreateAndFind(t, build(t))
			})
			t.Run("create twice updates", func(t *testing.T) {
				testCreateTwice(t, build(t))
			})
			t.Run("list in creation order", func(t *testing.T) {
				testList(t, build(t))
			})
			t.Run("rejects blank input", func(t *testing.T) {
				_, err := build(t).Create(context.Background(), 7, "   ", "Haryana")
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "name", ve.Field)
			})
		})
	}
}

func testCreateAndFind(t *testing.T, s Store) {
	ctx := context.Background()
	created, err := s.Create(ctx, 1001, "  Asha   Devi ", "Haryana")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Asha Devi", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := s.FindByTelegramID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Haryana", found.Region)
}

func testCreateTwice(t *testing.T, s Store) {
	ctx := context.Background()
	first, err := s.Create(ctx, 5, "Ravi", "Punjab")
	require.NoError(t, err)
	second, err := s.Create(ctx, 5, "Ravi Kumar", "Haryana")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ravi Kumar", second.Name)
	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testList(t *testing.T, s Store) {
	ctx := context.Background()
	for i, name := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, int64(i+1), name, "x")
		require.NoError(t, err)
	}
	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "c", all[2].Name)
}

func TestCleanField(t *testing.T) {
	got, err := CleanField("name", "\tराम  कुमार\n")
	require.NoError(t, err)
	assert.Equal(t, "राम कुमार", got)

	_, err = CleanField("region", strings.Repeat("x", MaxFieldLen+1))
	assert.Error(t, err)
}
