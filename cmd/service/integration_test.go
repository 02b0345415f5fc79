//go:build integration

package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"git-insights/internal/errx"
	"git-insights/internal/model"
	"git-insights/internal/store"
)

func setupTestDatabase(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("insights-test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(context.Background()))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := setupTestDatabase(ctx, t)

	accounts := store.New[model.Account, *model.Account](pool, testLogger())
	repos := store.New[model.Repository, *model.Repository](pool, testLogger())

	t.Run("round trip", func(t *testing.T) {
		created, err := accounts.Create(ctx, model.Account{Name: "acme", Followers: 7})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.UpdatedAt.IsZero())
		assert.Nil(t, created.DeletedAt)

		got, err := accounts.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("name uniqueness maps to Conflict", func(t *testing.T) {
		_, err := accounts.Create(ctx, model.Account{Name: "acme"})
		require.Error(t, err)
		assert.Equal(t, errx.Conflict, errx.KindOf(err))
	})

	t.Run("repository requires a live account", func(t *testing.T) {
		account, err := accounts.Create(ctx, model.Account{Name: "umbrella"})
		require.NoError(t, err)

		repo, err := repos.Create(ctx, model.Repository{Name: "core", AccountID: account.ID})
		require.NoError(t, err)
		assert.Equal(t, account.ID, repo.AccountID)

		_, err = repos.Create(ctx, model.Repository{Name: "orphan", AccountID: uuid.New()})
		require.Error(t, err)
		assert.Equal(t, errx.Invalid, errx.KindOf(err))
	})

	t.Run("update overwrites and refreshes updated_at", func(t *testing.T) {
		account, err := accounts.Create(ctx, model.Account{Name: "initech"})
		require.NoError(t, err)
		repo, err := repos.Create(ctx, model.Repository{Name: "tps", AccountID: account.ID, Stars: 1})
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		repo.Stars = 50
		repo.Views = 1000
		updated, err := repos.Update(ctx, repo)
		require.NoError(t, err)

		assert.Equal(t, 50, updated.Stars)
		assert.Equal(t, int64(1000), updated.Views)
		assert.True(t, updated.UpdatedAt.After(repo.UpdatedAt))
	})

	t.Run("update of a missing id yields NotFound", func(t *testing.T) {
		account, err := accounts.Create(ctx, model.Account{Name: "hooli"})
		require.NoError(t, err)
		ghost := model.Repository{ID: uuid.New(), Name: "ghost", AccountID: account.ID}

		_, err = repos.Update(ctx, ghost)
		require.Error(t, err)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
	})

	t.Run("soft delete excludes from get and list", func(t *testing.T) {
		created, err := accounts.Create(ctx, model.Account{Name: "globex"})
		require.NoError(t, err)

		removed, err := accounts.Remove(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, removed.DeletedAt)

		_, err = accounts.Get(ctx, created.ID)
		require.Error(t, err)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))

		all, err := accounts.List(ctx)
		require.NoError(t, err)
		for _, a := range all {
			assert.NotEqual(t, created.ID, a.ID)
		}
	})
}
