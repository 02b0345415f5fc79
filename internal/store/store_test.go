package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"git-insights/internal/errx"
)

func TestInsertQuery(t *testing.T) {
	got := insertQuery("accounts", []string{"name", "followers"})
	want := "INSERT INTO accounts (name, followers) VALUES ($1, $2) " +
		"RETURNING id, name, followers, created_at, updated_at, deleted_at"
	assert.Equal(t, want, got)
}

func TestGetQuery(t *testing.T) {
	got := getQuery("accounts", []string{"name", "followers"})
	want := "SELECT id, name, followers, created_at, updated_at, deleted_at " +
		"FROM accounts WHERE id = $1 AND deleted_at IS NULL"
	assert.Equal(t, want, got)
}

func TestListQuery(t *testing.T) {
	got := listQuery("repositories", []string{"name", "account_id"})
	want := "SELECT id, name, account_id, created_at, updated_at, deleted_at " +
		"FROM repositories WHERE deleted_at IS NULL"
	assert.Equal(t, want, got)
}

func TestUpdateQuery(t *testing.T) {
	got := updateQuery("accounts", []string{"name", "followers"})
	want := "UPDATE accounts SET name = $1, followers = $2, updated_at = now() " +
		"WHERE id = $3 RETURNING id, name, followers, created_at, updated_at, deleted_at"
	assert.Equal(t, want, got)
}

func TestRemoveQuery(t *testing.T) {
	got := removeQuery("accounts", []string{"name", "followers"})
	want := "UPDATE accounts SET deleted_at = now() WHERE id = $1 " +
		"RETURNING id, name, followers, created_at, updated_at, deleted_at"
	assert.Equal(t, want, got)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errx.Kind
	}{
		{"no rows becomes NotFound", pgx.ErrNoRows, errx.NotFound},
		{"unique violation becomes Conflict", &pgconn.PgError{Code: pgUniqueViolation}, errx.Conflict},
		{"foreign key violation becomes Invalid", &pgconn.PgError{Code: pgForeignKeyViolation}, errx.Invalid},
		{"anything else becomes Unavailable", errors.New("connection refused"), errx.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError("store.Get[accounts]", tt.err)
			assert.Equal(t, tt.kind, errx.KindOf(mapped))
			assert.ErrorIs(t, mapped, tt.err)
		})
	}
}
