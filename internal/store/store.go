// Package store implements the generic persistence layer. A single Store type
// serves every entity kind whose pointer type satisfies the Entity
// constraint; a kind without descriptor methods fails at compile time rather
// than at runtime.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"git-insights/internal/errx"
)

// DBTX is the subset of pgx execution methods the store needs. It is
// satisfied by *pgxpool.Pool and by pgx.Tx, so a store can run over a
// dedicated pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Entity is the storage descriptor contract. Table names the relation,
// Columns lists the mutable columns, Params yields the bind values in column
// order, Fields yields scan destinations for a full row
// (id, columns..., created_at, updated_at, deleted_at), and Key returns the
// identifier.
type Entity[T any] interface {
	*T
	Table() string
	Columns() []string
	Params() []any
	Fields() []any
	Key() uuid.UUID
}

// Store provides create/get/list/update/soft-delete over one entity kind.
// Each Store owns exactly one DBTX; callers that must not contend with each
// other instantiate separate stores over separate pools.
type Store[T any, PT Entity[T]] struct {
	db     DBTX
	logger *slog.Logger
}

func New[T any, PT Entity[T]](db DBTX, logger *slog.Logger) *Store[T, PT] {
	return &Store[T, PT]{db: db, logger: logger}
}

// Create inserts the entity's mutable columns and returns the row as
// materialized by the store, including the server-assigned id and timestamps.
func (s *Store[T, PT]) Create(ctx context.Context, entity T) (T, error) {
	e := entity
	pe := PT(&e)
	op := fmt.Sprintf("store.Create[%s]", pe.Table())

	var out T
	row := s.db.QueryRow(ctx, insertQuery(pe.Table(), pe.Columns()), pe.Params()...)
	if err := row.Scan(PT(&out).Fields()...); err != nil {
		return out, mapError(op, err)
	}
	s.logger.Debug("created entity", "table", pe.Table(), "id", PT(&out).Key())
	return out, nil
}

// Get fetches a single non-deleted row by id.
func (s *Store[T, PT]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	var out T
	po := PT(&out)
	op := fmt.Sprintf("store.Get[%s]", po.Table())

	row := s.db.QueryRow(ctx, getQuery(po.Table(), po.Columns()), id)
	if err := row.Scan(po.Fields()...); err != nil {
		return out, mapError(op, err)
	}
	return out, nil
}

// List fetches all non-deleted rows for the kind.
func (s *Store[T, PT]) List(ctx context.Context) ([]T, error) {
	var probe T
	pp := PT(&probe)
	op := fmt.Sprintf("store.List[%s]", pp.Table())

	rows, err := s.db.Query(ctx, listQuery(pp.Table(), pp.Columns()))
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var e T
		if err := rows.Scan(PT(&e).Fields()...); err != nil {
			return nil, mapError(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return out, nil
}

// Update overwrites all descriptor columns and refreshes updated_at, keyed by
// the entity's id. Full-row replacement, not a merge.
func (s *Store[T, PT]) Update(ctx context.Context, entity T) (T, error) {
	e := entity
	pe := PT(&e)
	op := fmt.Sprintf("store.Update[%s]", pe.Table())

	args := append(pe.Params(), pe.Key())
	var out T
	row := s.db.QueryRow(ctx, updateQuery(pe.Table(), pe.Columns()), args...)
	if err := row.Scan(PT(&out).Fields()...); err != nil {
		return out, mapError(op, err)
	}
	s.logger.Debug("updated entity", "table", pe.Table(), "id", pe.Key())
	return out, nil
}

// Remove marks the row deleted by setting deleted_at and returns the marked
// row. Rows are never physically removed.
func (s *Store[T, PT]) Remove(ctx context.Context, id uuid.UUID) (T, error) {
	var out T
	po := PT(&out)
	op := fmt.Sprintf("store.Remove[%s]", po.Table())

	row := s.db.QueryRow(ctx, removeQuery(po.Table(), po.Columns()), id)
	if err := row.Scan(po.Fields()...); err != nil {
		return out, mapError(op, err)
	}
	s.logger.Debug("soft deleted entity", "table", po.Table(), "id", id)
	return out, nil
}

// returningList is the full row column list shared by every statement, so
// scan order always matches Fields().
func returningList(cols []string) string {
	return "id, " + strings.Join(cols, ", ") + ", created_at, updated_at, deleted_at"
}

func insertQuery(table string, cols []string) string {
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), returningList(cols),
	)
}

func getQuery(table string, cols []string) string {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL",
		returningList(cols), table,
	)
}

func listQuery(table string, cols []string) string {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE deleted_at IS NULL",
		returningList(cols), table,
	)
}

func updateQuery(table string, cols []string) string {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	return fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = now() WHERE id = $%d RETURNING %s",
		table, strings.Join(assignments, ", "), len(cols)+1, returningList(cols),
	)
}

func removeQuery(table string, cols []string) string {
	return fmt.Sprintf(
		"UPDATE %s SET deleted_at = now() WHERE id = $1 RETURNING %s",
		table, returningList(cols),
	)
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError converts driver errors into the shared taxonomy. Nothing below
// this point escapes as a raw pgx error.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return errx.E(op, errx.Conflict, err)
	case errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation:
		return errx.E(op, errx.Invalid, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
