package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// withTx runs fn inside a transaction. Any error from fn or from commit
// rolls the whole unit of work back.
func withTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapPgError(err))
	}
	return nil
}

// mapPgError turns constraint violations raised by postgres into ErrIntegrity.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505", "23503", "23514":
		return fmt.Errorf("%w: %s (%s)", ErrIntegrity, pgErr.ConstraintName, pgErr.Code)
	}
	return err
}

// exists reports whether a row with id is present in table. lock is an
// optional row-locking clause such as "FOR UPDATE".
func exists(ctx context.Context, q Querier, table string, id int, lock string) (bool, error) {
	sql := "SELECT id FROM " + table + " WHERE id = $1 " + lock

	var found int
	err := q.QueryRow(ctx, sql, id).Scan(&found)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up %s %d: %w", table, id, err)
	}
	return true, nil
}
