package repository

import (
	"context"
	"fmt"

	"hustler/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// unavailable marks a backing store failure so callers can retry it
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, service.ErrLedgerUnavailable, err)
}
