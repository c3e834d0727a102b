package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// withLedgerRetry runs fn and, if it failed because the ledger was unavailable
// or a guarded update lost a race, runs it exactly once more.
func withLedgerRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || ctx.Err() != nil {
		return err
	}
	if !errors.Is(err, ErrLedgerUnavailable) && !errors.Is(err, ErrStaleRecord) {
		return err
	}

	log.WithFields(log.Fields{
		"operation": op,
		"error":     err,
	}).Warn("Ledger operation failed, retrying once")

	return fn()
}

// inUnitOfWork runs fn inside a fresh unit of work, committing on success and
// rolling back otherwise. The whole unit is retried by withLedgerRetry.
func inUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, op string, fn func(uow UnitOfWork) error) error {
	return withLedgerRetry(ctx, op, func() error {
		uow := factory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback() // No-op if already committed

		if err := fn(uow); err != nil {
			return err
		}

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}
