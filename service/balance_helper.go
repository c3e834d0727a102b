package service

import (
	"context"
	"fmt"

	"hustler/events"
	"hustler/models"
)

// RecordBalanceChange records a balance history entry and emits the matching
// event. Every money change in the system goes through here.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	// Flushed after the transaction commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.DiscordID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

// applyMoneyChange applies a guarded money delta and records it in the balance history
func applyMoneyChange(ctx context.Context, uow UnitOfWork, discordID int64, update models.UserUpdate, txType models.TransactionType, metadata map[string]any) (*models.User, error) {
	updated, err := uow.UserRepository().Update(ctx, discordID, update)
	if err != nil {
		return nil, err
	}

	if update.MoneyDelta != 0 {
		history := &models.BalanceHistory{
			DiscordID:           discordID,
			BalanceBefore:       updated.Money - update.MoneyDelta,
			BalanceAfter:        updated.Money,
			ChangeAmount:        update.MoneyDelta,
			TransactionType:     txType,
			TransactionMetadata: metadata,
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, err
		}
	}

	return updated, nil
}
