package service

import (
	"context"
	"fmt"

	"matchbook/events"
	"matchbook/models"
)

// RecordBalanceChange is the single funnel for balance mutations: it
// writes the audit row and stages the matching events on the unit of
// work's bus, so they only reach subscribers if the transaction
// commits.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	// An initial-balance entry doubles as the account creation signal
	if history.TransactionType == models.TransactionTypeInitial {
		if username, ok := history.TransactionMetadata["username"].(string); ok {
			uow.EventBus().Publish(events.UserCreatedEvent{
				UserID:         history.UserID,
				Username:       username,
				InitialBalance: history.BalanceAfter,
			})
		}
	}

	return nil
}
