package service

import (
	"context"
	"fmt"

	"matchbook/models"
)

// userService implements the UserService interface
type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance int64) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// GetOrCreateUser retrieves an existing user or creates a new one with initial balance
func (s *userService) GetOrCreateUser(ctx context.Context, userID int64, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// First try to get existing user
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if user == nil {
		// Database primary key on user_id prevents duplicate users
		user, err = uow.UserRepository().Create(ctx, userID, username, s.startingBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		history := &models.BalanceHistory{
			UserID:          userID,
			BalanceBefore:   0,
			BalanceAfter:    s.startingBalance,
			ChangeAmount:    s.startingBalance,
			TransactionType: models.TransactionTypeInitial,
			TransactionMetadata: map[string]any{
				"username": username,
			},
		}

		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, fmt.Errorf("failed to record initial balance: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetBalance returns a user's current balance
func (s *userService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, NewWagerError(KindNotFound, "user %d not found", userID)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user.Balance, nil
}

// AdjustBalance applies an admin-only delta outside the wager flow
func (s *userService) AdjustBalance(ctx context.Context, userID int64, delta int64) error {
	if delta == 0 {
		return nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return NewWagerError(KindNotFound, "user %d not found", userID)
	}

	if delta > 0 {
		if err := uow.UserRepository().AddBalance(ctx, userID, delta); err != nil {
			return fmt.Errorf("failed to credit user: %w", err)
		}
	} else {
		if err := uow.UserRepository().DeductBalance(ctx, userID, -delta); err != nil {
			return err
		}
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + delta,
		ChangeAmount:    delta,
		TransactionType: models.TransactionTypeAdminAdjust,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
