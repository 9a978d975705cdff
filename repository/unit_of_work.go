package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/events"
	"matchbook/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         service.UserRepository
	historyRepo      service.BalanceHistoryRepository
	matchRepo        service.MatchRepository
	betRepo          service.BetRepository
	ratingRepo       service.RatingRepository
	scrimRepo        service.ScrimRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.historyRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.matchRepo = newMatchRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.ratingRepo = newRatingRepositoryWithTx(tx)
	u.scrimRepo = newScrimRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.historyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.historyRepo
}

// MatchRepository returns the match repository for this unit of work
func (u *unitOfWork) MatchRepository() service.MatchRepository {
	if u.matchRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.matchRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() service.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

// RatingRepository returns the rating repository for this unit of work
func (u *unitOfWork) RatingRepository() service.RatingRepository {
	if u.ratingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ratingRepo
}

// ScrimRepository returns the scrim repository for this unit of work
func (u *unitOfWork) ScrimRepository() service.ScrimRepository {
	if u.scrimRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.scrimRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
