package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/models"

	"github.com/jackc/pgx/v5"
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create creates a new bet record
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (user_id, match_id, side, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING bet_id, placed_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.UserID,
		bet.MatchID,
		bet.Side,
		bet.Amount,
	).Scan(&bet.ID, &bet.PlacedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet for user %d: %w", bet.UserID, err)
	}

	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `
		SELECT bet_id, user_id, match_id, side, amount, placed_at
		FROM bets
		WHERE bet_id = $1
	`

	var bet models.Bet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&bet.ID,
		&bet.UserID,
		&bet.MatchID,
		&bet.Side,
		&bet.Amount,
		&bet.PlacedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}

	return &bet, nil
}

// SumByUserAndMatch returns a user's cumulative stake on a match
func (r *BetRepository) SumByUserAndMatch(ctx context.Context, userID, matchID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM bets
		WHERE user_id = $1 AND match_id = $2
	`

	var total int64
	err := r.q.QueryRow(ctx, query, userID, matchID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum bets for user %d on match %d: %w", userID, matchID, err)
	}

	return total, nil
}

// GetByMatchAndSide returns all bets on one side of a match
func (r *BetRepository) GetByMatchAndSide(ctx context.Context, matchID int64, side string) ([]*models.Bet, error) {
	query := `
		SELECT bet_id, user_id, match_id, side, amount, placed_at
		FROM bets
		WHERE match_id = $1 AND side = $2
		ORDER BY placed_at
	`

	rows, err := r.q.Query(ctx, query, matchID, side)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for match %d side %q: %w", matchID, side, err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// GetByMatch returns all bets on a match
func (r *BetRepository) GetByMatch(ctx context.Context, matchID int64) ([]*models.Bet, error) {
	query := `
		SELECT bet_id, user_id, match_id, side, amount, placed_at
		FROM bets
		WHERE match_id = $1
		ORDER BY placed_at
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for match %d: %w", matchID, err)
	}
	defer rows.Close()

	return scanBets(rows)
}

// Delete removes a bet record
func (r *BetRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM bets WHERE bet_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bet %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found", id)
	}

	return nil
}

func scanBets(rows pgx.Rows) ([]*models.Bet, error) {
	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.UserID,
			&bet.MatchID,
			&bet.Side,
			&bet.Amount,
			&bet.PlacedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}
