package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/models"

	"github.com/jackc/pgx/v5"
)

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

const matchColumns = `match_id, name, side_a, side_b, starts_at, result,
	dividend_a, dividend_b, pool_a, pool_b, closed, created_at, settled_at`

// Create creates a new match record
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (name, side_a, side_b, starts_at, dividend_a, dividend_b)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING match_id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		match.Name,
		match.SideA,
		match.SideB,
		match.StartsAt,
		match.DividendA,
		match.DividendB,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match %q: %w", match.Name, err)
	}

	return nil
}

// GetByID retrieves a match by its ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE match_id = $1`
	return r.scanMatch(r.q.QueryRow(ctx, query, id), id)
}

// GetByIDForUpdate retrieves a match and locks its row for the duration
// of the transaction. The lock is the per-match serialization point for
// placements, cancellations, closing and settlement.
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE match_id = $1 FOR UPDATE`
	return r.scanMatch(r.q.QueryRow(ctx, query, id), id)
}

func (r *MatchRepository) scanMatch(row pgx.Row, id int64) (*models.Match, error) {
	var match models.Match
	err := row.Scan(
		&match.ID,
		&match.Name,
		&match.SideA,
		&match.SideB,
		&match.StartsAt,
		&match.Result,
		&match.DividendA,
		&match.DividendB,
		&match.PoolA,
		&match.PoolB,
		&match.Closed,
		&match.CreatedAt,
		&match.SettledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}

	return &match, nil
}

// Update persists pools, dividends, closed flag, result and settled_at
func (r *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET result = $1, dividend_a = $2, dividend_b = $3,
		    pool_a = $4, pool_b = $5, closed = $6, settled_at = $7
		WHERE match_id = $8
	`

	result, err := r.q.Exec(ctx, query,
		match.Result,
		match.DividendA,
		match.DividendB,
		match.PoolA,
		match.PoolB,
		match.Closed,
		match.SettledAt,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %d not found", match.ID)
	}

	return nil
}

// ListOpen returns matches with no recorded result, soonest first
func (r *MatchRepository) ListOpen(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE result IS NULL ORDER BY starts_at`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var match models.Match
		err := rows.Scan(
			&match.ID,
			&match.Name,
			&match.SideA,
			&match.SideB,
			&match.StartsAt,
			&match.Result,
			&match.DividendA,
			&match.DividendB,
			&match.PoolA,
			&match.PoolB,
			&match.Closed,
			&match.CreatedAt,
			&match.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	return matches, nil
}
