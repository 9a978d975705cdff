package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/models"

	"github.com/jackc/pgx/v5"
)

// RatingRepository implements the RatingRepository interface
type RatingRepository struct {
	q queryable
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *database.DB) *RatingRepository {
	return &RatingRepository{q: db.Pool}
}

// newRatingRepositoryWithTx creates a new rating repository with a transaction
func newRatingRepositoryWithTx(tx queryable) *RatingRepository {
	return &RatingRepository{q: tx}
}

// GetByUserID retrieves a rating record, nil if the player has none
func (r *RatingRepository) GetByUserID(ctx context.Context, userID int64) (*models.RatingRecord, error) {
	query := `
		SELECT user_id, wins, losses, mmr, streak, updated_at
		FROM rating_records
		WHERE user_id = $1
	`

	var record models.RatingRecord
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&record.UserID,
		&record.Wins,
		&record.Losses,
		&record.MMR,
		&record.Streak,
		&record.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating for user %d: %w", userID, err)
	}

	return &record, nil
}

// GetByUserIDs retrieves rating records for a set of players
func (r *RatingRepository) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*models.RatingRecord, error) {
	records := make(map[int64]*models.RatingRecord, len(userIDs))
	if len(userIDs) == 0 {
		return records, nil
	}

	query := `
		SELECT user_id, wins, losses, mmr, streak, updated_at
		FROM rating_records
		WHERE user_id = ANY($1)
	`

	rows, err := r.q.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record models.RatingRecord
		err := rows.Scan(
			&record.UserID,
			&record.Wins,
			&record.Losses,
			&record.MMR,
			&record.Streak,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating record: %w", err)
		}
		records[record.UserID] = &record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating records: %w", err)
	}

	return records, nil
}

// Upsert inserts or updates a rating record
func (r *RatingRepository) Upsert(ctx context.Context, record *models.RatingRecord) error {
	query := `
		INSERT INTO rating_records (user_id, wins, losses, mmr, streak, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET wins = $2, losses = $3, mmr = $4, streak = $5, updated_at = NOW()
	`

	_, err := r.q.Exec(ctx, query,
		record.UserID,
		record.Wins,
		record.Losses,
		record.MMR,
		record.Streak,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rating for user %d: %w", record.UserID, err)
	}

	return nil
}

// List returns all rating records ordered by MMR descending
func (r *RatingRepository) List(ctx context.Context, limit int) ([]*models.RatingRecord, error) {
	query := `
		SELECT user_id, wins, losses, mmr, streak, updated_at
		FROM rating_records
		ORDER BY mmr DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var records []*models.RatingRecord
	for rows.Next() {
		var record models.RatingRecord
		err := rows.Scan(
			&record.UserID,
			&record.Wins,
			&record.Losses,
			&record.MMR,
			&record.Streak,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating records: %w", err)
	}

	return records, nil
}
