package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/models"
	"matchbook/service"

	"github.com/jackc/pgx/v5"
)

// ScrimRepository implements the ScrimRepository interface
type ScrimRepository struct {
	q queryable
}

// NewScrimRepository creates a new scrim repository
func NewScrimRepository(db *database.DB) *ScrimRepository {
	return &ScrimRepository{q: db.Pool}
}

// newScrimRepositoryWithTx creates a new scrim repository with a transaction
func newScrimRepositoryWithTx(tx queryable) *ScrimRepository {
	return &ScrimRepository{q: tx}
}

// Create creates a new scrim
func (r *ScrimRepository) Create(ctx context.Context, scrim *models.Scrim) error {
	query := `
		INSERT INTO scrims (name, teams_closed)
		VALUES ($1, $2)
		RETURNING scrim_id, created_at
	`

	err := r.q.QueryRow(ctx, query, scrim.Name, scrim.TeamsClosed).
		Scan(&scrim.ID, &scrim.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scrim %q: %w", scrim.Name, err)
	}

	return nil
}

// GetByName retrieves a scrim by its unique name
func (r *ScrimRepository) GetByName(ctx context.Context, name string) (*models.Scrim, error) {
	query := `
		SELECT scrim_id, name, teams_closed, created_at
		FROM scrims
		WHERE name = $1
	`

	var scrim models.Scrim
	err := r.q.QueryRow(ctx, query, name).Scan(
		&scrim.ID,
		&scrim.Name,
		&scrim.TeamsClosed,
		&scrim.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scrim %q: %w", name, err)
	}

	return &scrim, nil
}

// Update persists the teams_closed flag
func (r *ScrimRepository) Update(ctx context.Context, scrim *models.Scrim) error {
	result, err := r.q.Exec(ctx,
		`UPDATE scrims SET teams_closed = $1 WHERE scrim_id = $2`,
		scrim.TeamsClosed, scrim.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scrim %d: %w", scrim.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("scrim %d not found", scrim.ID)
	}

	return nil
}

// Delete removes a scrim; members go with it via cascade
func (r *ScrimRepository) Delete(ctx context.Context, scrimID int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM scrims WHERE scrim_id = $1`, scrimID)
	if err != nil {
		return fmt.Errorf("failed to delete scrim %d: %w", scrimID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("scrim %d not found", scrimID)
	}

	return nil
}

// AddMember adds a player to a team; rejoining moves the player
func (r *ScrimRepository) AddMember(ctx context.Context, member *models.ScrimMember) error {
	query := `
		INSERT INTO scrim_members (scrim_id, user_id, team)
		VALUES ($1, $2, $3)
		ON CONFLICT (scrim_id, user_id) DO UPDATE SET team = $3
		RETURNING joined_at
	`

	err := r.q.QueryRow(ctx, query,
		member.ScrimID,
		member.UserID,
		member.Team,
	).Scan(&member.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add member %d to scrim %d: %w", member.UserID, member.ScrimID, err)
	}

	return nil
}

// RemoveMember removes a player from the scrim
func (r *ScrimRepository) RemoveMember(ctx context.Context, scrimID, userID int64) error {
	result, err := r.q.Exec(ctx,
		`DELETE FROM scrim_members WHERE scrim_id = $1 AND user_id = $2`,
		scrimID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member %d from scrim %d: %w", userID, scrimID, err)
	}

	if result.RowsAffected() == 0 {
		return service.NewWagerError(service.KindNotFound,
			"user %d is not on scrim %d", userID, scrimID)
	}

	return nil
}

// GetMembers returns all members of a scrim
func (r *ScrimRepository) GetMembers(ctx context.Context, scrimID int64) ([]*models.ScrimMember, error) {
	query := `
		SELECT scrim_id, user_id, team, joined_at
		FROM scrim_members
		WHERE scrim_id = $1
		ORDER BY joined_at
	`

	rows, err := r.q.Query(ctx, query, scrimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members for scrim %d: %w", scrimID, err)
	}
	defer rows.Close()

	var members []*models.ScrimMember
	for rows.Next() {
		var member models.ScrimMember
		err := rows.Scan(
			&member.ScrimID,
			&member.UserID,
			&member.Team,
			&member.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrim member: %w", err)
		}
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scrim members: %w", err)
	}

	return members, nil
}
