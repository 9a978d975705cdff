package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/models"
	"matchbook/service"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT user_id, username, balance, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return &user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, userID int64, username string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (user_id, username, balance)
		VALUES ($1, $2, $3)
		RETURNING user_id, username, balance, created_at, updated_at
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, userID, username, initialBalance).Scan(
		&user.ID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", userID, err)
	}

	return &user, nil
}

// AddBalance adds to a user's balance atomically
func (r *UserRepository) AddBalance(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return service.NewWagerError(service.KindNotFound, "user %d not found", userID)
	}

	return nil
}

// DeductBalance deducts from a user's balance atomically, failing if insufficient funds.
// The conditional update is the atomicity guarantee: two concurrent
// deductions cannot both pass the balance check.
func (r *UserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing user from insufficient funds
		user, err := r.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return service.NewWagerError(service.KindNotFound, "user %d not found", userID)
		}
		return service.NewWagerError(service.KindInsufficientFunds,
			"insufficient balance: have %d, need %d", user.Balance, amount)
	}

	return nil
}

// GetAll returns all users ordered by balance descending
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT user_id, username, balance, created_at, updated_at
		FROM users
		ORDER BY balance DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Balance,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
