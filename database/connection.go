package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool. Repositories query it directly or
// through a transaction obtained from it.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool against the given URL and verifies it
// with a ping before handing it out.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases every connection in the pool.
func (db *DB) Close() {
	db.Pool.Close()
}
