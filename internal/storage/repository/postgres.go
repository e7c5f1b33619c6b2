// Package repository implements the PostgreSQL storage for users,
// subscriptions and the reminder workflow state (run checkpoints and the
// send ledger).
package repository

import (
	"context"
	"errors"
	"fmt"

	// Registers the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"database/sql"
)

// Sentinel errors returned by the repository.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrRunNotFound          = errors.New("reminder run not found")
	ErrEmailTaken           = errors.New("email already registered")
)

// Storage encapsulates the PostgreSQL connection and implements the
// repository methods used by the services.
type Storage struct {
	DB *sql.DB
}

// New opens a connection to PostgreSQL and verifies it with a ping.
func New(storageConnectionString string) (*Storage, error) {
	const op = "repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady verifies that the schema has been migrated.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'subscriptions'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table subscriptions missing or query error: %w", err)
	}
	return nil
}
