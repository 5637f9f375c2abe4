package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/jsonload/internal/db"
)

const (
	queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

	// duplicate_database
	pgDuplicateDatabase = "42P04"
)

// Manager creates PostgreSQL databases through a maintenance connection.
type Manager struct{}

// New creates a new DatabaseManager instance.
func New() db.DatabaseManager {
	return &Manager{}
}

func (m *Manager) Exists(ctx context.Context, q db.Querier, dbName string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create issues CREATE DATABASE with dbName quoted as an identifier.
func (m *Manager) Create(ctx context.Context, q db.Querier, dbName string) error {
	query := "CREATE DATABASE " + pgx.Identifier{dbName}.Sanitize()
	if _, err := q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// Ensure creates dbName when it is missing. Two loaders starting against a
// fresh server race here; losing the race is not an error.
func (m *Manager) Ensure(ctx context.Context, q db.Querier, dbName string) (bool, error) {
	exists, err := m.Exists(ctx, q, dbName)
	if err != nil || exists {
		return false, err
	}

	if err := m.Create(ctx, q, dbName); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgDuplicateDatabase {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ db.DatabaseManager = (*Manager)(nil)
