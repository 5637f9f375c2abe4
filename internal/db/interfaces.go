package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector opens a PostgreSQL pool for one authentication method.
type Connector interface {
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// Querier is the part of *pgxpool.Pool that database management uses.
// Statements run outside any transaction, which CREATE DATABASE requires.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow always returns a non-nil Row; errors surface on Scan.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DatabaseManager creates the target database on a server.
type DatabaseManager interface {
	Exists(ctx context.Context, q Querier, dbName string) (bool, error)
	Create(ctx context.Context, q Querier, dbName string) error

	// Ensure creates dbName unless it already exists.
	Ensure(ctx context.Context, q Querier, dbName string) (created bool, err error)
}

var _ Querier = (*pgxpool.Pool)(nil)
