package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/jsonload/internal/testinfra"
)

var (
	pgOnce sync.Once
	pgConn string
	pgErr  error

	mysqlOnce sync.Once
	mysqlConn string
	mysqlErr  error
)

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequirePostgres returns a connection string for a PostgreSQL server.
// Priority: $JSONLOAD_TEST_PG > auto-started container > skip.
func RequirePostgres(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	if connString := os.Getenv("JSONLOAD_TEST_PG"); connString != "" {
		return connString
	}

	pgOnce.Do(func() {
		ctr, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			pgErr = err
			return
		}
		pgConn = ctr.ConnString
	})
	if pgErr != nil {
		t.Skipf("JSONLOAD_TEST_PG not set and Docker unavailable: %v", pgErr)
	}
	return pgConn
}

// RequireMySQL returns a mysql:// connection string for a MySQL server.
// Priority: $JSONLOAD_TEST_MYSQL > auto-started container > skip.
func RequireMySQL(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)

	if connString := os.Getenv("JSONLOAD_TEST_MYSQL"); connString != "" {
		return connString
	}

	mysqlOnce.Do(func() {
		ctr, err := testinfra.StartMySQL(context.Background())
		if err != nil {
			mysqlErr = err
			return
		}
		mysqlConn = ctr.ConnString
	})
	if mysqlErr != nil {
		t.Skipf("JSONLOAD_TEST_MYSQL not set and Docker unavailable: %v", mysqlErr)
	}
	return mysqlConn
}

// UniqueDatabaseName returns a fresh lower-case database name.
func UniqueDatabaseName(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s", prefix, id[:12])
}

// DropPostgresDatabase removes dbName through the maintenance connection
// in connString. Intended for t.Cleanup.
func DropPostgresDatabase(t *testing.T, connString, dbName string) {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()`, dbName)
	if err != nil {
		t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
	}

	if _, err := pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Logf("Warning: Failed to drop test database %s: %v", dbName, err)
	}
}
