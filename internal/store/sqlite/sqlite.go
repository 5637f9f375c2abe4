// Package sqlite stores data_json in a local SQLite file through the
// pure-Go modernc.org/sqlite driver.
//
// Transactions start with BEGIN IMMEDIATE so concurrent units queue on the
// write lock (bounded by a busy timeout) instead of failing on upgrade.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vvka-141/jsonload/internal/db"
	"github.com/vvka-141/jsonload/internal/store"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// BusyTimeoutMillis bounds how long a writer waits for the database lock.
const BusyTimeoutMillis = 10000

// Dialect is the SQLite rendering of data_json. JSON is kept as TEXT.
var Dialect = &store.Dialect{
	Name:        db.DriverSQLite,
	Placeholder: store.QuestionMark,
	Quote:       store.DoubleQuote,
	IntType:     "INTEGER",
	TextType:    "TEXT",
	JSONType:    "TEXT",
	JSONCheck: func(col string) string {
		return fmt.Sprintf("CHECK (%s IS NULL OR json_valid(%s))", col, col)
	},
	IsKeyConflict: IsKeyConflict,
}

func init() {
	store.Register(db.DriverSQLite, func(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error) {
		return Open(ctx, cfg, logger)
	})
}

// DSN builds the driver connection string for path.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", BusyTimeoutMillis))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Open opens (creating if needed) the database file and the data_json table.
func Open(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (*store.SQLStore, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite: database path must not be empty: %w", jsonload.ErrInvalidConfig)
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, db.WrapConnectionError(err, cfg)
		}
	}

	conn, err := db.OpenSQL(ctx, cfg, logger, func(ctx context.Context) (*sql.DB, error) {
		return sql.Open("sqlite", DSN(cfg.Path))
	})
	if err != nil {
		return nil, err
	}

	st := store.NewSQLStore(conn, Dialect)
	if err := st.EnsureTable(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: create table %s: %w", jsonload.TableName, err)
	}
	return st, nil
}

// IsKeyConflict reports a PRIMARY KEY or UNIQUE constraint failure.
func IsKeyConflict(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
