// Package postgres stores data_json in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/jsonload/internal/db"
	"github.com/vvka-141/jsonload/internal/db/manager"
	"github.com/vvka-141/jsonload/internal/store"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// unique_violation
const pgUniqueViolation = "23505"

// Dialect is the PostgreSQL rendering of data_json.
var Dialect = &store.Dialect{
	Name:          db.DriverPostgres,
	Placeholder:   store.DollarN,
	Quote:         func(ident string) string { return pgx.Identifier{ident}.Sanitize() },
	IntType:       "BIGINT",
	TextType:      "VARCHAR(255)",
	JSONType:      "JSON",
	IsKeyConflict: IsKeyConflict,
}

func init() {
	store.Register(db.DriverPostgres, func(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error) {
		return Open(ctx, cfg, logger)
	})
}

// Store implements jsonload.Store on a pgxpool.Pool sized to PoolSize.
type Store struct {
	pool      *pgxpool.Pool
	countSQL  string
	insertSQL string

	// connector is closed after the pool, when it holds resources of its
	// own (the Cloud SQL dialer).
	connector io.Closer
}

// Open creates the target database through the maintenance database when
// needed, then connects to it and creates data_json.
func Open(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (*Store, error) {
	if err := ensureDatabase(ctx, cfg, logger); err != nil {
		logger.Verbose("Skipping database creation for %q: %v", cfg.Database, err)
	}

	connector, err := db.NewConnector(cfg, logger)
	if err != nil {
		return nil, err
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	st := NewStore(pool)
	if closer, ok := connector.(io.Closer); ok {
		st.connector = closer
	}

	if _, err := pool.Exec(ctx, Dialect.CreateTableSQL()); err != nil {
		st.Close()
		return nil, fmt.Errorf("postgres: create table %s: %w", jsonload.TableName, err)
	}
	return st, nil
}

// NewStore wraps an open pool whose database already holds data_json.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:      pool,
		countSQL:  Dialect.CountSQL(),
		insertSQL: Dialect.InsertSQL(),
	}
}

// ensureDatabase creates cfg.Database from the maintenance database. The
// caller treats failure as non-fatal: the database may already exist on a
// server where the user cannot reach the maintenance database.
func ensureDatabase(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) error {
	if cfg.Database == "" || cfg.Database == jsonload.DefaultManagementDB {
		return nil
	}

	maintenance := *cfg
	maintenance.Database = jsonload.DefaultManagementDB
	maintenance.PoolSize = 1

	connector, err := db.NewConnector(&maintenance, logger)
	if err != nil {
		return err
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	if closer, ok := connector.(io.Closer); ok {
		defer closer.Close()
	}
	defer pool.Close()

	created, err := manager.New().Ensure(ctx, pool, cfg.Database)
	if err != nil {
		return err
	}
	if created {
		logger.Info("Created database %q", cfg.Database)
	}
	return nil
}

// Pool exposes the underlying pool for maintenance queries and tests.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Acquire(ctx context.Context) (jsonload.Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgConn{conn: conn, store: s}, nil
}

// Close closes the pool, then the connector's dialer if it has one.
func (s *Store) Close() error {
	s.pool.Close()
	if s.connector != nil {
		return s.connector.Close()
	}
	return nil
}

type pgConn struct {
	conn     *pgxpool.Conn
	store    *Store
	released bool
}

func (c *pgConn) Begin(ctx context.Context) (jsonload.Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx, store: c.store}, nil
}

// Release returns the connection to the pool. Extra calls are ignored.
func (c *pgConn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.conn.Release()
}

type pgTx struct {
	tx    pgx.Tx
	store *Store
}

func (t *pgTx) CountByKey(ctx context.Context, adresNo int64) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, t.store.countSQL, adresNo).Scan(&n)
	return n, err
}

func (t *pgTx) Insert(ctx context.Context, rec *jsonload.AddressRecord) error {
	values, err := store.RowValues(rec)
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, t.store.insertSQL, values...); err != nil {
		if IsKeyConflict(err) {
			return store.KeyConflict(err)
		}
		return err
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// IsKeyConflict reports a unique_violation.
func IsKeyConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

var _ jsonload.Store = (*Store)(nil)
