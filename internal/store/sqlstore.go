package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// SQLStore implements jsonload.Store over a database/sql pool. The pool
// size is whatever SetMaxOpenConns was given.
type SQLStore struct {
	db        *sql.DB
	dialect   *Dialect
	countSQL  string
	insertSQL string
}

// NewSQLStore wraps an open pool.
func NewSQLStore(db *sql.DB, dialect *Dialect) *SQLStore {
	return &SQLStore{
		db:        db,
		dialect:   dialect,
		countSQL:  dialect.CountSQL(),
		insertSQL: dialect.InsertSQL(),
	}
}

// DB exposes the pool for maintenance queries and tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

// EnsureTable creates data_json if it does not exist.
func (s *SQLStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.CreateTableSQL())
	return err
}

func (s *SQLStore) Acquire(ctx context.Context) (jsonload.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn, store: s}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlConn struct {
	conn    *sql.Conn
	store   *SQLStore
	release sync.Once
}

func (c *sqlConn) Begin(ctx context.Context) (jsonload.Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx, store: c.store}, nil
}

// Release returns the connection to the pool. Extra calls are ignored.
func (c *sqlConn) Release() {
	c.release.Do(func() { _ = c.conn.Close() })
}

type sqlTx struct {
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) CountByKey(ctx context.Context, adresNo int64) (int64, error) {
	var n int64
	err := t.tx.QueryRowContext(ctx, t.store.countSQL, adresNo).Scan(&n)
	return n, err
}

func (t *sqlTx) Insert(ctx context.Context, rec *jsonload.AddressRecord) error {
	values, err := RowValues(rec)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, t.store.insertSQL, values...); err != nil {
		if t.store.dialect.IsKeyConflict != nil && t.store.dialect.IsKeyConflict(err) {
			return KeyConflict(err)
		}
		return err
	}
	return nil
}

func (t *sqlTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

var _ jsonload.Store = (*SQLStore)(nil)
