package db

import (
	"context"
	"database/sql"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// SQLOpener creates a *sql.DB for one attempt. Token-authenticated
// drivers fetch their token inside it.
type SQLOpener func(ctx context.Context) (*sql.DB, error)

// OpenSQL opens a database/sql pool sized to config.PoolSize and pings it,
// retrying transient failures.
func OpenSQL(ctx context.Context, config *jsonload.ConnectionConfig, logger jsonload.Logger, open SQLOpener) (*sql.DB, error) {
	var db *sql.DB
	executor := newRetryExecutor(logger, "connect to "+Redact(config))

	err := executor.Execute(ctx, func(ctx context.Context) error {
		conn, err := open(ctx)
		if err != nil {
			return WrapConnectionError(err, config)
		}

		poolSize := config.EffectivePoolSize()
		conn.SetMaxOpenConns(poolSize)
		conn.SetMaxIdleConns(poolSize)
		conn.SetConnMaxIdleTime(DefaultMaxConnIdleTime)

		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return WrapConnectionError(err, config)
		}

		db = conn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
