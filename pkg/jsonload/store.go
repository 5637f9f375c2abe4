package jsonload

import "context"

// Store is a bounded pool of storage connections with the data_json table
// already in place.
//
// Thread-Safety: Acquire may be called from many goroutines. It blocks until
// a connection is free and never hands out more than the configured pool size.
type Store interface {
	// Acquire obtains a connection. Callers must Release it exactly once.
	Acquire(ctx context.Context) (Conn, error)

	// Close shuts the pool down. Acquired connections must be released first.
	Close() error
}

// Conn is a connection owned by one caller until Release.
type Conn interface {
	// Begin starts a transaction used for both the duplicate check and the insert.
	Begin(ctx context.Context) (Tx, error)

	// Release returns the connection to the pool.
	Release()
}

// Tx is one record's unit of work.
type Tx interface {
	// CountByKey returns how many rows already hold the given adresNo.
	CountByKey(ctx context.Context, adresNo int64) (int64, error)

	// Insert writes one row. A primary key violation wraps ErrKeyConflict.
	Insert(ctx context.Context, rec *AddressRecord) error

	Commit(ctx context.Context) error

	// Rollback is a no-op after Commit.
	Rollback(ctx context.Context) error
}
