// Package manager creates the target PostgreSQL database before a load.
//
// A database cannot be created from a connection to itself, so the postgres
// store opens a one-connection pool on the maintenance database and calls
// Ensure with it:
//
//	created, err := manager.New().Ensure(ctx, pool, "adres_json_db")
package manager
