// Package sqlserver stores data_json in Microsoft SQL Server or Azure SQL
// through github.com/microsoft/go-mssqldb.
package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/vvka-141/jsonload/internal/db"
	"github.com/vvka-141/jsonload/internal/store"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

const (
	// Violation of PRIMARY KEY constraint.
	errPrimaryKeyViolation = 2627
	// Cannot insert duplicate key row in object with unique index.
	errUniqueIndexViolation = 2601
)

const masterDatabase = "master"

// Dialect is the SQL Server rendering of data_json. JSON is stored as
// NVARCHAR(MAX) guarded by ISJSON.
var Dialect = &store.Dialect{
	Name:        db.DriverSQLServer,
	Placeholder: store.AtPN,
	Quote:       store.Bracket,
	IntType:     "BIGINT",
	TextType:    "NVARCHAR(255)",
	JSONType:    "NVARCHAR(MAX)",
	JSONCheck: func(col string) string {
		return fmt.Sprintf("CHECK (%s IS NULL OR ISJSON(%s) = 1)", col, col)
	},
	CreateTable:   "IF OBJECT_ID(N'%[1]s', N'U') IS NULL CREATE TABLE %[1]s (%[2]s)",
	IsKeyConflict: IsKeyConflict,
}

const createDatabaseSQL = "IF DB_ID(@p1) IS NULL EXEC('CREATE DATABASE ' + QUOTENAME(@p1))"

func init() {
	store.Register(db.DriverSQLServer, func(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error) {
		return Open(ctx, cfg, logger)
	})
}

// Open creates the database through master if needed, connects to it and
// creates data_json.
func Open(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (*store.SQLStore, error) {
	if cfg.AuthMethod == jsonload.AuthMethodAWSIAM {
		return nil, fmt.Errorf("sqlserver: %s: %w", cfg.AuthMethod, jsonload.ErrUnsupportedAuthMethod)
	}
	provider, err := db.NewTokenProvider(cfg)
	if err != nil {
		return nil, err
	}

	if err := ensureDatabase(ctx, cfg, provider, logger); err != nil {
		logger.Verbose("Skipping database creation for %q: %v", cfg.Database, err)
	}

	conn, err := db.OpenSQL(ctx, cfg, logger, func(ctx context.Context) (*sql.DB, error) {
		return openDB(ctx, cfg, cfg.Database, provider, logger)
	})
	if err != nil {
		return nil, err
	}

	st := store.NewSQLStore(conn, Dialect)
	if err := st.EnsureTable(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlserver: create table %s: %w", jsonload.TableName, err)
	}
	return st, nil
}

func ensureDatabase(ctx context.Context, cfg *jsonload.ConnectionConfig, provider db.TokenProvider, logger jsonload.Logger) error {
	if cfg.Database == "" || strings.EqualFold(cfg.Database, masterDatabase) {
		return nil
	}
	admin, err := openDB(ctx, cfg, masterDatabase, provider, logger)
	if err != nil {
		return err
	}
	defer admin.Close()
	admin.SetMaxOpenConns(1)

	_, err = admin.ExecContext(ctx, createDatabaseSQL, cfg.Database)
	return err
}

func openDB(ctx context.Context, cfg *jsonload.ConnectionConfig, database string, provider db.TokenProvider, logger jsonload.Logger) (*sql.DB, error) {
	dsn, err := DSN(cfg, database)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		connector, err := mssql.NewConnector(dsn)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	}

	connector, err := mssql.NewAccessTokenConnector(dsn, func() (string, error) {
		return db.FetchToken(ctx, provider, logger)
	})
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

// DSN builds a sqlserver:// URL for database. Passwords are omitted when
// a token provider authenticates instead.
func DSN(cfg *jsonload.ConnectionConfig, database string) (string, error) {
	port := cfg.Port
	if port == 0 {
		port = db.DefaultPort(db.DriverSQLServer)
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
	}
	if cfg.AuthMethod == jsonload.AuthMethodStandard && cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	query := url.Values{}
	for k, v := range cfg.AdditionalParams {
		if k == "instance" {
			u.Path = "/" + v
			continue
		}
		query.Set(k, v)
	}
	if database != "" {
		query.Set("database", database)
	}
	if cfg.AppName != "" {
		query.Set("app name", cfg.AppName)
	}
	if cfg.ConnectTimeout > 0 {
		query.Set("connection timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	}

	switch strings.ToLower(cfg.SSLMode) {
	case "", "prefer", "allow":
	case "disable":
		query.Set("encrypt", "disable")
	case "require":
		query.Set("encrypt", "true")
		query.Set("TrustServerCertificate", "true")
	case "verify-ca", "verify-full":
		query.Set("encrypt", "true")
	default:
		return "", fmt.Errorf("sqlserver: unknown sslmode %q: %w", cfg.SSLMode, jsonload.ErrInvalidConfig)
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// IsKeyConflict reports a primary key or unique index violation.
func IsKeyConflict(err error) bool {
	var byValue mssql.Error
	if errors.As(err, &byValue) {
		return isDuplicate(byValue.Number)
	}
	var byPointer *mssql.Error
	if errors.As(err, &byPointer) {
		return isDuplicate(byPointer.Number)
	}
	return false
}

func isDuplicate(number int32) bool {
	return number == errPrimaryKeyViolation || number == errUniqueIndexViolation
}
