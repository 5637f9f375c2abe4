// Package mysql stores data_json in MySQL or MariaDB through
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/vvka-141/jsonload/internal/db"
	"github.com/vvka-141/jsonload/internal/store"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

const (
	// ER_DUP_ENTRY
	errDupEntry = 1062
	// ER_DUP_ENTRY_WITH_KEY_NAME
	errDupEntryWithKey = 1586
)

// Dialect is the MySQL rendering of data_json.
var Dialect = &store.Dialect{
	Name:          db.DriverMySQL,
	Placeholder:   store.QuestionMark,
	Quote:         store.Backtick,
	IntType:       "BIGINT",
	TextType:      "VARCHAR(255)",
	JSONType:      "JSON",
	CreateTable:   "CREATE TABLE IF NOT EXISTS %[1]s (%[2]s) DEFAULT CHARSET=utf8mb4",
	IsKeyConflict: IsKeyConflict,
}

func init() {
	store.Register(db.DriverMySQL, func(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error) {
		return Open(ctx, cfg, logger)
	})
}

// Open creates the database if needed, connects to it and creates data_json.
func Open(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (*store.SQLStore, error) {
	provider, err := db.NewTokenProvider(cfg)
	if err != nil {
		return nil, err
	}

	if err := ensureDatabase(ctx, cfg, provider, logger); err != nil {
		logger.Verbose("Skipping database creation for %q: %v", cfg.Database, err)
	}

	conn, err := db.OpenSQL(ctx, cfg, logger, func(ctx context.Context) (*sql.DB, error) {
		return openDB(cfg, cfg.Database, provider, logger)
	})
	if err != nil {
		return nil, err
	}

	st := store.NewSQLStore(conn, Dialect)
	if err := st.EnsureTable(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: create table %s: %w", jsonload.TableName, err)
	}
	return st, nil
}

func ensureDatabase(ctx context.Context, cfg *jsonload.ConnectionConfig, provider db.TokenProvider, logger jsonload.Logger) error {
	if cfg.Database == "" {
		return nil
	}
	admin, err := openDB(cfg, "", provider, logger)
	if err != nil {
		return err
	}
	defer admin.Close()
	admin.SetMaxOpenConns(1)

	res, err := admin.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+store.Backtick(cfg.Database))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Info("Created database %q", cfg.Database)
	}
	return nil
}

func openDB(cfg *jsonload.ConnectionConfig, database string, provider db.TokenProvider, logger jsonload.Logger) (*sql.DB, error) {
	driverCfg, err := NewDriverConfig(cfg, database)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		// IAM and Entra ID tokens are sent as cleartext passwords over TLS.
		driverCfg.AllowCleartextPasswords = true
		err := driverCfg.Apply(mysql.BeforeConnect(func(ctx context.Context, c *mysql.Config) error {
			token, err := db.FetchToken(ctx, provider, logger)
			if err != nil {
				return err
			}
			c.Passwd = token
			return nil
		}))
		if err != nil {
			return nil, err
		}
	}

	connector, err := mysql.NewConnector(driverCfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

// NewDriverConfig maps cfg onto the driver configuration for database,
// which may be empty for server-level statements.
func NewDriverConfig(cfg *jsonload.ConnectionConfig, database string) (*mysql.Config, error) {
	port := cfg.Port
	if port == 0 {
		port = db.DefaultPort(db.DriverMySQL)
	}

	c := mysql.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	c.DBName = database
	c.ParseTime = true
	c.Timeout = cfg.ConnectTimeout

	tls, err := tlsMode(cfg)
	if err != nil {
		return nil, err
	}
	c.TLSConfig = tls

	if len(cfg.AdditionalParams) > 0 {
		c.Params = make(map[string]string, len(cfg.AdditionalParams))
		for k, v := range cfg.AdditionalParams {
			c.Params[k] = v
		}
	}
	return c, nil
}

func tlsMode(cfg *jsonload.ConnectionConfig) (string, error) {
	mode := strings.ToLower(cfg.SSLMode)
	if mode == "" && cfg.AuthMethod != jsonload.AuthMethodStandard {
		mode = "verify-full"
	}
	switch mode {
	case "", "prefer", "preferred", "allow":
		return "preferred", nil
	case "disable", "false":
		return "false", nil
	case "require", "required", "skip-verify":
		return "skip-verify", nil
	case "verify-ca", "verify-full", "true":
		return "true", nil
	default:
		return "", fmt.Errorf("mysql: unknown sslmode %q: %w", cfg.SSLMode, jsonload.ErrInvalidConfig)
	}
}

// IsKeyConflict reports a duplicate entry error.
func IsKeyConflict(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errDupEntry || myErr.Number == errDupEntryWithKey
}
