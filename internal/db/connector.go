package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/jsonload/internal/retry"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

const (
	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps idle connections for long loads.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, poolSize int, logger jsonload.Logger) {
	poolConfig.MaxConns = int32(poolSize)
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres notice: %s", notice.Message)
	}
}

// newRetryExecutor retries connection establishment only, never record
// writes. It uses DefaultRetryMaxAttempts attempts with exponential backoff
// from DefaultRetryInitialDelay up to DefaultRetryMaxDelay.
func newRetryExecutor(logger jsonload.Logger, what string) *retry.Executor {
	strategy := retry.NewExponentialBackoff(jsonload.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(jsonload.DefaultRetryInitialDelay),
		retry.WithMaxDelay(jsonload.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewConnectionErrorClassifier(), strategy).WithLogger(logger, what)
}

// StandardConnector opens a pgx pool with username/password authentication.
type StandardConnector struct {
	config        *jsonload.ConnectionConfig
	retryExecutor *retry.Executor
	logger        jsonload.Logger
}

// NewStandardConnector creates a StandardConnector for config.
func NewStandardConnector(config *jsonload.ConnectionConfig, logger jsonload.Logger) *StandardConnector {
	return &StandardConnector{
		config:        config,
		retryExecutor: newRetryExecutor(logger, "connect to "+Redact(config)),
		logger:        logger,
	}
}

// Connect establishes a connection pool, retrying transient failures.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// poolOption adjusts the pool configuration before the pool is created.
type poolOption func(*pgxpool.Config)

// withTokenPassword makes every new connection ask tokens for its password.
func withTokenPassword(tokens TokenProvider, logger jsonload.Logger) poolOption {
	return func(poolConfig *pgxpool.Config) {
		poolConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			token, err := FetchToken(ctx, tokens, logger)
			if err != nil {
				return err
			}
			cc.Password = token
			return nil
		}
	}
}

// openPool connects and pings.
func openPool(ctx context.Context, config *jsonload.ConnectionConfig, logger jsonload.Logger, opts ...poolOption) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, config.EffectivePoolSize(), logger)
	for _, opt := range opts {
		opt(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, WrapConnectionError(err, config)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, WrapConnectionError(err, config)
	}
	return pool, nil
}

// NewConnector returns the Connector matching config.AuthMethod.
func NewConnector(config *jsonload.ConnectionConfig, logger jsonload.Logger) (Connector, error) {
	switch config.AuthMethod {
	case jsonload.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case jsonload.AuthMethodAWSIAM, jsonload.AuthMethodAzureEntraID:
		provider, err := NewTokenProvider(config)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	case jsonload.AuthMethodGoogleIAM:
		connector, err := NewGoogleCloudSQLConnector(config, logger)
		if err != nil {
			return nil, err
		}
		return connector, nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, jsonload.ErrUnsupportedAuthMethod)
	}
}

// connectionError matches both jsonload.ErrConnectionFailed and the
// driver error it wraps.
type connectionError struct {
	msg string
	err error
}

func (e *connectionError) Error() string { return e.msg }

func (e *connectionError) Unwrap() []error {
	return []error{jsonload.ErrConnectionFailed, e.err}
}

func connErr(err error, format string, args ...any) error {
	return &connectionError{msg: fmt.Sprintf(format, args...), err: err}
}

// WrapConnectionError adds actionable guidance to a raw driver error.
func WrapConnectionError(err error, config *jsonload.ConnectionConfig) error {
	errStr := strings.ToLower(err.Error())
	host, port, database := config.Host, config.Port, config.Database
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return connErr(err, `connection refused to %s

Possible causes:
  - The %s server is not running (check: %s)
  - Wrong host or port
  - Firewall blocking the connection

Original error: %v`, addr, serverName(config.Driver), readinessHint(config), err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return connErr(err, `cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue

Original error: %v`, host, err)

	case strings.Contains(errStr, "password authentication failed") ||
		strings.Contains(errStr, "access denied") ||
		strings.Contains(errStr, "login failed"):
		return connErr(err, `authentication failed for database "%s"

Possible causes:
  - Wrong password (check $JSONLOAD_PASSWORD, $PGPASSWORD or $MYSQL_PWD)
  - Wrong username
  - Expired cloud token (check --auth and cloud credentials)

Original error: %v`, database, err)

	case strings.Contains(errStr, "unable to open database file") || strings.Contains(errStr, "out of memory (14)"):
		return connErr(err, `cannot open sqlite database "%s"

Possible causes:
  - The parent directory does not exist
  - No write permission on the file or directory

Original error: %v`, config.Path, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return connErr(err, `connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %v`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return connErr(err, `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)

Original error: %v`, err)

	case strings.Contains(errStr, "too many connections"):
		return connErr(err, `too many connections to database "%s"

Possible causes:
  - Server connection limit reached
  - --pool-size is larger than the server allows
  - Stale connections from an interrupted load

Original error: %v`, database, err)

	default:
		return connErr(err, "failed to connect to database: %v", err)
	}
}

func serverName(driver string) string {
	switch NormalizeDriver(driver) {
	case DriverMySQL:
		return "MySQL"
	case DriverSQLServer:
		return "SQL Server"
	case DriverSQLite:
		return "SQLite"
	default:
		return "PostgreSQL"
	}
}

func readinessHint(config *jsonload.ConnectionConfig) string {
	switch NormalizeDriver(config.Driver) {
	case DriverMySQL:
		return fmt.Sprintf("mysqladmin ping -h %s -P %d", config.Host, config.Port)
	case DriverSQLServer:
		return fmt.Sprintf("sqlcmd -S %s,%d -Q \"SELECT 1\"", config.Host, config.Port)
	default:
		return fmt.Sprintf("pg_isready -h %s -p %d", config.Host, config.Port)
	}
}
