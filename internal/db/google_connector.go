package db

import (
	"context"
	"fmt"
	"net"
	"sync"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/jsonload/internal/retry"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// GoogleCloudSQLConnector opens a pgx pool on a Cloud SQL for PostgreSQL
// instance. Every connection goes through the Cloud SQL dialer, which handles
// TLS and IAM database authentication with the ambient Google credentials.
//
// The dialer outlives Connect: call Close after the pool is closed.
type GoogleCloudSQLConnector struct {
	config        *jsonload.ConnectionConfig
	retryExecutor *retry.Executor
	logger        jsonload.Logger
	newDialer     func(ctx context.Context) (*cloudsqlconn.Dialer, error)

	mu     sync.Mutex
	dialer *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector checks the Cloud SQL settings of config.
func NewGoogleCloudSQLConnector(config *jsonload.ConnectionConfig, logger jsonload.Logger) (*GoogleCloudSQLConnector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", jsonload.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username (-U): %w", jsonload.ErrInvalidConfig)
	}
	return &GoogleCloudSQLConnector{
		config:        config,
		retryExecutor: newRetryExecutor(logger, "connect to "+Redact(config)),
		logger:        logger,
		newDialer: func(ctx context.Context) (*cloudsqlconn.Dialer, error) {
			return cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
		},
	}, nil
}

// dialConfig is the config pgx parses. Host and port are placeholders the
// dialer ignores; the dialer already encrypts, so pgx must not.
func (c *GoogleCloudSQLConnector) dialConfig() *jsonload.ConnectionConfig {
	cfg := *c.config
	cfg.Host = "localhost"
	cfg.Port = 5432
	cfg.Password = ""
	cfg.SSLMode = "disable"
	return &cfg
}

// Connect creates the dialer, then opens the pool with retries.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := c.newDialer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	instance := c.config.GoogleInstance
	viaDialer := func(poolConfig *pgxpool.Config) {
		poolConfig.ConnConfig.LookupFunc = func(_ context.Context, host string) ([]string, error) {
			return []string{host}, nil
		}
		poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, instance)
		}
	}

	var pool *pgxpool.Pool
	err = c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, c.dialConfig(), c.logger, viaDialer)
		return err
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.dialer != nil {
		c.dialer.Close()
	}
	c.dialer = dialer
	c.mu.Unlock()
	return pool, nil
}

// Close releases the dialer. It is safe to call more than once.
func (c *GoogleCloudSQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialer == nil {
		return nil
	}
	err := c.dialer.Close()
	c.dialer = nil
	return err
}
