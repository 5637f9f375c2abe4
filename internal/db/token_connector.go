package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/jsonload/internal/retry"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// TokenBasedConnector opens a pgx pool authenticated with short-lived cloud
// tokens (AWS IAM, Azure Entra ID). Every new physical connection asks the
// provider for a token, so connections opened late in a long load do not
// reuse an expired one.
type TokenBasedConnector struct {
	config        *jsonload.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	logger        jsonload.Logger
}

// NewTokenBasedConnector creates a connector that authenticates through tokenProvider.
func NewTokenBasedConnector(config *jsonload.ConnectionConfig, tokenProvider TokenProvider, logger jsonload.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(logger, "connect to "+Redact(config)),
		logger:        logger,
	}
}

// Connect fetches a first token outside the retry loop, since a missing
// credential will not appear on retry, then opens the pool.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	if _, err := FetchToken(ctx, c.tokenProvider, c.logger); err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, c.config, c.logger, withTokenPassword(c.tokenProvider, c.logger))
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
