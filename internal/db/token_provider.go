package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
type TokenProvider interface {
	// GetToken returns a token to use as the database password and its expiry.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs. It must not include secrets.
	String() string
}

const (
	// AzureOSSRDBMSScope is the OAuth scope for Azure Database for PostgreSQL and MySQL.
	AzureOSSRDBMSScope = "https://ossrdbms-aad.database.windows.net/.default"

	// AzureSQLScope is the OAuth scope for Azure SQL Database.
	AzureSQLScope = "https://database.windows.net/.default"

	// tokenRefreshMargin is how long before expiry a cached token is
	// replaced. Fresh tokens with less remaining time are logged.
	tokenRefreshMargin = 5 * time.Minute
)

// AzureScopeFor returns the token scope for a driver.
func AzureScopeFor(driver string) string {
	if NormalizeDriver(driver) == DriverSQLServer {
		return AzureSQLScope
	}
	return AzureOSSRDBMSScope
}

// NewTokenProvider returns the provider for config.AuthMethod, or nil for
// password authentication. Tokens are cached and shared by every pooled
// connection until they near expiry, so a long load keeps reconnecting
// without hitting the identity service per connection.
func NewTokenProvider(config *jsonload.ConnectionConfig) (TokenProvider, error) {
	var (
		provider TokenProvider
		err      error
	)
	switch config.AuthMethod {
	case jsonload.AuthMethodStandard:
		return nil, nil
	case jsonload.AuthMethodAWSIAM:
		provider, err = NewRDSTokenProvider(config.Host, config.Port, config.AWSRegion, config.Username)
	case jsonload.AuthMethodAzureEntraID:
		provider, err = NewEntraTokenProvider(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, jsonload.ErrUnsupportedAuthMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set up %s authentication: %w", config.AuthMethod, err)
	}
	return NewCachingTokenProvider(provider), nil
}

// CachingTokenProvider reuses the last token until it is within
// tokenRefreshMargin of expiring. Safe for concurrent use.
type CachingTokenProvider struct {
	next TokenProvider
	now  func() time.Time

	mu        sync.Mutex
	token     string
	expiresOn time.Time
}

// NewCachingTokenProvider wraps next.
func NewCachingTokenProvider(next TokenProvider) *CachingTokenProvider {
	return &CachingTokenProvider{next: next, now: time.Now}
}

func (c *CachingTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(tokenRefreshMargin).Before(c.expiresOn) {
		return c.token, c.expiresOn, nil
	}
	token, expiresOn, err := c.next.GetToken(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	c.token, c.expiresOn = token, expiresOn
	return token, expiresOn, nil
}

func (c *CachingTokenProvider) String() string { return c.next.String() }

// FetchToken gets a token from provider and warns when it is about to expire.
func FetchToken(ctx context.Context, provider TokenProvider, logger jsonload.Logger) (string, error) {
	token, expiresOn, err := provider.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire token from %s: %w", provider, err)
	}
	if remaining := time.Until(expiresOn); remaining < tokenRefreshMargin {
		logger.Info("Warning: %s token expires in %v", provider, remaining.Round(time.Second))
	}
	return token, nil
}
