package jsonload

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	// Driver selects the storage backend: postgres, mysql, sqlite or sqlserver.
	Driver string

	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Path is the database file for the sqlite driver.
	Path string

	// PoolSize caps the number of open connections. Zero means DefaultPoolSize.
	PoolSize int

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// GoogleInstance is the Cloud SQL instance connection name
	// (project:region:instance) for AuthMethodGoogleIAM. It replaces Host.
	GoogleInstance string
}

// EffectivePoolSize returns PoolSize or the default when unset.
func (c *ConnectionConfig) EffectivePoolSize() int {
	if c.PoolSize <= 0 {
		return DefaultPoolSize
	}
	return c.PoolSize
}

// Validate checks the fields each driver needs.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	switch strings.ToLower(c.Driver) {
	case "sqlite":
		if c.Path == "" {
			errs = append(errs, fmt.Errorf("sqlite driver requires a database path: %w", ErrInvalidConfig))
		}
	case "postgres", "mysql", "sqlserver":
		if c.Host == "" && c.AuthMethod != AuthMethodGoogleIAM {
			errs = append(errs, fmt.Errorf("Host is required: %w", ErrInvalidConfig))
		}
		if c.Port < 0 || c.Port > 65535 {
			errs = append(errs, fmt.Errorf("port %d out of range: %w", c.Port, ErrInvalidConfig))
		}
	case "":
		errs = append(errs, fmt.Errorf("Driver is required: %w", ErrInvalidConfig))
	default:
		errs = append(errs, fmt.Errorf("%q: %w", c.Driver, ErrUnsupportedDriver))
	}

	if c.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("pool size cannot be negative: %w", ErrInvalidConfig))
	}
	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %s: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}
	if c.AuthMethod == AuthMethodAWSIAM && c.AWSRegion == "" {
		errs = append(errs, fmt.Errorf("AWS IAM authentication requires a region: %w", ErrInvalidConfig))
	}
	if c.AuthMethod == AuthMethodGoogleIAM {
		if !strings.EqualFold(c.Driver, "postgres") {
			errs = append(errs, fmt.Errorf("%s is only available for postgres: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
		}
		if strings.Count(c.GoogleInstance, ":") != 2 {
			errs = append(errs, fmt.Errorf("Google Cloud SQL IAM needs an instance connection name project:region:instance, got %q: %w", c.GoogleInstance, ErrInvalidConfig))
		}
		if c.Username == "" {
			errs = append(errs, fmt.Errorf("Google Cloud SQL IAM requires a username: %w", ErrInvalidConfig))
		}
	}

	return errors.Join(errs...)
}

// RunConfig tunes the batch scheduler.
type RunConfig struct {
	// BatchSize is the number of files per batch (default 500).
	BatchSize int

	// Workers bounds concurrent files within a batch (default 5).
	Workers int

	// Encoding names the source charset of input files. Empty means UTF-8.
	Encoding string
}

// WithDefaults returns a copy with unset fields filled in.
func (c RunConfig) WithDefaults() RunConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return c
}

// Validate rejects negative sizes; zero values fall back to defaults.
func (c RunConfig) Validate() error {
	var errs []error
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative: %w", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM through the Cloud SQL dialer
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	case AuthMethodGoogleIAM:
		return "Google Cloud SQL IAM"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodGoogleIAM
}

// ParseAuthMethod maps a CLI or config value to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam", "awsiam":
		return AuthMethodAWSIAM, nil
	case "azure", "azure-entra", "entra", "azureentraid":
		return AuthMethodAzureEntraID, nil
	case "google", "gcp", "google-iam", "cloudsql":
		return AuthMethodGoogleIAM, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
	}
}
