package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const (
	// AppDir is the directory under the user config dir.
	AppDir = "jsonload"

	// FileName is the settings file inside AppDir.
	FileName = "config.yaml"
)

type ConnectionConfig struct {
	Driver         string `yaml:"driver,omitempty"`
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Username       string `yaml:"username,omitempty"`
	Database       string `yaml:"database,omitempty"`
	SSLMode        string `yaml:"sslmode,omitempty"`
	Path           string `yaml:"path,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type IngestConfig struct {
	BatchSize int    `yaml:"batch_size,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`
	PoolSize  int    `yaml:"pool_size,omitempty"`
	Encoding  string `yaml:"encoding,omitempty"`
	Recursive bool   `yaml:"recursive,omitempty"`
}

type LoggingConfig struct {
	File            string `yaml:"file,omitempty"`
	JSON            bool   `yaml:"json,omitempty"`
	Verbose         bool   `yaml:"verbose,omitempty"`
	FluentHost      string `yaml:"fluent_host,omitempty"`
	FluentPort      int    `yaml:"fluent_port,omitempty"`
	FluentTagPrefix string `yaml:"fluent_tag_prefix,omitempty"`
}

type MetricsConfig struct {
	PushGateway string   `yaml:"pushgateway,omitempty"`
	Job         string   `yaml:"job,omitempty"`
	Datadog     bool     `yaml:"datadog,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// Settings is the persisted user configuration.
type Settings struct {
	Connection ConnectionConfig `yaml:"connection"`
	Ingest     IngestConfig     `yaml:"ingest,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
	Timeout    string           `yaml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout. An empty value means no limit.
func (s *Settings) TimeoutDuration() (time.Duration, error) {
	if s == nil || s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
	}
	return d, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/jsonload/config.yaml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppDir, FileName), nil
}

func Load(configPath string) (*Settings, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return &cfg, nil
}

// LoadOrEmpty is Load with a missing file treated as empty settings.
func LoadOrEmpty(configPath string) (*Settings, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, ErrConfigNotFound) {
		return &Settings{}, nil
	}
	return cfg, err
}

// Save writes cfg atomically with owner-only permissions.
func Save(configPath string, cfg *Settings) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), configPath)
}

// RememberConnection records the last successful server, user and
// authentication choice. Empty optional fields keep their stored value.
func RememberConnection(configPath string, conn ConnectionConfig) error {
	cfg, err := LoadOrEmpty(configPath)
	if err != nil {
		return err
	}

	cfg.Connection.Driver = conn.Driver
	cfg.Connection.Host = conn.Host
	cfg.Connection.Port = conn.Port
	cfg.Connection.Username = conn.Username
	if conn.Database != "" {
		cfg.Connection.Database = conn.Database
	}
	if conn.Path != "" {
		cfg.Connection.Path = conn.Path
	}
	if conn.SSLMode != "" {
		cfg.Connection.SSLMode = conn.SSLMode
	}
	cfg.Connection.AuthMethod = conn.AuthMethod
	cfg.Connection.AWSRegion = conn.AWSRegion
	cfg.Connection.AzureTenantID = conn.AzureTenantID
	cfg.Connection.AzureClientID = conn.AzureClientID
	cfg.Connection.GoogleInstance = conn.GoogleInstance

	return Save(configPath, cfg)
}
