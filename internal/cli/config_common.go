package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/jsonload/internal/config"
	"github.com/vvka-141/jsonload/internal/db"
	"github.com/vvka-141/jsonload/internal/logging"
	"github.com/vvka-141/jsonload/internal/metrics"
	"github.com/vvka-141/jsonload/internal/metrics/datadog"
	"github.com/vvka-141/jsonload/internal/metrics/prompush"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	driver         string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	path           string
	poolSize       int
	auth           string
	awsRegion      string
	azureTenantID  string
	azureClientID  string
	googleInstance string
}

func bindConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()

	// Connection string flag (mutually exclusive with granular flags)
	flags.StringVar(&f.connection, "connection", "",
		"Connection string (postgresql://, mysql://, sqlserver://, sqlite: or ADO.NET).\n"+
			"Mutually exclusive with granular flags (--driver, --host, --port, --username, --path).\n"+
			"Alternative: $JSONLOAD_CONNECTION or $DATABASE_URL")

	flags.StringVar(&f.driver, "driver", "",
		"Database driver: postgres|mysql|sqlserver|sqlite (default: postgres, or $JSONLOAD_DRIVER)")
	flags.StringVarP(&f.host, "host", "h", "",
		"Database server host\n"+
			"Precedence: --host > $PGHOST (postgres) > settings file > localhost")
	flags.IntVarP(&f.port, "port", "p", 0,
		"Database server port (default: the driver's standard port)")
	flags.StringVarP(&f.username, "username", "U", "",
		"Database user (default: $PGUSER for postgres, or the current OS user)")
	flags.StringVarP(&f.database, "database", "d", "",
		"Database name (default: "+jsonload.DefaultDatabaseName+"); created when missing")
	flags.StringVar(&f.sslMode, "sslmode", "",
		"TLS mode: disable|allow|prefer|require|verify-ca|verify-full")
	flags.StringVar(&f.path, "path", "",
		"SQLite database file (with --driver sqlite)")
	flags.IntVar(&f.poolSize, "pool-size", 0,
		fmt.Sprintf("Maximum open database connections (default: %d)", jsonload.DefaultPoolSize))

	flags.StringVar(&f.auth, "auth", "",
		"Authentication: standard|aws|azure|google\n"+
			"aws requests an RDS IAM token, google dials Cloud SQL with IAM (postgres only),\n"+
			"azure an Entra ID token (DefaultAzureCredential chain\n"+
			"or service principal when $AZURE_CLIENT_SECRET is set)")
	flags.StringVar(&f.awsRegion, "aws-region", "",
		"AWS region for IAM tokens (overrides $AWS_REGION)")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
	flags.StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name project:region:instance (implies --auth google)")

	_ = cmd.RegisterFlagCompletionFunc("driver", completeDrivers)
	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = cmd.RegisterFlagCompletionFunc("auth", completeAuthMethods)
}

// resolveConnection resolves the effective connection from flags,
// environment and settings.
func resolveConnection(flags connectionFlags, settings *config.Settings) (*jsonload.ConnectionConfig, error) {
	granular := &db.GranularConnFlags{
		Driver:   flags.driver,
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
		Path:     flags.path,
		PoolSize: flags.poolSize,
	}
	cloud := &db.CloudFlags{
		AuthMethod:     flags.auth,
		AWSRegion:      flags.awsRegion,
		AzureTenantID:  flags.azureTenantID,
		AzureClientID:  flags.azureClientID,
		GoogleInstance: flags.googleInstance,
	}

	cfg, err := db.ResolveConnectionParams(flags.connection, granular, cloud, db.LoadFromEnvironment(), settings)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// settingsPath returns --config or the default settings location.
func settingsPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

// loadSettings loads .env from the working directory and the settings file.
// A missing settings file is not an error.
func loadSettings(cmd *cobra.Command) (*config.Settings, string, error) {
	_ = godotenv.Load()

	path, err := settingsPath(cmd)
	if err != nil {
		return nil, "", err
	}
	settings, err := config.LoadOrEmpty(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load settings: %v: %w", err, jsonload.ErrInvalidConfig)
	}
	return settings, path, nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring the
// settings file if the flag wasn't set.
func resolveEffectiveTimeout(cmd *cobra.Command, settings *config.Settings, flagTimeout time.Duration) (time.Duration, error) {
	if cmd.Flags().Changed("timeout") {
		return flagTimeout, nil
	}
	d, err := settings.TimeoutDuration()
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, jsonload.ErrInvalidConfig)
	}
	if d > 0 {
		return d, nil
	}
	return flagTimeout, nil
}

// authMethodToString maps an AuthMethod to its settings file value.
func authMethodToString(m jsonload.AuthMethod) string {
	switch m {
	case jsonload.AuthMethodAWSIAM:
		return "aws"
	case jsonload.AuthMethodAzureEntraID:
		return "azure"
	case jsonload.AuthMethodGoogleIAM:
		return "google"
	default:
		return ""
	}
}

// settingsConnection converts a resolved connection to its persisted form.
// Passwords are never written.
func settingsConnection(cfg *jsonload.ConnectionConfig) config.ConnectionConfig {
	return config.ConnectionConfig{
		Driver:         cfg.Driver,
		Host:           cfg.Host,
		Port:           cfg.Port,
		Username:       cfg.Username,
		Database:       cfg.Database,
		SSLMode:        cfg.SSLMode,
		Path:           cfg.Path,
		AuthMethod:     authMethodToString(cfg.AuthMethod),
		AWSRegion:      cfg.AWSRegion,
		AzureTenantID:  cfg.AzureTenantID,
		AzureClientID:  cfg.AzureClientID,
		GoogleInstance: cfg.GoogleInstance,
	}
}

// logConnectionVerbose logs connection details at verbose level.
func logConnectionVerbose(logger jsonload.Logger, cfg *jsonload.ConnectionConfig) {
	logger.Verbose("Connection resolved: %s", db.Redact(cfg))
	logger.Verbose("  Driver: %s", cfg.Driver)
	if cfg.Driver == db.DriverSQLite {
		logger.Verbose("  Path: %s", cfg.Path)
	} else {
		logger.Verbose("  Host: %s", cfg.Host)
		logger.Verbose("  Port: %d", cfg.Port)
		logger.Verbose("  User: %s", cfg.Username)
		logger.Verbose("  Database: %s", cfg.Database)
		logger.Verbose("  SSL Mode: %s", cfg.SSLMode)
	}
	logger.Verbose("  Pool Size: %d", cfg.EffectivePoolSize())
	logger.Verbose("  Auth Method: %s", cfg.AuthMethod)
}

// Log output formats for --log-format.
const (
	logFormatConsole = "console"
	logFormatColor   = "color"
	logFormatText    = "text"
	logFormatJSON    = "json"
)

var logFormats = []string{logFormatConsole, logFormatColor, logFormatText, logFormatJSON}

// logFlags selects where log lines go besides stderr.
type logFlags struct {
	format string
	file   string
	fluent string
}

func bindLogFlags(cmd *cobra.Command, f *logFlags) {
	cmd.Flags().StringVar(&f.format, "log-format", "",
		"Console log format: console|color|text|json (default: console)")
	cmd.Flags().StringVar(&f.file, "log-file", "",
		"Append JSON log records to this file")
	cmd.Flags().StringVar(&f.fluent, "fluent", "",
		"Forward log records to a Fluentd/Fluent Bit collector at host:port")
	_ = cmd.RegisterFlagCompletionFunc("log-format", completeFromList(logFormats))
}

// buildLogger assembles the console logger plus the optional file and
// fluent loggers. The returned close function releases files and sockets.
func buildLogger(stderr io.Writer, verbose bool, flags logFlags, settings config.LoggingConfig, attrs ...any) (jsonload.Logger, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	verbose = verbose || settings.Verbose

	format := flags.format
	if format == "" && settings.JSON {
		format = logFormatJSON
	}

	var loggers []jsonload.Logger
	switch format {
	case "", logFormatConsole:
		loggers = append(loggers, logging.NewConsoleLoggerTo(stderr, verbose))
	case logFormatColor, logFormatText, logFormatJSON:
		loggers = append(loggers, logging.NewSlogLogger(logging.SlogConfig{
			Writer:  stderr,
			Verbose: verbose,
			JSON:    format == logFormatJSON,
			Color:   format == logFormatColor,
			Attrs:   attrs,
		}))
	default:
		return nil, closeAll, fmt.Errorf("invalid --log-format %q (want one of %v): %w", format, logFormats, jsonload.ErrInvalidConfig)
	}

	if file := firstNonEmpty(flags.file, settings.File); file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to open log file: %v: %w", err, jsonload.ErrInvalidConfig)
		}
		closers = append(closers, func() { _ = f.Close() })
		loggers = append(loggers, logging.NewSlogLogger(logging.SlogConfig{
			Writer:  f,
			Verbose: verbose,
			JSON:    true,
			Attrs:   attrs,
		}))
	}

	fluentHost, fluentPort, err := fluentAddress(flags.fluent, settings)
	if err != nil {
		closeAll()
		return nil, func() {}, err
	}
	if fluentHost != "" {
		tag := settings.FluentTagPrefix
		if tag == "" {
			tag = "jsonload"
		}
		fields := map[string]interface{}{}
		for i := 0; i+1 < len(attrs); i += 2 {
			if k, ok := attrs[i].(string); ok {
				fields[k] = attrs[i+1]
			}
		}
		fl, err := logging.NewFluentLogger(logging.FluentConfig{
			Host:      fluentHost,
			Port:      fluentPort,
			TagPrefix: tag,
			Verbose:   verbose,
			Fields:    fields,
		})
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("%v: %w", err, jsonload.ErrInvalidConfig)
		}
		closers = append(closers, func() { _ = fl.Close() })
		loggers = append(loggers, fl)
	}

	return logging.NewMultiLogger(loggers...), closeAll, nil
}

// fluentAddress reads --fluent host:port, falling back to the settings file.
func fluentAddress(flag string, settings config.LoggingConfig) (string, int, error) {
	if flag == "" {
		return settings.FluentHost, settings.FluentPort, nil
	}
	host, portStr, err := net.SplitHostPort(flag)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --fluent %q: %v: %w", flag, err, jsonload.ErrInvalidConfig)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("invalid --fluent port %q: %w", portStr, jsonload.ErrInvalidConfig)
	}
	return host, port, nil
}

// metricsFlags selects the metrics backends.
type metricsFlags struct {
	pushGateway string
	job         string
	datadog     bool
	tags        string
}

func bindMetricsFlags(cmd *cobra.Command, f *metricsFlags) {
	cmd.Flags().StringVar(&f.pushGateway, "pushgateway", "",
		"Push run metrics to this Prometheus Pushgateway URL")
	cmd.Flags().StringVar(&f.job, "metrics-job", "",
		"Job name for pushed metrics (default: "+prompush.DefaultJob+")")
	cmd.Flags().BoolVar(&f.datadog, "datadog", false,
		"Submit run metrics to Datadog (uses $DD_API_KEY and $DD_SITE)")
	cmd.Flags().StringVar(&f.tags, "metrics-tags", "",
		"Extra Datadog tags, comma separated (e.g. env:prod,team:ops)")
}

// buildMetrics returns the configured backends and a function that
// publishes whatever they buffered. With nothing configured the backend is
// a no-op.
func buildMetrics(ctx context.Context, flags metricsFlags, settings config.MetricsConfig) (metrics.Backend, func() error, error) {
	var backends metrics.Multi
	var finish []func() error

	job := firstNonEmpty(flags.job, settings.Job, prompush.DefaultJob)

	if url := firstNonEmpty(flags.pushGateway, settings.PushGateway); url != "" {
		pb, err := prompush.NewBackend(job, url)
		if err != nil {
			return nil, nil, fmt.Errorf("%v: %w", err, jsonload.ErrInvalidConfig)
		}
		backends = append(backends, pb)
		finish = append(finish, pb.Flush)
	}

	if flags.datadog || settings.Datadog {
		tags := append(append([]string(nil), settings.Tags...), datadog.ParseTags(flags.tags)...)
		dd, err := datadog.NewBackend(ctx, datadog.Options{JobName: job, Tags: tags})
		if err != nil {
			return nil, nil, fmt.Errorf("%v: %w", err, jsonload.ErrInvalidConfig)
		}
		backends = append(backends, dd)
		finish = append(finish, dd.Close)
	}

	publish := func() error {
		var errs []error
		for _, f := range finish {
			if err := f(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	if len(backends) == 0 {
		return metrics.Nop{}, publish, nil
	}
	return backends, publish, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
