package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/jsonload/internal/config"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// GranularConnFlags holds connection parameters given as individual CLI flags.
//
// There is no password flag. Use $JSONLOAD_PASSWORD, the driver's own
// variable ($PGPASSWORD, $MYSQL_PWD) or a connection string.
type GranularConnFlags struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
	Path     string
	PoolSize int
}

// IsEmpty reports whether no server-selecting flag was given. Database and
// PoolSize are excluded because they may refine a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Driver == "" && g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == "" && g.Path == ""
}

// CloudFlags selects token authentication. The Azure client secret is read
// from $AZURE_CLIENT_SECRET only.
type CloudFlags struct {
	AuthMethod     string
	AWSRegion      string
	AzureTenantID  string
	AzureClientID  string
	GoogleInstance string
}

// EnvVars are the environment variables the resolver consults.
type EnvVars struct {
	JSONLOAD_CONNECTION string
	JSONLOAD_DRIVER     string
	JSONLOAD_PASSWORD   string
	DATABASE_URL        string

	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	MYSQL_PWD string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	return &EnvVars{
		JSONLOAD_CONNECTION: os.Getenv("JSONLOAD_CONNECTION"),
		JSONLOAD_DRIVER:     os.Getenv("JSONLOAD_DRIVER"),
		JSONLOAD_PASSWORD:   os.Getenv("JSONLOAD_PASSWORD"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		MYSQL_PWD:           os.Getenv("MYSQL_PWD"),
		AWS_REGION:          region,
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// HasAzureCredentials returns true if Azure Entra ID environment variables are set.
func (e *EnvVars) HasAzureCredentials() bool {
	return e.AZURE_TENANT_ID != "" || e.AZURE_CLIENT_ID != ""
}

// ResolveConnectionParams builds the effective ConnectionConfig.
//
// Precedence:
//  1. --connection flag, then $JSONLOAD_CONNECTION, then $DATABASE_URL
//     (the variables only when no granular flag is set)
//  2. granular flags
//  3. environment variables ($PGHOST, $PGPORT, ...)
//  4. the settings file
//  5. defaults (postgres on localhost, database adres_json_db)
//
// --database and --pool-size refine any of the above. Passing both
// --connection and granular flags is an error.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	settings *config.Settings,
) (*jsonload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	if settings == nil {
		settings = &config.Settings{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (--driver, -h, -p, -U, --path)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/adres_json_db\"\n"+
				"  2. Granular flags: --driver mysql -h localhost -p 3306 -U root\n"+
				"  3. Environment variables: export PGHOST=localhost PGUSER=myuser: %w",
			jsonload.ErrInvalidConfig,
		)
	}

	connStr := connStringFlag
	if connStr == "" && granularFlags.IsEmpty() {
		connStr = envVars.JSONLOAD_CONNECTION
		if connStr == "" {
			connStr = envVars.DATABASE_URL
		}
	}

	var cfg *jsonload.ConnectionConfig
	var err error
	if connStr != "" {
		cfg, err = ParseConnectionString(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string: %w", err)
		}
		if cfg.SSLMode == "" && cfg.Driver == DriverPostgres {
			cfg.SSLMode = envVars.PGSSLMODE
		}
	} else {
		cfg, err = resolveFromGranularParams(granularFlags, envVars, &settings.Connection)
		if err != nil {
			return nil, err
		}
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}
	if cfg.Database == "" && cfg.Driver != DriverSQLite {
		cfg.Database = jsonload.DefaultDatabaseName
	}
	if cfg.SSLMode == "" && cfg.Driver == DriverPostgres {
		cfg.SSLMode = "prefer"
	}
	if cfg.Password == "" {
		cfg.Password = passwordFromEnv(cfg.Driver, envVars)
	}

	switch {
	case granularFlags.PoolSize > 0:
		cfg.PoolSize = granularFlags.PoolSize
	case cfg.PoolSize == 0:
		cfg.PoolSize = settings.Ingest.PoolSize
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, &settings.Connection); err != nil {
		return nil, err
	}

	return cfg, nil
}

func passwordFromEnv(driver string, env *EnvVars) string {
	if env.JSONLOAD_PASSWORD != "" {
		return env.JSONLOAD_PASSWORD
	}
	switch driver {
	case DriverPostgres:
		return env.PGPASSWORD
	case DriverMySQL:
		return env.MYSQL_PWD
	}
	return ""
}

// applyCloudAuth selects the auth method: flag > settings file > a Cloud SQL
// instance > Azure environment variables. Region and Azure IDs follow
// flag > settings > env.
func applyCloudAuth(cfg *jsonload.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc *config.ConnectionConfig) error {
	methodName := firstNonEmpty(flags.AuthMethod, pc.AuthMethod)
	method, err := jsonload.ParseAuthMethod(methodName)
	if err != nil {
		return err
	}

	tenantID := firstNonEmpty(flags.AzureTenantID, pc.AzureTenantID, env.AZURE_TENANT_ID)
	clientID := firstNonEmpty(flags.AzureClientID, pc.AzureClientID, env.AZURE_CLIENT_ID)

	instance := firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)

	switch {
	case methodName != "":
	case instance != "":
		method = jsonload.AuthMethodGoogleIAM
	case tenantID != "" || clientID != "":
		method = jsonload.AuthMethodAzureEntraID
	}

	cfg.AuthMethod = method
	switch method {
	case jsonload.AuthMethodAzureEntraID:
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case jsonload.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, pc.AWSRegion, env.AWS_REGION)
	case jsonload.AuthMethodGoogleIAM:
		cfg.GoogleInstance = instance
		cfg.Password = ""
	}
	return nil
}

// resolveFromGranularParams applies flag > environment > settings > default
// per field.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	pc *config.ConnectionConfig,
) (*jsonload.ConnectionConfig, error) {
	driver := NormalizeDriver(firstNonEmpty(flags.Driver, envVars.JSONLOAD_DRIVER, pc.Driver))

	cfg := &jsonload.ConnectionConfig{
		Driver:           driver,
		AuthMethod:       jsonload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	if driver == DriverSQLite {
		cfg.Path = firstNonEmpty(flags.Path, pc.Path)
		return cfg, nil
	}

	isPostgres := driver == DriverPostgres
	pick := func(flag, pgEnv, file string) string {
		if isPostgres {
			return firstNonEmpty(flag, pgEnv, file)
		}
		return firstNonEmpty(flag, file)
	}

	cfg.Host = pick(flags.Host, envVars.PGHOST, pc.Host)
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case isPostgres && envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, jsonload.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = DefaultPort(driver)
	}

	cfg.Username = pick(flags.Username, envVars.PGUSER, pc.Username)
	if cfg.Username == "" {
		cfg.Username = firstNonEmpty(os.Getenv("USER"), os.Getenv("USERNAME"))
	}

	cfg.Database = pick("", envVars.PGDATABASE, pc.Database)
	cfg.SSLMode = pick(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode)

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
