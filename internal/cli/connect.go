package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/jsonload/internal/config"
	"github.com/vvka-141/jsonload/internal/files/filesystem"
	"github.com/vvka-141/jsonload/internal/services"
	"github.com/vvka-141/jsonload/internal/tui"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Check the database connection and prepare the table",
	Long: `Connect verifies the connection settings, creates the database and the
data_json table when they are missing, and remembers the server and user in
the settings file so later runs need fewer flags.

The password is never stored.

Examples:
  jsonload connect -h db.local -U loader
  jsonload connect --driver mysql -h db.local -p 3306 -U root
  jsonload connect --driver sqlite --path adres.db`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

type connectFlagValues struct {
	conn    connectionFlags
	logs    logFlags
	noSave  bool
	timeout time.Duration
}

var connectFlags connectFlagValues

func init() {
	rootCmd.AddCommand(connectCmd)
	bindConnectionFlags(connectCmd, &connectFlags.conn)
	bindLogFlags(connectCmd, &connectFlags.logs)
	connectCmd.Flags().BoolVar(&connectFlags.noSave, "no-save", false,
		"Do not write the connection to the settings file")
	connectCmd.Flags().DurationVar(&connectFlags.timeout, "timeout", time.Minute,
		"Give up connecting after this duration")
}

func resetConnectFlags() {
	connectFlags = connectFlagValues{timeout: time.Minute}
}

func runConnect(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	settings, path, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	connCfg, err := resolveConnection(connectFlags.conn, settings)
	if err != nil {
		return err
	}

	timeout, err := resolveEffectiveTimeout(cmd, settings, connectFlags.timeout)
	if err != nil {
		return err
	}

	logger, closeLogs, err := buildLogger(cmd.ErrOrStderr(), verbose, connectFlags.logs, settings.Logging, "command", "connect")
	if err != nil {
		return err
	}
	defer closeLogs()

	logConnectionVerbose(logger, connCfg)

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	svc := services.NewIngestionService(openStore, filesystem.NewOSFileSystem(), logger)
	if err := svc.Connect(ctx, connCfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Connected to %s; table %s is ready\n", tui.SymbolCheck, describeTarget(connCfg), jsonload.TableName)

	if connectFlags.noSave {
		return nil
	}
	if err := config.RememberConnection(path, settingsConnection(connCfg)); err != nil {
		// The connection works; failing to persist it is not fatal.
		logger.Error("Failed to save settings to %s: %v", path, err)
		return nil
	}
	fmt.Fprintf(out, "Settings saved to %s\n", path)
	return nil
}

func describeTarget(cfg *jsonload.ConnectionConfig) string {
	if cfg.Path != "" {
		return fmt.Sprintf("%s %s", cfg.Driver, cfg.Path)
	}
	if cfg.AuthMethod == jsonload.AuthMethodGoogleIAM {
		return fmt.Sprintf("%s Cloud SQL %s/%s", cfg.Driver, cfg.GoogleInstance, cfg.Database)
	}
	return fmt.Sprintf("%s %s:%d/%s", cfg.Driver, cfg.Host, cfg.Port, cfg.Database)
}
