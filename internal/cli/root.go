package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jsonload",
	Short: "Bulk loader for address JSON files",
	Long: `jsonload sends a folder of address JSON files to a database table.

Each file holds one address record keyed by adresNo. Files are processed in
batches; a file whose key is already stored is reported as a duplicate and
left in place, every stored file is deleted from the folder.

Supported databases: PostgreSQL, MySQL/MariaDB, SQL Server and SQLite.

Exit Codes:
  0  - Run finished (duplicates and per-file failures are reported, not fatal)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Input folder contains no .json files
  13 - Run interrupted between batches`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for jsonload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("config", "",
		"Settings file (default: $XDG_CONFIG_HOME/jsonload/config.yaml)")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
