package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireFolder validates that exactly one folder argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireFolder(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <folder>

Usage: %s

Example:
  %s ./incoming -d adres_json_db`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}
