package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/jsonload/internal/ingest"
	"github.com/vvka-141/jsonload/internal/store"
)

// sslModes contains the TLS modes accepted by every driver.
var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

var authMethods = []string{"standard", "aws", "azure", "google"}

func filterPrefix(values []string, prefix string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}

// completeFromList completes flag values from a fixed list.
func completeFromList(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return filterPrefix(values, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(sslModes, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDrivers lists the registered storage backends.
func completeDrivers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(store.Drivers(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeAuthMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(authMethods, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func completeEncodings(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(ingest.Encodings(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}
