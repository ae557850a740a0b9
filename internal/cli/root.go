// Package cli defines the cobra command tree for lcm.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio-analytics/internal/config"
)

var (
	flagFormat string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lcm",
		Short:         "Score and monitor a real-estate portfolio",
		Long:          "Run portfolio, transaction, predictive, occupancy and lease risk analyses from the command line or serve them over HTTP and WebSocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "text" && flagFormat != "json" {
				return fmt.Errorf("invalid --format %q: want text or json", flagFormat)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (environment variables override it)")

	root.AddCommand(
		newServeCmd(),
		newAnalyzeCmd(),
		newModulesCmd(),
		newOpenAPICmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the --config file, if any, over the defaults.
func loadConfig() (config.Config, error) {
	return config.Load(flagConfig)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
