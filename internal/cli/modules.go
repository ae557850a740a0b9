package cli

import (
	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
)

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the analysis modules",
		Long:  "List the analysis modules, their HTTP endpoints and the canonical strategy weights.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := analysis.NewCatalog()
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), catalog)
			}
			return printCatalog(cmd.OutOrStdout(), catalog)
		},
	}
}
