package cli

import (
	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

func newOpenAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document of the analysis endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := validate.New()
			if err != nil {
				return err
			}
			doc, err := analysis.OpenAPI(v, Version)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(doc); err != nil {
				return err
			}
			_, err = out.Write([]byte("\n"))
			return err
		},
	}
}
