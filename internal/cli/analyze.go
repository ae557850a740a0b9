package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

func newAnalyzeCmd() *cobra.Command {
	var file, asOf string

	names := make([]string, len(analysis.Modules))
	for i, m := range analysis.Modules {
		names[i] = string(m)
	}

	cmd := &cobra.Command{
		Use:       "analyze <module>",
		Short:     "Run one analysis on a JSON request",
		Long:      "Run one analysis module on a JSON request read from a file or stdin. The request has the same shape as the module's HTTP body.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], file, asOf)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "request file, - for stdin")
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluation date YYYY-MM-DD (default today; a request as_of wins)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, name, file, asOf string) error {
	module, err := analysis.ParseModule(name)
	if err != nil {
		return err
	}

	body, err := readInput(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	v, err := validate.New()
	if err != nil {
		return err
	}
	opts := []analysis.Option{
		analysis.WithLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))),
	}
	if asOf != "" {
		d, err := types.ParseDate(asOf)
		if err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
		opts = append(opts, analysis.WithClock(func() time.Time { return d.Time }))
	}

	run, err := analysis.NewEngine(v, opts...).Run(cmd.Context(), module, body)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), run)
	}
	return printRun(cmd.OutOrStdout(), run)
}

// readInput reads the request from path, or from stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return body, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	return body, nil
}
