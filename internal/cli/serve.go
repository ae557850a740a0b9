package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio-analytics/internal/logging"
	"github.com/matthewbaird/portfolio-analytics/internal/server"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the analysis server",
		Long:  "Start the HTTP API and the WebSocket analysis console. Stops gracefully on SIGINT or SIGTERM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port, cmd.Flags().Changed("port"))
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, port int, portSet bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if portSet {
		cfg.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logging.Setup(logging.Options{Level: cfg.LogLevel, JSON: cfg.JSONLog, Service: "lcm"})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, cfg)
}
