package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/portfolio-analytics/internal/activity"
	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/eventbus"
	"github.com/matthewbaird/portfolio-analytics/internal/logging"
	"github.com/matthewbaird/portfolio-analytics/internal/worker"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream analysis events from NATS",
		Long: "Subscribe to the analysis events a server forwards to NATS, print each one " +
			"and raise escalation alerts from a local activity replica. Needs nats.url.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.NATS.URL == "" {
				return errors.New("watch needs a NATS url (nats.url or LCM_NATS_URL)")
			}
			logger := logging.Setup(logging.Options{Level: cfg.LogLevel, JSON: cfg.JSONLog, Service: "lcm-watch", Output: cmd.ErrOrStderr()})

			nc, err := eventbus.ConnectNATS(cfg.NATS.URL)
			if err != nil {
				return err
			}
			defer nc.Close()

			store := activity.NewMemoryStore(cfg.ActivityLimit)
			w := worker.New("watch", worker.Chain(
				worker.ActivityIndexer(store),
				eventbus.NewAlertConsumer(store, "", logger),
				eventPrinter(cmd.OutOrStdout()),
			), logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return w.Run(ctx, worker.FromConn(nc), cfg.NATS.Subject+".>")
		},
	}
}

// eventPrinter writes one line per event, or one JSON document with --format json.
func eventPrinter(out io.Writer) eventbus.Handler {
	return eventbus.HandlerFunc(func(_ context.Context, evt event.DomainEvent) error {
		if isJSON() {
			return printJSON(out, evt)
		}
		_, err := fmt.Fprintf(out, "%s  %-8s  %-26s  %s\n",
			evt.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), evt.Weight, evt.EventType, evt.Summary)
		return err
	})
}
