// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"

	"github.com/matthewbaird/portfolio-analytics/internal/activity"
	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
	"github.com/matthewbaird/portfolio-analytics/internal/config"
	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/eventbus"
	"github.com/matthewbaird/portfolio-analytics/internal/handler"
	"github.com/matthewbaird/portfolio-analytics/internal/logging"
	"github.com/matthewbaird/portfolio-analytics/internal/session"
	"github.com/matthewbaird/portfolio-analytics/internal/telemetry"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
	"github.com/matthewbaird/portfolio-analytics/internal/wire"
)

const (
	sessionCleanupInterval = time.Minute
	apiVersion             = "1.0.0"
)

// App holds the wired service components.
type App struct {
	Engine   *analysis.Engine
	Store    *activity.MemoryStore
	Bus      *eventbus.Bus
	Alerts   *eventbus.AlertConsumer
	Sessions *session.Manager
	Router   http.Handler

	openapi []byte
	nc      *nats.Conn
}

// New wires the engine, activity store, event bus and its consumers, and
// the router. When cfg.NATS.URL is set it connects to NATS and forwards
// every event there.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v, err := validate.New()
	if err != nil {
		return nil, err
	}

	doc, err := analysis.OpenAPI(v, apiVersion)
	if err != nil {
		return nil, fmt.Errorf("rendering openapi document: %w", err)
	}

	app := &App{
		openapi:  doc,
		Store:    activity.NewMemoryStore(cfg.ActivityLimit),
		Bus:      eventbus.New(cfg.EventBuffer),
		Sessions: session.NewManager(cfg.Session.MaxAge, cfg.Session.IdleTimeout, cfg.Session.HistorySize),
	}
	app.Alerts = eventbus.NewAlertConsumer(app.Store, "", logger)
	app.Bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	app.Bus.Subscribe("alerts", app.Alerts)

	if cfg.NATS.URL != "" {
		nc, err := eventbus.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		app.nc = nc
		app.Bus.Subscribe("nats", eventbus.NewNATSForwarder(nc, cfg.NATS.Subject))
		logger.Info("forwarding analysis events to nats", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject+".>")
	}

	recorder := event.NewActivityRecorder(app.Store)
	recorder.SetPublisher(app.Bus)

	app.Engine = analysis.NewEngine(v,
		analysis.WithRecorder(recorder),
		analysis.WithTelemetry(telemetry.New()),
		analysis.WithLogger(logger),
	)
	app.Router = NewRouter(app, cfg.MaxBodyBytes, logger)
	return app, nil
}

// NewRouter registers every route on a chi router.
func NewRouter(app *App, maxBodyBytes int64, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handler.Recovery)
	r.Use(logging.RequestLogger)
	r.Use(handler.BodyLimit(maxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	ah := handler.NewAnalysisHandler(app.Engine)
	acth := handler.NewActivityHandler(app.Store, app.Alerts)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/modules", ah.HandleModules)
		r.Get("/openapi.json", handler.OpenAPIDocument(app.openapi))
		for _, m := range analysis.Modules {
			r.Post("/"+string(m)+"/analyze", ah.Analyze(m))
		}
		r.Post("/analyze/{module}", ah.HandleAnalyzeModule)

		r.Get("/activity/entity/{entity_type}/{entity_id}", acth.HandleGetEntityActivity)
		r.Get("/activity/summary/{entity_type}/{entity_id}", acth.HandleGetSignalSummary)
		r.Post("/activity/search", acth.HandleSearchActivity)
		r.Get("/alerts", acth.HandleListAlerts)

		r.Get("/ws", wire.NewHandler(app.Sessions, app.Engine, logger).ServeHTTP)
	})
	return r
}

// Close flushes and closes the NATS connection, if any.
func (a *App) Close() {
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			slog.Warn("draining nats connection", "error", err)
		}
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled. Shutdown
// waits for in-flight requests and queued events.
func Run(ctx context.Context, cfg config.Config) error {
	logger := slog.Default()
	app, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Bus.Start(context.WithoutCancel(ctx))
	go app.Sessions.Run(ctx, sessionCleanupInterval)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "modules", len(analysis.Modules))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		app.Bus.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	app.Bus.Stop()
	if n := app.Bus.Dropped(); n > 0 {
		logger.Warn("events dropped while running", "count", n)
	}
	return nil
}
