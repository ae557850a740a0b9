// Package worker contains event consumer workers that rebuild derived state
// from the analysis events a server forwards to NATS.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/matthewbaird/portfolio-analytics/internal/activity"
	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/eventbus"
)

// Subscriber registers a message callback on a subject and returns the
// function that removes it.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (unsubscribe func() error, err error)
}

type connSubscriber struct{ nc *nats.Conn }

// FromConn adapts a NATS connection to Subscriber.
func FromConn(nc *nats.Conn) Subscriber { return connSubscriber{nc: nc} }

func (s connSubscriber) Subscribe(subject string, cb nats.MsgHandler) (func() error, error) {
	sub, err := s.nc.Subscribe(subject, cb)
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

var propagator = propagation.TraceContext{}

// Worker decodes events from NATS messages and hands them to a handler.
type Worker struct {
	name    string
	handler eventbus.Handler
	logger  *slog.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// New returns a worker feeding handler.
func New(name string, handler eventbus.Handler, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{name: name, handler: handler, logger: logger.With("worker", name)}
}

// HandleMsg processes one message inside a consumer span that continues the
// publisher's trace.
func (w *Worker) HandleMsg(msg *nats.Msg) {
	ctx := propagator.Extract(context.Background(), propagation.HeaderCarrier(msg.Header))
	ctx, span := otel.Tracer("lcm-worker").Start(ctx, "nats.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination", msg.Subject),
			attribute.String("worker", w.name),
		))
	defer span.End()

	var evt event.DomainEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		w.failed.Add(1)
		w.logger.WarnContext(ctx, "undecodable event", "subject", msg.Subject, "error", err)
		return
	}
	if err := w.handler.HandleEvent(ctx, evt); err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "handling event", "event_id", evt.ID, "event_type", evt.EventType, "error", err)
		return
	}
	w.processed.Add(1)
}

// Run subscribes to subject and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, sub Subscriber, subject string) error {
	unsubscribe, err := sub.Subscribe(subject, w.HandleMsg)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	w.logger.Info("worker started", "subject", subject)

	<-ctx.Done()
	if err := unsubscribe(); err != nil {
		w.logger.Warn("unsubscribing", "subject", subject, "error", err)
	}
	processed, failed := w.Stats()
	w.logger.Info("worker stopped", "processed", processed, "failed", failed)
	return nil
}

// Stats returns the number of processed and failed messages.
func (w *Worker) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}

// Chain runs handlers in order and stops at the first error.
func Chain(handlers ...eventbus.Handler) eventbus.Handler {
	return eventbus.HandlerFunc(func(ctx context.Context, evt event.DomainEvent) error {
		for _, h := range handlers {
			if err := h.HandleEvent(ctx, evt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ActivityIndexer writes each event into store as activity entries.
func ActivityIndexer(store activity.Store) eventbus.Handler {
	return eventbus.HandlerFunc(event.NewActivityRecorder(store).Record)
}
