package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/matthewbaird/portfolio-analytics/internal/activity"
	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/eventbus"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

var at = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func leaseEvent(when time.Time) event.DomainEvent {
	return event.NewAnalysisCompleted(event.AnalysisCompletedPayload{
		RunID:             "run",
		Module:            "lease-risk",
		RiskLevel:         types.RiskHigh,
		Headline:          "lease risk",
		FlaggedProperties: []string{"P1"},
	}, when)
}

type capture struct{ msgs []*nats.Msg }

func (c *capture) PublishMsg(m *nats.Msg) error {
	c.msgs = append(c.msgs, m)
	return nil
}

// forwarded runs events through the server-side forwarder and returns the
// messages a subscriber would receive.
func forwarded(t *testing.T, ctx context.Context, events ...event.DomainEvent) []*nats.Msg {
	t.Helper()
	conn := &capture{}
	fwd := eventbus.NewNATSForwarder(conn, "lcm.analysis")
	for _, evt := range events {
		require.NoError(t, fwd.HandleEvent(ctx, evt))
	}
	return conn.msgs
}

func TestWorker_RebuildsActivityAndAlerts(t *testing.T) {
	store := activity.NewMemoryStore(0)
	alerts := eventbus.NewAlertConsumer(store, "", quietLogger())
	w := New("replica", Chain(ActivityIndexer(store), alerts), quietLogger())

	msgs := forwarded(t, context.Background(),
		leaseEvent(at.AddDate(0, 0, -50)),
		leaseEvent(at.AddDate(0, 0, -20)),
		leaseEvent(at))
	for _, m := range msgs {
		w.HandleMsg(m)
	}

	processed, failed := w.Stats()
	assert.Equal(t, int64(3), processed)
	assert.Zero(t, failed)

	entries, _, total, err := store.QueryByEntity(context.Background(), "property", "P1", activity.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, entries, 3)

	got := alerts.Alerts()
	require.Len(t, got, 1)
	assert.Equal(t, "lease_high_risk_repeat", got[0].Escalation.Rule.ID)
}

func TestWorker_RestoresTraceContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x1, 0x2},
		SpanID:     trace.SpanID{0x3},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var seen trace.TraceID
	w := New("trace", eventbus.HandlerFunc(func(ctx context.Context, _ event.DomainEvent) error {
		seen = trace.SpanContextFromContext(ctx).TraceID()
		return nil
	}), quietLogger())

	w.HandleMsg(forwarded(t, ctx, leaseEvent(at))[0])
	assert.Equal(t, sc.TraceID(), seen)
}

func TestWorker_CountsFailures(t *testing.T) {
	boom := errors.New("boom")
	w := New("failing", eventbus.HandlerFunc(func(context.Context, event.DomainEvent) error {
		return boom
	}), quietLogger())

	w.HandleMsg(&nats.Msg{Subject: "lcm.analysis.x", Data: []byte("not json")})
	w.HandleMsg(forwarded(t, context.Background(), leaseEvent(at))[0])

	processed, failed := w.Stats()
	assert.Zero(t, processed)
	assert.Equal(t, int64(2), failed)
}

func TestChain_StopsAtFirstError(t *testing.T) {
	var calls []string
	step := func(name string, err error) eventbus.Handler {
		return eventbus.HandlerFunc(func(context.Context, event.DomainEvent) error {
			calls = append(calls, name)
			return err
		})
	}
	err := Chain(step("a", nil), step("b", errors.New("stop")), step("c", nil)).
		HandleEvent(context.Background(), leaseEvent(at))
	assert.EqualError(t, err, "stop")
	assert.Equal(t, []string{"a", "b"}, calls)
}

type fakeSubscriber struct {
	mu           sync.Mutex
	subject      string
	cb           nats.MsgHandler
	unsubscribed bool
	err          error
}

func (f *fakeSubscriber) Subscribe(subject string, cb nats.MsgHandler) (func() error, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subject, f.cb = subject, cb
	return func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribed = true
		return nil
	}, nil
}

func (f *fakeSubscriber) handler() nats.MsgHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func TestWorker_RunSubscribesUntilCancelled(t *testing.T) {
	store := activity.NewMemoryStore(0)
	w := New("replica", ActivityIndexer(store), quietLogger())
	sub := &fakeSubscriber{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, sub, "lcm.analysis.>") }()

	require.Eventually(t, func() bool { return sub.handler() != nil }, time.Second, 5*time.Millisecond)
	sub.handler()(forwarded(t, context.Background(), leaseEvent(at))[0])
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, "lcm.analysis.>", sub.subject)
	assert.True(t, sub.unsubscribed)
	assert.Equal(t, 3, store.Len())
}

func TestWorker_RunSubscribeError(t *testing.T) {
	w := New("replica", ActivityIndexer(activity.NewMemoryStore(0)), quietLogger())
	err := w.Run(context.Background(), &fakeSubscriber{err: nats.ErrBadSubject}, "")
	assert.ErrorIs(t, err, nats.ErrBadSubject)
}
