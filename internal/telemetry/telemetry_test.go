package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNewWithProviders(t *testing.T) {
	tel, err := NewWithProviders(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	require.NoError(t, err)
	require.NotNil(t, tel)
}

func TestStartRun_KeepsParentTrace(t *testing.T) {
	tel, err := NewWithProviders(metricnoop.NewMeterProvider(), tracenoop.NewTracerProvider())
	require.NoError(t, err)

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	runCtx, run := tel.StartRun(ctx, "portfolio", "run-1")
	run.SetRecords(3)
	assert.Equal(t, parent.TraceID(), trace.SpanContextFromContext(runCtx).TraceID())

	assert.GreaterOrEqual(t, int64(run.End("computation", errors.New("boom"))), int64(0))
}

func TestNew_UsesGlobalProviders(t *testing.T) {
	tel := New()
	_, run := tel.StartRun(context.Background(), "occupancy", "run-2")
	run.End("", nil)
}
