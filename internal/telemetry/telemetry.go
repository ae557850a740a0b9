// Package telemetry records analysis run metrics and spans through the
// OpenTelemetry API. No exporter is installed here; whatever global provider
// the process configures receives the data.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/matthewbaird/portfolio-analytics"

// Telemetry holds the run instruments.
type Telemetry struct {
	tracer   trace.Tracer
	runs     metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// New builds instruments from the global providers.
func New() *Telemetry {
	t, err := NewWithProviders(otel.GetMeterProvider(), otel.GetTracerProvider())
	if err != nil {
		// Instrument creation only fails on invalid names.
		panic(err)
	}
	return t
}

// NewWithProviders builds instruments from explicit providers.
func NewWithProviders(mp metric.MeterProvider, tp trace.TracerProvider) (*Telemetry, error) {
	meter := mp.Meter(instrumentation)
	runs, err := meter.Int64Counter("lcm_analysis_runs_total",
		metric.WithDescription("Analysis runs started, by module."))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("lcm_analysis_failures_total",
		metric.WithDescription("Analysis runs that returned an error, by module and kind."))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("lcm_analysis_duration_ms",
		metric.WithDescription("Analysis run duration."),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Telemetry{
		tracer:   tp.Tracer(instrumentation),
		runs:     runs,
		failures: failures,
		duration: duration,
	}, nil
}

// Run is one in-flight analysis run.
type Run struct {
	t      *Telemetry
	ctx    context.Context
	span   trace.Span
	start  time.Time
	module string
}

// StartRun opens a span for an analysis run and counts it.
func (t *Telemetry) StartRun(ctx context.Context, module, runID string) (context.Context, *Run) {
	ctx, span := t.tracer.Start(ctx, "analysis."+module,
		trace.WithAttributes(
			attribute.String("lcm.module", module),
			attribute.String("lcm.run_id", runID),
		))
	t.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("module", module)))
	return ctx, &Run{t: t, ctx: ctx, span: span, start: time.Now(), module: module}
}

// SetRecords annotates the span with the input batch size.
func (r *Run) SetRecords(n int) {
	r.span.SetAttributes(attribute.Int("lcm.records", n))
}

// End closes the span, records the duration and, when err is non-nil,
// counts a failure tagged with kind.
func (r *Run) End(kind string, err error) time.Duration {
	elapsed := time.Since(r.start)
	attrs := metric.WithAttributes(attribute.String("module", r.module))
	r.t.duration.Record(r.ctx, float64(elapsed.Microseconds())/1000, attrs)
	if err != nil {
		r.t.failures.Add(r.ctx, 1, metric.WithAttributes(
			attribute.String("module", r.module),
			attribute.String("kind", kind),
		))
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, kind)
	}
	r.span.End()
	return elapsed
}
