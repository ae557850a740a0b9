package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/leaserisk"
	"github.com/matthewbaird/portfolio-analytics/internal/occupancy"
	"github.com/matthewbaird/portfolio-analytics/internal/predictive"
	"github.com/matthewbaird/portfolio-analytics/internal/reconcile"
	"github.com/matthewbaird/portfolio-analytics/internal/scoring"
	"github.com/matthewbaird/portfolio-analytics/internal/telemetry"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

// ErrComputation is wrapped by every ComputationError.
var ErrComputation = errors.New("analysis computation failed")

// ComputationError reports a pipeline that failed unexpectedly. Error()
// never includes Cause, which is for logs only.
type ComputationError struct {
	Module Module
	RunID  string
	Cause  any
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s analysis failed (run %s)", e.Module, e.RunID)
}

func (e *ComputationError) Unwrap() error { return ErrComputation }

// Run is one completed analysis.
type Run struct {
	ID       string        `json:"run_id"`
	Module   Module        `json:"module"`
	AsOf     types.Date    `json:"as_of"`
	Duration time.Duration `json:"-"`
	Summary  Summary       `json:"summary"`
	Output   any           `json:"result"`
}

// Engine validates requests and runs pipelines, recording each run.
type Engine struct {
	validator *validate.Validator
	recorder  event.Recorder
	telemetry *telemetry.Telemetry
	clock     func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used for date-relative scoring.
func WithClock(clock func() time.Time) Option { return func(e *Engine) { e.clock = clock } }

// WithRecorder records an event for every completed or failed run.
func WithRecorder(r event.Recorder) Option { return func(e *Engine) { e.recorder = r } }

// WithTelemetry sets the run instruments.
func WithTelemetry(t *telemetry.Telemetry) Option { return func(e *Engine) { e.telemetry = t } }

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithIDs overrides run id generation.
func WithIDs(newID func() string) Option { return func(e *Engine) { e.newID = newID } }

// NewEngine returns an engine validating with v.
func NewEngine(v *validate.Validator, opts ...Option) *Engine {
	e := &Engine{
		validator: v,
		clock:     time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.telemetry == nil {
		e.telemetry = telemetry.New()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run validates body against the module schema, decodes it and runs the
// pipeline.
func (e *Engine) Run(ctx context.Context, module Module, body []byte) (*Run, error) {
	if _, ok := moduleInfo[module]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	if err := e.validator.Validate(module.Definition(), body); err != nil {
		e.reject(ctx, module, "validation", err)
		return nil, err
	}

	switch module {
	case ModulePortfolio:
		var req types.PortfolioRequest
		if err := e.decode(ctx, module, body, &req); err != nil {
			return nil, err
		}
		return e.Portfolio(ctx, req)
	case ModuleTransactions:
		var req types.TransactionRequest
		if err := e.decode(ctx, module, body, &req); err != nil {
			return nil, err
		}
		return e.Transactions(ctx, req)
	case ModulePredictive:
		var req types.PredictiveRequest
		if err := e.decode(ctx, module, body, &req); err != nil {
			return nil, err
		}
		return e.Predictive(ctx, req)
	case ModuleOccupancy:
		var req types.OccupancyRequest
		if err := e.decode(ctx, module, body, &req); err != nil {
			return nil, err
		}
		return e.Occupancy(ctx, req)
	default:
		var req types.LeaseRiskRequest
		if err := e.decode(ctx, module, body, &req); err != nil {
			return nil, err
		}
		return e.LeaseRisk(ctx, req)
	}
}

// decode maps a schema-valid body onto the request record. Failures here
// (an impossible calendar date, say) are reported as validation errors.
func (e *Engine) decode(ctx context.Context, module Module, body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		verr := &validate.ValidationError{Definition: module.Definition(), Problems: []string{err.Error()}}
		e.reject(ctx, module, "validation", verr)
		return verr
	}
	return nil
}

// reject counts a run refused before any pipeline work.
func (e *Engine) reject(ctx context.Context, module Module, kind string, err error) {
	ctx, tr := e.telemetry.StartRun(ctx, string(module), "")
	tr.End(kind, err)
	e.logger.DebugContext(ctx, "analysis rejected", "module", module, "kind", kind, "error", err)
}

// Portfolio runs the portfolio scoring pipeline.
func (e *Engine) Portfolio(ctx context.Context, req types.PortfolioRequest) (*Run, error) {
	now := e.asOf(req.AsOf)
	return e.execute(ctx, ModulePortfolio, now, len(req.Properties), func() (any, Summary, error) {
		out, err := scoring.Analyze(req.Properties, req.Strategy, req.Weights, now)
		if err != nil {
			return nil, Summary{}, err
		}
		return out, summarizePortfolio(out), nil
	})
}

// Transactions runs reconciliation and transaction risk scoring.
func (e *Engine) Transactions(ctx context.Context, req types.TransactionRequest) (*Run, error) {
	return e.execute(ctx, ModuleTransactions, e.clock(), len(req.Transactions), func() (any, Summary, error) {
		res := reconcile.Analyze(req.Transactions, req.Leases)
		for _, k := range res.DuplicateLeases {
			e.logger.WarnContext(ctx, "duplicate lease key, first lease wins",
				"property_id", k.PropertyID, "tenant", k.TenantKey)
		}
		return res.TransactionAnalysis, summarizeTransactions(res.TransactionAnalysis), nil
	})
}

// Predictive runs feature synthesis and forecasting.
func (e *Engine) Predictive(ctx context.Context, req types.PredictiveRequest) (*Run, error) {
	return e.execute(ctx, ModulePredictive, e.clock(), len(req.Properties), func() (any, Summary, error) {
		res := predictive.Analyze(req)
		e.warnMarkets(ctx, res.DuplicateMarkets)
		return res.PredictiveAnalysis, summarizePredictive(res.PredictiveAnalysis), nil
	})
}

// Occupancy runs utilization classification and compliance checks.
func (e *Engine) Occupancy(ctx context.Context, req types.OccupancyRequest) (*Run, error) {
	return e.execute(ctx, ModuleOccupancy, e.clock(), len(req.OccupancyData), func() (any, Summary, error) {
		out := occupancy.Analyze(req)
		return out, summarizeOccupancy(out), nil
	})
}

// LeaseRisk runs the lease risk composer.
func (e *Engine) LeaseRisk(ctx context.Context, req types.LeaseRiskRequest) (*Run, error) {
	now := e.asOf(req.AsOf)
	return e.execute(ctx, ModuleLeaseRisk, now, len(req.Properties), func() (any, Summary, error) {
		res := leaserisk.Analyze(req, now)
		e.warnMarkets(ctx, res.DuplicateMarkets)
		return res.LeaseRiskAnalysis, summarizeLeaseRisk(res.LeaseRiskAnalysis), nil
	})
}

func (e *Engine) asOf(d *types.Date) time.Time {
	if d != nil && !d.IsZero() {
		return d.Time
	}
	return e.clock()
}

func (e *Engine) warnMarkets(ctx context.Context, keys []types.MarketKey) {
	for _, k := range keys {
		e.logger.WarnContext(ctx, "duplicate market record, first record wins",
			"location", k.Location, "property_type", k.PropertyType)
	}
}

// execute wraps one pipeline call with a run id, a span, panic recovery,
// logging and event recording.
func (e *Engine) execute(ctx context.Context, module Module, now time.Time, records int, fn func() (any, Summary, error)) (*Run, error) {
	run := &Run{ID: e.newID(), Module: module, AsOf: types.DateOf(now)}
	ctx, tr := e.telemetry.StartRun(ctx, string(module), run.ID)
	tr.SetRecords(records)

	output, summary, err := safeCall(module, run.ID, fn)
	kind := ""
	switch {
	case err == nil:
	case errors.Is(err, scoring.ErrInvalidWeights):
		kind = "weights"
	default:
		kind = "computation"
	}
	run.Duration = tr.End(kind, err)

	log := e.logger.With("module", module, "run_id", run.ID, "records", records, "duration", run.Duration.String())
	if err != nil {
		var cerr *ComputationError
		if errors.As(err, &cerr) {
			log.ErrorContext(ctx, "analysis failed", "cause", fmt.Sprint(cerr.Cause))
			e.record(ctx, event.NewAnalysisFailed(event.AnalysisFailedPayload{
				RunID: run.ID, Module: string(module), Kind: kind, Error: err.Error(),
			}, e.clock()))
		} else {
			log.InfoContext(ctx, "analysis rejected", "error", err)
		}
		return nil, err
	}

	run.Output, run.Summary = output, summary
	log.InfoContext(ctx, "analysis completed", "risk_level", summary.RiskLevel, "headline", summary.Headline)
	e.record(ctx, event.NewAnalysisCompleted(event.AnalysisCompletedPayload{
		RunID:              run.ID,
		Module:             string(module),
		RiskLevel:          summary.RiskLevel,
		Headline:           summary.Headline,
		Score:              summary.Score,
		RecordCount:        summary.RecordCount,
		HighRiskCount:      summary.HighRiskCount,
		MediumRiskCount:    summary.MediumRiskCount,
		AlertCount:         summary.AlertCount,
		ReconciliationRate: summary.ReconciliationRate,
		FlaggedProperties:  summary.FlaggedProperties,
		DurationMS:         float64(run.Duration.Microseconds()) / 1000,
	}, e.clock()))
	return run, nil
}

func (e *Engine) record(ctx context.Context, evt event.DomainEvent) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, evt); err != nil {
		e.logger.ErrorContext(ctx, "recording analysis event", "event_type", evt.EventType, "error", err)
	}
}

// safeCall runs fn, turning a panic into a ComputationError.
func safeCall(module Module, runID string, fn func() (any, Summary, error)) (out any, s Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, s, err = nil, Summary{}, &ComputationError{Module: module, RunID: runID, Cause: r}
		}
	}()
	return fn()
}
