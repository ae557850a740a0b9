package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/portfolio-analytics/internal/activity"
	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/eventbus"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

const portfolioBody = `{"properties":[{"property_id":"P1","type":"office","location":"London",
"purchase_price":1000000,"current_value":1000000,"noi":60000,"occupancy_rate":0.9,"epc_rating":"B"}],
"strategy":"hold"}`

func newRouter(t *testing.T, runner Runner, store activity.Store, alerts AlertSource) http.Handler {
	t.Helper()
	ah := NewAnalysisHandler(runner)
	act := NewActivityHandler(store, alerts)
	act.now = func() time.Time { return testNow }

	r := chi.NewRouter()
	r.Use(Recovery, BodyLimit(4096))
	r.Get("/v1/modules", ah.HandleModules)
	for _, m := range analysis.Modules {
		r.Post("/v1/"+string(m)+"/analyze", ah.Analyze(m))
	}
	r.Post("/v1/analyze/{module}", ah.HandleAnalyzeModule)
	r.Get("/v1/activity/entity/{entity_type}/{entity_id}", act.HandleGetEntityActivity)
	r.Get("/v1/activity/summary/{entity_type}/{entity_id}", act.HandleGetSignalSummary)
	r.Post("/v1/activity/search", act.HandleSearchActivity)
	r.Get("/v1/alerts", act.HandleListAlerts)
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
	return r
}

func newEngine(t *testing.T, rec event.Recorder) *analysis.Engine {
	t.Helper()
	v, err := validate.New()
	require.NoError(t, err)
	opts := []analysis.Option{
		analysis.WithClock(func() time.Time { return testNow }),
		analysis.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if rec != nil {
		opts = append(opts, analysis.WithRecorder(rec))
	}
	return analysis.NewEngine(v, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestModules(t *testing.T) {
	h := newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), nil)
	rec := do(t, h, http.MethodGet, "/v1/modules", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got analysis.Catalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Modules, 5)
	assert.Equal(t, "/v1/lease-risk/analyze", got.Modules[4].Endpoint)
	assert.Len(t, got.Strategies, 3)
	assert.InDelta(t, 1.0, got.Strategies[types.StrategyHold].Sum(), 1e-9)
}

func TestAnalyze_PortfolioReturnsResult(t *testing.T) {
	h := newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), nil)
	rec := do(t, h, http.MethodPost, "/v1/portfolio/analyze", portfolioBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.NotEmpty(t, rec.Header().Get("X-Run-Id"))
	out := decode(t, rec)
	assert.InDelta(t, 82.95/1.15, out["portfolio_health"], 1e-9)
	assert.Equal(t, "Medium", out["risk_level"])
}

func TestAnalyzeModule_Envelope(t *testing.T) {
	h := newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), nil)
	rec := do(t, h, http.MethodPost, "/v1/analyze/portfolio", portfolioBody)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, rec.Header().Get("X-Run-Id"), out["run_id"])
	assert.Equal(t, "portfolio", out["module"])
	assert.Equal(t, "2025-01-01", out["as_of"])
	assert.Contains(t, out, "summary")
	assert.Contains(t, out, "result")
}

func TestAnalyze_Errors(t *testing.T) {
	h := newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), nil)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing properties", "/v1/portfolio/analyze", `{"strategy":"hold"}`, 400, "VALIDATION_ERROR"},
		{"bad json", "/v1/occupancy/analyze", `{"occupancy_data":`, 400, "VALIDATION_ERROR"},
		{"bad strategy", "/v1/portfolio/analyze", `{"properties":[],"strategy":"yolo"}`, 400, "VALIDATION_ERROR"},
		{"zero weights", "/v1/portfolio/analyze", `{"properties":[],"weights":{"lease":0}}`, 400, "INVALID_WEIGHTS"},
		{"unknown weight", "/v1/portfolio/analyze", `{"properties":[],"weights":{"vibes":1}}`, 400, "INVALID_WEIGHTS"},
		{"unknown module", "/v1/analyze/valuation", `{}`, 404, "UNKNOWN_MODULE"},
		{"too large", "/v1/portfolio/analyze", `{"x":"` + strings.Repeat("a", 5000) + `"}`, 413, "BODY_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode(t, rec)["code"])
		})
	}
}

func TestAnalyze_ValidationDetails(t *testing.T) {
	h := newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), nil)
	rec := do(t, h, http.MethodPost, "/v1/portfolio/analyze",
		`{"properties":[{"property_id":"P1","type":"office","location":"L","purchase_price":1,
"current_value":1,"noi":0,"occupancy_rate":1.5}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	details, ok := out["details"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, details)
}

type failingRunner struct{}

func (failingRunner) Run(_ context.Context, m analysis.Module, _ []byte) (*analysis.Run, error) {
	return nil, &analysis.ComputationError{Module: m, RunID: "run-9", Cause: "index out of range"}
}

func TestAnalyze_ComputationFailureIsOpaque(t *testing.T) {
	h := newRouter(t, failingRunner{}, activity.NewMemoryStore(0), nil)
	rec := do(t, h, http.MethodPost, "/v1/lease-risk/analyze", `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "run-9", rec.Header().Get("X-Run-Id"))
	out := decode(t, rec)
	assert.Equal(t, "ANALYSIS_FAILED", out["code"])
	assert.NotContains(t, rec.Body.String(), "index out of range")
}

func TestRecovery(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	h := newRouter(t, failingRunner{}, activity.NewMemoryStore(0), nil)
	rec := do(t, h, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rec)["code"])
}

func TestActivity_FeedAfterAnalysis(t *testing.T) {
	store := activity.NewMemoryStore(0)
	h := newRouter(t, newEngine(t, event.NewActivityRecorder(store)), store, nil)

	body := `{"as_of":"2024-12-01","properties":[{"property_id":"P1","type":"office","location":"L",
"purchase_price":1,"current_value":1,"noi":0,"occupancy_rate":0,"epc_rating":"G",
"lease_expiry_date":"2025-01-01"}],"market_data":[{"location":"L","property_type":"office",
"market_rent":10,"demand_index":0}]}`
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/lease-risk/analyze", body).Code)

	rec := do(t, h, http.MethodGet, "/v1/activity/entity/property/P1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.EqualValues(t, 1, out["total_count"])
	acts := out["activities"].([]any)
	require.Len(t, acts, 1)
	first := acts[0].(map[string]any)
	assert.Equal(t, "lease_risk_analyzed", first["event_type"])
	assert.Equal(t, "strong", first["weight"])

	rec = do(t, h, http.MethodGet, "/v1/activity/entity/property/P1?min_weight=critical", "")
	assert.EqualValues(t, 0, decode(t, rec)["total_count"])

	rec = do(t, h, http.MethodGet, "/v1/activity/summary/property/P1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)
	assert.Equal(t, "concerning", summary["overall_sentiment"])
	assert.Contains(t, summary["categories"], "lease")

	rec = do(t, h, http.MethodPost, "/v1/activity/search", `{"query":"lease-risk"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["total_count"])
}

func TestActivity_BadParams(t *testing.T) {
	h := newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), nil)

	rec := do(t, h, http.MethodGet, "/v1/activity/entity/property/P1?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/v1/activity/entity/property/P1?min_weight=huge", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/v1/activity/search", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_PARAMS", decode(t, rec)["code"])
}

type staticAlerts []eventbus.Alert

func (s staticAlerts) Alerts() []eventbus.Alert { return s }

func TestAlerts(t *testing.T) {
	h := newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), nil)
	rec := do(t, h, http.MethodGet, "/v1/alerts", "")
	assert.JSONEq(t, `{"alerts":[]}`, rec.Body.String())

	h = newRouter(t, newEngine(t, nil), activity.NewMemoryStore(0), staticAlerts{{PropertyID: "P1", EventID: "e1"}})
	rec = do(t, h, http.MethodGet, "/v1/alerts", "")
	out := decode(t, rec)
	require.Len(t, out["alerts"], 1)
}
