package server

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/portfolio-analytics/internal/config"
)

const leaseRiskBody = `{"as_of":"2024-12-01","properties":[{"property_id":"P1","type":"office","location":"L",
"purchase_price":1,"current_value":1,"noi":0,"occupancy_rate":0,"epc_rating":"G",
"lease_expiry_date":"2025-01-01"}],"market_data":[{"location":"L","property_type":"office",
"market_rent":10,"demand_index":0}]}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApp_Routes(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)
	slog.SetDefault(quietLogger())

	app, err := New(config.Default(), quietLogger())
	require.NoError(t, err)
	app.Bus.Start(context.Background())
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/modules")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/openapi.json")
	require.NoError(t, err)
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	resp.Body.Close()
	assert.Len(t, doc.Paths, 5)
	assert.Contains(t, doc.Paths, "/v1/occupancy/analyze")

	for range 3 {
		resp, err = http.Post(srv.URL+"/v1/lease-risk/analyze", "application/json", strings.NewReader(leaseRiskBody))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	app.Bus.Stop()

	resp, err = http.Get(srv.URL + "/v1/activity/entity/property/P1")
	require.NoError(t, err)
	var feed struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	resp.Body.Close()
	assert.Equal(t, 3, feed.TotalCount)

	alerts := app.Alerts.Alerts()
	require.NotEmpty(t, alerts)
	assert.Equal(t, "P1", alerts[0].PropertyID)
	assert.Equal(t, "lease_high_risk_repeat", alerts[0].Escalation.Rule.ID)
}

func TestApp_BodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxBodyBytes = 64
	app, err := New(cfg, quietLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/portfolio/analyze",
		strings.NewReader(`{"properties":[],"padding":"`+strings.Repeat("x", 100)+`"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNew_NATSUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.NATS.URL = "nats://127.0.0.1:1"
	_, err := New(cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to nats")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)
	slog.SetDefault(quietLogger())

	cfg := config.Default()
	cfg.Port = 0
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
