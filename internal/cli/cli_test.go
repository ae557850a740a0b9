package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

const portfolioRequest = `{"properties":[{"property_id":"P1","type":"office","location":"London",
"purchase_price":1000000,"current_value":1000000,"noi":60000,"occupancy_rate":0.9,"epc_rating":"B"}],
"strategy":"hold"}`

// executeCommand runs a command with the given args and captures output.
func executeCommand(stdin string, args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "analyze", "modules", "openapi", "watch", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()
	format := root.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := executeCommand("", "--format", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --format")
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("", "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestModules_Text(t *testing.T) {
	out, err := executeCommand("", "modules")
	require.NoError(t, err)
	assert.Contains(t, out, "lease-risk")
	assert.Contains(t, out, "/v1/occupancy/analyze")
	assert.Contains(t, out, "STRATEGY")
	assert.Contains(t, out, "divest")
}

func TestModules_JSON(t *testing.T) {
	out, err := executeCommand("", "--format", "json", "modules")
	require.NoError(t, err)
	var got struct {
		Modules []struct {
			Name string `json:"name"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Modules, 5)
}

func TestOpenAPI(t *testing.T) {
	out, err := executeCommand("", "openapi")
	require.NoError(t, err)
	var doc struct {
		OpenAPI string         `json:"openapi"`
		Paths   map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/v1/transactions/analyze")
}

func TestAnalyze_FileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(portfolioRequest), 0o600))

	out, err := executeCommand("", "analyze", "portfolio", "--file", path, "--as-of", "2025-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Module:   portfolio")
	assert.Contains(t, out, "As of:    2025-01-01")
	assert.Contains(t, out, "health 72.1, grade C+, Medium risk")
	assert.Contains(t, out, "PROPERTY")
	assert.Contains(t, out, "P1")
}

func TestAnalyze_StdinJSON(t *testing.T) {
	out, err := executeCommand(portfolioRequest, "--format", "json", "analyze", "portfolio", "--as-of", "2025-01-01")
	require.NoError(t, err)
	var run struct {
		Module string `json:"module"`
		AsOf   string `json:"as_of"`
		Result struct {
			PortfolioHealth float64 `json:"portfolio_health"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, "portfolio", run.Module)
	assert.Equal(t, "2025-01-01", run.AsOf)
	assert.InDelta(t, 82.95/1.15, run.Result.PortfolioHealth, 1e-9)
}

func TestAnalyze_OccupancyText(t *testing.T) {
	req := `{"occupancy_data":[{"property_id":"P1","total_sq_ft":1000,"occupied_sq_ft":1300,"vacant_sq_ft":0}],
"lease_data":[{"lease_id":"L1","property_id":"P1","tenant_name":"acme","lease_start":"2024-01-01",
"lease_end":"2026-01-01","monthly_rent":1000}]}`
	out, err := executeCommand(req, "analyze", "occupancy")
	require.NoError(t, err)
	assert.Contains(t, out, "Overcrowded")
	assert.Contains(t, out, "Compliance alerts:")
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := executeCommand("{}", "analyze", "valuation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown analysis module")

	_, err = executeCommand(`{"strategy":"hold"}`, "analyze", "portfolio")
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrInvalidRequest)

	_, err = executeCommand(portfolioRequest, "analyze", "portfolio", "--as-of", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as-of")

	_, err = executeCommand("", "analyze", "portfolio", "--file", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading request")
}

func TestServe_InvalidPort(t *testing.T) {
	_, err := executeCommand("", "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestWatch_NeedsNATS(t *testing.T) {
	t.Setenv("LCM_NATS_URL", "")
	_, err := executeCommand("", "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATS url")
}

func TestEventPrinter_Text(t *testing.T) {
	flagFormat = "text"
	evt := event.NewAnalysisCompleted(event.AnalysisCompletedPayload{
		RunID: "r1", Module: "portfolio", Headline: "health 72.1", RiskLevel: types.RiskMedium,
	}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, eventPrinter(&buf).HandleEvent(context.Background(), evt))
	assert.Contains(t, buf.String(), "2025-01-01T00:00:00Z")
	assert.Contains(t, buf.String(), "portfolio_analyzed")
	assert.Contains(t, buf.String(), "portfolio analysis: health 72.1")
}
