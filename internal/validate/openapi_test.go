package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaDoc struct {
	OpenAPI string `json:"openapi"`
	Paths   map[string]struct {
		Post struct {
			OperationID string `json:"operationId"`
		} `json:"post"`
	} `json:"paths"`
	Components struct {
		Schemas map[string]json.RawMessage `json:"schemas"`
	} `json:"components"`
}

type objectSchema struct {
	Type       any                        `json:"type"`
	Required   []string                   `json:"required"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func TestOpenAPI_Document(t *testing.T) {
	v := newValidator(t)
	out, err := v.OpenAPI("Test", "1.0", []Operation{
		{Path: "/v1/portfolio/analyze", Summary: "portfolio", Definition: PortfolioRequest},
		{Path: "/v1/lease-risk/analyze", Summary: "lease risk", Definition: LeaseRiskRequest},
	})
	require.NoError(t, err)

	var doc schemaDoc
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "3.1.0", doc.OpenAPI)
	require.Len(t, doc.Paths, 2)
	assert.Equal(t, "analyzePortfolio", doc.Paths["/v1/portfolio/analyze"].Post.OperationID)
	assert.Equal(t, "analyzeLeaseRisk", doc.Paths["/v1/lease-risk/analyze"].Post.OperationID)
	require.Contains(t, doc.Components.Schemas, "PortfolioRequest")
	require.Contains(t, doc.Components.Schemas, "LeaseRiskRequest")

	var req objectSchema
	require.NoError(t, json.Unmarshal(doc.Components.Schemas["PortfolioRequest"], &req))
	assert.Equal(t, "object", req.Type)
	assert.Equal(t, []string{"properties"}, req.Required)
	assert.Contains(t, req.Properties, "strategy")
	assert.Contains(t, req.Properties, "weights")

	var props struct {
		Type  string       `json:"type"`
		Items objectSchema `json:"items"`
	}
	require.NoError(t, json.Unmarshal(req.Properties["properties"], &props))
	assert.Equal(t, "array", props.Type)
	assert.Contains(t, props.Items.Required, "property_id")
	assert.Contains(t, props.Items.Required, "occupancy_rate")
	assert.NotContains(t, props.Items.Required, "epc_rating")
}

func TestOpenAPI_UnknownDefinition(t *testing.T) {
	v := newValidator(t)
	_, err := v.OpenAPI("Test", "1.0", []Operation{{Path: "/v1/x/analyze", Definition: "#Nope"}})
	assert.ErrorContains(t, err, "unknown schema definition")
}

func TestOperationID(t *testing.T) {
	assert.Equal(t, "analyzeTransactions", operationID("/v1/transactions/analyze"))
	assert.Equal(t, "healthz", operationID("/healthz"))
}
