// Package analysis runs the scoring pipelines as tracked, recorded runs.
package analysis

import (
	"errors"
	"fmt"

	"github.com/matthewbaird/portfolio-analytics/internal/scoring"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

// Module names one analysis pipeline.
type Module string

const (
	ModulePortfolio    Module = "portfolio"
	ModuleTransactions Module = "transactions"
	ModulePredictive   Module = "predictive"
	ModuleOccupancy    Module = "occupancy"
	ModuleLeaseRisk    Module = "lease-risk"
)

// Modules lists every pipeline in display order.
var Modules = []Module{
	ModulePortfolio,
	ModuleTransactions,
	ModulePredictive,
	ModuleOccupancy,
	ModuleLeaseRisk,
}

// ErrUnknownModule is returned for a module name outside Modules.
var ErrUnknownModule = errors.New("unknown analysis module")

var moduleInfo = map[Module]struct {
	definition  string
	description string
}{
	ModulePortfolio:    {validate.PortfolioRequest, "Weighted property scoring, portfolio health, risk level and grade"},
	ModuleTransactions: {validate.TransactionRequest, "Transaction-to-lease reconciliation and payment risk"},
	ModulePredictive:   {validate.PredictiveRequest, "Feature synthesis and deterministic occupancy/value forecast"},
	ModuleOccupancy:    {validate.OccupancyRequest, "Space utilization, lease compliance and efficiency metrics"},
	ModuleLeaseRisk:    {validate.LeaseRiskRequest, "Lease risk composition, actions and intervention priorities"},
}

// ParseModule maps a name to a Module.
func ParseModule(name string) (Module, error) {
	m := Module(name)
	if _, ok := moduleInfo[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}
	return m, nil
}

// Definition returns the request schema definition for m.
func (m Module) Definition() string { return moduleInfo[m].definition }

// Description returns a one-line description of m.
func (m Module) Description() string { return moduleInfo[m].description }

// CatalogEntry describes one module for listings.
type CatalogEntry struct {
	Name        Module `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`
}

// Catalog lists every module with its canonical strategy weights.
type Catalog struct {
	Modules    []CatalogEntry                    `json:"modules"`
	Strategies map[types.Strategy]types.Weights `json:"strategies"`
}

// NewCatalog builds the module listing.
func NewCatalog() Catalog {
	c := Catalog{Strategies: scoring.AllStrategyWeights()}
	for _, m := range Modules {
		c.Modules = append(c.Modules, CatalogEntry{
			Name:        m,
			Description: m.Description(),
			Endpoint:    "/v1/" + string(m) + "/analyze",
		})
	}
	return c
}

// OpenAPI renders the request schemas of every module endpoint as an
// OpenAPI document.
func OpenAPI(v *validate.Validator, version string) ([]byte, error) {
	ops := make([]validate.Operation, 0, len(Modules))
	for _, m := range Modules {
		ops = append(ops, validate.Operation{
			Path:       "/v1/" + string(m) + "/analyze",
			Summary:    m.Description(),
			Definition: m.Definition(),
		})
	}
	return v.OpenAPI("Portfolio Analytics API", version, ops)
}
