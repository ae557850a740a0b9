package predictive

import (
	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// NeutralDemand is assumed when a property has no market record.
const NeutralDemand = 0.5

const (
	baseGrowth           = 0.03
	lowOccupancy         = 0.8
	poorMaintenance      = 3.0
	baseConfidence       = 0.7
	uncertainConfidence  = 0.6
	minConfidenceScore   = 0.1
	confidenceRiskWeight = 0.3
)

// Forecast factors reported for the current state of a property.
const (
	FactorLowOccupancy       = "low_occupancy"
	FactorMaintenanceIssues  = "maintenance_issues"
	FactorEnergyInefficiency = "energy_inefficiency"
)

// demand returns the feature's demand index or the neutral default.
func demand(f types.FeatureRecord) float64 {
	if f.DemandIndex == nil {
		return NeutralDemand
	}
	return *f.DemandIndex
}

// Forecast derives predicted occupancy, value, growth and confidence from the
// current state and market demand.
func Forecast(f types.FeatureRecord) types.Prediction {
	d := demand(f)
	growth := baseGrowth + (d-0.5)*0.02

	factors := []string{}
	if f.OccupancyRate < lowOccupancy {
		factors = append(factors, FactorLowOccupancy)
	}
	if f.MaintenanceScore < poorMaintenance {
		factors = append(factors, FactorMaintenanceIssues)
	}
	if f.EPCRating != nil && (*f.EPCRating == "F" || *f.EPCRating == "G") {
		factors = append(factors, FactorEnergyInefficiency)
	}

	return types.Prediction{
		PropertyID:         f.PropertyID,
		PredictedOccupancy: normalize.Clamp(f.OccupancyRate*(1+(d-0.5)*0.2), 0, 1),
		PredictedValue:     f.CurrentValue * (1 + growth),
		GrowthRate:         growth,
		RiskFactors:        factors,
		Confidence:         baseConfidence + (d-0.5)*0.3,
	}
}
