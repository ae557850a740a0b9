package scoring

import (
	"math"
	"time"

	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// epcRisk weights EPC grades for the sustainability flag; missing ratings score 3.
var epcRisk = map[types.EPCRating]float64{
	"A": 0, "B": 1, "C": 2, "D": 3, "E": 4, "F": 5, "G": 6,
}

const missingEPCRisk = 3.0

// Insights derives the headline indicators shown next to portfolio health.
func Insights(props []normalize.Property, health float64, now time.Time) types.PortfolioInsights {
	return types.PortfolioInsights{
		SuggestedAction:       SuggestedAction(health),
		LeaseMaturityExposure: LeaseMaturityExposure(props, now),
		OccupancyEfficiency:   OccupancyEfficiency(props),
		SustainabilityFlag:    SustainabilityFlag(props),
	}
}

// SuggestedAction is retain at >=80, reposition at >=55, else divest.
func SuggestedAction(health float64) string {
	switch {
	case health >= 80:
		return "retain"
	case health >= 55:
		return "reposition"
	default:
		return "divest"
	}
}

// LeaseMaturityExposure buckets every property with a lease expiry by horizon.
func LeaseMaturityExposure(props []normalize.Property, now time.Time) []types.LeaseMaturityExposure {
	out := make([]types.LeaseMaturityExposure, 0, len(props))
	for _, p := range props {
		if p.LeaseExpiryDate == nil {
			continue
		}
		days := p.LeaseExpiryDate.DaysUntil(now)
		e := types.LeaseMaturityExposure{PropertyID: p.PropertyID, DaysToExpiry: days}
		switch {
		case days < 365:
			e.Bucket, e.RiskWeight = types.MaturityUnder12Months, 1.0
		case days < 730:
			e.Bucket, e.RiskWeight = types.Maturity12To24Months, 0.75
		default:
			e.Bucket, e.RiskWeight = types.MaturityOver24Months, 0.5
		}
		out = append(out, e)
	}
	return out
}

// OccupancyEfficiency is the mean occupancy rate as a rounded percentage.
func OccupancyEfficiency(props []normalize.Property) float64 {
	if len(props) == 0 {
		return 0
	}
	var sum float64
	for _, p := range props {
		sum += p.OccupancyRate
	}
	return normalize.Score(math.Round(sum / float64(len(props)) * 100))
}

// SustainabilityFlag grades the mean EPC risk: <=2 green, <=4 amber, else red.
func SustainabilityFlag(props []normalize.Property) string {
	if len(props) == 0 {
		return "amber"
	}
	var sum float64
	for _, p := range props {
		if p.HasEPC() {
			sum += epcRisk[p.EPC]
		} else {
			sum += missingEPCRisk
		}
	}
	mean := sum / float64(len(props))
	switch {
	case mean <= 2:
		return "green"
	case mean <= 4:
		return "amber"
	default:
		return "red"
	}
}
