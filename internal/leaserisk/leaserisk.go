// Package leaserisk composes EPC, occupancy, market and expiry risk into a
// per-property lease risk score and a ranked intervention list.
package leaserisk

import (
	"fmt"
	"sort"
	"time"

	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// MaxPriorities is the number of properties listed in the intervention plan.
const MaxPriorities = 5

const missingEPCRisk = 25.0

var epcRisk = map[types.EPCRating]float64{
	"A": 0, "B": 5, "C": 10, "D": 20, "E": 30, "F": 40, "G": 50,
}

// Subject is a property with the inputs the composer needs resolved.
type Subject struct {
	normalize.Property
	Demand *float64    // nil without a market match
	Expiry *types.Date // the property's lease_expiry_date; nil skips expiry risk
}

// Subjects joins properties with their market demand. Expiry comes only
// from the property record; lease rows never stand in for it.
func Subjects(props []types.Property, market *types.MarketIndex) []Subject {
	out := make([]Subject, len(props))
	for i, p := range props {
		s := Subject{Property: normalize.NewProperty(p), Expiry: p.LeaseExpiryDate}
		if m, ok := market.Lookup(p.Location, p.Type); ok {
			d := m.DemandIndex
			s.Demand = &d
		}
		out[i] = s
	}
	return out
}

// Score sums the four risk contributions and caps the total at 100.
func Score(s Subject, now time.Time) types.LeaseRiskScore {
	r := types.LeaseRiskScore{
		PropertyID:    s.PropertyID,
		EPCRisk:       missingEPCRisk,
		OccupancyRisk: (1 - s.OccupancyRate) * 20,
	}
	if s.HasEPC() {
		r.EPCRisk = epcRisk[s.EPC]
	}
	if s.Demand != nil {
		r.MarketRisk = (1 - *s.Demand) * 10
	}
	if s.Expiry != nil {
		switch days := s.Expiry.DaysUntil(now); {
		case days < 365:
			r.LeaseExpiryRisk = 25
		case days < 730:
			r.LeaseExpiryRisk = 15
		}
	}
	r.RiskScore = normalize.Score(r.EPCRisk + r.OccupancyRisk + r.MarketRisk + r.LeaseExpiryRisk)
	r.RiskLevel = types.LevelFromScore(r.RiskScore)
	return r
}

// Action maps a risk score to the recommended intervention.
func Action(r types.LeaseRiskScore) types.RecommendedAction {
	a := types.RecommendedAction{PropertyID: r.PropertyID}
	switch {
	case r.RiskScore > 70:
		a.RecommendedAction, a.Priority, a.Timeline = "Dispose or Retrofit", "High", "Immediate"
	case r.RiskScore > 40:
		a.RecommendedAction, a.Priority, a.Timeline = "Monitor Closely", "Medium", "3-6 months"
	default:
		a.RecommendedAction, a.Priority, a.Timeline = "Low Risk", "Low", "Ongoing"
	}
	return a
}

// Factors lists the human-readable conditions behind a subject's risk.
func Factors(s Subject, now time.Time) types.PropertyRiskFactors {
	factors := []string{}
	if s.EPC == "F" || s.EPC == "G" {
		factors = append(factors, "Poor energy efficiency")
	}
	if s.OccupancyRate < 0.8 {
		factors = append(factors, "Low occupancy")
	}
	if s.Demand != nil && *s.Demand < 0.5 {
		factors = append(factors, "Weak market demand")
	}
	if s.Expiry != nil && s.Expiry.DaysUntil(now) < 365 {
		factors = append(factors, "Lease expiring within 12 months")
	}
	return types.PropertyRiskFactors{PropertyID: s.PropertyID, RiskFactors: factors, FactorCount: len(factors)}
}

// Priorities ranks scores descending (ties by property id) and renders the
// top entries as numbered lines.
func Priorities(scores []types.LeaseRiskScore, actions []types.RecommendedAction) []string {
	ranked := append([]types.LeaseRiskScore(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RiskScore != ranked[j].RiskScore {
			return ranked[i].RiskScore > ranked[j].RiskScore
		}
		return ranked[i].PropertyID < ranked[j].PropertyID
	})

	byProperty := make(map[string]string, len(actions))
	for _, a := range actions {
		if _, ok := byProperty[a.PropertyID]; !ok {
			byProperty[a.PropertyID] = a.RecommendedAction
		}
	}

	n := min(len(ranked), MaxPriorities)
	out := make([]string, 0, n)
	for i, r := range ranked[:n] {
		action, ok := byProperty[r.PropertyID]
		if !ok {
			action = "Review"
		}
		out = append(out, fmt.Sprintf("%d. Property %s: %s (Risk: %.1f)", i+1, r.PropertyID, action, r.RiskScore))
	}
	return out
}

// Result is a full lease risk run plus the duplicate market keys seen.
type Result struct {
	types.LeaseRiskAnalysis
	DuplicateMarkets []types.MarketKey
}

// Analyze scores every property and builds actions, factors and priorities.
func Analyze(req types.LeaseRiskRequest, now time.Time) Result {
	market := types.NewMarketIndex(req.MarketData)
	subjects := Subjects(req.Properties, market)

	out := types.LeaseRiskAnalysis{
		RiskScores:         make([]types.LeaseRiskScore, len(subjects)),
		RecommendedActions: make([]types.RecommendedAction, len(subjects)),
		RiskFactors:        make([]types.PropertyRiskFactors, len(subjects)),
	}
	for i, s := range subjects {
		out.RiskScores[i] = Score(s, now)
		out.RecommendedActions[i] = Action(out.RiskScores[i])
		out.RiskFactors[i] = Factors(s, now)
	}
	out.InterventionPriorities = Priorities(out.RiskScores, out.RecommendedActions)
	return Result{LeaseRiskAnalysis: out, DuplicateMarkets: market.Duplicates()}
}
