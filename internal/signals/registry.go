// Package signals classifies analysis events into weighted signals and
// aggregates a signal summary for an entity from its activity entries.
package signals

import (
	"sync"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// Event types emitted by analysis runs.
const (
	EventPortfolioAnalyzed    = "portfolio_analyzed"
	EventTransactionsAnalyzed = "transactions_analyzed"
	EventPredictiveAnalyzed   = "predictive_analyzed"
	EventOccupancyAnalyzed    = "occupancy_analyzed"
	EventLeaseRiskAnalyzed    = "lease_risk_analyzed"
	EventAnalysisFailed       = "analysis_failed"
)

// Signal categories.
const (
	CategoryPortfolio = "portfolio"
	CategoryPayments  = "payments"
	CategoryForecast  = "forecast"
	CategorySpace     = "space"
	CategoryLease     = "lease"
	CategorySystem    = "system"
)

// WeightOrder maps signal weights to numeric severity (lower = more severe).
var WeightOrder = map[string]int{
	"critical": 1,
	"strong":   2,
	"moderate": 3,
	"weak":     4,
	"info":     5,
}

// SignalRegistry holds every registration. Conditional registrations for an
// event type are tried in order before the unconditional one.
var SignalRegistry = []types.SignalRegistration{
	// === Portfolio ===
	{
		ID:          "portfolio_high_risk",
		EventType:   EventPortfolioAnalyzed,
		Condition:   "risk_level == High",
		Category:    CategoryPortfolio,
		Weight:      "strong",
		Polarity:    "negative",
		Description: "Portfolio health rated High risk",
		EscalationRules: []types.EscalationRule{
			{
				ID:                   "portfolio_high_risk_repeat",
				Description:          "Portfolio stays High risk across runs",
				TriggerType:          "count",
				SignalCategory:       CategoryPortfolio,
				SignalPolarity:       "negative",
				Count:                3,
				WithinDays:           30,
				EscalatedWeight:      "critical",
				EscalatedDescription: "3+ negative portfolio runs in 30 days.",
				RecommendedAction:    "Review strategy weights and the weakest properties before the next cycle.",
			},
		},
	},
	{
		ID:          "portfolio_medium_risk",
		EventType:   EventPortfolioAnalyzed,
		Condition:   "risk_level == Medium",
		Category:    CategoryPortfolio,
		Weight:      "moderate",
		Polarity:    "negative",
		Description: "Portfolio health rated Medium risk",
	},
	{
		ID:          "portfolio_healthy",
		EventType:   EventPortfolioAnalyzed,
		Category:    CategoryPortfolio,
		Weight:      "info",
		Polarity:    "positive",
		Description: "Portfolio health rated Low risk",
	},

	// === Payments ===
	{
		ID:          "payments_high_risk",
		EventType:   EventTransactionsAnalyzed,
		Condition:   "risk_level == High",
		Category:    CategoryPayments,
		Weight:      "strong",
		Polarity:    "negative",
		Description: "High-risk transactions detected",
		EscalationRules: []types.EscalationRule{
			{
				ID:                   "payments_high_risk_repeat",
				Description:          "Repeated high-risk payments for the same entity",
				TriggerType:          "count",
				SignalCategory:       CategoryPayments,
				SignalPolarity:       "negative",
				Count:                3,
				WithinDays:           30,
				EscalatedWeight:      "critical",
				EscalatedDescription: "3+ runs with high-risk transactions in 30 days.",
				RecommendedAction:    "Contact the tenant and review the payment schedule.",
			},
		},
	},
	{
		ID:          "payments_low_reconciliation",
		EventType:   EventTransactionsAnalyzed,
		Condition:   "reconciliation_rate < 0.8",
		Category:    CategoryPayments,
		Weight:      "moderate",
		Polarity:    "negative",
		Description: "Reconciliation rate below 80%",
	},
	{
		ID:          "payments_medium_risk",
		EventType:   EventTransactionsAnalyzed,
		Condition:   "risk_level == Medium",
		Category:    CategoryPayments,
		Weight:      "weak",
		Polarity:    "negative",
		Description: "Medium-risk transactions detected",
	},
	{
		ID:          "payments_clean",
		EventType:   EventTransactionsAnalyzed,
		Category:    CategoryPayments,
		Weight:      "info",
		Polarity:    "positive",
		Description: "Transactions reconciled without elevated risk",
	},

	// === Forecast ===
	{
		ID:          "forecast_high_risk",
		EventType:   EventPredictiveAnalyzed,
		Condition:   "risk_level == High",
		Category:    CategoryForecast,
		Weight:      "strong",
		Polarity:    "negative",
		Description: "Forecast flags high-risk properties",
	},
	{
		ID:          "forecast_medium_risk",
		EventType:   EventPredictiveAnalyzed,
		Condition:   "risk_level == Medium",
		Category:    CategoryForecast,
		Weight:      "moderate",
		Polarity:    "negative",
		Description: "Forecast flags medium-risk properties",
	},
	{
		ID:          "forecast_stable",
		EventType:   EventPredictiveAnalyzed,
		Category:    CategoryForecast,
		Weight:      "info",
		Polarity:    "neutral",
		Description: "Forecast shows no elevated risk",
	},

	// === Space ===
	{
		ID:          "space_overcrowded",
		EventType:   EventOccupancyAnalyzed,
		Condition:   "risk_level == High",
		Category:    CategorySpace,
		Weight:      "strong",
		Polarity:    "negative",
		Description: "Occupancy exceeds contracted space",
	},
	{
		ID:          "space_underutilized",
		EventType:   EventOccupancyAnalyzed,
		Condition:   "risk_level == Medium",
		Category:    CategorySpace,
		Weight:      "moderate",
		Polarity:    "negative",
		Description: "Space underutilized against lease terms",
	},
	{
		ID:          "space_compliant",
		EventType:   EventOccupancyAnalyzed,
		Category:    CategorySpace,
		Weight:      "info",
		Polarity:    "positive",
		Description: "Occupancy compliant with lease terms",
	},

	// === Lease ===
	{
		ID:          "lease_high_risk",
		EventType:   EventLeaseRiskAnalyzed,
		Condition:   "risk_level == High",
		Category:    CategoryLease,
		Weight:      "strong",
		Polarity:    "negative",
		Description: "Lease risk rated High",
		EscalationRules: []types.EscalationRule{
			{
				ID:                   "lease_high_risk_repeat",
				Description:          "Property stays High lease risk across runs",
				TriggerType:          "count",
				SignalCategory:       CategoryLease,
				SignalPolarity:       "negative",
				Count:                3,
				WithinDays:           90,
				EscalatedWeight:      "critical",
				EscalatedDescription: "High lease risk in 3+ runs within 90 days.",
				RecommendedAction:    "Schedule a dispose-or-retrofit decision.",
			},
		},
	},
	{
		ID:          "lease_medium_risk",
		EventType:   EventLeaseRiskAnalyzed,
		Condition:   "risk_level == Medium",
		Category:    CategoryLease,
		Weight:      "moderate",
		Polarity:    "negative",
		Description: "Lease risk rated Medium",
	},
	{
		ID:          "lease_low_risk",
		EventType:   EventLeaseRiskAnalyzed,
		Category:    CategoryLease,
		Weight:      "info",
		Polarity:    "positive",
		Description: "Lease risk rated Low",
	},

	// === System ===
	{
		ID:          "analysis_failed",
		EventType:   EventAnalysisFailed,
		Category:    CategorySystem,
		Weight:      "critical",
		Polarity:    "negative",
		Description: "Analysis run failed",
	},
}

// CrossCategoryEscalationRules span more than one signal category.
var CrossCategoryEscalationRules = []types.EscalationRule{
	{
		ID:          "lease_and_payment_risk",
		Description: "Property carries both lease and payment risk",
		TriggerType: "cross_category",
		WithinDays:  30,
		RequiredCategories: []types.CategoryRequirement{
			{Category: CategoryLease, Polarity: "negative", MinCount: 1},
			{Category: CategoryPayments, Polarity: "negative", MinCount: 1},
		},
		EscalatedWeight:      "critical",
		EscalatedDescription: "Negative lease and payment signals within 30 days.",
		RecommendedAction:    "Prioritise the property in the next intervention review.",
	},
	{
		ID:          "space_and_forecast_risk",
		Description: "Occupancy problems confirmed by the forecast",
		TriggerType: "cross_category",
		WithinDays:  60,
		RequiredCategories: []types.CategoryRequirement{
			{Category: CategorySpace, Polarity: "negative", MinCount: 1},
			{Category: CategoryForecast, Polarity: "negative", MinCount: 1},
		},
		EscalatedWeight:      "strong",
		EscalatedDescription: "Negative space and forecast signals within 60 days.",
		RecommendedAction:    "Re-plan space allocation before renewal.",
	},
}

var (
	registryOnce        sync.Once
	registryByEventType map[string][]types.SignalRegistration
)

func buildRegistry() {
	registryByEventType = make(map[string][]types.SignalRegistration, len(SignalRegistry))
	for _, reg := range SignalRegistry {
		registryByEventType[reg.EventType] = append(registryByEventType[reg.EventType], reg)
	}
}

// LookupSignals returns all signal registrations for the given event type.
func LookupSignals(eventType string) []types.SignalRegistration {
	registryOnce.Do(buildRegistry)
	return registryByEventType[eventType]
}

// WeightSeverity returns the numeric severity for a weight (lower = more severe).
// Returns 6 for unknown weights.
func WeightSeverity(weight string) int {
	if s, ok := WeightOrder[weight]; ok {
		return s
	}
	return 6
}

// IsAtLeastWeight reports whether actual is at least as severe as minimum.
func IsAtLeastWeight(actual, minimum string) bool {
	return WeightSeverity(actual) <= WeightSeverity(minimum)
}
