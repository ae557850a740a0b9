package predictive

import (
	"fmt"
	"math"

	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// Predicted risk factors.
const (
	FactorOccupancyRisk     = "occupancy_risk"
	FactorValueDecline      = "value_decline"
	FactorMarketUncertainty = "market_uncertainty"
	FactorMaintenanceRisk   = "maintenance_risk"
)

// AssessRisk re-derives a 0-100 risk score from a prediction.
func AssessRisk(f types.FeatureRecord, p types.Prediction) types.RiskAssessment {
	var score float64
	factors := []string{}
	if p.PredictedOccupancy < lowOccupancy {
		score += 30
		factors = append(factors, FactorOccupancyRisk)
	}
	if p.GrowthRate < 0 {
		score += 25
		factors = append(factors, FactorValueDecline)
	}
	if p.Confidence < uncertainConfidence {
		score += 20
		factors = append(factors, FactorMarketUncertainty)
	}
	if f.MaintenanceScore < poorMaintenance {
		score += 15
		factors = append(factors, FactorMaintenanceRisk)
	}
	score = normalize.Score(score)
	return types.RiskAssessment{
		PropertyID:  p.PropertyID,
		RiskScore:   score,
		RiskLevel:   types.LevelFromScore(score),
		RiskFactors: factors,
	}
}

// Confidence discounts the forecast confidence by its predicted risk.
func Confidence(p types.Prediction, r types.RiskAssessment) types.ConfidenceScore {
	score := math.Max(p.Confidence*(1-r.RiskScore/100*confidenceRiskWeight), minConfidenceScore)
	level := "Low"
	switch {
	case score > 0.8:
		level = "High"
	case score > 0.6:
		level = "Medium"
	}
	return types.ConfidenceScore{PropertyID: p.PropertyID, ConfidenceScore: score, ConfidenceLevel: level}
}

// Recommendations summarises the predicted risks across the portfolio.
func Recommendations(preds []types.Prediction, risks []types.RiskAssessment) []string {
	var high, lowOcc, decline int
	for _, r := range risks {
		if r.RiskScore > 70 {
			high++
		}
	}
	for _, p := range preds {
		if p.PredictedOccupancy < lowOccupancy {
			lowOcc++
		}
		if p.GrowthRate < 0 {
			decline++
		}
	}

	recs := []string{}
	if high > 0 {
		recs = append(recs, fmt.Sprintf("Monitor %d high-risk properties closely", high))
	}
	if lowOcc > 0 {
		recs = append(recs, "Implement marketing strategies for properties with predicted low occupancy")
	}
	if decline > 0 {
		recs = append(recs, "Consider repositioning or divesting properties with predicted value decline")
	}
	return recs
}

// Result is a full predictive run plus the duplicate market keys seen.
type Result struct {
	types.PredictiveAnalysis
	DuplicateMarkets []types.MarketKey
}

// Analyze runs feature synthesis, forecasting, risk and confidence for every property.
func Analyze(req types.PredictiveRequest) Result {
	market := types.NewMarketIndex(req.MarketData)
	features := Features(normalize.Properties(req.Properties), market, req.HistoricalData)

	out := types.PredictiveAnalysis{
		Features:         features,
		Predictions:      make([]types.Prediction, len(features)),
		RiskAssessments:  make([]types.RiskAssessment, len(features)),
		ConfidenceScores: make([]types.ConfidenceScore, len(features)),
	}
	for i, f := range features {
		p := Forecast(f)
		r := AssessRisk(f, p)
		out.Predictions[i] = p
		out.RiskAssessments[i] = r
		out.ConfidenceScores[i] = Confidence(p, r)
	}
	out.Recommendations = Recommendations(out.Predictions, out.RiskAssessments)
	return Result{PredictiveAnalysis: out, DuplicateMarkets: market.Duplicates()}
}
