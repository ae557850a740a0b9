package scoring

import (
	"fmt"
	"time"

	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

const (
	// weakScore marks a lease or occupancy score that counts towards escalation.
	weakScore = 50.0
	// criticalScore marks a lease or occupancy score that needs immediate attention.
	criticalScore = 40.0
	// escalationShare is the share of weak properties above which risk escalates.
	escalationShare = 0.3
)

var gradeBands = []struct {
	min   float64
	grade string
}{
	{90, "A+"}, {85, "A"}, {80, "B+"}, {75, "B"}, {70, "C+"},
}

// Analyze scores every property, blends the scores with the strategy or
// caller weights and derives health, risk level, grade and recommendations.
func Analyze(props []types.Property, strategy types.Strategy, custom map[string]float64, now time.Time) (types.PortfolioAnalysis, error) {
	strategy = ResolveStrategy(strategy)
	weights, err := ResolveWeights(strategy, custom)
	if err != nil {
		return types.PortfolioAnalysis{}, err
	}

	normalized := normalize.Properties(props)
	scores := make([]types.ScoreSet, len(normalized))
	for i, p := range normalized {
		scores[i] = ScoreProperty(p, now)
	}

	health := Health(scores, weights)
	return types.PortfolioAnalysis{
		PortfolioHealth:  health,
		RiskLevel:        RiskLevel(health, scores),
		PerformanceGrade: Grade(health),
		Recommendations:  Recommendations(scores, strategy),
		PropertyScores:   scores,
		Strategy:         strategy,
		Weights:          weights,
		Insights:         Insights(normalized, health, now),
	}, nil
}

// Health is the mean weighted score across properties, 0 for an empty portfolio.
func Health(scores []types.ScoreSet, w types.Weights) float64 {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range scores {
		total += Weighted(s, w)
	}
	return normalize.Score(total / float64(len(scores)))
}

// RiskLevel tiers health (>=80 Low, >=60 Medium, else High) and escalates one
// tier when more than 30% of properties have a weak lease or occupancy score.
func RiskLevel(health float64, scores []types.ScoreSet) types.RiskLevel {
	var level types.RiskLevel
	switch {
	case health >= 80:
		level = types.RiskLow
	case health >= 60:
		level = types.RiskMedium
	default:
		level = types.RiskHigh
	}
	weak := countBelow(scores, weakScore)
	if len(scores) > 0 && float64(weak) > escalationShare*float64(len(scores)) {
		level = level.Escalate()
	}
	return level
}

// Grade maps health onto the letter ladder.
func Grade(health float64) string {
	for _, b := range gradeBands {
		if health >= b.min {
			return b.grade
		}
	}
	return "C"
}

// countBelow counts properties whose lease or occupancy score is below limit.
func countBelow(scores []types.ScoreSet, limit float64) int {
	n := 0
	for _, s := range scores {
		if s.LeaseScore < limit || s.OccupancyScore < limit {
			n++
		}
	}
	return n
}

var strategyRecommendations = map[types.Strategy][]string{
	types.StrategyGrowth: {
		"Consider acquisition opportunities in high-performing markets",
		"Focus on properties with strong NOI growth potential",
		"Evaluate expansion opportunities for existing high-performing assets",
	},
	types.StrategyHold: {
		"Maintain current portfolio with focus on operational efficiency",
		"Consider energy efficiency improvements to enhance sustainability scores",
		"Monitor market conditions for potential repositioning opportunities",
	},
	types.StrategyDivest: {
		"Identify underperforming assets for potential divestment",
		"Focus on lease stability to maximize sale value",
		"Consider timing market conditions for optimal exit strategies",
	},
}

// Recommendations builds the portfolio guidance: a global warning when the
// mean lease score is below 70, the strategy messages, and a count of
// properties needing immediate attention.
func Recommendations(scores []types.ScoreSet, strategy types.Strategy) []string {
	var recs []string
	if len(scores) > 0 {
		var lease float64
		for _, s := range scores {
			lease += s.LeaseScore
		}
		if lease/float64(len(scores)) < 70 {
			recs = append(recs, "Portfolio health requires immediate attention - focus on lease renewals and occupancy improvements")
		}
	}
	recs = append(recs, strategyRecommendations[ResolveStrategy(strategy)]...)
	if n := countBelow(scores, criticalScore); n > 0 {
		recs = append(recs, fmt.Sprintf("Address %d high-risk properties immediately", n))
	}
	return recs
}
