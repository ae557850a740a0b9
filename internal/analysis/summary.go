package analysis

import (
	"fmt"
	"slices"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// Summary is the headline of one run: its worst risk level, a short text
// and the properties that need attention.
type Summary struct {
	RiskLevel          types.RiskLevel `json:"risk_level"`
	Headline           string          `json:"headline"`
	Score              float64         `json:"score"`
	RecordCount        int             `json:"record_count"`
	HighRiskCount      int             `json:"high_risk_count"`
	MediumRiskCount    int             `json:"medium_risk_count"`
	AlertCount         int             `json:"alert_count"`
	ReconciliationRate *float64        `json:"reconciliation_rate,omitempty"`
	FlaggedProperties  []string        `json:"flagged_properties,omitempty"`
}

func worse(a, b types.RiskLevel) types.RiskLevel {
	rank := map[types.RiskLevel]int{types.RiskLow: 0, types.RiskMedium: 1, types.RiskHigh: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// flagged collects distinct ids in first-seen order.
type flagged struct {
	ids  []string
	seen map[string]bool
}

func (f *flagged) add(id string) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if !f.seen[id] {
		f.seen[id] = true
		f.ids = append(f.ids, id)
	}
}

func (f *flagged) list() []string {
	return slices.Clone(f.ids)
}

func summarizePortfolio(a types.PortfolioAnalysis) Summary {
	var f flagged
	for _, s := range a.PropertyScores {
		if s.LeaseScore < 40 || s.OccupancyScore < 40 {
			f.add(s.PropertyID)
		}
	}
	return Summary{
		RiskLevel:         a.RiskLevel,
		Headline:          fmt.Sprintf("health %.1f, grade %s, %s risk", a.PortfolioHealth, a.PerformanceGrade, a.RiskLevel),
		Score:             a.PortfolioHealth,
		RecordCount:       len(a.PropertyScores),
		HighRiskCount:     len(f.ids),
		FlaggedProperties: f.list(),
	}
}

func summarizeTransactions(a types.TransactionAnalysis) Summary {
	level := types.RiskLow
	var f flagged
	for _, r := range a.RiskScores {
		level = worse(level, r.RiskLevel)
		if r.RiskLevel == types.RiskHigh {
			f.add(r.PropertyID)
		}
	}
	for _, u := range a.UnreconciledTransactions {
		if u.Reason == types.ReasonAmountMismatch {
			f.add(u.PropertyID)
		}
	}
	rep := a.ReconciliationReport
	rate := rep.ReconciliationRate
	return Summary{
		RiskLevel: level,
		Headline: fmt.Sprintf("%d/%d reconciled, %d high-risk",
			rep.ReconciledCount, rep.TotalTransactions, rep.HighRiskTransactions),
		Score:              rate * 100,
		RecordCount:        rep.TotalTransactions,
		HighRiskCount:      rep.HighRiskTransactions,
		MediumRiskCount:    rep.MediumRiskTransactions,
		ReconciliationRate: &rate,
		FlaggedProperties:  f.list(),
	}
}

func summarizePredictive(a types.PredictiveAnalysis) Summary {
	s := Summary{RiskLevel: types.RiskLow, RecordCount: len(a.RiskAssessments)}
	var f flagged
	var total float64
	for _, r := range a.RiskAssessments {
		s.RiskLevel = worse(s.RiskLevel, r.RiskLevel)
		total += r.RiskScore
		switch r.RiskLevel {
		case types.RiskHigh:
			s.HighRiskCount++
			f.add(r.PropertyID)
		case types.RiskMedium:
			s.MediumRiskCount++
			f.add(r.PropertyID)
		}
	}
	if n := len(a.RiskAssessments); n > 0 {
		s.Score = total / float64(n)
	}
	s.FlaggedProperties = f.list()
	s.Headline = fmt.Sprintf("%d properties forecast, %d high-risk", s.RecordCount, s.HighRiskCount)
	return s
}

func summarizeOccupancy(a types.OccupancyAnalysis) Summary {
	s := Summary{
		RiskLevel:   types.RiskLow,
		RecordCount: len(a.UtilizationScores),
		AlertCount:  len(a.ComplianceAlerts),
		Score:       a.EfficiencyMetrics.AverageEfficiencyScore,
	}
	var f flagged
	for _, alert := range a.ComplianceAlerts {
		f.add(alert.PropertyID)
		if alert.Severity == string(types.RiskHigh) {
			s.RiskLevel = types.RiskHigh
		} else {
			s.RiskLevel = worse(s.RiskLevel, types.RiskMedium)
		}
	}
	for _, u := range a.UtilizationScores {
		switch u.Classification {
		case types.UtilizationOvercrowded:
			s.HighRiskCount++
		case types.UtilizationUnderutilized:
			s.MediumRiskCount++
		}
	}
	s.FlaggedProperties = f.list()
	s.Headline = fmt.Sprintf("overall utilization %.1f%%, %d compliance alerts",
		a.EfficiencyMetrics.OverallUtilizationRate*100, s.AlertCount)
	return s
}

func summarizeLeaseRisk(a types.LeaseRiskAnalysis) Summary {
	s := Summary{RiskLevel: types.RiskLow, RecordCount: len(a.RiskScores)}
	var f flagged
	for _, r := range a.RiskScores {
		s.RiskLevel = worse(s.RiskLevel, r.RiskLevel)
		s.Score = max(s.Score, r.RiskScore)
		switch r.RiskLevel {
		case types.RiskHigh:
			s.HighRiskCount++
			f.add(r.PropertyID)
		case types.RiskMedium:
			s.MediumRiskCount++
			f.add(r.PropertyID)
		}
	}
	s.FlaggedProperties = f.list()
	s.Headline = fmt.Sprintf("%d properties, %d high-risk, %d medium-risk",
		s.RecordCount, s.HighRiskCount, s.MediumRiskCount)
	return s
}
