package reconcile

import (
	"sort"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

var reportRecommendations = []string{
	"Review unreconciled transactions for data quality issues",
	"Implement automated reconciliation for routine transactions",
	"Focus on high-risk transactions for manual review",
}

// Result is a full reconciliation run plus the duplicate lease keys seen.
type Result struct {
	types.TransactionAnalysis
	DuplicateLeases []LeaseKey
}

// Analyze reconciles every transaction, scores it and builds the report.
func Analyze(txs []types.Transaction, leases []types.Lease) Result {
	ix := NewLeaseIndex(leases)
	out := types.TransactionAnalysis{
		ReconciledTransactions:   make([]types.ReconciledTransaction, 0, len(txs)),
		UnreconciledTransactions: make([]types.UnreconciledTransaction, 0),
		RiskScores:               make([]types.TransactionRisk, 0, len(txs)),
	}
	for _, tx := range txs {
		rec, unrec := Match(tx, ix)
		if rec != nil {
			out.ReconciledTransactions = append(out.ReconciledTransactions, *rec)
		} else {
			out.UnreconciledTransactions = append(out.UnreconciledTransactions, *unrec)
		}
		out.RiskScores = append(out.RiskScores, ScoreTransaction(tx))
	}
	out.ReconciliationReport = Report(txs, out)
	return Result{TransactionAnalysis: out, DuplicateLeases: ix.Duplicates()}
}

// Report aggregates counts, rates, timing and per-property summaries.
func Report(txs []types.Transaction, a types.TransactionAnalysis) types.ReconciliationReport {
	reconciled := len(a.ReconciledTransactions)
	unreconciled := len(a.UnreconciledTransactions)

	r := types.ReconciliationReport{
		TotalTransactions:   len(txs),
		ReconciledCount:     reconciled,
		UnreconciledCount:   unreconciled,
		UnreconciledReasons: make(map[types.UnreconciledReason]int),
		Recommendations:     append([]string(nil), reportRecommendations...),
	}
	if total := reconciled + unreconciled; total > 0 {
		r.ReconciliationRate = float64(reconciled) / float64(total)
	}

	for _, risk := range a.RiskScores {
		switch {
		case risk.RiskScore > highRiskOverall:
			r.HighRiskTransactions++
		case risk.RiskScore > 40:
			r.MediumRiskTransactions++
		default:
			r.LowRiskTransactions++
		}
		switch {
		case risk.DaysLate > 0:
			r.LatePayments++
		case risk.DaysLate < 0:
			r.EarlyPayments++
		default:
			r.OnTimePayments++
		}
	}
	for _, u := range a.UnreconciledTransactions {
		r.UnreconciledReasons[u.Reason]++
	}

	r.PropertySummary = propertySummary(txs, a)
	return r
}

func propertySummary(txs []types.Transaction, a types.TransactionAnalysis) []types.PropertyTransactionSummary {
	byProperty := make(map[string]*types.PropertyTransactionSummary)
	get := func(id string) *types.PropertyTransactionSummary {
		s, ok := byProperty[id]
		if !ok {
			s = &types.PropertyTransactionSummary{PropertyID: id}
			byProperty[id] = s
		}
		return s
	}

	for _, tx := range txs {
		s := get(tx.PropertyID)
		s.TotalTransactions++
		s.TotalAmount += tx.Amount
	}
	for _, rec := range a.ReconciledTransactions {
		get(rec.PropertyID).ReconciledCount++
	}
	for _, u := range a.UnreconciledTransactions {
		get(u.PropertyID).UnreconciledCount++
	}
	riskTotals := make(map[string]float64)
	for _, risk := range a.RiskScores {
		riskTotals[risk.PropertyID] += risk.RiskScore
	}

	out := make([]types.PropertyTransactionSummary, 0, len(byProperty))
	for id, s := range byProperty {
		if s.TotalTransactions > 0 {
			s.AverageRiskScore = riskTotals[id] / float64(s.TotalTransactions)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID < out[j].PropertyID })
	return out
}
