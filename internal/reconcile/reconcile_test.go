package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

func day(d int) types.Date { return types.NewDate(2025, time.March, d) }

func lease(id, property, tenant string, rent float64) types.Lease {
	return types.Lease{
		LeaseID:     id,
		PropertyID:  property,
		TenantName:  tenant,
		LeaseStart:  types.NewDate(2024, time.January, 1),
		LeaseEnd:    types.NewDate(2027, time.January, 1),
		MonthlyRent: rent,
	}
}

func payment(id, property, tenant string, amount float64, contract float64, due, paid int) types.Transaction {
	tx := types.Transaction{
		TransactionID:   id,
		PropertyID:      property,
		TenantID:        tenant,
		TransactionType: types.TransactionRent,
		Amount:          amount,
		DueDate:         day(due),
		Timestamp:       day(paid),
	}
	if contract != 0 {
		tx.ContractAmount = &contract
	}
	return tx
}

func TestMatch_WithinTolerance(t *testing.T) {
	ix := NewLeaseIndex([]types.Lease{lease("L1", "P1", "acme", 1000)})

	for _, amount := range []float64{1000, 1049, 951, 1050, 950} {
		rec, unrec := Match(payment("T1", "P1", "acme", amount, 1000, 1, 1), ix)
		require.Nil(t, unrec, "amount=%v", amount)
		require.NotNil(t, rec)
		assert.Equal(t, "reconciled", rec.Status)
		assert.True(t, rec.LeaseMatch)
		assert.Equal(t, "L1", rec.LeaseID)
		assert.InDelta(t, amount-1000, rec.AmountVariance, 1e-9)
	}
}

func TestMatch_AmountMismatch(t *testing.T) {
	ix := NewLeaseIndex([]types.Lease{lease("L1", "P1", "acme", 1000)})

	rec, unrec := Match(payment("T1", "P1", "acme", 1100, 1000, 1, 1), ix)
	assert.Nil(t, rec)
	require.NotNil(t, unrec)
	assert.Equal(t, types.ReasonAmountMismatch, unrec.Reason)
	assert.Equal(t, 1000.0, *unrec.Expected)
	assert.Equal(t, 1100.0, *unrec.Actual)
}

func TestMatch_NoMatchingLease(t *testing.T) {
	ix := NewLeaseIndex([]types.Lease{lease("L1", "P1", "acme", 1000)})

	_, unrec := Match(payment("T1", "P2", "acme", 1000, 1000, 1, 1), ix)
	require.NotNil(t, unrec)
	assert.Equal(t, types.ReasonNoMatchingLease, unrec.Reason)

	_, unrec = Match(payment("T1", "P1", "globex", 1000, 1000, 1, 1), ix)
	require.NotNil(t, unrec)
	assert.Equal(t, types.ReasonNoMatchingLease, unrec.Reason)
}

func TestMatch_NoContractAmount(t *testing.T) {
	ix := NewLeaseIndex([]types.Lease{lease("L1", "P1", "acme", 1000), lease("L2", "P2", "acme", 0)})

	_, unrec := Match(payment("T1", "P1", "acme", 1000, 0, 1, 1), ix)
	require.NotNil(t, unrec)
	assert.Equal(t, types.ReasonNoContractAmount, unrec.Reason)

	_, unrec = Match(payment("T2", "P2", "acme", 1000, 1000, 1, 1), ix)
	require.NotNil(t, unrec)
	assert.Equal(t, types.ReasonNoContractAmount, unrec.Reason)
}

func TestLeaseIndex_TenantKeyAndDuplicates(t *testing.T) {
	withID := lease("L1", "P1", "Acme Ltd", 1000)
	withID.TenantID = "T-100"
	dup := lease("L2", "P1", "Acme Ltd", 2000)
	dup.TenantID = "T-100"

	ix := NewLeaseIndex([]types.Lease{withID, dup})
	got, ok := ix.Lookup("P1", "T-100")
	require.True(t, ok)
	assert.Equal(t, "L1", got.LeaseID)

	_, ok = ix.Lookup("P1", "Acme Ltd")
	assert.False(t, ok)
	assert.Equal(t, []LeaseKey{{PropertyID: "P1", TenantKey: "T-100"}}, ix.Duplicates())
}

func TestScoreTransaction(t *testing.T) {
	tests := []struct {
		name      string
		tx        types.Transaction
		wantScore float64
		wantLevel types.RiskLevel
	}{
		{"on time rent", payment("T", "P", "t", 1000, 1000, 1, 1), 0, types.RiskLow},
		{"early rent", payment("T", "P", "t", 1000, 1000, 10, 5), 0, types.RiskLow},
		{"ten days late", payment("T", "P", "t", 1000, 1000, 1, 11), 20, types.RiskLow},
		{"lateness capped", payment("T", "P", "t", 1000, 1000, 1, 31), 50, types.RiskMedium},
		{"variance 2 pct", payment("T", "P", "t", 1020, 1000, 1, 1), 10, types.RiskLow},
		{"variance capped", payment("T", "P", "t", 2000, 1000, 1, 1), 30, types.RiskLow},
		{"late and off", payment("T", "P", "t", 2000, 1000, 1, 31), 80, types.RiskHigh},
		{"no contract skips variance", payment("T", "P", "t", 2000, 0, 1, 1), 0, types.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreTransaction(tt.tx)
			assert.InDelta(t, tt.wantScore, got.RiskScore, 1e-9)
			assert.Equal(t, tt.wantLevel, got.RiskLevel)
		})
	}
}

func TestScoreTransaction_TypeBaseAndCap(t *testing.T) {
	tx := payment("T", "P", "t", 2000, 1000, 1, 31)
	tx.TransactionType = types.TransactionService
	got := ScoreTransaction(tx)
	assert.Equal(t, 90.0, got.RiskScore)
	assert.Equal(t, 10.0, got.TypeRisk)
	assert.Equal(t, 30, got.DaysLate)

	tx.TransactionType = types.TransactionDeposit
	assert.Equal(t, 85.0, ScoreTransaction(tx).RiskScore)
}

func TestAnalyze_AllReconciled(t *testing.T) {
	leases := []types.Lease{lease("L1", "P1", "acme", 1000), lease("L2", "P2", "globex", 500)}
	txs := []types.Transaction{
		payment("T1", "P1", "acme", 1000, 1000, 1, 1),
		payment("T2", "P2", "globex", 510, 500, 1, 3),
	}
	res := Analyze(txs, leases)
	assert.Len(t, res.ReconciledTransactions, 2)
	assert.Empty(t, res.UnreconciledTransactions)
	assert.Equal(t, 1.0, res.ReconciliationReport.ReconciliationRate)
	assert.Equal(t, 1, res.ReconciliationReport.LatePayments)
	assert.Equal(t, 1, res.ReconciliationReport.OnTimePayments)
	assert.Len(t, res.ReconciliationReport.Recommendations, 3)
	assert.Empty(t, res.DuplicateLeases)
}

func TestAnalyze_NoneReconciled(t *testing.T) {
	txs := []types.Transaction{
		payment("T1", "P1", "acme", 1000, 1000, 1, 31),
		payment("T2", "P1", "acme", 2000, 1000, 1, 31),
	}
	res := Analyze(txs, nil)
	r := res.ReconciliationReport
	assert.Empty(t, res.ReconciledTransactions)
	assert.Equal(t, 0.0, r.ReconciliationRate)
	assert.Equal(t, 2, r.UnreconciledReasons[types.ReasonNoMatchingLease])
	assert.Equal(t, 1, r.HighRiskTransactions)
	assert.Equal(t, 1, r.MediumRiskTransactions)
	assert.Equal(t, 0, r.LowRiskTransactions)

	require.Len(t, r.PropertySummary, 1)
	s := r.PropertySummary[0]
	assert.Equal(t, "P1", s.PropertyID)
	assert.Equal(t, 2, s.TotalTransactions)
	assert.Equal(t, 2, s.UnreconciledCount)
	assert.Equal(t, 3000.0, s.TotalAmount)
	assert.InDelta(t, 65.0, s.AverageRiskScore, 1e-9)
}

func TestAnalyze_Empty(t *testing.T) {
	res := Analyze(nil, nil)
	assert.Zero(t, res.ReconciliationReport.TotalTransactions)
	assert.Zero(t, res.ReconciliationReport.ReconciliationRate)
	assert.NotNil(t, res.RiskScores)
}
