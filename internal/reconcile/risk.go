package reconcile

import (
	"math"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

const (
	latenessPerDay  = 2.0
	latenessCap     = 50.0
	variancePerPct  = 5.0
	varianceCap     = 30.0
	transactionCap  = 100.0
	highRiskOverall = 70.0
)

var typeBaseRisk = map[types.TransactionType]float64{
	types.TransactionRent:    0,
	types.TransactionService: 10,
	types.TransactionDeposit: 5,
}

// DaysLate is the number of whole days between the due date and the payment;
// negative for early payments.
func DaysLate(tx types.Transaction) int {
	return types.DaysBetween(tx.DueDate.Time, tx.Timestamp.Time)
}

// ScoreTransaction sums lateness, contract variance and the per-type base risk.
func ScoreTransaction(tx types.Transaction) types.TransactionRisk {
	days := DaysLate(tx)
	r := types.TransactionRisk{
		TransactionID: tx.TransactionID,
		PropertyID:    tx.PropertyID,
		DaysLate:      days,
		TypeRisk:      typeBaseRisk[tx.TransactionType],
	}
	if days > 0 {
		r.LatenessRisk = math.Min(float64(days)*latenessPerDay, latenessCap)
	}
	if contract := contractAmount(tx); contract > 0 {
		pct := math.Abs(tx.Amount-contract) / contract * 100
		r.VarianceRisk = math.Min(pct*variancePerPct, varianceCap)
	}
	r.RiskScore = math.Min(r.LatenessRisk+r.VarianceRisk+r.TypeRisk, transactionCap)
	r.RiskLevel = types.LevelFromScore(r.RiskScore)
	return r
}
