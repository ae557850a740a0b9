// Package reconcile matches observed transactions to lease contracts and
// scores every transaction for payment risk.
package reconcile

import (
	"math"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// Tolerance is the share of monthly rent a payment may deviate by and still reconcile.
const Tolerance = 0.05

const (
	statusReconciled   = "reconciled"
	statusUnreconciled = "unreconciled"
)

// LeaseKey identifies the lease a transaction should be matched against.
type LeaseKey struct {
	PropertyID string
	TenantKey  string
}

// LeaseIndex looks leases up by (property, tenant). The first lease for a key
// wins; later ones are reported as duplicates.
type LeaseIndex struct {
	byKey      map[LeaseKey]types.Lease
	duplicates []LeaseKey
}

// NewLeaseIndex indexes leases in input order.
func NewLeaseIndex(leases []types.Lease) *LeaseIndex {
	idx := &LeaseIndex{byKey: make(map[LeaseKey]types.Lease, len(leases))}
	for _, l := range leases {
		k := LeaseKey{PropertyID: l.PropertyID, TenantKey: l.TenantKey()}
		if _, ok := idx.byKey[k]; ok {
			idx.duplicates = append(idx.duplicates, k)
			continue
		}
		idx.byKey[k] = l
	}
	return idx
}

// Lookup returns the lease for a property and tenant.
func (ix *LeaseIndex) Lookup(propertyID, tenantID string) (types.Lease, bool) {
	l, ok := ix.byKey[LeaseKey{PropertyID: propertyID, TenantKey: tenantID}]
	return l, ok
}

// Duplicates lists keys that appeared more than once, once per extra lease.
func (ix *LeaseIndex) Duplicates() []LeaseKey { return ix.duplicates }

// Match reconciles one transaction. Exactly one of the two results is non-nil.
func Match(tx types.Transaction, ix *LeaseIndex) (*types.ReconciledTransaction, *types.UnreconciledTransaction) {
	unreconciled := func(reason types.UnreconciledReason) *types.UnreconciledTransaction {
		return &types.UnreconciledTransaction{
			TransactionID: tx.TransactionID,
			PropertyID:    tx.PropertyID,
			TenantID:      tx.TenantID,
			Status:        statusUnreconciled,
			Reason:        reason,
			Amount:        tx.Amount,
		}
	}

	lease, ok := ix.Lookup(tx.PropertyID, tx.TenantID)
	if !ok {
		return nil, unreconciled(types.ReasonNoMatchingLease)
	}
	if contractAmount(tx) == 0 || lease.MonthlyRent == 0 {
		return nil, unreconciled(types.ReasonNoContractAmount)
	}

	variance := tx.Amount - lease.MonthlyRent
	if math.Abs(variance) > lease.MonthlyRent*Tolerance {
		u := unreconciled(types.ReasonAmountMismatch)
		expected, actual := lease.MonthlyRent, tx.Amount
		u.Expected, u.Actual = &expected, &actual
		return nil, u
	}
	return &types.ReconciledTransaction{
		TransactionID:  tx.TransactionID,
		PropertyID:     tx.PropertyID,
		TenantID:       tx.TenantID,
		LeaseID:        lease.LeaseID,
		Status:         statusReconciled,
		LeaseMatch:     true,
		Amount:         tx.Amount,
		AmountVariance: variance,
	}, nil
}

// contractAmount returns the contracted amount, 0 when absent.
func contractAmount(tx types.Transaction) float64 {
	if tx.ContractAmount == nil {
		return 0
	}
	return *tx.ContractAmount
}
