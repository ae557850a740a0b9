// Package predictive synthesizes per-property feature records and derives a
// deterministic occupancy and value forecast from them.
package predictive

import (
	"sort"

	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// Features joins each property with its market segment and historical
// observations. The market index is consulted by exact (location, type).
func Features(props []normalize.Property, market *types.MarketIndex, history []types.HistoricalRecord) []types.FeatureRecord {
	byProperty := groupHistory(history)
	out := make([]types.FeatureRecord, len(props))
	for i, p := range props {
		f := types.FeatureRecord{
			PropertyID:       p.PropertyID,
			CurrentValue:     p.CurrentValue,
			NOI:              p.NOI,
			OccupancyRate:    p.OccupancyRate,
			MaintenanceScore: p.Maintenance,
		}
		if p.HasEPC() {
			epc := p.EPC
			f.EPCRating = &epc
		}
		if m, ok := market.Lookup(p.Location, p.Type); ok {
			rent, demand := m.MarketRent, m.DemandIndex
			f.MarketRent, f.DemandIndex = &rent, &demand
		}
		if recs := byProperty[p.PropertyID]; len(recs) > 0 {
			occ, noi := mean(recs, occupancyOf), mean(recs, noiOf)
			trend := Slope(series(recs, occupancyOf))
			f.HistoricalOccupancy, f.HistoricalNOI, f.TrendOccupancy = &occ, &noi, &trend
			f.HistoryCount = len(recs)
		}
		out[i] = f
	}
	return out
}

// groupHistory buckets records per property. A property's records are ordered
// by period when every one of them has a period, otherwise input order is kept.
func groupHistory(history []types.HistoricalRecord) map[string][]types.HistoricalRecord {
	out := make(map[string][]types.HistoricalRecord)
	for _, h := range history {
		out[h.PropertyID] = append(out[h.PropertyID], h)
	}
	for _, recs := range out {
		if !allDated(recs) {
			continue
		}
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Period.Before(recs[j].Period.Time)
		})
	}
	return out
}

func allDated(recs []types.HistoricalRecord) bool {
	for _, r := range recs {
		if r.Period == nil {
			return false
		}
	}
	return true
}

func occupancyOf(h types.HistoricalRecord) float64 { return h.OccupancyRate }
func noiOf(h types.HistoricalRecord) float64       { return h.NOI }

func series(recs []types.HistoricalRecord, field func(types.HistoricalRecord) float64) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = field(r)
	}
	return out
}

func mean(recs []types.HistoricalRecord, field func(types.HistoricalRecord) float64) float64 {
	var sum float64
	for _, r := range recs {
		sum += field(r)
	}
	return sum / float64(len(recs))
}

// Slope is the least-squares slope of ys against their index 0..n-1.
// Fewer than two points have no trend.
func Slope(ys []float64) float64 {
	n := float64(len(ys))
	if len(ys) < 2 {
		return 0
	}
	meanX := (n - 1) / 2
	var meanY float64
	for _, y := range ys {
		meanY += y
	}
	meanY /= n

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	return num / den
}
