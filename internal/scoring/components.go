// Package scoring implements the seven per-property component scores and the
// portfolio aggregator that blends them into a health value.
package scoring

import (
	"time"

	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// Placeholder market inputs. Real market integration plugs in here.
const (
	marketLocationComponent = 70.0
	marketTypeComponent     = 80.0
)

// band is one step of a descending threshold ladder.
type band struct {
	min   float64
	score float64
}

// ladder returns the score of the first band whose min is <= v, else floor.
func ladder(v float64, bands []band, floor float64) float64 {
	for _, b := range bands {
		if v >= b.min {
			return b.score
		}
	}
	return floor
}

var occupancyBands = []band{
	{0.95, 100}, {0.90, 90}, {0.85, 80}, {0.80, 70}, {0.75, 60}, {0.70, 50},
}

var yieldBands = []band{
	{0.08, 100}, {0.07, 90}, {0.06, 80}, {0.05, 70}, {0.04, 60}, {0.03, 50},
}

var energyByEPC = map[types.EPCRating]float64{
	"A": 100, "B": 85, "C": 70, "D": 55, "E": 40, "F": 25, "G": 10,
}

var sustainabilityByEPC = map[types.EPCRating]float64{
	"A": 100, "B": 80, "C": 60, "D": 40, "E": 20, "F": 10, "G": 0,
}

var occupancyTypeOffset = map[types.PropertyType]float64{
	types.PropertyTypeRetail:      -5,
	types.PropertyTypeResidential: 5,
}

var sustainabilityTypeOffset = map[types.PropertyType]float64{
	types.PropertyTypeIndustrial:  -10,
	types.PropertyTypeRetail:      -5,
	types.PropertyTypeResidential: 5,
}

// LeaseScore bands the days left on the lease and adds an occupancy bonus.
func LeaseScore(p normalize.Property, now time.Time) float64 {
	if p.LeaseExpiryDate == nil {
		return 50
	}
	days := p.LeaseExpiryDate.DaysUntil(now)
	var base float64
	switch {
	case days < 90:
		base = 20
	case days < 180:
		base = 40
	case days < 365:
		base = 60
	case days < 730:
		base = 80
	default:
		base = 100
	}
	return normalize.Score(base + p.OccupancyRate*0.2*20)
}

// OccupancyScore bands the occupancy rate and applies the per-type offset.
func OccupancyScore(p normalize.Property) float64 {
	base := ladder(p.OccupancyRate, occupancyBands, 30)
	return normalize.Score(base + occupancyTypeOffset[p.Type])
}

// NOIScore bands the yield and adds a capital growth bonus. A zero valuation scores 0.
func NOIScore(p normalize.Property) float64 {
	if p.CurrentValue == 0 {
		return 0
	}
	score := ladder(p.NOI/p.CurrentValue, yieldBands, 30)
	if p.PurchasePrice > 0 && p.CurrentValue > p.PurchasePrice {
		score += p.CurrentValue / p.PurchasePrice * 5
	}
	return normalize.Score(score)
}

// EnergyScore maps the EPC rating and adds a bonus for recently bought assets.
func EnergyScore(p normalize.Property, now time.Time) float64 {
	score := 50.0
	if p.HasEPC() {
		score = energyByEPC[p.EPC]
	}
	if p.PurchaseDate != nil {
		age := float64(types.DaysBetween(p.PurchaseDate.Time, now)) / 365
		switch {
		case age < 5:
			score += 10
		case age < 10:
			score += 5
		}
	}
	return normalize.Score(score)
}

// CapexScore scales the maintenance rating and adds a value-tier bonus.
func CapexScore(p normalize.Property) float64 {
	score := p.Maintenance * 10
	switch {
	case p.CurrentValue > 10_000_000:
		score += 10
	case p.CurrentValue > 5_000_000:
		score += 5
	}
	return normalize.Score(score)
}

// SustainabilityScore maps the EPC rating and applies the per-type offset.
func SustainabilityScore(p normalize.Property) float64 {
	score := 50.0
	if p.HasEPC() {
		score = sustainabilityByEPC[p.EPC]
	}
	return normalize.Score(score + sustainabilityTypeOffset[p.Type])
}

// MarketScore blends the placeholder location and type components.
func MarketScore(normalize.Property) float64 {
	return normalize.Score(0.6*marketLocationComponent + 0.4*marketTypeComponent)
}

// ScoreProperty computes all seven component scores for one property.
func ScoreProperty(p normalize.Property, now time.Time) types.ScoreSet {
	return types.ScoreSet{
		PropertyID:          p.PropertyID,
		LeaseScore:          LeaseScore(p, now),
		OccupancyScore:      OccupancyScore(p),
		NOIScore:            NOIScore(p),
		EnergyScore:         EnergyScore(p, now),
		CapexScore:          CapexScore(p),
		SustainabilityScore: SustainabilityScore(p),
		MarketScore:         MarketScore(p),
	}
}
