package scoring

import (
	"errors"
	"fmt"
	"sort"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// ErrInvalidWeights is returned for caller weight vectors that cannot be normalized.
var ErrInvalidWeights = errors.New("invalid weights")

// Component names as they appear in caller-supplied weight maps.
const (
	ComponentLease          = "lease"
	ComponentOccupancy      = "occupancy"
	ComponentNOI            = "noi"
	ComponentEnergy         = "energy"
	ComponentCapex          = "capex"
	ComponentSustainability = "sustainability"
	ComponentMarket         = "market"
)

// Components lists the component names in weight-vector order.
var Components = []string{
	ComponentLease, ComponentOccupancy, ComponentNOI, ComponentEnergy,
	ComponentCapex, ComponentSustainability, ComponentMarket,
}

// strategyWeights keeps the relative proportions of each strategy; they are
// normalized before use.
var strategyWeights = map[types.Strategy]types.Weights{
	types.StrategyGrowth: {Lease: 0.30, Occupancy: 0.20, NOI: 0.30, Energy: 0.10, Capex: 0.10, Sustainability: 0.05, Market: 0.05},
	types.StrategyHold:   {Lease: 0.25, Occupancy: 0.25, NOI: 0.20, Energy: 0.15, Capex: 0.15, Sustainability: 0.10, Market: 0.05},
	types.StrategyDivest: {Lease: 0.40, Occupancy: 0.10, NOI: 0.20, Energy: 0.20, Capex: 0.10, Sustainability: 0.15, Market: 0.05},
}

// ResolveStrategy returns s when known, otherwise hold.
func ResolveStrategy(s types.Strategy) types.Strategy {
	if _, ok := strategyWeights[s]; ok {
		return s
	}
	return types.StrategyHold
}

// StrategyWeights returns the normalized canonical vector for a strategy.
func StrategyWeights(s types.Strategy) types.Weights {
	w, _ := Normalize(strategyWeights[ResolveStrategy(s)])
	return w
}

// AllStrategyWeights returns the normalized vector of every strategy.
func AllStrategyWeights() map[types.Strategy]types.Weights {
	out := make(map[types.Strategy]types.Weights, len(strategyWeights))
	for s := range strategyWeights {
		out[s] = StrategyWeights(s)
	}
	return out
}

// Normalize scales w to sum to 1. Negative components or a zero sum are invalid.
func Normalize(w types.Weights) (types.Weights, error) {
	for _, v := range []float64{w.Lease, w.Occupancy, w.NOI, w.Energy, w.Capex, w.Sustainability, w.Market} {
		if v < 0 {
			return types.Weights{}, fmt.Errorf("%w: negative component %v", ErrInvalidWeights, v)
		}
	}
	sum := w.Sum()
	if sum <= 0 {
		return types.Weights{}, fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	return types.Weights{
		Lease:          w.Lease / sum,
		Occupancy:      w.Occupancy / sum,
		NOI:            w.NOI / sum,
		Energy:         w.Energy / sum,
		Capex:          w.Capex / sum,
		Sustainability: w.Sustainability / sum,
		Market:         w.Market / sum,
	}, nil
}

// FromMap builds a weight vector from a caller map. Missing components weigh
// 0; unknown component names are rejected.
func FromMap(m map[string]float64) (types.Weights, error) {
	var w types.Weights
	var unknown []string
	for k, v := range m {
		switch k {
		case ComponentLease:
			w.Lease = v
		case ComponentOccupancy:
			w.Occupancy = v
		case ComponentNOI:
			w.NOI = v
		case ComponentEnergy:
			w.Energy = v
		case ComponentCapex:
			w.Capex = v
		case ComponentSustainability:
			w.Sustainability = v
		case ComponentMarket:
			w.Market = v
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return types.Weights{}, fmt.Errorf("%w: unknown components %v", ErrInvalidWeights, unknown)
	}
	return Normalize(w)
}

// ResolveWeights returns the caller vector when one is supplied, otherwise the
// canonical vector of the strategy.
func ResolveWeights(s types.Strategy, custom map[string]float64) (types.Weights, error) {
	if len(custom) == 0 {
		return StrategyWeights(s), nil
	}
	return FromMap(custom)
}

// Weighted returns the weighted sum of a score set.
func Weighted(s types.ScoreSet, w types.Weights) float64 {
	return s.LeaseScore*w.Lease +
		s.OccupancyScore*w.Occupancy +
		s.NOIScore*w.NOI +
		s.EnergyScore*w.Energy +
		s.CapexScore*w.Capex +
		s.SustainabilityScore*w.Sustainability +
		s.MarketScore*w.Market
}
