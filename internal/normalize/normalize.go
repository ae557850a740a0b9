// Package normalize resolves optional and missing fields of input records to
// the defaults every pipeline scores against.
package normalize

import (
	"strings"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// DefaultMaintenanceScore is used when a property carries no maintenance rating.
const DefaultMaintenanceScore = 5.0

// Property is a property with every optional field resolved.
type Property struct {
	types.Property

	Type        types.PropertyType // lower-cased
	EPC         types.EPCRating    // upper-cased, "" when missing or not A..G
	Maintenance float64
}

// HasEPC reports whether the property carries a recognised EPC rating.
func (p Property) HasEPC() bool { return p.EPC != "" }

// NewProperty resolves the optional fields of p.
func NewProperty(p types.Property) Property {
	n := Property{
		Property:    p,
		Type:        p.Type.Normalized(),
		Maintenance: DefaultMaintenanceScore,
	}
	if p.MaintenanceScore != nil {
		n.Maintenance = *p.MaintenanceScore
	}
	if p.EPCRating != nil {
		n.EPC = EPC(*p.EPCRating)
	}
	return n
}

// Properties normalizes a batch, preserving order.
func Properties(props []types.Property) []Property {
	out := make([]Property, len(props))
	for i, p := range props {
		out[i] = NewProperty(p)
	}
	return out
}

// EPC upper-cases a rating and returns "" for anything outside A..G.
func EPC(r types.EPCRating) types.EPCRating {
	s := strings.ToUpper(strings.TrimSpace(string(r)))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'G' {
		return ""
	}
	return types.EPCRating(s)
}

// Occupancy is an occupancy record with optional areas and parking resolved.
type Occupancy struct {
	types.OccupancyRecord

	CommonAreas     float64
	ParkingSpaces   int
	OccupiedParking int
}

// NewOccupancy resolves the optional fields of r. Missing common area is 0.
func NewOccupancy(r types.OccupancyRecord) Occupancy {
	n := Occupancy{OccupancyRecord: r}
	if r.CommonAreas != nil {
		n.CommonAreas = *r.CommonAreas
	}
	if r.ParkingSpaces != nil {
		n.ParkingSpaces = *r.ParkingSpaces
	}
	if r.OccupiedParking != nil {
		n.OccupiedParking = *r.OccupiedParking
	}
	return n
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Score bounds v to the [0,100] range every derived score lives in.
func Score(v float64) float64 { return Clamp(v, 0, 100) }
