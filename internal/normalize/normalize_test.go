package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

func TestNewProperty_Defaults(t *testing.T) {
	n := NewProperty(types.Property{PropertyID: "P1", Type: " Office "})
	assert.Equal(t, DefaultMaintenanceScore, n.Maintenance)
	assert.Equal(t, types.PropertyTypeOffice, n.Type)
	assert.False(t, n.HasEPC())
}

func TestNewProperty_KeepsSuppliedValues(t *testing.T) {
	m := 8.0
	r := types.EPCRating("c")
	n := NewProperty(types.Property{PropertyID: "P1", MaintenanceScore: &m, EPCRating: &r})
	assert.Equal(t, 8.0, n.Maintenance)
	assert.Equal(t, types.EPCRating("C"), n.EPC)
}

func TestEPC(t *testing.T) {
	assert.Equal(t, types.EPCRating("A"), EPC("a"))
	assert.Equal(t, types.EPCRating("G"), EPC(" G "))
	assert.Equal(t, types.EPCRating(""), EPC("H"))
	assert.Equal(t, types.EPCRating(""), EPC("AB"))
	assert.Equal(t, types.EPCRating(""), EPC(""))
}

func TestNewOccupancy(t *testing.T) {
	n := NewOccupancy(types.OccupancyRecord{PropertyID: "P1", TotalSqFt: 100})
	assert.Zero(t, n.CommonAreas)
	assert.Zero(t, n.ParkingSpaces)

	common, spaces, used := 10.0, 20, 5
	n = NewOccupancy(types.OccupancyRecord{CommonAreas: &common, ParkingSpaces: &spaces, OccupiedParking: &used})
	assert.Equal(t, 10.0, n.CommonAreas)
	assert.Equal(t, 20, n.ParkingSpaces)
	assert.Equal(t, 5, n.OccupiedParking)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(-5))
	assert.Equal(t, 100.0, Score(150))
	assert.Equal(t, 42.0, Score(42))
}
