package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	var rec struct {
		A Date  `json:"a"`
		B Date  `json:"b"`
		C *Date `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":"2025-03-01","b":"2025-03-01T12:30:00Z","c":null}`), &rec)
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.March, 1).Time, rec.A.Time)
	assert.Equal(t, 12, rec.B.Hour())
	assert.Nil(t, rec.C)

	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20250301`), &d))
}

func TestDate_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2025, time.March, 1))
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-01"`, string(b))
}

func TestDaysBetween_Floors(t *testing.T) {
	from := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(from, from.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysBetween(from, from.Add(24*time.Hour)))
	assert.Equal(t, -1, DaysBetween(from, from.Add(-time.Hour)))
	assert.Equal(t, -1, DaysBetween(from, from.Add(-24*time.Hour)))
	assert.Equal(t, -2, DaysBetween(from, from.Add(-25*time.Hour)))
}

func TestLevelFromScore(t *testing.T) {
	assert.Equal(t, RiskLow, LevelFromScore(0))
	assert.Equal(t, RiskLow, LevelFromScore(40))
	assert.Equal(t, RiskMedium, LevelFromScore(40.01))
	assert.Equal(t, RiskMedium, LevelFromScore(70))
	assert.Equal(t, RiskHigh, LevelFromScore(70.5))
}

func TestRiskLevel_Escalate(t *testing.T) {
	assert.Equal(t, RiskMedium, RiskLow.Escalate())
	assert.Equal(t, RiskHigh, RiskMedium.Escalate())
	assert.Equal(t, RiskHigh, RiskHigh.Escalate())
}

func TestLease_TenantKey(t *testing.T) {
	assert.Equal(t, "Acme", Lease{TenantName: "Acme"}.TenantKey())
	assert.Equal(t, "T-1", Lease{TenantName: "Acme", TenantID: "T-1"}.TenantKey())
}

func TestMarketIndex_FirstMatchWins(t *testing.T) {
	idx := NewMarketIndex([]MarketRecord{
		{Location: "Leeds", PropertyType: "Office", DemandIndex: 0.6},
		{Location: "Leeds", PropertyType: "office", DemandIndex: 0.2},
		{Location: "York", PropertyType: "retail", DemandIndex: 0.4},
	})

	got, ok := idx.Lookup("Leeds", PropertyTypeOffice)
	require.True(t, ok)
	assert.Equal(t, 0.6, got.DemandIndex)

	_, ok = idx.Lookup("Leeds", PropertyTypeRetail)
	assert.False(t, ok)
	assert.Equal(t, []MarketKey{{Location: "Leeds", PropertyType: PropertyTypeOffice}}, idx.Duplicates())

	var nilIdx *MarketIndex
	_, ok = nilIdx.Lookup("Leeds", PropertyTypeOffice)
	assert.False(t, ok)
}

func TestWeights_Sum(t *testing.T) {
	w := Weights{Lease: 0.25, Occupancy: 0.25, NOI: 0.2, Energy: 0.1, Capex: 0.1, Sustainability: 0.05, Market: 0.05}
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)
}
