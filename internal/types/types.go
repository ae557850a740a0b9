// Package types provides the Go records exchanged between the transport layer
// and the analysis pipelines. Field names follow the snake_case wire format used
// by the upload templates, so a request body decodes directly into these structs.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ─── Dates ─────────────────────────────────────────────────────────────────────

// dateLayouts are tried in order when decoding a Date.
var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"}

// Date is a calendar date that accepts both YYYY-MM-DD and RFC3339 on the wire.
type Date struct {
	time.Time
}

// NewDate returns the Date for year/month/day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// ParseDate parses s using the accepted layouts.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", s)
}

// UnmarshalJSON decodes a quoted date string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the date as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

// DaysUntil returns the whole days from now until d, floored, negative when d is past.
func (d Date) DaysUntil(now time.Time) int {
	return DaysBetween(now, d.Time)
}

// DaysBetween returns floor((to - from) / 24h).
func DaysBetween(from, to time.Time) int {
	diff := to.Sub(from)
	days := int(diff / (24 * time.Hour))
	if diff < 0 && diff%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// ─── Enumerations ──────────────────────────────────────────────────────────────

// PropertyType is the asset class of a property. Unknown values are accepted
// and receive no type-specific adjustment.
type PropertyType string

const (
	PropertyTypeOffice      PropertyType = "office"
	PropertyTypeRetail      PropertyType = "retail"
	PropertyTypeIndustrial  PropertyType = "industrial"
	PropertyTypeResidential PropertyType = "residential"
)

// Normalized lower-cases the type so "Office" and "office" score the same.
func (t PropertyType) Normalized() PropertyType {
	return PropertyType(strings.ToLower(strings.TrimSpace(string(t))))
}

// EPCRating is an Energy Performance Certificate grade, A (best) to G (worst).
type EPCRating string

// TransactionType classifies a payment.
type TransactionType string

const (
	TransactionRent    TransactionType = "rent"
	TransactionService TransactionType = "service"
	TransactionDeposit TransactionType = "deposit"
)

// Strategy selects the canonical portfolio weight vector.
type Strategy string

const (
	StrategyGrowth Strategy = "growth"
	StrategyHold   Strategy = "hold"
	StrategyDivest Strategy = "divest"
)

// RiskLevel is the categorical risk bucket shared by every module.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// LevelFromScore buckets a 0-100 risk score: >70 High, >40 Medium, else Low.
func LevelFromScore(score float64) RiskLevel {
	switch {
	case score > 70:
		return RiskHigh
	case score > 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Escalate moves a level one tier towards High.
func (l RiskLevel) Escalate() RiskLevel {
	switch l {
	case RiskLow:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ─── Input records ─────────────────────────────────────────────────────────────

// Property is a single asset in the portfolio.
type Property struct {
	PropertyID       string       `json:"property_id"`
	Name             string       `json:"name,omitempty"`
	Type             PropertyType `json:"type"`
	Location         string       `json:"location"`
	PurchasePrice    float64      `json:"purchase_price"`
	CurrentValue     float64      `json:"current_value"`
	NOI              float64      `json:"noi"`
	OccupancyRate    float64      `json:"occupancy_rate"` // 0..1
	PurchaseDate     *Date        `json:"purchase_date,omitempty"`
	LeaseExpiryDate  *Date        `json:"lease_expiry_date,omitempty"`
	EPCRating        *EPCRating   `json:"epc_rating,omitempty"`
	MaintenanceScore *float64     `json:"maintenance_score,omitempty"` // default 5
}

// Transaction is an observed payment against a property and tenant.
type Transaction struct {
	TransactionID   string          `json:"transaction_id"`
	PropertyID      string          `json:"property_id"`
	TenantID        string          `json:"tenant_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          float64         `json:"amount"`
	DueDate         Date            `json:"due_date"`
	Timestamp       Date            `json:"timestamp"`
	BankReference   string          `json:"bank_reference,omitempty"`
	ContractAmount  *float64        `json:"contract_amount,omitempty"`
}

// Lease is a contract between the landlord and a tenant for one property.
type Lease struct {
	LeaseID         string   `json:"lease_id"`
	PropertyID      string   `json:"property_id"`
	TenantID        string   `json:"tenant_id,omitempty"`
	TenantName      string   `json:"tenant_name"`
	LeaseStart      Date     `json:"lease_start"`
	LeaseEnd        Date     `json:"lease_end"`
	MonthlyRent     float64  `json:"monthly_rent"`
	SecurityDeposit *float64 `json:"security_deposit,omitempty"`
	RenewalOption   bool     `json:"renewal_option"`
	BreakClause     bool     `json:"break_clause"`
}

// TenantKey is the identity used to match transactions: tenant_id when set,
// otherwise tenant_name.
func (l Lease) TenantKey() string {
	if l.TenantID != "" {
		return l.TenantID
	}
	return l.TenantName
}

// OccupancyRecord captures floor-area usage for one property.
type OccupancyRecord struct {
	PropertyID      string   `json:"property_id"`
	TotalSqFt       float64  `json:"total_sq_ft"`
	OccupiedSqFt    float64  `json:"occupied_sq_ft"`
	VacantSqFt      float64  `json:"vacant_sq_ft"`
	CommonAreas     *float64 `json:"common_areas,omitempty"`
	ParkingSpaces   *int     `json:"parking_spaces,omitempty"`
	OccupiedParking *int     `json:"occupied_parking,omitempty"`
}

// MarketRecord describes demand for a property type in a location.
type MarketRecord struct {
	Location           string             `json:"location"`
	PropertyType       PropertyType       `json:"property_type"`
	MarketRent         float64            `json:"market_rent"`
	DemandIndex        float64            `json:"demand_index"` // 0..1
	EconomicIndicators map[string]float64 `json:"economic_indicators,omitempty"`
}

// HistoricalRecord is a past observation of a property used for trend features.
type HistoricalRecord struct {
	PropertyID    string  `json:"property_id"`
	Period        *Date   `json:"period,omitempty"`
	OccupancyRate float64 `json:"occupancy_rate"`
	NOI           float64 `json:"noi"`
}

// ─── Derived records ───────────────────────────────────────────────────────────

// ScoreSet holds the seven component scores of one property, each in [0,100].
type ScoreSet struct {
	PropertyID          string  `json:"property_id"`
	LeaseScore          float64 `json:"lease_score"`
	OccupancyScore      float64 `json:"occupancy_score"`
	NOIScore            float64 `json:"noi_score"`
	EnergyScore         float64 `json:"energy_score"`
	CapexScore          float64 `json:"capex_score"`
	SustainabilityScore float64 `json:"sustainability_score"`
	MarketScore         float64 `json:"market_score"`
}

// RiskAssessment is a scored, classified risk with its contributing factors.
type RiskAssessment struct {
	PropertyID  string    `json:"property_id"`
	RiskScore   float64   `json:"risk_score"`
	RiskLevel   RiskLevel `json:"risk_level"`
	RiskFactors []string  `json:"risk_factors"`
}
