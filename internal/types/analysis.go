package types

// ─── Portfolio ─────────────────────────────────────────────────────────────────

// Weights is the seven-component weight vector used by the portfolio aggregator.
type Weights struct {
	Lease          float64 `json:"lease"`
	Occupancy      float64 `json:"occupancy"`
	NOI            float64 `json:"noi"`
	Energy         float64 `json:"energy"`
	Capex          float64 `json:"capex"`
	Sustainability float64 `json:"sustainability"`
	Market         float64 `json:"market"`
}

// Sum returns the total of all seven weights.
func (w Weights) Sum() float64 {
	return w.Lease + w.Occupancy + w.NOI + w.Energy + w.Capex + w.Sustainability + w.Market
}

// PortfolioRequest is the input of the portfolio scoring module.
type PortfolioRequest struct {
	Properties []Property         `json:"properties"`
	Strategy   Strategy           `json:"strategy"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	AsOf       *Date              `json:"as_of,omitempty"`
}

// MaturityBucket groups lease expiries by horizon.
type MaturityBucket string

const (
	MaturityUnder12Months MaturityBucket = "lt_12m"
	Maturity12To24Months  MaturityBucket = "m12_24"
	MaturityOver24Months  MaturityBucket = "gt_24m"
)

// LeaseMaturityExposure is the risk-weighted expiry horizon of one property.
type LeaseMaturityExposure struct {
	PropertyID   string         `json:"property_id"`
	DaysToExpiry int            `json:"days_to_expiry"`
	RiskWeight   float64        `json:"risk_weight"`
	Bucket       MaturityBucket `json:"bucket"`
}

// PortfolioInsights are headline indicators derived alongside portfolio health.
type PortfolioInsights struct {
	SuggestedAction       string                  `json:"suggested_action"` // "retain", "reposition", "divest"
	LeaseMaturityExposure []LeaseMaturityExposure `json:"lease_maturity_exposure"`
	OccupancyEfficiency   float64                 `json:"occupancy_efficiency"`
	SustainabilityFlag    string                  `json:"sustainability_flag"` // "green", "amber", "red"
}

// PortfolioAnalysis is the output of the portfolio scoring module.
type PortfolioAnalysis struct {
	PortfolioHealth  float64           `json:"portfolio_health"`
	RiskLevel        RiskLevel         `json:"risk_level"`
	PerformanceGrade string            `json:"performance_grade"`
	Recommendations  []string          `json:"recommendations"`
	PropertyScores   []ScoreSet        `json:"property_scores"`
	Strategy         Strategy          `json:"strategy"`
	Weights          Weights           `json:"weights"`
	Insights         PortfolioInsights `json:"insights"`
}

// ─── Transactions ──────────────────────────────────────────────────────────────

// TransactionRequest is the input of the reconciliation module.
type TransactionRequest struct {
	Transactions []Transaction `json:"transactions"`
	Leases       []Lease       `json:"leases"`
}

// UnreconciledReason explains why a transaction could not be matched.
type UnreconciledReason string

const (
	ReasonNoMatchingLease  UnreconciledReason = "no_matching_lease"
	ReasonNoContractAmount UnreconciledReason = "no_contract_amount"
	ReasonAmountMismatch   UnreconciledReason = "amount_mismatch"
)

// ReconciledTransaction is a transaction matched to a lease within tolerance.
type ReconciledTransaction struct {
	TransactionID  string  `json:"transaction_id"`
	PropertyID     string  `json:"property_id"`
	TenantID       string  `json:"tenant_id"`
	LeaseID        string  `json:"lease_id"`
	Status         string  `json:"status"`
	LeaseMatch     bool    `json:"lease_match"`
	Amount         float64 `json:"amount"`
	AmountVariance float64 `json:"amount_variance"`
}

// UnreconciledTransaction is a transaction that failed reconciliation.
type UnreconciledTransaction struct {
	TransactionID string             `json:"transaction_id"`
	PropertyID    string             `json:"property_id"`
	TenantID      string             `json:"tenant_id"`
	Status        string             `json:"status"`
	Reason        UnreconciledReason `json:"reason"`
	Amount        float64            `json:"amount"`
	Expected      *float64           `json:"expected,omitempty"`
	Actual        *float64           `json:"actual,omitempty"`
}

// TransactionRisk is the 0-100 risk score of one transaction and its parts.
type TransactionRisk struct {
	TransactionID string    `json:"transaction_id"`
	PropertyID    string    `json:"property_id"`
	RiskScore     float64   `json:"risk_score"`
	RiskLevel     RiskLevel `json:"risk_level"`
	DaysLate      int       `json:"days_late"`
	LatenessRisk  float64   `json:"lateness_risk"`
	VarianceRisk  float64   `json:"variance_risk"`
	TypeRisk      float64   `json:"type_risk"`
}

// PropertyTransactionSummary aggregates reconciliation results per property.
type PropertyTransactionSummary struct {
	PropertyID        string  `json:"property_id"`
	TotalTransactions int     `json:"total_transactions"`
	ReconciledCount   int     `json:"reconciled_count"`
	UnreconciledCount int     `json:"unreconciled_count"`
	TotalAmount       float64 `json:"total_amount"`
	AverageRiskScore  float64 `json:"average_risk_score"`
}

// ReconciliationReport summarises one reconciliation run.
type ReconciliationReport struct {
	TotalTransactions      int                          `json:"total_transactions"`
	ReconciledCount        int                          `json:"reconciled_count"`
	UnreconciledCount      int                          `json:"unreconciled_count"`
	ReconciliationRate     float64                      `json:"reconciliation_rate"`
	HighRiskTransactions   int                          `json:"high_risk_transactions"`
	MediumRiskTransactions int                          `json:"medium_risk_transactions"`
	LowRiskTransactions    int                          `json:"low_risk_transactions"`
	LatePayments           int                          `json:"late_payments"`
	EarlyPayments          int                          `json:"early_payments"`
	OnTimePayments         int                          `json:"on_time_payments"`
	UnreconciledReasons    map[UnreconciledReason]int   `json:"unreconciled_reasons"`
	PropertySummary        []PropertyTransactionSummary `json:"property_summary"`
	Recommendations        []string                     `json:"recommendations"`
}

// TransactionAnalysis is the output of the reconciliation module.
type TransactionAnalysis struct {
	ReconciledTransactions   []ReconciledTransaction   `json:"reconciled_transactions"`
	UnreconciledTransactions []UnreconciledTransaction `json:"unreconciled_transactions"`
	RiskScores               []TransactionRisk         `json:"risk_scores"`
	ReconciliationReport     ReconciliationReport      `json:"reconciliation_report"`
}

// ─── Predictive ────────────────────────────────────────────────────────────────

// PredictiveRequest is the input of the predictive module.
type PredictiveRequest struct {
	Properties     []Property         `json:"properties"`
	HistoricalData []HistoricalRecord `json:"historical_data"`
	MarketData     []MarketRecord     `json:"market_data"`
}

// FeatureRecord is the flat per-property feature row fed to the forecast.
// Market and historical fields are nil when no matching records exist.
type FeatureRecord struct {
	PropertyID          string     `json:"property_id"`
	CurrentValue        float64    `json:"current_value"`
	NOI                 float64    `json:"noi"`
	OccupancyRate       float64    `json:"occupancy_rate"`
	EPCRating           *EPCRating `json:"epc_rating,omitempty"`
	MaintenanceScore    float64    `json:"maintenance_score"`
	MarketRent          *float64   `json:"market_rent,omitempty"`
	DemandIndex         *float64   `json:"demand_index,omitempty"`
	HistoricalOccupancy *float64   `json:"historical_occupancy,omitempty"`
	HistoricalNOI       *float64   `json:"historical_noi,omitempty"`
	TrendOccupancy      *float64   `json:"trend_occupancy,omitempty"`
	HistoryCount        int        `json:"history_count"`
}

// Prediction is the deterministic forecast for one property.
type Prediction struct {
	PropertyID         string   `json:"property_id"`
	PredictedOccupancy float64  `json:"predicted_occupancy"`
	PredictedValue     float64  `json:"predicted_value"`
	GrowthRate         float64  `json:"growth_rate"`
	RiskFactors        []string `json:"risk_factors"`
	Confidence         float64  `json:"confidence"`
}

// ConfidenceScore is a forecast confidence adjusted for predicted risk.
type ConfidenceScore struct {
	PropertyID      string  `json:"property_id"`
	ConfidenceScore float64 `json:"confidence_score"`
	ConfidenceLevel string  `json:"confidence_level"` // "High", "Medium", "Low"
}

// PredictiveAnalysis is the output of the predictive module.
type PredictiveAnalysis struct {
	Features         []FeatureRecord   `json:"features"`
	Predictions      []Prediction      `json:"predictions"`
	RiskAssessments  []RiskAssessment  `json:"risk_assessments"`
	ConfidenceScores []ConfidenceScore `json:"confidence_scores"`
	Recommendations  []string          `json:"recommendations"`
}

// ─── Occupancy ─────────────────────────────────────────────────────────────────

// OccupancyRequest is the input of the occupancy module.
type OccupancyRequest struct {
	OccupancyData []OccupancyRecord `json:"occupancy_data"`
	LeaseData     []Lease           `json:"lease_data"`
}

// UtilizationClass buckets a utilization rate.
type UtilizationClass string

const (
	UtilizationOvercrowded   UtilizationClass = "Overcrowded"
	UtilizationEfficient     UtilizationClass = "Efficient"
	UtilizationUnderutilized UtilizationClass = "Underutilized"
)

// UtilizationScore is the space usage summary of one occupancy record.
type UtilizationScore struct {
	PropertyID         string           `json:"property_id"`
	UtilizationRate    float64          `json:"utilization_rate"`
	EfficiencyScore    float64          `json:"efficiency_score"`
	ParkingUtilization float64          `json:"parking_utilization"`
	VacantSqFt         float64          `json:"vacant_sq_ft"`
	Classification     UtilizationClass `json:"utilization_classification"`
}

// ComplianceAlert flags an occupancy record that conflicts with a lease.
type ComplianceAlert struct {
	PropertyID  string `json:"property_id"`
	LeaseID     string `json:"lease_id"`
	AlertType   string `json:"alert_type"` // "overcrowding", "underutilization"
	Severity    string `json:"severity"`   // "High", "Medium"
	Description string `json:"description"`
}

// EfficiencyMetrics aggregates utilization across all records.
type EfficiencyMetrics struct {
	OverallUtilizationRate float64 `json:"overall_utilization_rate"`
	AverageEfficiencyScore float64 `json:"average_efficiency_score"`
	TotalVacantSqFt        float64 `json:"total_vacant_sq_ft"`
	UtilizationTrend       string  `json:"utilization_trend"` // "improving", "declining"
}

// OccupancyAnalysis is the output of the occupancy module.
type OccupancyAnalysis struct {
	UtilizationScores           []UtilizationScore `json:"utilization_scores"`
	ComplianceAlerts            []ComplianceAlert  `json:"compliance_alerts"`
	OptimizationRecommendations []string           `json:"optimization_recommendations"`
	EfficiencyMetrics           EfficiencyMetrics  `json:"efficiency_metrics"`
}

// ─── Lease risk ────────────────────────────────────────────────────────────────

// LeaseRiskRequest is the input of the lease risk module.
type LeaseRiskRequest struct {
	Properties []Property     `json:"properties"`
	Leases     []Lease        `json:"leases"`
	MarketData []MarketRecord `json:"market_data"`
	AsOf       *Date          `json:"as_of,omitempty"`
}

// LeaseRiskScore is the composed lease risk of one property and its parts.
type LeaseRiskScore struct {
	PropertyID      string    `json:"property_id"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	EPCRisk         float64   `json:"epc_risk"`
	OccupancyRisk   float64   `json:"occupancy_risk"`
	MarketRisk      float64   `json:"market_risk"`
	LeaseExpiryRisk float64   `json:"lease_expiry_risk"`
}

// RecommendedAction is the intervention suggested for a lease risk score.
type RecommendedAction struct {
	PropertyID        string `json:"property_id"`
	RecommendedAction string `json:"recommended_action"`
	Priority          string `json:"priority"`
	Timeline          string `json:"timeline"`
}

// PropertyRiskFactors lists the human-readable risk factors of one property.
type PropertyRiskFactors struct {
	PropertyID  string   `json:"property_id"`
	RiskFactors []string `json:"risk_factors"`
	FactorCount int      `json:"factor_count"`
}

// LeaseRiskAnalysis is the output of the lease risk module.
type LeaseRiskAnalysis struct {
	RiskScores             []LeaseRiskScore      `json:"risk_scores"`
	RecommendedActions     []RecommendedAction   `json:"recommended_actions"`
	RiskFactors            []PropertyRiskFactors `json:"risk_factors"`
	InterventionPriorities []string              `json:"intervention_priorities"`
}
