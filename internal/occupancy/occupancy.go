// Package occupancy computes space utilization, classifies it and checks
// occupancy against lease terms.
package occupancy

import (
	"fmt"

	"github.com/matthewbaird/portfolio-analytics/internal/normalize"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

const (
	overcrowdedAbove   = 1.2
	underutilizedBelow = 0.5
	improvingAbove     = 70.0
)

var generalRecommendations = []string{
	"Consider flexible workspace arrangements to improve utilization",
	"Implement space monitoring systems for real-time occupancy tracking",
	"Review lease terms to ensure optimal space allocation",
}

// Classify buckets a utilization rate.
func Classify(rate float64) types.UtilizationClass {
	switch {
	case rate > overcrowdedAbove:
		return types.UtilizationOvercrowded
	case rate < underutilizedBelow:
		return types.UtilizationUnderutilized
	default:
		return types.UtilizationEfficient
	}
}

// Utilization scores one occupancy record. Zero total area yields zero ratios;
// the efficiency score stays within [0, 100].
func Utilization(r normalize.Occupancy) types.UtilizationScore {
	s := types.UtilizationScore{PropertyID: r.PropertyID, VacantSqFt: r.VacantSqFt}
	if r.TotalSqFt > 0 {
		s.UtilizationRate = r.OccupiedSqFt / r.TotalSqFt
		s.EfficiencyScore = normalize.Score(s.UtilizationRate * (1 - r.CommonAreas/r.TotalSqFt) * 100)
	}
	if r.ParkingSpaces > 0 && r.OccupiedParking > 0 {
		s.ParkingUtilization = float64(r.OccupiedParking) / float64(r.ParkingSpaces)
	}
	s.Classification = Classify(s.UtilizationRate)
	return s
}

// ComplianceAlerts checks every occupancy record against each lease on the
// same property. Both alerts may fire for one pair.
func ComplianceAlerts(records []normalize.Occupancy, leases []types.Lease) []types.ComplianceAlert {
	byProperty := make(map[string][]types.Lease)
	for _, l := range leases {
		byProperty[l.PropertyID] = append(byProperty[l.PropertyID], l)
	}

	alerts := []types.ComplianceAlert{}
	for _, r := range records {
		for _, l := range byProperty[r.PropertyID] {
			if r.OccupiedSqFt > r.TotalSqFt {
				alerts = append(alerts, types.ComplianceAlert{
					PropertyID:  r.PropertyID,
					LeaseID:     l.LeaseID,
					AlertType:   "overcrowding",
					Severity:    "High",
					Description: "Occupancy exceeds available space",
				})
			}
			if r.OccupiedSqFt < r.TotalSqFt*underutilizedBelow {
				alerts = append(alerts, types.ComplianceAlert{
					PropertyID:  r.PropertyID,
					LeaseID:     l.LeaseID,
					AlertType:   "underutilization",
					Severity:    "Medium",
					Description: "Significant underutilization of space",
				})
			}
		}
	}
	return alerts
}

// Metrics aggregates utilization across all records.
func Metrics(records []normalize.Occupancy, scores []types.UtilizationScore) types.EfficiencyMetrics {
	var occupied, total, vacant, efficiency float64
	for _, r := range records {
		occupied += r.OccupiedSqFt
		total += r.TotalSqFt
		vacant += r.VacantSqFt
	}
	for _, s := range scores {
		efficiency += s.EfficiencyScore
	}

	m := types.EfficiencyMetrics{TotalVacantSqFt: vacant, UtilizationTrend: "declining"}
	if total > 0 {
		m.OverallUtilizationRate = occupied / total
	}
	if len(scores) > 0 {
		m.AverageEfficiencyScore = efficiency / float64(len(scores))
	}
	if m.AverageEfficiencyScore > improvingAbove {
		m.UtilizationTrend = "improving"
	}
	return m
}

// Recommendations counts problem properties and appends the general guidance.
func Recommendations(scores []types.UtilizationScore) []string {
	var under, over int
	for _, s := range scores {
		switch s.Classification {
		case types.UtilizationUnderutilized:
			under++
		case types.UtilizationOvercrowded:
			over++
		}
	}
	recs := []string{}
	if under > 0 {
		recs = append(recs, fmt.Sprintf("Optimize space utilization for %d underutilized properties", under))
	}
	if over > 0 {
		recs = append(recs, fmt.Sprintf("Address overcrowding issues in %d properties", over))
	}
	return append(recs, generalRecommendations...)
}

// Analyze runs the full occupancy pipeline.
func Analyze(req types.OccupancyRequest) types.OccupancyAnalysis {
	records := make([]normalize.Occupancy, len(req.OccupancyData))
	scores := make([]types.UtilizationScore, len(req.OccupancyData))
	for i, r := range req.OccupancyData {
		records[i] = normalize.NewOccupancy(r)
		scores[i] = Utilization(records[i])
	}
	return types.OccupancyAnalysis{
		UtilizationScores:           scores,
		ComplianceAlerts:            ComplianceAlerts(records, req.LeaseData),
		OptimizationRecommendations: Recommendations(scores),
		EfficiencyMetrics:           Metrics(records, scores),
	}
}
