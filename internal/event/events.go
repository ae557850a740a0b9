// Package event defines the domain events emitted by analysis runs and the
// recorder that indexes and publishes them.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/portfolio-analytics/internal/signals"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// DomainEvent carries the canonical shape of every domain event.
type DomainEvent struct {
	ID               string            `json:"id"`
	EventType        string            `json:"event_type"`
	OccurredAt       time.Time         `json:"occurred_at"`
	AffectedEntities []types.SourceRef `json:"affected_entities"`
	Summary          string            `json:"summary"`
	Category         string            `json:"category"`
	Weight           string            `json:"weight"`   // "critical", "strong", "moderate", "weak", "info"
	Polarity         string            `json:"polarity"` // "positive", "negative", "neutral"
	Payload          json.RawMessage   `json:"payload"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

var completedTypes = map[string]string{
	"portfolio":    signals.EventPortfolioAnalyzed,
	"transactions": signals.EventTransactionsAnalyzed,
	"predictive":   signals.EventPredictiveAnalyzed,
	"occupancy":    signals.EventOccupancyAnalyzed,
	"lease-risk":   signals.EventLeaseRiskAnalyzed,
}

// CompletedType returns the event type emitted when module finishes.
func CompletedType(module string) string {
	if t, ok := completedTypes[module]; ok {
		return t
	}
	return module + "_analyzed"
}

// ── Analysis events ─────────────────────────────────────────────────────────

// AnalysisCompletedPayload carries the headline of a finished run.
type AnalysisCompletedPayload struct {
	RunID              string          `json:"run_id"`
	Module             string          `json:"module"`
	RiskLevel          types.RiskLevel `json:"risk_level"`
	Headline           string          `json:"headline"`
	Score              float64         `json:"score"`
	RecordCount        int             `json:"record_count"`
	HighRiskCount      int             `json:"high_risk_count"`
	MediumRiskCount    int             `json:"medium_risk_count"`
	AlertCount         int             `json:"alert_count"`
	ReconciliationRate *float64        `json:"reconciliation_rate,omitempty"`
	FlaggedProperties  []string        `json:"flagged_properties,omitempty"`
	DurationMS         float64         `json:"duration_ms"`
}

// NewAnalysisCompleted builds the event for a finished run. The run and
// module are always referenced; each flagged property is referenced as a
// target so its activity stream records the run.
func NewAnalysisCompleted(p AnalysisCompletedPayload, at time.Time) DomainEvent {
	refs := []types.SourceRef{
		{EntityType: "module", EntityID: p.Module, Role: "subject"},
		{EntityType: "run", EntityID: p.RunID, Role: "context"},
	}
	for _, id := range p.FlaggedProperties {
		refs = append(refs, types.SourceRef{EntityType: "property", EntityID: id, Role: "target"})
	}
	evt := DomainEvent{
		ID:               newID(),
		EventType:        CompletedType(p.Module),
		OccurredAt:       at,
		AffectedEntities: refs,
		Summary:          fmt.Sprintf("%s analysis: %s", p.Module, p.Headline),
		Payload:          mustJSON(p),
	}
	return classify(evt)
}

// AnalysisFailedPayload describes a run that returned an error.
type AnalysisFailedPayload struct {
	RunID  string `json:"run_id"`
	Module string `json:"module"`
	Kind   string `json:"kind"` // "validation", "weights", "computation"
	Error  string `json:"error"`
}

// NewAnalysisFailed builds the event for a failed run.
func NewAnalysisFailed(p AnalysisFailedPayload, at time.Time) DomainEvent {
	evt := DomainEvent{
		ID:         newID(),
		EventType:  signals.EventAnalysisFailed,
		OccurredAt: at,
		AffectedEntities: []types.SourceRef{
			{EntityType: "module", EntityID: p.Module, Role: "subject"},
			{EntityType: "run", EntityID: p.RunID, Role: "context"},
		},
		Summary: fmt.Sprintf("%s analysis failed (%s)", p.Module, p.Kind),
		Payload: mustJSON(p),
	}
	return classify(evt)
}

// classify fills category, weight and polarity from the signal registry.
func classify(evt DomainEvent) DomainEvent {
	evt.Category, evt.Weight, evt.Polarity = "analysis", "info", "neutral"
	result, ok := signals.ClassifyEvent(signals.DomainEvent{
		EventID:   evt.ID,
		EventType: evt.EventType,
		Payload:   evt.Payload,
	})
	if ok {
		evt.Category = result.Category
		evt.Weight = result.Weight
		evt.Polarity = result.Polarity
	}
	return evt
}
