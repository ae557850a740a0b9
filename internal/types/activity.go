package types

import (
	"encoding/json"
	"time"
)

// ─── Activity & signal types ──────────────────────────────────────────────────
// Analysis runs are recorded as domain events and indexed per referenced
// entity (module, run, flagged property) so callers can follow how a
// property's risk evolves across runs.

// SourceRef identifies an entity referenced by a domain event.
type SourceRef struct {
	EntityType string `json:"entity_type"` // "module", "run", "property"
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"` // "subject", "context", "target"
}

// ActivityEntry is one event indexed under one referenced entity.
type ActivityEntry struct {
	EventID           string          `json:"event_id"`
	EventType         string          `json:"event_type"`
	OccurredAt        time.Time       `json:"occurred_at"`
	IndexedEntityType string          `json:"indexed_entity_type"`
	IndexedEntityID   string          `json:"indexed_entity_id"`
	EntityRole        string          `json:"entity_role"`
	SourceRefs        []SourceRef     `json:"source_refs"`
	Summary           string          `json:"summary"`
	Category          string          `json:"category"`
	Weight            string          `json:"weight"`
	Polarity          string          `json:"polarity"`
	Payload           json.RawMessage `json:"payload,omitempty"`
}

// SignalRegistration maps an event type (and optional payload condition) to
// a signal classification.
type SignalRegistration struct {
	ID              string           `json:"id"`
	EventType       string           `json:"event_type"`
	Condition       string           `json:"condition,omitempty"`
	Category        string           `json:"category"`
	Weight          string           `json:"weight"`
	Polarity        string           `json:"polarity"`
	Description     string           `json:"description"`
	EscalationRules []EscalationRule `json:"escalation_rules,omitempty"`
}

// EscalationRule defines when repeated or combined signals escalate.
type EscalationRule struct {
	ID                   string                `json:"id"`
	Description          string                `json:"description"`
	TriggerType          string                `json:"trigger_type"` // "count", "cross_category"
	SignalCategory       string                `json:"signal_category,omitempty"`
	SignalPolarity       string                `json:"signal_polarity,omitempty"`
	Count                int                   `json:"count,omitempty"`
	WithinDays           int                   `json:"within_days"`
	RequiredCategories   []CategoryRequirement `json:"required_categories,omitempty"`
	EscalatedWeight      string                `json:"escalated_weight"`
	EscalatedDescription string                `json:"escalated_description"`
	RecommendedAction    string                `json:"recommended_action,omitempty"`
}

// CategoryRequirement is one leg of a cross-category escalation rule.
type CategoryRequirement struct {
	Category string `json:"category"`
	Polarity string `json:"polarity,omitempty"`
	MinCount int    `json:"min_count"`
}

// EscalatedSignal is a triggered escalation rule with context.
type EscalatedSignal struct {
	Rule             EscalationRule `json:"rule"`
	TriggeringCount  int            `json:"triggering_count"`
	EarliestOccurred time.Time      `json:"earliest_occurred"`
	LatestOccurred   time.Time      `json:"latest_occurred"`
}

// CategorySummary aggregates signals within one category.
type CategorySummary struct {
	Category         string         `json:"category"`
	SignalCount      int            `json:"signal_count"`
	ByWeight         map[string]int `json:"by_weight"`
	ByPolarity       map[string]int `json:"by_polarity"`
	DominantPolarity string         `json:"dominant_polarity"`
	Trend            string         `json:"trend"` // "improving", "stable", "declining"
}

// SignalSummary is the aggregated signal overview for one entity.
type SignalSummary struct {
	EntityType       string                     `json:"entity_type"`
	EntityID         string                     `json:"entity_id"`
	Since            time.Time                  `json:"since"`
	Until            time.Time                  `json:"until"`
	Categories       map[string]CategorySummary `json:"categories"`
	OverallSentiment string                     `json:"overall_sentiment"` // "positive", "mixed", "concerning", "critical"
	SentimentReason  string                     `json:"sentiment_reason"`
	Escalations      []EscalatedSignal          `json:"escalations"`
}
