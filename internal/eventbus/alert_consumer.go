package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/matthewbaird/portfolio-analytics/internal/activity"
	"github.com/matthewbaird/portfolio-analytics/internal/event"
	"github.com/matthewbaird/portfolio-analytics/internal/signals"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// EscalationWindowDays is how far back the alert consumer looks when
// summarising a flagged property.
const EscalationWindowDays = 90

// maxAlerts bounds the alerts kept in memory; older ones are discarded.
const maxAlerts = 100

// Alert is a raised escalation for one property.
type Alert struct {
	PropertyID string                `json:"property_id"`
	EventID    string                `json:"event_id"`
	Escalation types.EscalatedSignal `json:"escalation"`
}

// AlertConsumer warns about events at or above a minimum weight and checks
// each flagged property's recent activity for escalations.
type AlertConsumer struct {
	store     activity.Store
	minWeight string
	logger    *slog.Logger

	mu     sync.Mutex
	alerts []Alert
}

// NewAlertConsumer returns a consumer reading escalations from store.
// minWeight defaults to "strong".
func NewAlertConsumer(store activity.Store, minWeight string, logger *slog.Logger) *AlertConsumer {
	if minWeight == "" {
		minWeight = "strong"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertConsumer{store: store, minWeight: minWeight, logger: logger}
}

func (c *AlertConsumer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	if signals.IsAtLeastWeight(evt.Weight, c.minWeight) {
		c.logger.WarnContext(ctx, "analysis signal",
			"event_type", evt.EventType,
			"category", evt.Category,
			"weight", evt.Weight,
			"summary", evt.Summary,
		)
	}
	if evt.Polarity != "negative" || c.store == nil {
		return nil
	}

	since := evt.OccurredAt.AddDate(0, 0, -EscalationWindowDays)
	for _, ref := range evt.AffectedEntities {
		if ref.EntityType != "property" {
			continue
		}
		summary, err := activity.Summarize(ctx, c.store, ref.EntityType, ref.EntityID, since, evt.OccurredAt)
		if err != nil {
			return err
		}
		for _, es := range summary.Escalations {
			c.raise(ctx, Alert{PropertyID: ref.EntityID, EventID: evt.ID, Escalation: es})
		}
	}
	return nil
}

func (c *AlertConsumer) raise(ctx context.Context, a Alert) {
	c.mu.Lock()
	c.alerts = append(c.alerts, a)
	if len(c.alerts) > maxAlerts {
		c.alerts = c.alerts[len(c.alerts)-maxAlerts:]
	}
	c.mu.Unlock()

	level := slog.LevelWarn
	if a.Escalation.Rule.EscalatedWeight == "critical" {
		level = slog.LevelError
	}
	c.logger.Log(ctx, level, "escalation",
		"property_id", a.PropertyID,
		"rule", a.Escalation.Rule.ID,
		"count", a.Escalation.TriggeringCount,
		"description", a.Escalation.Rule.EscalatedDescription,
		"action", a.Escalation.Rule.RecommendedAction,
	)
}

// Alerts returns a copy of the most recent alerts, oldest first.
func (c *AlertConsumer) Alerts() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}
