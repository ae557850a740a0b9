package signals

import (
	"testing"
	"time"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

var until = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

func entry(category, weight, polarity string, daysAgo int) types.ActivityEntry {
	return types.ActivityEntry{
		EventID:           "evt",
		IndexedEntityType: "property",
		IndexedEntityID:   "P1",
		OccurredAt:        until.AddDate(0, 0, -daysAgo),
		Category:          category,
		Weight:            weight,
		Polarity:          polarity,
	}
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil, "property", "P1", until.AddDate(0, 0, -90), until)
	if summary.OverallSentiment != "positive" {
		t.Errorf("sentiment = %q, want positive", summary.OverallSentiment)
	}
	if len(summary.Categories) != 0 {
		t.Errorf("categories = %d, want 0", len(summary.Categories))
	}
	if summary.Escalations == nil {
		t.Error("escalations should be an empty slice, not nil")
	}
}

func TestAggregate_CategoryCounts(t *testing.T) {
	entries := []types.ActivityEntry{
		entry(CategoryLease, "info", "positive", 40),
		entry(CategoryLease, "moderate", "negative", 20),
		entry(CategoryLease, "moderate", "negative", 10),
		entry(CategoryLease, "moderate", "negative", 200), // outside window
	}
	summary := Aggregate(entries, "property", "P1", until.AddDate(0, 0, -90), until)

	lease, ok := summary.Categories[CategoryLease]
	if !ok {
		t.Fatal("missing lease category")
	}
	if lease.SignalCount != 3 {
		t.Errorf("signal count = %d, want 3", lease.SignalCount)
	}
	if lease.DominantPolarity != "negative" {
		t.Errorf("dominant polarity = %q, want negative", lease.DominantPolarity)
	}
	if lease.ByWeight["moderate"] != 2 {
		t.Errorf("moderate = %d, want 2", lease.ByWeight["moderate"])
	}
	if summary.OverallSentiment != "mixed" {
		t.Errorf("sentiment = %q, want mixed", summary.OverallSentiment)
	}
}

func TestAggregate_CountEscalation(t *testing.T) {
	entries := []types.ActivityEntry{
		entry(CategoryLease, "strong", "negative", 60),
		entry(CategoryLease, "strong", "negative", 30),
		entry(CategoryLease, "strong", "negative", 1),
	}
	summary := Aggregate(entries, "property", "P1", until.AddDate(0, 0, -180), until)

	if len(summary.Escalations) != 1 {
		t.Fatalf("escalations = %d, want 1", len(summary.Escalations))
	}
	es := summary.Escalations[0]
	if es.Rule.ID != "lease_high_risk_repeat" {
		t.Errorf("rule = %q, want lease_high_risk_repeat", es.Rule.ID)
	}
	if es.TriggeringCount != 3 {
		t.Errorf("triggering count = %d, want 3", es.TriggeringCount)
	}
	if !es.EarliestOccurred.Equal(until.AddDate(0, 0, -60)) {
		t.Errorf("earliest = %v", es.EarliestOccurred)
	}
	if summary.OverallSentiment != "critical" {
		t.Errorf("sentiment = %q, want critical", summary.OverallSentiment)
	}
}

func TestAggregate_CountEscalationOutsideWindow(t *testing.T) {
	entries := []types.ActivityEntry{
		entry(CategoryPayments, "strong", "negative", 45),
		entry(CategoryPayments, "strong", "negative", 20),
		entry(CategoryPayments, "strong", "negative", 5),
	}
	summary := Aggregate(entries, "property", "P1", until.AddDate(0, 0, -90), until)
	for _, es := range summary.Escalations {
		if es.Rule.ID == "payments_high_risk_repeat" {
			t.Error("payments rule fired with only two entries inside 30 days")
		}
	}
	if summary.OverallSentiment != "concerning" {
		t.Errorf("sentiment = %q, want concerning", summary.OverallSentiment)
	}
}

func TestAggregate_CrossCategoryEscalation(t *testing.T) {
	entries := []types.ActivityEntry{
		entry(CategoryLease, "moderate", "negative", 10),
		entry(CategoryPayments, "moderate", "negative", 5),
	}
	escalations := EvaluateEscalations(entries, until)
	if len(escalations) != 1 || escalations[0].Rule.ID != "lease_and_payment_risk" {
		t.Fatalf("escalations = %+v, want lease_and_payment_risk", escalations)
	}
	if escalations[0].TriggeringCount != 2 {
		t.Errorf("triggering count = %d, want 2", escalations[0].TriggeringCount)
	}
}

func TestComputeTrend(t *testing.T) {
	since := until.AddDate(0, 0, -60)
	declining := []types.ActivityEntry{
		entry(CategorySpace, "moderate", "negative", 10),
		entry(CategorySpace, "moderate", "negative", 5),
		entry(CategorySpace, "moderate", "negative", 1),
	}
	if got := trend(declining, CategorySpace, since.Add(until.Sub(since)/2)); got != "declining" {
		t.Errorf("trend = %q, want declining", got)
	}
	improving := []types.ActivityEntry{
		entry(CategorySpace, "moderate", "negative", 50),
		entry(CategorySpace, "moderate", "negative", 45),
		entry(CategorySpace, "moderate", "negative", 40),
		entry(CategorySpace, "info", "positive", 1),
	}
	if got := trend(improving, CategorySpace, since.Add(until.Sub(since)/2)); got != "improving" {
		t.Errorf("trend = %q, want improving", got)
	}
}

func TestDominantPolarity_Tie(t *testing.T) {
	if got := dominantPolarity(map[string]int{"positive": 2, "negative": 2}); got != "negative" {
		t.Errorf("dominant = %q, want negative", got)
	}
}
