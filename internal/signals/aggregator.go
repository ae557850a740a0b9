package signals

import (
	"time"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// span tracks how many entries matched and when the first and last occurred.
type span struct {
	count       int
	first, last time.Time
}

func (s *span) add(at time.Time) {
	if s.count == 0 || at.Before(s.first) {
		s.first = at
	}
	if s.count == 0 || at.After(s.last) {
		s.last = at
	}
	s.count++
}

func (s span) escalation(rule types.EscalationRule) types.EscalatedSignal {
	return types.EscalatedSignal{
		Rule:             rule,
		TriggeringCount:  s.count,
		EarliestOccurred: s.first,
		LatestOccurred:   s.last,
	}
}

// Aggregate summarises the entries of one entity that fall inside
// [since, until]. Escalation windows are measured back from until.
func Aggregate(entries []types.ActivityEntry, entityType, entityID string, since, until time.Time) types.SignalSummary {
	inWindow := make([]types.ActivityEntry, 0, len(entries))
	for _, e := range entries {
		if !e.OccurredAt.Before(since) && !e.OccurredAt.After(until) {
			inWindow = append(inWindow, e)
		}
	}

	byCategory := make(map[string]types.CategorySummary)
	for _, e := range inWindow {
		cs, ok := byCategory[e.Category]
		if !ok {
			cs = types.CategorySummary{
				Category:   e.Category,
				ByWeight:   map[string]int{},
				ByPolarity: map[string]int{},
			}
		}
		cs.SignalCount++
		cs.ByWeight[e.Weight]++
		cs.ByPolarity[e.Polarity]++
		byCategory[e.Category] = cs
	}
	for cat, cs := range byCategory {
		cs.DominantPolarity = dominantPolarity(cs.ByPolarity)
		cs.Trend = trend(inWindow, cat, since.Add(until.Sub(since)/2))
		byCategory[cat] = cs
	}

	escalations := EvaluateEscalations(inWindow, until)
	sentiment, reason := sentimentOf(byCategory, escalations)

	return types.SignalSummary{
		EntityType:       entityType,
		EntityID:         entityID,
		Since:            since,
		Until:            until,
		Categories:       byCategory,
		OverallSentiment: sentiment,
		SentimentReason:  reason,
		Escalations:      escalations,
	}
}

// EvaluateEscalations checks every registered count rule and every
// cross-category rule against entries, with windows ending at now.
func EvaluateEscalations(entries []types.ActivityEntry, now time.Time) []types.EscalatedSignal {
	rules := make([]types.EscalationRule, 0, len(CrossCategoryEscalationRules))
	for _, reg := range SignalRegistry {
		rules = append(rules, reg.EscalationRules...)
	}
	rules = append(rules, CrossCategoryEscalationRules...)

	out := []types.EscalatedSignal{}
	for _, rule := range rules {
		start := now.AddDate(0, 0, -rule.WithinDays)
		var (
			es types.EscalatedSignal
			ok bool
		)
		switch rule.TriggerType {
		case "count":
			es, ok = countRule(rule, entries, start)
		case "cross_category":
			es, ok = crossCategoryRule(rule, entries, start)
		}
		if ok {
			out = append(out, es)
		}
	}
	return out
}

func countRule(rule types.EscalationRule, entries []types.ActivityEntry, start time.Time) (types.EscalatedSignal, bool) {
	var s span
	for _, e := range entries {
		switch {
		case e.OccurredAt.Before(start):
		case rule.SignalCategory != "" && e.Category != rule.SignalCategory:
		case rule.SignalPolarity != "" && e.Polarity != rule.SignalPolarity:
		default:
			s.add(e.OccurredAt)
		}
	}
	if s.count == 0 || s.count < rule.Count {
		return types.EscalatedSignal{}, false
	}
	return s.escalation(rule), true
}

// crossCategoryRule fires when every required category reaches its minimum
// inside the window. An entry counts once per requirement it satisfies.
func crossCategoryRule(rule types.EscalationRule, entries []types.ActivityEntry, start time.Time) (types.EscalatedSignal, bool) {
	perCategory := make(map[string]int, len(rule.RequiredCategories))
	var all span
	for _, e := range entries {
		if e.OccurredAt.Before(start) {
			continue
		}
		for _, req := range rule.RequiredCategories {
			if e.Category == req.Category && (req.Polarity == "" || e.Polarity == req.Polarity) {
				perCategory[req.Category]++
				all.add(e.OccurredAt)
			}
		}
	}
	for _, req := range rule.RequiredCategories {
		if perCategory[req.Category] < req.MinCount {
			return types.EscalatedSignal{}, false
		}
	}
	return all.escalation(rule), true
}

// dominantPolarity returns the most frequent polarity; ties go to the
// alphabetically first name.
func dominantPolarity(byPolarity map[string]int) string {
	var best string
	for p, c := range byPolarity {
		if best == "" || c > byPolarity[best] || (c == byPolarity[best] && p < best) {
			best = p
		}
	}
	return best
}

// trend compares negative volume before and after mid. A difference of one
// entry is noise.
func trend(entries []types.ActivityEntry, category string, mid time.Time) string {
	var before, after int
	for _, e := range entries {
		if e.Category != category || e.Polarity != "negative" {
			continue
		}
		if e.OccurredAt.Before(mid) {
			before++
		} else {
			after++
		}
	}
	switch {
	case after-before > 1:
		return "declining"
	case before-after > 1:
		return "improving"
	default:
		return "stable"
	}
}

func sentimentOf(categories map[string]types.CategorySummary, escalations []types.EscalatedSignal) (string, string) {
	for _, e := range escalations {
		if e.Rule.EscalatedWeight == "critical" {
			return "critical", "Critical escalation triggered: " + e.Rule.EscalatedDescription
		}
	}

	var total types.CategorySummary
	total.ByWeight, total.ByPolarity = map[string]int{}, map[string]int{}
	for _, cs := range categories {
		for w, n := range cs.ByWeight {
			total.ByWeight[w] += n
		}
		for p, n := range cs.ByPolarity {
			total.ByPolarity[p] += n
		}
	}
	neg, pos := total.ByPolarity["negative"], total.ByPolarity["positive"]

	switch {
	case total.ByWeight["critical"] > 0:
		return "critical", "Critical-weight signals present requiring immediate attention."
	case total.ByWeight["strong"] >= 2 || neg > 2*pos:
		return "concerning", "Multiple strong signals or predominantly negative results."
	case neg > pos:
		return "mixed", "More negative than positive results, but no critical concerns."
	default:
		return "positive", "Results are predominantly positive or neutral."
	}
}
