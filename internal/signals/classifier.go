package signals

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// DomainEvent is the part of an event the classifier needs.
type DomainEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// ClassificationResult holds the output of classifying an event.
type ClassificationResult struct {
	Category     string
	Weight       string
	Polarity     string
	Description  string
	Registration *types.SignalRegistration
}

// ClassifyEvent returns the first registration for the event type whose
// condition matches the payload, falling back to the unconditional one.
// ok is false when nothing is registered for the event type.
func ClassifyEvent(event DomainEvent) (ClassificationResult, bool) {
	registrations := LookupSignals(event.EventType)
	if len(registrations) == 0 {
		return ClassificationResult{}, false
	}

	var payload map[string]any
	if len(event.Payload) > 0 {
		_ = json.Unmarshal(event.Payload, &payload)
	}

	var fallback *types.SignalRegistration
	for i := range registrations {
		reg := &registrations[i]
		if reg.Condition == "" {
			if fallback == nil {
				fallback = reg
			}
			continue
		}
		if matchCondition(reg.Condition, payload) {
			return resultFor(reg), true
		}
	}
	if fallback != nil {
		return resultFor(fallback), true
	}
	return ClassificationResult{}, false
}

func resultFor(reg *types.SignalRegistration) ClassificationResult {
	return ClassificationResult{
		Category:     reg.Category,
		Weight:       reg.Weight,
		Polarity:     reg.Polarity,
		Description:  reg.Description,
		Registration: reg,
	}
}

// matchCondition evaluates "field op value" against the payload, where op is
// one of ==, <, >, <=, >=. A missing field never matches.
func matchCondition(condition string, payload map[string]any) bool {
	if payload == nil {
		return false
	}
	// Two-char operators first.
	for _, op := range []string{"<=", ">=", "==", "<", ">"} {
		key, expected, found := strings.Cut(condition, op)
		if !found {
			continue
		}
		actual, exists := payload[strings.TrimSpace(key)]
		if !exists {
			return false
		}
		expected = strings.TrimSpace(expected)
		switch op {
		case "==":
			return valueEquals(actual, expected)
		case "<=":
			c, ok := valueCompare(actual, expected)
			return ok && c <= 0
		case ">=":
			c, ok := valueCompare(actual, expected)
			return ok && c >= 0
		case "<":
			c, ok := valueCompare(actual, expected)
			return ok && c < 0
		case ">":
			c, ok := valueCompare(actual, expected)
			return ok && c > 0
		}
	}
	return false
}

func valueEquals(actual any, expected string) bool {
	switch v := actual.(type) {
	case string:
		return v == expected
	case float64:
		ev, err := strconv.ParseFloat(expected, 64)
		if err != nil {
			return false
		}
		return v == ev
	case bool:
		return (v && expected == "true") || (!v && expected == "false")
	default:
		return false
	}
}

// valueCompare compares a numeric payload value with a numeric threshold.
// ok is false when either side is not a number.
func valueCompare(actual any, threshold string) (int, bool) {
	av, isNum := actual.(float64)
	if !isNum {
		return 0, false
	}
	tv, err := strconv.ParseFloat(threshold, 64)
	if err != nil {
		return 0, false
	}
	switch {
	case av < tv:
		return -1, true
	case av > tv:
		return 1, true
	default:
		return 0, true
	}
}
