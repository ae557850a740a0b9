// Package activity stores analysis events indexed by the entities they
// reference and answers per-entity and search queries over them.
package activity

import "time"

// Query limits.
const (
	DefaultQueryLimit  = 100
	MaxQueryLimit      = 500
	DefaultSearchLimit = 20
)

// QueryOptions controls filtering and pagination for entity activity queries.
type QueryOptions struct {
	Since      *time.Time
	Until      *time.Time
	Categories []string
	MinWeight  string // default "info"
	Limit      int    // default 100, max 500
	Cursor     string // opaque, from a previous page
}

// SearchOptions controls filtering for summary search.
type SearchOptions struct {
	EntityType string
	Since      *time.Time
	Categories []string
	Limit      int // default 20
}

// DefaultQueryOptions returns options covering the six months before now.
func DefaultQueryOptions(now time.Time) QueryOptions {
	since := now.AddDate(0, -6, 0)
	return QueryOptions{
		Since:     &since,
		Until:     &now,
		MinWeight: "info",
		Limit:     DefaultQueryLimit,
	}
}

// DefaultSearchOptions returns SearchOptions with the default limit.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: DefaultSearchLimit}
}
