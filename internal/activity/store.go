package activity

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/matthewbaird/portfolio-analytics/internal/signals"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// Store reads and writes activity entries.
type Store interface {
	// WriteEntries writes the entries of one event (one entry per referenced entity).
	WriteEntries(ctx context.Context, entries []types.ActivityEntry) error

	// QueryByEntity returns entries indexed under one entity, newest first.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []types.ActivityEntry, nextCursor string, totalCount int, err error)

	// Search matches a case-insensitive substring against entry summaries.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []types.ActivityEntry, totalCount int, err error)
}

// MemoryStore keeps entries in memory. When a capacity is set, the oldest
// entries are evicted once it is exceeded.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []types.ActivityEntry
	capacity int
}

// NewMemoryStore creates an empty store holding at most capacity entries
// (unbounded when capacity <= 0).
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) WriteEntries(_ context.Context, entries []types.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	if s.capacity > 0 && len(s.entries) > s.capacity {
		s.entries = slices.Clone(s.entries[len(s.entries)-s.capacity:])
	}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) QueryByEntity(_ context.Context, entityType, entityID string, opts QueryOptions) ([]types.ActivityEntry, string, int, error) {
	s.mu.RLock()
	var matched []types.ActivityEntry
	for _, e := range s.entries {
		if e.IndexedEntityType != entityType || e.IndexedEntityID != entityID {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, e.Category) {
			continue
		}
		if opts.MinWeight != "" && opts.MinWeight != "info" && !signals.IsAtLeastWeight(e.Weight, opts.MinWeight) {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	newestFirst(matched)
	total := len(matched)

	offset := 0
	if opts.Cursor != "" {
		if n, err := strconv.Atoi(opts.Cursor); err == nil && n > 0 {
			offset = min(n, total)
		}
	}
	limit := opts.Limit
	if limit <= 0 || limit > MaxQueryLimit {
		limit = DefaultQueryLimit
	}

	page := matched[offset:]
	var nextCursor string
	if len(page) > limit {
		page = page[:limit]
		nextCursor = strconv.Itoa(offset + limit)
	}
	return page, nextCursor, total, nil
}

func (s *MemoryStore) Search(_ context.Context, query string, opts SearchOptions) ([]types.ActivityEntry, int, error) {
	q := strings.ToLower(query)

	s.mu.RLock()
	var matched []types.ActivityEntry
	for _, e := range s.entries {
		if !strings.Contains(strings.ToLower(e.Summary), q) {
			continue
		}
		if opts.EntityType != "" && e.IndexedEntityType != opts.EntityType {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, e.Category) {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	newestFirst(matched)
	total := len(matched)
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// newestFirst orders by occurred_at descending, keeping write order for ties.
func newestFirst(entries []types.ActivityEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
}

// Summarize pages through every entry of an entity inside [since, until]
// and aggregates them into a signal summary.
func Summarize(ctx context.Context, store Store, entityType, entityID string, since, until time.Time) (types.SignalSummary, error) {
	opts := QueryOptions{Since: &since, Until: &until, Limit: MaxQueryLimit}
	var all []types.ActivityEntry
	for {
		page, next, _, err := store.QueryByEntity(ctx, entityType, entityID, opts)
		if err != nil {
			return types.SignalSummary{}, err
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		opts.Cursor = next
	}
	return signals.Aggregate(all, entityType, entityID, since, until), nil
}
