package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/portfolio-analytics/internal/activity"
	"github.com/matthewbaird/portfolio-analytics/internal/eventbus"
	"github.com/matthewbaird/portfolio-analytics/internal/signals"
	"github.com/matthewbaird/portfolio-analytics/internal/types"
)

// AlertSource exposes the escalations raised so far.
type AlertSource interface {
	Alerts() []eventbus.Alert
}

// ActivityHandler serves the activity feed, signal summaries and alerts.
type ActivityHandler struct {
	store  activity.Store
	alerts AlertSource
	now    func() time.Time
}

// NewActivityHandler creates a new ActivityHandler. alerts may be nil.
func NewActivityHandler(store activity.Store, alerts AlertSource) *ActivityHandler {
	return &ActivityHandler{store: store, alerts: alerts, now: time.Now}
}

func entityParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")
	if entityType == "" || entityID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "entity_type and entity_id are required")
		return "", "", false
	}
	return entityType, entityID, true
}

// HandleGetEntityActivity returns the newest-first activity feed of one entity.
// GET /v1/activity/entity/{entity_type}/{entity_id}
func (h *ActivityHandler) HandleGetEntityActivity(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, ok := entityParams(w, r)
	if !ok {
		return
	}

	opts := activity.DefaultQueryOptions(h.now())
	since, ok := parseTimeParam(w, r, "since")
	if !ok {
		return
	}
	until, ok := parseTimeParam(w, r, "until")
	if !ok {
		return
	}
	if since != nil {
		opts.Since = since
	}
	if until != nil {
		opts.Until = until
	}
	if cats := r.URL.Query().Get("categories"); cats != "" {
		opts.Categories = strings.Split(cats, ",")
	}
	if mw := r.URL.Query().Get("min_weight"); mw != "" {
		if _, known := signals.WeightOrder[mw]; !known {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "unknown min_weight: "+mw)
			return
		}
		opts.MinWeight = mw
	}
	opts.Limit = parseLimit(r, activity.DefaultQueryLimit, activity.MaxQueryLimit)
	opts.Cursor = r.URL.Query().Get("cursor")

	entries, nextCursor, totalCount, err := h.store.QueryByEntity(r.Context(), entityType, entityID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}

	type period struct {
		Since time.Time `json:"since"`
		Until time.Time `json:"until"`
	}
	resp := struct {
		Activities []types.ActivityEntry `json:"activities"`
		NextCursor string                `json:"next_cursor,omitempty"`
		TotalCount int                   `json:"total_count"`
		Period     period                `json:"period"`
	}{
		Activities: entries,
		NextCursor: nextCursor,
		TotalCount: totalCount,
		Period:     period{Since: *opts.Since, Until: *opts.Until},
	}
	if resp.Activities == nil {
		resp.Activities = []types.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetSignalSummary aggregates an entity's activity over the last
// twelve months, or since the given timestamp.
// GET /v1/activity/summary/{entity_type}/{entity_id}
func (h *ActivityHandler) HandleGetSignalSummary(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, ok := entityParams(w, r)
	if !ok {
		return
	}
	until := h.now()
	since := until.AddDate(-1, 0, 0)
	s, ok := parseTimeParam(w, r, "since")
	if !ok {
		return
	}
	if s != nil {
		since = *s
	}

	summary, err := activity.Summarize(r.Context(), h.store, entityType, entityID, since, until)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleSearchActivity searches event summaries.
// POST /v1/activity/search
func (h *ActivityHandler) HandleSearchActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string   `json:"query"`
		EntityType string   `json:"entity_type,omitempty"`
		Since      string   `json:"since,omitempty"`
		Categories []string `json:"categories,omitempty"`
		Limit      int      `json:"limit,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "query is required")
		return
	}

	opts := activity.DefaultSearchOptions()
	opts.EntityType = req.EntityType
	opts.Categories = req.Categories
	if req.Limit > 0 {
		opts.Limit = min(req.Limit, activity.MaxQueryLimit)
	}
	if req.Since != "" {
		t, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "since must be an RFC 3339 timestamp")
			return
		}
		opts.Since = &t
	}

	entries, totalCount, err := h.store.Search(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}
	resp := struct {
		Results    []types.ActivityEntry `json:"results"`
		TotalCount int                   `json:"total_count"`
	}{
		Results:    entries,
		TotalCount: totalCount,
	}
	if resp.Results == nil {
		resp.Results = []types.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleListAlerts returns the escalations raised by the alert consumer.
// GET /v1/alerts
func (h *ActivityHandler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := []eventbus.Alert{}
	if h.alerts != nil {
		if got := h.alerts.Alerts(); got != nil {
			alerts = got
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Alerts []eventbus.Alert `json:"alerts"`
	}{alerts})
}
