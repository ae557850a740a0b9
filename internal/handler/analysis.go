// Package handler implements the HTTP handlers of the analytics service.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
	"github.com/matthewbaird/portfolio-analytics/internal/scoring"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

// Runner executes one analysis run from a raw request body.
type Runner interface {
	Run(ctx context.Context, module analysis.Module, body []byte) (*analysis.Run, error)
}

// AnalysisHandler serves the analysis endpoints.
type AnalysisHandler struct {
	runner Runner
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(runner Runner) *AnalysisHandler {
	return &AnalysisHandler{runner: runner}
}

// HandleModules lists the analysis modules.
// GET /v1/modules
func (h *AnalysisHandler) HandleModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analysis.NewCatalog())
}

// OpenAPIDocument serves a pre-rendered OpenAPI document.
// GET /v1/openapi.json
func OpenAPIDocument(doc []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(doc)
	}
}

// Analyze returns a handler running one fixed module. The response body is
// the module's result; the run id travels in the X-Run-Id header.
// POST /v1/{module}/analyze
func (h *AnalysisHandler) Analyze(module analysis.Module) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := h.run(w, r, module)
		if !ok {
			return
		}
		w.Header().Set("X-Run-Id", run.ID)
		writeJSON(w, http.StatusOK, run.Output)
	}
}

// HandleAnalyzeModule runs the module named in the path and returns the
// full run envelope.
// POST /v1/analyze/{module}
func (h *AnalysisHandler) HandleAnalyzeModule(w http.ResponseWriter, r *http.Request) {
	module, err := analysis.ParseModule(chi.URLParam(r, "module"))
	if err != nil {
		writeError(w, http.StatusNotFound, "UNKNOWN_MODULE", err.Error())
		return
	}
	run, ok := h.run(w, r, module)
	if !ok {
		return
	}
	w.Header().Set("X-Run-Id", run.ID)
	writeJSON(w, http.StatusOK, run)
}

func (h *AnalysisHandler) run(w http.ResponseWriter, r *http.Request, module analysis.Module) (*analysis.Run, bool) {
	body, ok := readBody(w, r)
	if !ok {
		return nil, false
	}
	run, err := h.runner.Run(r.Context(), module, body)
	if err != nil {
		writeAnalysisError(w, r, err)
		return nil, false
	}
	return run, true
}

// writeAnalysisError maps engine errors onto HTTP responses.
func writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.ValidationError
	var cerr *analysis.ComputationError
	switch {
	case errors.As(err, &verr):
		writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "request failed validation", verr.Problems)
	case errors.Is(err, validate.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, scoring.ErrInvalidWeights):
		writeError(w, http.StatusBadRequest, "INVALID_WEIGHTS", err.Error())
	case errors.Is(err, analysis.ErrUnknownModule):
		writeError(w, http.StatusNotFound, "UNKNOWN_MODULE", err.Error())
	case errors.As(err, &cerr):
		w.Header().Set("X-Run-Id", cerr.RunID)
		writeError(w, http.StatusInternalServerError, "ANALYSIS_FAILED", "analysis failed")
	default:
		slog.ErrorContext(r.Context(), "analysis error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
