package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/portfolio-analytics/internal/analysis"
	"github.com/matthewbaird/portfolio-analytics/internal/scoring"
	"github.com/matthewbaird/portfolio-analytics/internal/session"
	"github.com/matthewbaird/portfolio-analytics/internal/validate"
)

// Runner executes one analysis run from a raw request body.
type Runner interface {
	Run(ctx context.Context, module analysis.Module, body []byte) (*analysis.Run, error)
}

// Handler manages WebSocket connections for the analysis console.
type Handler struct {
	sessions *session.Manager
	runner   Runner
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager, runner Runner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sessions: sessions, runner: runner, logger: logger}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. A client may
// pass ?session=<id> to resume a live session and its history.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("console: websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	sess, resumed := h.session(r.URL.Query().Get("session"))
	log := h.logger.With("session_id", sess.ID)

	h.send(ctx, conn, ServerMessage{
		Type: TypeSession,
		Data: SessionData{SessionID: sess.ID, Resumed: resumed},
	})

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				log.Debug("console: connection closed", "status", status)
			}
			return
		}
		sess.Touch(h.sessions.Now())

		switch msg.Type {
		case TypeAnalyze:
			h.handleAnalyze(ctx, conn, sess, msg)
		case TypeModules:
			h.send(ctx, conn, ServerMessage{Type: TypeModules, RequestID: msg.ID, Data: analysis.NewCatalog()})
		case TypeHistory:
			h.send(ctx, conn, ServerMessage{Type: TypeHistory, RequestID: msg.ID, Data: HistoryData{Runs: sess.History()}})
		case TypePing:
			h.send(ctx, conn, ServerMessage{Type: TypePong, RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, ErrorData{Code: "unknown_type", Message: fmt.Sprintf("unknown message type: %s", msg.Type)})
		}
	}
}

func (h *Handler) session(id string) (*session.Session, bool) {
	if id != "" {
		if s := h.sessions.Get(id); s != nil {
			return s, true
		}
	}
	return h.sessions.Create(), false
}

func (h *Handler) handleAnalyze(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data AnalyzeData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: "invalid_data", Message: "invalid analyze data"})
		return
	}
	if len(data.Request) == 0 {
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: "invalid_data", Message: "analyze needs a request"})
		return
	}
	module, err := analysis.ParseModule(data.Module)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: "unknown_module", Message: err.Error()})
		return
	}

	run, err := h.runner.Run(ctx, module, data.Request)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, errorData(err))
		return
	}
	sess.AddHistory(session.HistoryEntry{
		RunID:     run.ID,
		Module:    string(run.Module),
		RiskLevel: string(run.Summary.RiskLevel),
		Headline:  run.Summary.Headline,
		At:        h.sessions.Now(),
	})
	h.send(ctx, conn, ServerMessage{Type: TypeResult, RequestID: msg.ID, Data: run})
}

// errorData maps engine errors onto console error codes.
func errorData(err error) ErrorData {
	var verr *validate.ValidationError
	var cerr *analysis.ComputationError
	switch {
	case errors.As(err, &verr):
		return ErrorData{Code: "validation_error", Message: "request failed validation", Details: verr.Problems}
	case errors.Is(err, scoring.ErrInvalidWeights):
		return ErrorData{Code: "invalid_weights", Message: err.Error()}
	case errors.Is(err, analysis.ErrUnknownModule):
		return ErrorData{Code: "unknown_module", Message: err.Error()}
	case errors.As(err, &cerr):
		return ErrorData{Code: "analysis_failed", Message: "analysis failed (run " + cerr.RunID + ")"}
	default:
		return ErrorData{Code: "internal_error", Message: "internal error"}
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Debug("console: write error", "error", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID string, data ErrorData) {
	h.send(ctx, conn, ServerMessage{Type: TypeError, RequestID: requestID, Data: data})
}
