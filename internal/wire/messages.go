// Package wire defines the WebSocket protocol of the analysis console.
package wire

import (
	"encoding/json"

	"github.com/matthewbaird/portfolio-analytics/internal/session"
)

// Message types.
const (
	TypeAnalyze = "analyze"
	TypeModules = "modules"
	TypeHistory = "history"
	TypePing    = "ping"

	TypeSession = "session"
	TypeResult  = "result"
	TypeError   = "error"
	TypePong    = "pong"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "analyze", "modules", "history", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// AnalyzeData is the payload for "analyze" messages. Request is the same
// body the HTTP endpoint of the module accepts.
type AnalyzeData struct {
	Module  string          `json:"module"`
	Request json.RawMessage `json:"request"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "session", "result", "error", "modules", "history", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID
	Data      any    `json:"data,omitempty"`
}

// SessionData carries session information.
type SessionData struct {
	SessionID string `json:"session_id"`
	Resumed   bool   `json:"resumed"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// HistoryData carries the session's past runs.
type HistoryData struct {
	Runs []session.HistoryEntry `json:"runs"`
}
