// Package session manages analysis console session lifecycle.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistorySize bounds a session's run history when no size is configured.
const DefaultHistorySize = 50

// HistoryEntry records one analysis run made from a session.
type HistoryEntry struct {
	RunID     string    `json:"run_id"`
	Module    string    `json:"module"`
	RiskLevel string    `json:"risk_level"`
	Headline  string    `json:"headline"`
	At        time.Time `json:"at"`
}

// Session holds per-connection console state.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu           sync.Mutex
	lastActiveAt time.Time
	history      []HistoryEntry
	historySize  int
}

func newSession(now time.Time, historySize int) *Session {
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		lastActiveAt: now,
		historySize:  historySize,
	}
}

// Touch updates the last activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastActiveAt = now
	s.mu.Unlock()
}

// AddHistory appends a run, dropping the oldest entry once full.
func (s *Session) AddHistory(e HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
	if over := len(s.history) - s.historySize; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
	s.lastActiveAt = e.At
}

// History returns the runs oldest first.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// LastActiveAt returns the last activity timestamp.
func (s *Session) LastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

// IsExpired reports whether the session has exceeded maxAge at now.
func (s *Session) IsExpired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.CreatedAt) > maxAge
}

// IsIdle reports whether the session has been idle longer than timeout at now.
func (s *Session) IsIdle(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActiveAt()) > timeout
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
	historySize int
	now         func() time.Time
}

// NewManager creates a session manager with the given timeouts. A
// historySize of zero or less uses DefaultHistorySize.
func NewManager(maxAge, idleTimeout time.Duration, historySize int) *Manager {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		historySize: historySize,
		now:         time.Now,
	}
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time { return m.now() }

// Create creates a new session and returns it.
func (m *Manager) Create() *Session {
	s := newSession(m.now(), m.historySize)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if m.stale(s, m.now()) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) stale(s *Session, now time.Time) bool {
	return s.IsExpired(now, m.maxAge) || s.IsIdle(now, m.idleTimeout)
}

// Cleanup removes all expired and idle sessions and returns how many went.
func (m *Manager) Cleanup() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if m.stale(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
