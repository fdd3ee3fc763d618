package chat

import (
	"sync"

	"github.com/naga-ia/agente/backend/internal/model/chat"
)

// HistoryLimit is the number of lines a session keeps after each exchange.
const HistoryLimit = 10

type session struct {
	mu      sync.Mutex
	history []chat.Line
}

// SessionManager tracks which session ids have been seen and a bounded
// rolling history per session. State lives only in memory.
type SessionManager struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	sessions map[string]*session
	limit    int
}

// NewSessionManager returns an empty manager keeping limit lines per
// session. A non-positive limit uses HistoryLimit.
func NewSessionManager(limit int) *SessionManager {
	if limit <= 0 {
		limit = HistoryLimit
	}
	return &SessionManager{
		seen:     make(map[string]struct{}),
		sessions: make(map[string]*session),
		limit:    limit,
	}
}

// Exchange is an in-progress question/answer on one session. It holds the
// session lock until Commit or Release.
type Exchange struct {
	SessionID string
	First     bool
	History   []chat.Line

	s    *session
	once sync.Once
	lim  int
}

// Begin opens an exchange on id, marking it seen. Concurrent exchanges on the
// same id run one after the other; only the first ever opened reports First.
func (m *SessionManager) Begin(id string) *Exchange {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = &session{history: make([]chat.Line, 0, m.limit+2)}
		m.sessions[id] = s
	}
	m.mu.Unlock()

	s.mu.Lock()

	m.mu.Lock()
	_, seen := m.seen[id]
	m.seen[id] = struct{}{}
	m.mu.Unlock()

	return &Exchange{
		SessionID: id,
		First:     !seen,
		History:   append([]chat.Line(nil), s.history...),
		s:         s,
		lim:       m.limit,
	}
}

// Commit appends the question and reply, trims the history and releases the
// session.
func (e *Exchange) Commit(question, reply string) {
	e.once.Do(func() {
		h := append(e.s.history, chat.CustomerLine(question), chat.AgentLine(reply))
		if len(h) > e.lim {
			h = append([]chat.Line(nil), h[len(h)-e.lim:]...)
		}
		e.s.history = h
		e.s.mu.Unlock()
	})
}

// Release unlocks the session without recording anything.
func (e *Exchange) Release() {
	e.once.Do(e.s.mu.Unlock)
}

// History returns a copy of the stored lines for id.
func (m *SessionManager) History(id string) []chat.Line {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Line(nil), s.history...)
}

// Seen reports whether id has started a conversation since the last reset.
func (m *SessionManager) Seen(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[id]
	return ok
}

// Reset forgets every session. Exchanges still in flight finish on the
// detached state and are not visible afterwards.
func (m *SessionManager) Reset() {
	m.mu.Lock()
	m.seen = make(map[string]struct{})
	m.sessions = make(map[string]*session)
	m.mu.Unlock()
}
