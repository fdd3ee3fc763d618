package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/naga-ia/agente/backend/internal/model/chat"
	"github.com/naga-ia/agente/backend/internal/model/qa"
)

// Composer builds the model prompt for a turn.
type Composer interface {
	Compose(ctx context.Context, turn chat.Turn) (string, error)
}

// Completer answers a prompt. Implementations degrade failures into text.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// KnowledgeSource lists the current knowledge base.
type KnowledgeSource interface {
	List(ctx context.Context) ([]qa.Entry, error)
}

// Service runs conversations: it resolves sessions, composes prompts, asks
// the model and records each exchange.
type Service struct {
	sessions  *SessionManager
	composer  Composer
	completer Completer
	knowledge KnowledgeSource
	newID     func() string

	kmu      sync.RWMutex
	snapshot []qa.Entry
}

// Option customizes a Service.
type Option func(*Service)

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithSessionManager replaces the default session manager.
func WithSessionManager(m *SessionManager) Option {
	return func(s *Service) { s.sessions = m }
}

// NewService wires a conversation service. knowledge may be nil.
func NewService(composer Composer, completer Completer, knowledge KnowledgeSource, opts ...Option) *Service {
	s := &Service{
		sessions:  NewSessionManager(HistoryLimit),
		composer:  composer,
		completer: completer,
		knowledge: knowledge,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle answers question within sessionID, starting a new session when the
// id is empty. The returned reply carries the resolved id even on error.
func (s *Service) Handle(ctx context.Context, question, sessionID string) (chat.Reply, error) {
	if sessionID == "" {
		sessionID = s.newID()
	}

	ex := s.sessions.Begin(sessionID)
	defer ex.Release()

	prompt, err := s.composer.Compose(ctx, chat.Turn{
		SessionID: sessionID,
		First:     ex.First,
		History:   ex.History,
		Question:  question,
	})
	if err != nil {
		return chat.Reply{SessionID: sessionID}, errors.Wrap(err, "compose prompt")
	}

	reply := s.completer.Complete(ctx, prompt)
	ex.Commit(question, reply)

	log.Info().
		Str("session_id", sessionID).
		Bool("first", ex.First).
		Int("history", len(ex.History)).
		Int("knowledge_entries", s.knowledgeSize()).
		Msg("[chat] question answered")

	return chat.Reply{Text: reply, SessionID: sessionID}, nil
}

// ResetAll forgets every session and its history.
func (s *Service) ResetAll() {
	s.sessions.Reset()
	log.Info().Msg("[chat] all sessions cleared")
}

// Reload refreshes the cached knowledge snapshot and clears every session so
// no conversation mixes old context with new data.
func (s *Service) Reload(ctx context.Context) error {
	if s.knowledge != nil {
		entries, err := s.knowledge.List(ctx)
		if err != nil {
			return errors.Wrap(err, "reload knowledge")
		}
		s.kmu.Lock()
		s.snapshot = entries
		s.kmu.Unlock()
		log.Info().Int("entries", len(entries)).Msg("[chat] knowledge reloaded")
	}
	s.ResetAll()
	return nil
}

// Knowledge returns the snapshot taken by the last Reload.
func (s *Service) Knowledge() []qa.Entry {
	s.kmu.RLock()
	defer s.kmu.RUnlock()
	return append([]qa.Entry(nil), s.snapshot...)
}

func (s *Service) knowledgeSize() int {
	s.kmu.RLock()
	defer s.kmu.RUnlock()
	return len(s.snapshot)
}

// Sessions exposes the session manager for inspection.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}
