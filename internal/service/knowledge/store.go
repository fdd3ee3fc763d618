package knowledge

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/naga-ia/agente/backend/internal/model/qa"
)

var (
	ErrValidation = errors.New("question and answer must not be empty")
	ErrDuplicate  = errors.New("question already exists")
	ErrNotFound   = errors.New("entry not found")
)

var (
	tableHeader = []string{"pergunta", "resposta"}
	auditHeader = []string{"acao", "data_hora", "idx", "pergunta", "resposta"}
)

// timestampLayout matches the naive ISO timestamps already present in
// existing log files.
const timestampLayout = "2006-01-02T15:04:05.000000"

// Store is the CSV-backed knowledge base. Every call reads the table from
// disk, so edits made to the file by hand are visible immediately.
type Store struct {
	mu        sync.Mutex
	path      string
	auditPath string
	now       func() time.Time
	onReload  func()
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the audit log clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store reading path and appending audit records to
// auditPath.
func NewStore(path, auditPath string, opts ...Option) *Store {
	s := &Store{path: path, auditPath: auditPath, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetReloadFunc registers the callback run after every successful mutation.
func (s *Store) SetReloadFunc(fn func()) {
	s.mu.Lock()
	s.onReload = fn
	s.mu.Unlock()
}

// List returns all entries in table order, creating an empty table when the
// file does not exist.
func (s *Store) List(_ context.Context) ([]qa.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add appends a new entry.
func (s *Store) Add(_ context.Context, question, answer string) error {
	question, answer, err := clean(question, answer)
	if err != nil {
		return err
	}

	s.mu.Lock()
	entries, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if idx := findDuplicate(entries, question, -1); idx >= 0 {
		s.mu.Unlock()
		return ErrDuplicate
	}

	newIdx := len(entries)
	next := append(append([]qa.Entry(nil), entries...), qa.Entry{Question: question, Answer: answer})
	if err := s.commit(entries, next, qa.ActionAdd, newIdx, question, answer); err != nil {
		s.mu.Unlock()
		return err
	}
	reload := s.onReload
	s.mu.Unlock()

	log.Info().Int("idx", newIdx).Str("pergunta", question).Msg("knowledge entry added")
	if reload != nil {
		reload()
	}
	return nil
}

// Update overwrites the entry at idx. The duplicate check ignores the entry
// being edited.
func (s *Store) Update(_ context.Context, idx int, question, answer string) error {
	question, answer, err := clean(question, answer)
	if err != nil {
		return err
	}

	s.mu.Lock()
	entries, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if idx < 0 || idx >= len(entries) {
		s.mu.Unlock()
		return ErrNotFound
	}
	if dup := findDuplicate(entries, question, idx); dup >= 0 {
		s.mu.Unlock()
		return ErrDuplicate
	}

	// the audit record keeps the values being replaced
	old := entries[idx]
	next := append([]qa.Entry(nil), entries...)
	next[idx] = qa.Entry{Question: question, Answer: answer}
	if err := s.commit(entries, next, qa.ActionEdit, idx, old.Question, old.Answer); err != nil {
		s.mu.Unlock()
		return err
	}
	reload := s.onReload
	s.mu.Unlock()

	log.Info().Int("idx", idx).Str("pergunta", question).Msg("knowledge entry updated")
	if reload != nil {
		reload()
	}
	return nil
}

// Delete removes the entry at idx; later entries move down one position.
func (s *Store) Delete(_ context.Context, idx int) error {
	s.mu.Lock()
	entries, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if idx < 0 || idx >= len(entries) {
		s.mu.Unlock()
		return ErrNotFound
	}

	old := entries[idx]
	next := make([]qa.Entry, 0, len(entries)-1)
	next = append(next, entries[:idx]...)
	next = append(next, entries[idx+1:]...)
	if err := s.commit(entries, next, qa.ActionDelete, idx, old.Question, old.Answer); err != nil {
		s.mu.Unlock()
		return err
	}
	reload := s.onReload
	s.mu.Unlock()

	log.Info().Int("idx", idx).Str("pergunta", old.Question).Msg("knowledge entry deleted")
	if reload != nil {
		reload()
	}
	return nil
}

// commit persists next and records the audit row. When the audit row cannot
// be written the table is restored to prev, so every change on disk has a
// matching audit record.
func (s *Store) commit(prev, next []qa.Entry, action qa.Action, idx int, question, answer string) error {
	if err := s.save(next); err != nil {
		return err
	}
	if err := s.audit(action, idx, question, answer); err != nil {
		if rbErr := s.save(prev); rbErr != nil {
			log.Error().Err(rbErr).Str("acao", string(action)).Int("idx", idx).Msg("failed to restore knowledge table")
		}
		return err
	}
	return nil
}

func (s *Store) load() ([]qa.Entry, error) {
	header, rows, err := readTable(s.path)
	if os.IsNotExist(errors.Cause(err)) {
		if err := writeTable(s.path, tableHeader, nil); err != nil {
			return nil, errors.Wrap(err, "create knowledge table")
		}
		return []qa.Entry{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read knowledge table")
	}

	qCol := columnIndex(header, tableHeader[0], 0)
	aCol := columnIndex(header, tableHeader[1], 1)
	entries := make([]qa.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, qa.Entry{Question: field(row, qCol), Answer: field(row, aCol)})
	}
	return entries, nil
}

func (s *Store) save(entries []qa.Entry) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Question, e.Answer}
	}
	return errors.Wrap(writeTable(s.path, tableHeader, rows), "save knowledge table")
}

func (s *Store) audit(action qa.Action, idx int, question, answer string) error {
	entry := qa.AuditEntry{Action: action, Timestamp: s.now(), Index: idx, Question: question, Answer: answer}
	row := []string{
		string(entry.Action),
		entry.Timestamp.Format(timestampLayout),
		strconv.Itoa(entry.Index),
		entry.Question,
		entry.Answer,
	}
	return errors.Wrap(appendRow(s.auditPath, auditHeader, row), "write audit log")
}

func clean(question, answer string) (string, string, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return "", "", ErrValidation
	}
	return question, answer, nil
}

// findDuplicate returns the index of an entry whose normalized question
// equals question's, skipping except. It returns -1 when there is none.
func findDuplicate(entries []qa.Entry, question string, except int) int {
	target := Normalize(question)
	for i, e := range entries {
		if i == except {
			continue
		}
		if Normalize(e.Question) == target {
			return i
		}
	}
	return -1
}
