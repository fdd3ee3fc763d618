package knowledge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/naga-ia/agente/backend/internal/model/qa"
)

var unansweredHeader = []string{"data_hora", "pergunta", "resposta"}

// UnansweredLog collects exchanges the knowledge base could not answer so
// they can be reviewed and turned into new entries.
type UnansweredLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewUnansweredLog returns a log appending to path.
func NewUnansweredLog(path string) *UnansweredLog {
	return &UnansweredLog{path: path, now: time.Now}
}

// Append records one exchange.
func (l *UnansweredLog) Append(_ context.Context, question, answer string) (qa.UnansweredEntry, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return qa.UnansweredEntry{}, ErrValidation
	}

	entry := qa.UnansweredEntry{Timestamp: l.now(), Question: question, Answer: answer}

	l.mu.Lock()
	defer l.mu.Unlock()
	row := []string{entry.Timestamp.Format(timestampLayout), entry.Question, entry.Answer}
	if err := appendRow(l.path, unansweredHeader, row); err != nil {
		return qa.UnansweredEntry{}, errors.Wrap(err, "append unanswered question")
	}
	return entry, nil
}
