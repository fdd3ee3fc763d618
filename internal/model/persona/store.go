package persona

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Store exposes the editable persona instruction.
type Store interface {
	// Load returns the saved persona text. ok is false when nothing usable
	// has been saved.
	Load() (text string, ok bool)
	Save(text string) error
}

// FileStore keeps the persona in a plain UTF-8 text file. The file is read
// on every Load so edits made outside the process are picked up.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persona file and trims surrounding whitespace.
func (s *FileStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

// Save replaces the persona file contents verbatim.
func (s *FileStore) Save(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create persona dir")
		}
	}
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return errors.Wrap(err, "write persona file")
	}
	return nil
}

// LoadOr returns the saved persona or fallback when none is available.
func LoadOr(store Store, fallback string) string {
	if store == nil {
		return fallback
	}
	if text, ok := store.Load(); ok {
		return text
	}
	return fallback
}
