package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/chartmark/internal/annotate"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// DocumentInfo describes a stored document without its shapes.
type DocumentInfo struct {
	Name       string    `json:"name"`
	ShapeCount int       `json:"shape_count"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Store manages named annotation documents on disk.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("annotation store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) validateName(name string) error {
	if !nameRe.MatchString(name) || strings.Contains(name, "..") {
		return annotate.NewError(annotate.CodeValidation, fmt.Sprintf("invalid document name: %q", name), nil)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the document under the given name.
func (s *Store) Save(name string, doc Document) error {
	if err := s.validateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteFile(s.path(name), doc)
}

// Load reads the named document. Missing documents surface as NOT_FOUND.
func (s *Store) Load(name string) (Document, error) {
	if err := s.validateName(name); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ReadFile(s.path(name))
}

// Delete removes the named document.
func (s *Store) Delete(name string) error {
	if err := s.validateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return annotate.NewError(annotate.CodeNotFound, "document not found: "+name, nil)
		}
		return fmt.Errorf("annotation store: remove %s: %w", name, err)
	}
	return nil
}

// List returns all stored documents sorted by name.
func (s *Store) List() ([]DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("annotation store: glob: %w", err)
	}

	infos := make([]DocumentInfo, 0, len(matches))
	for _, path := range matches {
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		doc, err := ReadFile(path)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		infos = append(infos, DocumentInfo{
			Name:       name,
			ShapeCount: len(doc.Shapes),
			ModifiedAt: st.ModTime().UTC(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
