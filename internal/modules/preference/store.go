package preference

import (
	"fmt"
	"strings"
	"sync"

	"github.com/georgemunganga/product-store/internal/apperr"
)

const (
	ThemeKey     = "preferred-theme"
	DefaultTheme = "sunset"
)

var ErrEmptyTheme = apperr.Validation("theme must not be empty")

// Store holds the preferred theme. The backend is read on first Get and the
// value is cached afterwards; Set writes through.
type Store struct {
	backend Backend

	mu     sync.Mutex
	loaded bool
	theme  string
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.theme, nil
	}
	v, ok, err := s.backend.Load(ThemeKey)
	if err != nil {
		return "", fmt.Errorf("loading theme: %w", err)
	}
	if !ok || v == "" {
		v = DefaultTheme
	}
	s.theme, s.loaded = v, true
	return v, nil
}

func (s *Store) Set(theme string) error {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return ErrEmptyTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Save(ThemeKey, theme); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	s.theme, s.loaded = theme, true
	return nil
}
