package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stablemind-ai/stablemind/internal/domain"
)

// FilePersonaStore persists one persona.json per session under the data
// directory. Saves go through a temp file and rename so a crashed turn
// never leaves a half-written persona behind.
type FilePersonaStore struct {
	dir string
}

func NewFilePersonaStore(dir string) *FilePersonaStore {
	return &FilePersonaStore{dir: dir}
}

func (s *FilePersonaStore) path(sessionID string) string {
	return filepath.Join(s.dir, "sessions", sessionID, "persona.json")
}

func (s *FilePersonaStore) Load(ctx context.Context, sessionID string) (*domain.Persona, error) {
	b, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read persona: %w", err)
	}

	var p domain.Persona
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	return &p, nil
}

func (s *FilePersonaStore) Save(ctx context.Context, sessionID string, p *domain.Persona) error {
	path := s.path(sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal persona: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write persona: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace persona: %w", err)
	}
	return nil
}
