// Package file keeps the session slot as a JSON file on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/and161185/prismcms/internal/model"
	"github.com/and161185/prismcms/internal/repository"
)

var _ repository.SessionSlot = (*Slot)(nil)

// Slot stores the session record at a fixed path with owner-only permissions.
type Slot struct{ path string }

// NewSlot returns a slot backed by path. Parent directories are created on Save.
func NewSlot(path string) *Slot { return &Slot{path: path} }

// DefaultPath is <user config dir>/prismcms/<name>, honoring XDG_CONFIG_HOME.
func DefaultPath(name string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "prismcms", name)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "prismcms", name)
}

// Path reports where the slot lives.
func (s *Slot) Path() string { return s.path }

// Load reads the slot; a missing file is an empty slot.
func (s *Slot) Load(ctx context.Context) (*model.StoredSession, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ss model.StoredSession
	if err := json.Unmarshal(b, &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

// Save writes the record atomically via a temp file and rename.
func (s *Slot) Save(ctx context.Context, ss model.StoredSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(ss, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the file if present.
func (s *Slot) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
