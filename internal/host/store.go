package host

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// metaFile sits next to server.properties and remembers what the panel knows
// about an instance that the server itself does not record.
const metaFile = ".mcserver.yaml"

type Meta struct {
	Version   string    `yaml:"version,omitempty"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
	// Optional per-instance launch override.
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path(folder string) string {
	return filepath.Join(s.Dir, folder, metaFile)
}

// Load returns the folder's metadata. A missing file yields a zero Meta.
func (s *Store) Load(folder string) (Meta, error) {
	b, err := os.ReadFile(s.path(folder))
	if errors.Is(err, fs.ErrNotExist) {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, fmt.Errorf("read %s meta: %w", folder, err)
	}

	var m Meta
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Meta{}, fmt.Errorf("parse %s meta: %w", folder, err)
	}
	return m, nil
}

func (s *Store) Save(folder string, m Meta) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	p := s.path(folder)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("mkdir parent: %w", err)
	}

	// Atomic write: write temp then rename
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("write temp meta file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename temp -> meta file: %w", err)
	}
	return nil
}
