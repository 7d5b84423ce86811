// Package session keeps the user's email and bearer token between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/newthinker/signaldesk/internal/core"
	"gopkg.in/yaml.v3"
)

// Session is the client's authentication state. The token is opaque and
// never validated locally.
type Session struct {
	Authenticated bool   `yaml:"-"`
	Email         string `yaml:"email"`
	Token         string `yaml:"token"`
}

// Store persists the email+token pair.
type Store interface {
	Load() (*Session, error)
	Save(s Session) error
	Clear() error
}

// FileStore keeps the pair in a YAML file.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path. Nothing is touched until Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the stored pair. A missing file or empty token is ErrNoSession.
func (f *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if s.Token == "" {
		return nil, core.ErrNoSession
	}
	s.Authenticated = true
	return &s, nil
}

// Save writes the pair, readable only by the owner.
func (f *FileStore) Save(s Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	return os.WriteFile(f.path, data, 0600)
}

// Clear removes the file. Clearing an absent session is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// Current makes the file store usable as the identity collaborator.
func (f *FileStore) Current(ctx context.Context) (*Session, error) {
	return f.Load()
}
