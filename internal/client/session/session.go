// Package session keeps the CLI's token pair between invocations in a small
// JSON file readable only by its owner.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/filex"
)

var ErrNoSession = errors.New("no session")

type Session struct {
	Email        string    `json:"email"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Store reads and writes one session file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load returns ErrNoSession if the file does not exist.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session file %s: %w", s.path, err)
	}
	if sess.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Save replaces the file atomically, creating its directory if needed.
func (s *Store) Save(sess *Session) error {
	if _, err := filex.EnsureDir(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(s.path, data, 0o600)
}

// Clear removes the file; a missing file is fine.
func (s *Store) Clear() error {
	_, err := filex.RemoveIfExists(s.path)
	return err
}
