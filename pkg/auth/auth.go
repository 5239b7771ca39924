// Package auth supplies the bearer credential attached to gateway requests.
//
// Token storage and refresh belong to the surrounding application; this
// package only provides the TokenSource seam plus the small file store and
// login call the terminal client needs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenSource yields the current access token. An empty token with a nil
// error means "no credential": requests are sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// EnvToken reads the token from an environment variable on every call.
type EnvToken struct {
	Name   string
	Getenv func(string) string
}

// Token implements TokenSource.
func (e EnvToken) Token(context.Context) (string, error) {
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	name := e.Name
	if name == "" {
		name = "SPEAK_TOKEN"
	}
	return strings.TrimSpace(getenv(name)), nil
}

// Chain returns the first non-empty token from its sources.
type Chain []TokenSource

// Token implements TokenSource.
func (c Chain) Token(ctx context.Context) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		tok, err := src.Token(ctx)
		if err != nil {
			return "", err
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", nil
}

// DefaultTokenPath returns ~/.config/vai-speak/token.json.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "vai-speak", "token.json"), nil
}

type tokenFile struct {
	AccessToken string `json:"access_token"`
}

// FileStore persists the access token as JSON on disk.
type FileStore struct {
	Path string

	mu sync.Mutex
}

// NewFileStore creates a store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Token implements TokenSource. A missing file yields no token.
func (s *FileStore) Token(context.Context) (string, error) {
	return s.Load()
}

// Load reads the stored token.
func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file %q: %w", s.Path, err)
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parse token file %q: %w", s.Path, err)
	}
	return strings.TrimSpace(tf.AccessToken), nil
}

// Save writes token with owner-only permissions.
func (s *FileStore) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := json.Marshal(tokenFile{AccessToken: token})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("write token file %q: %w", s.Path, err)
	}
	return nil
}

// Clear removes the stored token.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file %q: %w", s.Path, err)
	}
	return nil
}
