package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// envToken is a read-only override for the stored credential, useful in CI
// and scripts. Set/Clear never touch it.
const envToken = "COURSETIDE_TOKEN"

// Store is the single durable cell for the bearer credential. It holds at
// most one token in a file under the user's home directory; nothing else in
// the process may persist a credential.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by ~/.coursetide/token.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	return &Store{path: filepath.Join(home, ".coursetide", "token")}, nil
}

// NewStoreAt returns a store backed by an explicit file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Set persists the credential, replacing any previous one.
func (s *Store) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Token returns the credential using precedence: env var > file > empty.
// An empty return means no credential is held.
func (s *Store) Token() string {
	if tok := os.Getenv(envToken); tok != "" {
		return tok
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Clear removes the credential. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
