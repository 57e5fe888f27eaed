// Package session holds the bearer credential and cached profile for the
// remote API. The store is an injected dependency, not a global: transports
// read the token from it on every request and clear it when the server
// rejects the credential.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Profile is the cached user record returned by the auth endpoints. The
// store treats it as opaque JSON.
type Profile map[string]any

type persisted struct {
	Token   string  `json:"token,omitempty"`
	Profile Profile `json:"profile,omitempty"`
}

// Store is a single mutable cell holding the current credential. A cleared
// credential is immediately visible to every subsequent reader.
type Store struct {
	mu     sync.Mutex
	path   string // empty means memory-only (tests, service tokens)
	logger *slog.Logger
	state  persisted
}

// Open loads the session persisted at path. A missing or unreadable file is
// a valid logged-out state, never an error. An empty path disables
// persistence entirely.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Could not read session file, starting logged out", "path", path, "error", err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		logger.Warn("Corrupt session file, starting logged out", "path", path, "error", err)
		s.state = persisted{}
	}
	return s
}

// Token returns the current bearer credential, or "" when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// LoggedIn reports whether a credential is present.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

// Profile returns the cached user record. Without a credential the cached
// profile is stale by definition, so nil is returned instead.
func (s *Store) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token == "" {
		return nil
	}
	return s.state.Profile
}

// SetCredentials stores the token and profile and persists them.
func (s *Store) SetCredentials(token string, profile Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = persisted{Token: token, Profile: profile}
	s.persistLocked()
}

// Clear drops the credential and cached profile and removes the persisted
// state. Called on explicit logout and on a 401 from the server.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = persisted{}
	if s.path == "" {
		return
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Could not remove session file", "path", s.path, "error", err)
	}
}

// ExpiresAt returns the credential's expiry when the token is a JWT with an
// exp claim. The signature is not verified; this is a best-effort local
// check, the server remains the authority. Opaque tokens report no expiry.
func (s *Store) ExpiresAt() (time.Time, bool) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// persistLocked writes the state to disk. Persistence failures are logged,
// not returned: a read-only disk must not break API calls.
func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Warn("Could not create session directory", "path", s.path, "error", err)
		return
	}
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Warn("Could not encode session", "error", err)
		return
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		s.logger.Warn("Could not persist session", "path", s.path, "error", err)
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}
