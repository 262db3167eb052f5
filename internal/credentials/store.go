// Package credentials keeps the session token encrypted at rest and
// publishes whether the user is logged in.
package credentials

import (
	"crypto/cipher"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/state"
)

const tokenKey = "access_token"

// Store is the credential store. It is the only writer of the logged-in
// signal.
type Store struct {
	secrets state.Secrets
	aead    cipher.AEAD
	log     zerolog.Logger

	mu       sync.Mutex
	token    string
	watchers map[*Watch]struct{}
}

// Open creates a store whose key lives in dataDir (the XDG data directory
// when empty). An unreadable key file is replaced with a new key, which
// leaves any stored token unreadable and the store logged out. When the
// file cannot be rewritten the key is kept in memory for this run.
func Open(dataDir string, secrets state.Secrets, log zerolog.Logger) (*Store, error) {
	path, err := keyPath(dataDir)
	if err != nil {
		return nil, err
	}
	key, err := loadOrCreateKey(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("credential key unusable, generating a new one")
		key, err = createKey(path)
	}
	if err != nil {
		log.Warn().Err(err).Msg("cannot persist credential key, using a session-only key")
		if key, err = randomKey(); err != nil {
			return nil, err
		}
	}
	return New(key, secrets, log)
}

// New creates a store using key for AES-256-GCM. The stored token is
// decrypted once here; a token that cannot be read counts as logged out.
func New(key []byte, secrets state.Secrets, log zerolog.Logger) (*Store, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	s := &Store{
		secrets:  secrets,
		aead:     aead,
		log:      log,
		watchers: make(map[*Watch]struct{}),
	}
	s.token = s.load()
	return s, nil
}

func (s *Store) load() string {
	encoded, ok, err := s.secrets.GetSecret(tokenKey)
	if err != nil {
		s.log.Error().Err(err).Msg("read stored token")
		return ""
	}
	if !ok {
		return ""
	}
	token, err := open(s.aead, encoded)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored token unreadable, treating as logged out")
		return ""
	}
	return token
}

// SaveAccessToken encrypts and persists token. On failure the store is
// left logged out.
func (s *Store) SaveAccessToken(token string) error {
	if token == "" {
		s.Logout()
		return nil
	}

	encoded, err := seal(s.aead, token)
	if err == nil {
		err = s.secrets.SetSecret(tokenKey, encoded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("save token")
		s.setLocked("")
		return fmt.Errorf("save token: %w", err)
	}
	s.setLocked(token)
	return nil
}

// AccessToken returns the current token, or "" when logged out.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsLoggedIn reports whether a token is available.
func (s *Store) IsLoggedIn() bool {
	return s.AccessToken() != ""
}

// Logout clears the token. Storage failures are logged; the in-memory
// state is cleared regardless.
func (s *Store) Logout() {
	if err := s.secrets.DeleteSecret(tokenKey); err != nil {
		s.log.Error().Err(err).Msg("delete stored token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked("")
}

func (s *Store) setLocked(token string) {
	s.token = token
	loggedIn := token != ""
	for w := range s.watchers {
		w.publish(loggedIn)
	}
}

// Watch returns a subscription to the logged-in signal. The current value
// is available immediately.
func (s *Store) Watch() *Watch {
	ch := make(chan bool, 1)
	w := &Watch{C: ch, ch: ch, store: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers[w] = struct{}{}
	w.publish(s.token != "")
	return w
}

// Watch delivers the latest logged-in value. Intermediate values may be
// skipped if the reader is slow; the last one is never lost.
type Watch struct {
	C     <-chan bool
	ch    chan bool
	store *Store
}

// publish must be called with the store mutex held.
func (w *Watch) publish(v bool) {
	select {
	case <-w.ch:
	default:
	}
	w.ch <- v
}

// Close stops delivery and closes C.
func (w *Watch) Close() {
	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watchers[w]; !ok {
		return
	}
	delete(s.watchers, w)
	close(w.ch)
}
