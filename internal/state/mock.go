package state

import (
	"database/sql"
	"sync"
)

// Mock is a test double for Manager.
type Mock struct {
	mu      sync.Mutex
	session *SessionState
	secrets map[string]string
	saves   int
	closed  bool

	// SecretErr, when set, is returned by every secret operation.
	SecretErr error
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{secrets: make(map[string]string)}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) SaveSession(state SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &state
	m.saves++
}

func (m *Mock) GetSession() (*SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return &SessionState{CurrentIndex: -1}, nil
	}
	s := *m.session
	return &s, nil
}

func (m *Mock) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *Mock) GetSecret(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SecretErr != nil {
		return "", false, m.SecretErr
	}
	v, ok := m.secrets[key]
	return v, ok, nil
}

func (m *Mock) SetSecret(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SecretErr != nil {
		return m.SecretErr
	}
	m.secrets[key] = value
	return nil
}

func (m *Mock) DeleteSecret(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SecretErr != nil {
		return m.SecretErr
	}
	delete(m.secrets, key)
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetSession(state *SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = state
}

func (m *Mock) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
