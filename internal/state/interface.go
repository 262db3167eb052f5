package state

import "database/sql"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	DB() *sql.DB
	SaveSession(state SessionState)
	GetSession() (*SessionState, error)
	ClearSession() error
	Secrets
	Close() error
}

// Secrets is the key-value store used for encrypted credentials.
type Secrets interface {
	GetSecret(key string) (string, bool, error)
	SetSecret(key, value string) error
	DeleteSecret(key string) error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
