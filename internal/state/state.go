package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	dbutil "github.com/llehouerou/rollen/internal/db"
)

const (
	appName      = "rollen"
	dbFileName   = "rollen.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db        *sql.DB
	log       zerolog.Logger
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *SessionState
}

// Open opens the state database. An empty dataDir uses the XDG data
// directory.
func Open(dataDir string, log zerolog.Logger) (*Manager, error) {
	dbPath, err := getDBPath(dataDir)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}

	sqlDB, err := dbutil.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return newManager(sqlDB, log)
}

func newManager(sqlDB *sql.DB, log zerolog.Logger) (*Manager, error) {
	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Manager{db: sqlDB, log: log}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	// Flush pending state
	if pending != nil {
		m.flush(*pending)
	}

	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

func (m *Manager) GetSession() (*SessionState, error) {
	return getSession(m.db)
}

// SaveSession persists the session after a short quiet period. Rapid
// successive saves collapse into one write.
func (m *Manager) SaveSession(state SessionState) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &state

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			m.flush(*pending)
		}
	})
}

func (m *Manager) flush(state SessionState) {
	if err := saveSession(context.Background(), m.db, state); err != nil {
		m.log.Error().Err(err).Msg("save playback session")
	}
}

func getDBPath(dataDir string) (string, error) {
	if dataDir != "" {
		return filepath.Join(dataDir, dbFileName), nil
	}
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
