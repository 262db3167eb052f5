package state

import (
	"database/sql"
	"errors"
	"time"
)

// GetSecret returns the stored value for key and whether it exists.
func (m *Manager) GetSecret(key string) (string, bool, error) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (m *Manager) SetSecret(key, value string) error {
	_, err := m.db.Exec(`
		INSERT INTO secrets (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

func (m *Manager) DeleteSecret(key string) error {
	_, err := m.db.Exec(`DELETE FROM secrets WHERE key = ?`, key)
	return err
}
