package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/rollen/internal/db"
)

// SessionTrack is a track in the saved playback sequence.
type SessionTrack struct {
	TrackID  int64
	Title    string
	Author   string
	Duration time.Duration
}

// SessionState is the last playback sequence, restored on start.
type SessionState struct {
	CurrentIndex int
	Position     time.Duration
	PlaylistID   int64 // 0 when the sequence did not come from a playlist
	Tracks       []SessionTrack
}

func getSession(db *sql.DB) (*SessionState, error) {
	var currentIndex int
	var positionMS int64
	var playlistID sql.NullInt64
	row := db.QueryRow(`SELECT current_index, position_ms, playlist_id FROM session_state WHERE id = 1`)
	err := row.Scan(&currentIndex, &positionMS, &playlistID)
	if errors.Is(err, sql.ErrNoRows) {
		return &SessionState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT track_id, title, author, duration_ms
		FROM session_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []SessionTrack
	for rows.Next() {
		var t SessionTrack
		var author sql.NullString
		var durationMS sql.NullInt64

		if err := rows.Scan(&t.TrackID, &t.Title, &author, &durationMS); err != nil {
			return nil, err
		}

		t.Author = dbutil.NullStringValue(author)
		t.Duration = time.Duration(dbutil.NullInt64Value(durationMS)) * time.Millisecond
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tracks) == 0 || currentIndex >= len(tracks) {
		currentIndex = -1
	}

	return &SessionState{
		CurrentIndex: currentIndex,
		Position:     time.Duration(positionMS) * time.Millisecond,
		PlaylistID:   dbutil.NullInt64Value(playlistID),
		Tracks:       tracks,
	}, nil
}

func saveSession(ctx context.Context, sqlDB *sql.DB, state SessionState) error {
	return dbutil.WithTx(ctx, sqlDB, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM session_tracks`); err != nil {
			return err
		}

		var playlistID any
		if state.PlaylistID > 0 {
			playlistID = state.PlaylistID
		}
		_, err := tx.Exec(`
			INSERT INTO session_state (id, current_index, position_ms, playlist_id, updated_at)
			VALUES (1, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				position_ms = excluded.position_ms,
				playlist_id = excluded.playlist_id,
				updated_at = excluded.updated_at
		`, state.CurrentIndex, state.Position.Milliseconds(), playlistID, time.Now().Unix())
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO session_tracks (position, track_id, title, author, duration_ms)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range state.Tracks {
			if _, err := stmt.Exec(i, t.TrackID, t.Title, t.Author, t.Duration.Milliseconds()); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearSession forgets the saved sequence, cancelling any pending save.
func (m *Manager) ClearSession() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	m.pending = nil
	m.saveMu.Unlock()

	return dbutil.WithTx(context.Background(), m.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM session_tracks`); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM session_state`)
		return err
	})
}
