//go:build linux

// Package mpris exposes the playback adapter as an MPRIS media player on
// the D-Bus session bus.
package mpris

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/rs/zerolog"
)

// Adapter connects the playback adapter to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts an MPRIS adapter. covers may be nil.
func New(player Player, covers *CoverCache, log zerolog.Logger) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("rollen", &rootAdapter{}, &playerAdapter{
			player: player,
			covers: covers,
			log:    log,
		}),
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			log.Warn().Err(err).Msg("mpris server stopped")
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error { return nil }

func (r *rootAdapter) Quit() error { return nil }

func (r *rootAdapter) CanQuit() (bool, error) { return false, nil }

func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return "Rollen", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	player Player
	covers *CoverCache
	log    zerolog.Logger
}

func (p *playerAdapter) Next() error { return p.player.Next() }

func (p *playerAdapter) Previous() error { return p.player.Previous() }

func (p *playerAdapter) Pause() error { return p.player.Pause() }

func (p *playerAdapter) PlayPause() error { return p.player.PlayPause() }

func (p *playerAdapter) Stop() error { return p.player.Stop() }

func (p *playerAdapter) Play() error { return p.player.Play() }

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.player.SeekTo(seekTarget(p.player.Snapshot(), time.Duration(offset)*time.Microsecond))
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	// Stale requests for a previous track are ignored.
	if cur, ok := p.player.Snapshot().Current(); !ok || formatTrackID(cur.ID) != trackID {
		return nil
	}
	return p.player.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch playbackStatus(p.player.Snapshot()) {
	case "Playing":
		return types.PlaybackStatusPlaying, nil
	case "Paused":
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	cur, ok := p.player.Snapshot().Current()
	if !ok {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(cur.ID)),
		Length:  types.Microseconds(cur.Duration.Microseconds()),
		Title:   cur.Title,
		Artist:  []string{cur.Artist},
	}

	url, err := p.covers.URL(cur.ID, cur.CoverBase64)
	if err != nil {
		p.log.Debug().Err(err).Int64("track", cur.ID).Msg("cover thumbnail")
	}
	meta.ArtUrl = url

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetVolume(_ float64) error { return nil }

func (p *playerAdapter) Position() (int64, error) {
	return p.player.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error) {
	s := p.player.Snapshot()
	return s.Index >= 0 && s.Index < len(s.Tracks)-1, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.player.Snapshot().Index > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.Snapshot().IsLoaded(), nil
}

func (p *playerAdapter) CanPause() (bool, error) { return true, nil }

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.Snapshot().Duration > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

func formatTrackID(id int64) string {
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%d", id)
}
