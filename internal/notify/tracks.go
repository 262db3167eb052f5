package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/playback"
)

const trackTimeout = 5 * time.Second

// CoverSource resolves a track cover to a local image path.
type CoverSource interface {
	Path(id int64, encoded string) (string, error)
}

// Announcer posts a notification when the current track changes. Each
// notification replaces the previous one.
type Announcer struct {
	notifier Notifier
	covers   CoverSource
	log      zerolog.Logger

	lastID    uint32
	lastTrack int64
}

// NewAnnouncer creates an Announcer. covers may be nil.
func NewAnnouncer(n Notifier, covers CoverSource, log zerolog.Logger) *Announcer {
	return &Announcer{notifier: n, covers: covers, log: log, lastTrack: -1}
}

// Run announces track changes from sub until ctx is done or the
// subscription ends. snapshot supplies artwork for the current track.
func (a *Announcer) Run(ctx context.Context, sub *playback.Subscription, snapshot func() playback.Session) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Done:
			return nil
		case u := <-sub.Updates:
			cur, ok := u.(playback.Current)
			if !ok {
				continue
			}
			t := playback.Track{ID: cur.TrackID, Title: cur.Title, Artist: cur.Artist}
			if s, ok := snapshot().Current(); ok && s.ID == cur.TrackID {
				t = s
			}
			a.Announce(t)
		}
	}
}

// Announce notifies about t unless it is already the announced track.
func (a *Announcer) Announce(t playback.Track) {
	if t.ID == a.lastTrack {
		return
	}
	a.lastTrack = t.ID

	n := Notification{
		Summary:   t.Title,
		Body:      t.Artist,
		Timeout:   trackTimeout,
		Replaces:  a.lastID,
		Urgency:   UrgencyLow,
		Transient: true,
	}
	if a.covers != nil {
		icon, err := a.covers.Path(t.ID, t.CoverBase64)
		if err != nil {
			a.log.Debug().Err(err).Int64("track", t.ID).Msg("notification cover")
		}
		n.Image = icon
	}

	id, err := a.notifier.Notify(n)
	if err != nil {
		a.log.Warn().Err(err).Msg("track notification")
		return
	}
	a.lastID = id
}
