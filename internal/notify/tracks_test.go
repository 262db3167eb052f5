package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/rollen/internal/playback"
	"github.com/llehouerou/rollen/internal/player"
)

// mockNotifier records notifications for testing.
type mockNotifier struct {
	mu            sync.Mutex
	notifications []Notification
	lastID        uint32
	err           error
}

func (m *mockNotifier) Notify(n Notification) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.lastID++
	m.notifications = append(m.notifications, n)
	return m.lastID, nil
}

func (m *mockNotifier) Close(_ uint32) error { return nil }

func (m *mockNotifier) sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.notifications...)
}

type fakeCovers map[int64]string

func (f fakeCovers) Path(id int64, _ string) (string, error) {
	return f[id], nil
}

func TestAnnounce(t *testing.T) {
	mock := &mockNotifier{}
	a := NewAnnouncer(mock, fakeCovers{1: "/tmp/1.png"}, zerolog.Nop())

	a.Announce(playback.Track{ID: 1, Title: "Alpha", Artist: "Ann"})
	a.Announce(playback.Track{ID: 1, Title: "Alpha", Artist: "Ann"})
	a.Announce(playback.Track{ID: 2, Title: "Beta", Artist: "Bob"})

	sent := mock.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, Notification{
		Summary:   "Alpha",
		Body:      "Ann",
		Image:     "/tmp/1.png",
		Timeout:   trackTimeout,
		Urgency:   UrgencyLow,
		Transient: true,
	}, sent[0])
	assert.Equal(t, "Beta", sent[1].Summary)
	assert.Empty(t, sent[1].Image)
	assert.Equal(t, uint32(1), sent[1].Replaces)
}

func TestAnnounce_NotifierError(t *testing.T) {
	mock := &mockNotifier{err: errors.New("no bus")}
	a := NewAnnouncer(mock, nil, zerolog.Nop())

	a.Announce(playback.Track{ID: 1, Title: "Alpha"})

	assert.Empty(t, mock.sent())
	assert.Zero(t, a.lastID)
}

func TestAnnouncerFollowsPlayback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		adapter := playback.New(player.NewMock())
		defer func() { _ = adapter.Release() }()
		mock := &mockNotifier{}
		a := NewAnnouncer(mock, nil, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- a.Run(ctx, adapter.Subscribe(), adapter.Snapshot) }()
		synctest.Wait()

		tracks := []playback.Track{
			{ID: 1, Title: "Alpha", Artist: "Ann", Duration: time.Minute},
			{ID: 2, Title: "Beta", Artist: "Bob", Duration: time.Minute},
		}
		require.NoError(t, adapter.LoadSequence(tracks, 0))
		require.NoError(t, adapter.Play())
		synctest.Wait()
		require.NoError(t, adapter.Next())
		synctest.Wait()

		sent := mock.sent()
		require.Len(t, sent, 2)
		assert.Equal(t, "Alpha", sent[0].Summary)
		assert.Equal(t, "Beta", sent[1].Summary)

		require.NoError(t, adapter.Release())
		assert.NoError(t, <-done)
	})
}
