package playback

import (
	"testing"
	"testing/synctest"
)

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	for range updateBufferSize + 5 {
		sub.send(Idle{})
	}

	if got := len(sub.Updates); got != updateBufferSize {
		t.Errorf("buffered %d updates, want %d (buffer size)", got, updateBufferSize)
	}
}
