package player

import (
	"testing"
	"testing/synctest"
)

func TestEventQueue_PreservesOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := newEventQueue()
		defer q.close()

		for i := range 100 {
			q.push(ItemTransition{Index: i})
		}

		for i := range 100 {
			ev := (<-q.out).(ItemTransition)
			if ev.Index != i {
				t.Fatalf("event %d has index %d", i, ev.Index)
			}
		}
	})
}

func TestEventQueue_PushNeverBlocks(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		q := newEventQueue()
		defer q.close()

		// Nobody reads; pushes must still return.
		for range 1000 {
			q.push(IsPlayingChanged{Playing: true})
		}
	})
}

func TestEventQueue_CloseClosesOutput(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := newEventQueue()
		q.push(StateChanged{State: StateReady})
		q.close()
		q.close()
		q.push(StateChanged{State: StateIdle})

		for range q.out {
			// Drain whatever was delivered before close.
		}
		synctest.Wait()
	})
}
