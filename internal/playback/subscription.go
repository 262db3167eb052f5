package playback

const updateBufferSize = 64

// Subscription delivers the state stream to one consumer.
type Subscription struct {
	Updates <-chan Update
	Done    <-chan struct{}

	updatesCh chan Update
	doneCh    chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		updatesCh: make(chan Update, updateBufferSize),
		doneCh:    make(chan struct{}),
	}
	s.Updates = s.updatesCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// send delivers u without blocking. A subscriber that falls a full buffer
// behind loses updates; Snapshot always has the latest state.
func (s *Subscription) send(u Update) {
	select {
	case s.updatesCh <- u:
	default:
	}
}
