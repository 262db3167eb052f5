package coordinator

import "sync"

// Feed publishes the latest value of a view state. Readers that fall
// behind skip intermediate values but always see the last one.
type Feed[T any] struct {
	mu      sync.Mutex
	value   T
	clone   func(T) T
	readers map[chan T]struct{}
}

func newFeed[T any](initial T, clone func(T) T) *Feed[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Feed[T]{
		value:   initial,
		clone:   clone,
		readers: make(map[chan T]struct{}),
	}
}

// Get returns a copy of the current value.
func (f *Feed[T]) Get() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clone(f.value)
}

// Subscribe returns a channel primed with the current value and a cancel
// function that closes it.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)

	f.mu.Lock()
	f.readers[ch] = struct{}{}
	ch <- f.clone(f.value)
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.readers, ch)
			close(ch)
		})
	}
	return ch, cancel
}

// update applies fn to the value and publishes the result.
func (f *Feed[T]) update(fn func(*T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.value)
	for ch := range f.readers {
		select {
		case <-ch:
		default:
		}
		ch <- f.clone(f.value)
	}
}
