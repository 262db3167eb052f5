package playback

import (
	"context"
	"time"
)

// sampler posts a progress tick to the reducer every interval until
// cancelled. The reducer keeps at most one alive.
type sampler struct {
	cancel context.CancelFunc
}

// startSampler replaces any running sampler. Reducer only.
func (a *Adapter) startSampler() {
	a.stopSampler()

	a.samplerGen++
	gen := a.samplerGen
	ctx, cancel := context.WithCancel(context.Background())
	a.sampler = &sampler{cancel: cancel}

	a.activeSamplers.Add(1)
	go func() {
		defer a.activeSamplers.Add(-1)
		ticker := time.NewTicker(a.progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.submit(func() { a.sample(gen) }); err != nil {
					return
				}
			}
		}
	}()
}

func (a *Adapter) stopSampler() {
	if a.sampler == nil {
		return
	}
	a.sampler.cancel()
	a.sampler = nil
}

// sample publishes the engine position. Ticks from a superseded sampler
// are dropped.
func (a *Adapter) sample(gen uint64) {
	if a.sampler == nil || gen != a.samplerGen {
		return
	}
	pos := a.engine.Position()
	a.mutate(func(s *Session) { s.Position = pos })
	a.emit(Progress{Position: pos})
}
