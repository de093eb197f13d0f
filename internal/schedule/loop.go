// Package schedule runs repeating background work behind a stop handle.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Handle controls one running loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Every calls fn once per interval until ctx is done, Stop is called, or fn
// returns false. The first call happens after one interval.
func Every(ctx context.Context, interval time.Duration, fn func(ctx context.Context) bool) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !fn(ctx) {
					return
				}
			}
		}
	}()
	return h
}

// Stop cancels the loop and waits for the running iteration to finish. It is
// safe to call more than once and from several goroutines.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
