package scoreboard

import (
	"context"
	"time"

	"astrascore/internal/schedule"
)

// DefaultPollInterval is how often boards re-read their event.
const DefaultPollInterval = time.Second

type EventGetter interface {
	GetEvent(ctx context.Context, id string) (Event, error)
}

// Watch polls id every interval and calls onChange with the first snapshot and
// then whenever the stored version moves. onError may be nil. The returned
// handle stops the polling.
func Watch(ctx context.Context, src EventGetter, id string, interval time.Duration, onChange func(Event), onError func(error)) *schedule.Handle {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var last int64 = -1
	poll := func(ctx context.Context) bool {
		e, err := src.GetEvent(ctx, id)
		if err != nil {
			if onError != nil && ctx.Err() == nil {
				onError(err)
			}
			return true
		}
		if e.Version != last {
			last = e.Version
			onChange(e)
		}
		return true
	}

	poll(ctx)
	return schedule.Every(ctx, interval, poll)
}
