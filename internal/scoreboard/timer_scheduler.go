package scoreboard

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"astrascore/internal/schedule"
)

// Ticker advances an event clock by one second.
type Ticker interface {
	TickTimer(ctx context.Context, id string) (Event, error)
}

// RunningGauge receives the number of clocks being ticked.
type RunningGauge interface {
	SetRunningTimers(n int)
}

// TimerScheduler owns one tick loop per running event clock, so a clock
// advances once per interval no matter how many views are open on it.
type TimerScheduler struct {
	ctx      context.Context
	ticker   Ticker
	interval time.Duration
	logger   *slog.Logger
	gauge    RunningGauge

	mu    sync.Mutex
	loops map[string]*schedule.Handle
}

// NewTimerScheduler ties every loop to ctx; cancelling it stops them all.
// gauge may be nil.
func NewTimerScheduler(ctx context.Context, t Ticker, interval time.Duration, logger *slog.Logger, gauge RunningGauge) *TimerScheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &TimerScheduler{
		ctx:      ctx,
		ticker:   t,
		interval: interval,
		logger:   logger,
		gauge:    gauge,
		loops:    make(map[string]*schedule.Handle),
	}
}

// Start begins ticking id unless it is already being ticked. The loop ends on
// its own once the clock is found paused or the event disappears.
func (s *TimerScheduler) Start(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.loops[id]; ok {
		select {
		case <-cur.Done():
			// Exited but not yet forgotten.
			delete(s.loops, id)
		default:
			return false
		}
	}

	h := schedule.Every(s.ctx, s.interval, func(ctx context.Context) bool {
		e, err := s.ticker.TickTimer(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			s.logger.Warn("stopping clock of missing event", "event_id", id)
			return false
		case err != nil:
			if ctx.Err() == nil {
				s.logger.Error("tick failed", "event_id", id, "error", err)
			}
			return true
		}
		return e.Timer.IsRunning
	})
	s.loops[id] = h
	s.report()
	s.logger.Info("clock started", "event_id", id, "interval", s.interval)

	go func() {
		<-h.Done()
		s.forget(id, h)
	}()
	return true
}

// Stop ends the loop for id and waits for it to exit.
func (s *TimerScheduler) Stop(id string) {
	s.mu.Lock()
	h, ok := s.loops[id]
	if ok {
		delete(s.loops, id)
		s.report()
	}
	s.mu.Unlock()

	if ok {
		h.Stop()
		s.logger.Info("clock stopped", "event_id", id)
	}
}

// Sync starts or stops the loop to match the event's clock state. Only
// time-based categories get a loop.
func (s *TimerScheduler) Sync(e Event) {
	if ticks(e) {
		s.Start(e.ID)
		return
	}
	s.Stop(e.ID)
}

// Resume starts loops for every running clock of a time-based event.
func (s *TimerScheduler) Resume(events []Event) int {
	n := 0
	for _, e := range events {
		if ticks(e) && s.Start(e.ID) {
			n++
		}
	}
	return n
}

// Running lists the ids currently ticked, sorted.
func (s *TimerScheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.loops))
	for id := range s.loops {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// StopAll ends every loop and waits for them.
func (s *TimerScheduler) StopAll() {
	s.mu.Lock()
	loops := s.loops
	s.loops = make(map[string]*schedule.Handle)
	s.report()
	s.mu.Unlock()

	for _, h := range loops {
		h.Stop()
	}
}

func ticks(e Event) bool {
	return e.Timer.IsRunning && e.Category.TimeBased()
}

func (s *TimerScheduler) forget(id string, h *schedule.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.loops[id]; ok && cur == h {
		delete(s.loops, id)
		s.report()
		s.logger.Info("clock loop exited", "event_id", id)
	}
}

// report must be called with mu held.
func (s *TimerScheduler) report() {
	if s.gauge != nil {
		s.gauge.SetRunningTimers(len(s.loops))
	}
}
