package scoreboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"astrascore/internal/store"
)

// maxWriteAttempts bounds how often a mutation re-reads after losing a
// version race.
const maxWriteAttempts = 5

// Metrics is the subset of collectors the service reports to.
type Metrics interface {
	RecordOperation(ctx context.Context, op, outcome string, d time.Duration)
	RecordConflict(ctx context.Context, op string)
}

type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperation(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordConflict(context.Context, string)                         {}

// Service applies read-modify-write operations to events in a store.
type Service struct {
	store   store.Store
	ids     *IDGenerator
	logger  *slog.Logger
	metrics Metrics
	tracer  trace.Tracer

	seedMu sync.Mutex
	seeded bool
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.logger = l } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithTracer(t trace.Tracer) Option      { return func(s *Service) { s.tracer = t } }
func WithIDGenerator(g *IDGenerator) Option { return func(s *Service) { s.ids = g } }

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:   st,
		ids:     NewIDGenerator(nil),
		logger:  slog.Default(),
		metrics: NoOpMetrics{},
		tracer:  otel.Tracer("astrascore/scoreboard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IDs returns the generator shared with other components.
func (s *Service) IDs() *IDGenerator { return s.ids }

// Seed initializes the events collection with the demo events unless it was
// initialized before. It runs implicitly on first use.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.seeded {
		return false, nil
	}

	demo := DemoEvents()
	seed := make([]store.Record, 0, len(demo))
	for _, e := range demo {
		rec, err := encodeEvent(e)
		if err != nil {
			return false, err
		}
		seed = append(seed, rec)
	}
	did, err := s.store.Init(ctx, store.Events, seed)
	if err != nil {
		return false, fmt.Errorf("seed events: %w", err)
	}
	s.seeded = true
	if did {
		s.logger.Info("seeded events collection", "count", len(seed))
	}
	return did, nil
}

func (s *Service) ListEvents(ctx context.Context) ([]Event, error) {
	if _, err := s.Seed(ctx); err != nil {
		return nil, err
	}
	recs, err := s.store.List(ctx, store.Events)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]Event, 0, len(recs))
	for _, rec := range recs {
		e, err := decodeEvent(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// SearchEvents filters by a case-insensitive name substring and a category;
// an empty category or "all" matches every category.
func (s *Service) SearchEvents(ctx context.Context, query, category string) ([]Event, error) {
	events, err := s.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if query != "" && !strings.Contains(strings.ToLower(e.Name), query) {
			continue
		}
		if category != "" && category != "all" && string(e.Category) != category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	if _, err := s.Seed(ctx); err != nil {
		return Event{}, err
	}
	return s.load(ctx, id)
}

func (s *Service) load(ctx context.Context, id string) (Event, error) {
	rec, err := s.store.Get(ctx, store.Events, id)
	if errors.Is(err, store.ErrNotFound) {
		return Event{}, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Event{}, fmt.Errorf("get event %q: %w", id, err)
	}
	return decodeEvent(rec)
}

// CreateEvent validates in and appends a new upcoming event.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	return s.instrument(ctx, "create_event", "", func(ctx context.Context) (Event, error) {
		e, err := NewEvent(s.ids.EventID(), in)
		if err != nil {
			return Event{}, err
		}
		if _, err := s.Seed(ctx); err != nil {
			return Event{}, err
		}
		out, err := s.PutEvent(ctx, e)
		if err != nil {
			return Event{}, err
		}
		s.logger.Info("event created", "event_id", out.ID, "name", out.Name, "category", out.Category)
		return out, nil
	})
}

// PutEvent writes e as a whole. e.Version must match the stored version (0 for
// a new event); a mismatch surfaces as store.ErrVersionConflict.
func (s *Service) PutEvent(ctx context.Context, e Event) (Event, error) {
	if err := Check(e); err != nil {
		return Event{}, err
	}
	rec, err := encodeEvent(e)
	if err != nil {
		return Event{}, err
	}
	rec, err = s.store.Put(ctx, store.Events, rec)
	if err != nil {
		return Event{}, fmt.Errorf("put event %q: %w", e.ID, err)
	}
	e.Version = rec.Version
	return e, nil
}

func (s *Service) ApplyScoreDelta(ctx context.Context, id string, teamIndex, delta int) (Event, error) {
	return s.mutate(ctx, "apply_score_delta", id, func(e *Event) (bool, error) {
		return true, ApplyScoreDelta(e, teamIndex, delta)
	})
}

func (s *Service) ToggleTimer(ctx context.Context, id string) (Event, error) {
	return s.mutate(ctx, "toggle_timer", id, func(e *Event) (bool, error) {
		ToggleTimer(e)
		return true, nil
	})
}

// TickTimer advances a running clock by one second. A paused clock is left
// alone and nothing is written.
func (s *Service) TickTimer(ctx context.Context, id string) (Event, error) {
	return s.mutate(ctx, "tick_timer", id, func(e *Event) (bool, error) {
		return TickTimer(e), nil
	})
}

func (s *Service) ResetTimer(ctx context.Context, id string) (Event, error) {
	return s.mutate(ctx, "reset_timer", id, func(e *Event) (bool, error) {
		ResetTimer(e)
		return true, nil
	})
}

func (s *Service) AppendLog(ctx context.Context, id, msg string) (Event, error) {
	return s.mutate(ctx, "append_log", id, func(e *Event) (bool, error) {
		return true, AppendLog(e, msg)
	})
}

func (s *Service) SetStatus(ctx context.Context, id string, status Status) (Event, error) {
	return s.mutate(ctx, "set_status", id, func(e *Event) (bool, error) {
		changed := e.Status != status
		return changed, SetStatus(e, status)
	})
}

func (s *Service) SetPeriod(ctx context.Context, id, label string) (Event, error) {
	return s.mutate(ctx, "set_period", id, func(e *Event) (bool, error) {
		return true, SetPeriod(e, label)
	})
}

// mutate runs one read-modify-write cycle. When the write loses a version race
// the event is read again and fn is re-applied to the fresh copy.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(*Event) (bool, error)) (Event, error) {
	return s.instrument(ctx, op, id, func(ctx context.Context) (Event, error) {
		if _, err := s.Seed(ctx); err != nil {
			return Event{}, err
		}
		for attempt := 0; attempt < maxWriteAttempts; attempt++ {
			e, err := s.load(ctx, id)
			if err != nil {
				return Event{}, err
			}
			changed, err := fn(&e)
			if err != nil {
				return Event{}, err
			}
			if !changed {
				return e, nil
			}
			out, err := s.PutEvent(ctx, e)
			if errors.Is(err, store.ErrVersionConflict) {
				s.metrics.RecordConflict(ctx, op)
				s.logger.Debug("event changed underneath write, retrying", "op", op, "event_id", id, "attempt", attempt+1)
				continue
			}
			if err != nil {
				return Event{}, err
			}
			return out, nil
		}
		return Event{}, fmt.Errorf("%s on event %q: %w", op, id, ErrConflict)
	})
}

func (s *Service) instrument(ctx context.Context, op, id string, fn func(ctx context.Context) (Event, error)) (Event, error) {
	ctx, span := s.tracer.Start(ctx, "scoreboard."+op, trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	start := time.Now()
	e, err := fn(ctx)
	outcome := Outcome(err)
	s.metrics.RecordOperation(ctx, op, outcome, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := slog.LevelWarn
		if outcome == "error" {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "event operation failed", "op", op, "event_id", id, "outcome", outcome, "error", err)
		return Event{}, err
	}

	level := slog.LevelInfo
	if op == "tick_timer" {
		level = slog.LevelDebug
	}
	s.logger.Log(ctx, level, "event operation applied", "op", op, "event_id", e.ID, "version", e.Version)
	return e, nil
}

// Outcome classifies an operation error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case IsValidation(err):
		return "invalid"
	case errors.Is(err, ErrConflict), errors.Is(err, store.ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}

func encodeEvent(e Event) (store.Record, error) {
	if e.Teams == nil {
		e.Teams = []Participant{}
	}
	if e.Logs == nil {
		e.Logs = []string{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return store.Record{}, fmt.Errorf("encode event %q: %w", e.ID, err)
	}
	return store.Record{ID: e.ID, Version: e.Version, Data: data}, nil
}

func decodeEvent(rec store.Record) (Event, error) {
	var e Event
	if err := json.Unmarshal(rec.Data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event %q: %w", rec.ID, err)
	}
	e.ID = rec.ID
	e.Version = rec.Version
	if e.Teams == nil {
		e.Teams = []Participant{}
	}
	if e.Logs == nil {
		e.Logs = []string{}
	}
	return e, nil
}
