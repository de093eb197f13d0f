// Package festival stores multi-event festivals and keeps every stage
// scoreboard mirrored as a standalone event.
package festival

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"astrascore/internal/scoreboard"
	"astrascore/internal/store"
)

const maxWriteAttempts = 5

// Events reads and writes the standalone board events.
type Events interface {
	GetEvent(ctx context.Context, id string) (scoreboard.Event, error)
	PutEvent(ctx context.Context, e scoreboard.Event) (scoreboard.Event, error)
}

type Service struct {
	store   store.Store
	events  Events
	ids     *scoreboard.IDGenerator
	points  PointTable
	logger  *slog.Logger
	metrics scoreboard.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option                 { return func(s *Service) { s.logger = l } }
func WithMetrics(m scoreboard.Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithTracer(t trace.Tracer) Option                 { return func(s *Service) { s.tracer = t } }
func WithIDGenerator(g *scoreboard.IDGenerator) Option { return func(s *Service) { s.ids = g } }
func WithPointTable(p PointTable) Option               { return func(s *Service) { s.points = p } }

func NewService(st store.Store, events Events, opts ...Option) *Service {
	s := &Service{
		store:   st,
		events:  events,
		ids:     scoreboard.NewIDGenerator(nil),
		points:  DefaultPointTable,
		logger:  slog.Default(),
		metrics: scoreboard.NoOpMetrics{},
		tracer:  otel.Tracer("astrascore/festival"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListFestivals(ctx context.Context) ([]Festival, error) {
	recs, err := s.store.List(ctx, store.Festivals)
	if err != nil {
		return nil, fmt.Errorf("list festivals: %w", err)
	}
	out := make([]Festival, 0, len(recs))
	for _, rec := range recs {
		f, err := decodeFestival(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Service) GetFestival(ctx context.Context, id string) (Festival, error) {
	rec, err := s.store.Get(ctx, store.Festivals, id)
	if errors.Is(err, store.ErrNotFound) {
		return Festival{}, fmt.Errorf("festival %q: %w", id, scoreboard.ErrNotFound)
	}
	if err != nil {
		return Festival{}, fmt.Errorf("get festival %q: %w", id, err)
	}
	return decodeFestival(rec)
}

// SaveFestival validates f, assigns its id, creation time and board ids when
// missing, upserts it and then projects its boards. A festival saved with
// version 0 replaces any stored copy; a positive version must match.
//
// When projection fails the festival is still saved and returned alongside the
// error; the next reconcile repairs the boards.
func (s *Service) SaveFestival(ctx context.Context, f Festival) (Festival, error) {
	var out Festival
	err := s.instrument(ctx, "save_festival", f.ID, func(ctx context.Context) error {
		f = f.Clone()
		if f.ID == "" {
			f.ID = s.ids.FestivalID()
		}
		if err := prepare(&f, s.ids.BoardID); err != nil {
			return err
		}
		if err := s.checkOwnership(ctx, f); err != nil {
			return err
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = s.ids.Now().UTC()
		}

		rec, err := encodeFestival(f)
		if err != nil {
			return err
		}
		if rec.Version == 0 {
			rec.Version = store.Unversioned
		}
		rec, err = s.store.Put(ctx, store.Festivals, rec)
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.RecordConflict(ctx, "save_festival")
			return fmt.Errorf("festival %q was changed by someone else: %w", f.ID, scoreboard.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("put festival %q: %w", f.ID, err)
		}
		f.Version = rec.Version
		out = f

		n, err := s.project(ctx, f)
		if err != nil {
			return fmt.Errorf("festival %q saved, projecting boards: %w", f.ID, err)
		}
		s.logger.Info("festival saved", "festival_id", f.ID, "name", f.Name, "boards", n)
		return nil
	})
	return out, err
}

// Reconcile re-derives the standalone events of one festival and reports how
// many were written.
func (s *Service) Reconcile(ctx context.Context, id string) (int, error) {
	var written int
	err := s.instrument(ctx, "reconcile", id, func(ctx context.Context) error {
		f, err := s.GetFestival(ctx, id)
		if err != nil {
			return err
		}
		written, err = s.project(ctx, f)
		return err
	})
	return written, err
}

// ReconcileAll reconciles every festival. It keeps going past failures and
// returns them joined.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	festivals, err := s.ListFestivals(ctx)
	if err != nil {
		return 0, err
	}
	var (
		total int
		errs  []error
	)
	for _, f := range festivals {
		n, err := s.project(ctx, f)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("festival %q: %w", f.ID, err))
		}
	}
	return total, errors.Join(errs...)
}

func (s *Service) Stats(ctx context.Context, id string) (Stats, error) {
	f, err := s.GetFestival(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(f), nil
}

// Standings ranks the festival's entities by the points they earned on
// completed boards.
func (s *Service) Standings(ctx context.Context, id string) ([]Standing, error) {
	f, err := s.GetFestival(ctx, id)
	if err != nil {
		return nil, err
	}
	boards := make(map[string]scoreboard.Event)
	for _, b := range f.Boards() {
		ev, err := s.events.GetEvent(ctx, b.Config.ID)
		if errors.Is(err, scoreboard.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		boards[ev.ID] = ev
	}
	return ComputeStandings(f, boards, s.points), nil
}

// project writes every board of f that differs from its stored event.
func (s *Service) project(ctx context.Context, f Festival) (int, error) {
	written := 0
	for _, b := range f.Boards() {
		sub := f.SubEvents[b.SubEvent]
		changed, err := s.projectBoard(ctx, f, sub, sub.Stages[b.Stage])
		if err != nil {
			return written, fmt.Errorf("board %q: %w", b.Config.ID, err)
		}
		if changed {
			written++
		}
	}
	return written, nil
}

func (s *Service) projectBoard(ctx context.Context, f Festival, sub SubEvent, st Stage) (bool, error) {
	id := st.ScoreboardConfig.ID
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var existing *scoreboard.Event
		ev, err := s.events.GetEvent(ctx, id)
		switch {
		case err == nil:
			existing = &ev
		case errors.Is(err, scoreboard.ErrNotFound):
		default:
			return false, err
		}

		if existing != nil {
			if reason := foreignBoard(*existing, f.ID); reason != "" {
				return false, invalid("scoreboardConfig.id", reason)
			}
		}

		next := Project(f, sub, st, existing)
		if existing != nil && sameEvent(*existing, next) {
			return false, nil
		}
		_, err = s.events.PutEvent(ctx, next)
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.RecordConflict(ctx, "project_board")
			s.logger.Debug("board changed underneath projection, retrying", "festival_id", f.ID, "event_id", id, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, scoreboard.ErrConflict
}

// checkOwnership rejects board ids that already name an event f does not
// project, so a save never takes over a standalone event or another
// festival's board.
func (s *Service) checkOwnership(ctx context.Context, f Festival) error {
	for _, b := range f.Boards() {
		ev, err := s.events.GetEvent(ctx, b.Config.ID)
		if errors.Is(err, scoreboard.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if reason := foreignBoard(ev, f.ID); reason != "" {
			return invalid(fmt.Sprintf("subEvents[%d].stages[%d].scoreboardConfig.id", b.SubEvent, b.Stage), reason)
		}
	}
	return nil
}

func sameEvent(a, b scoreboard.Event) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

func (s *Service) instrument(ctx context.Context, op, id string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "festival."+op, trace.WithAttributes(attribute.String("festival.id", id)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	outcome := scoreboard.Outcome(err)
	s.metrics.RecordOperation(ctx, op, outcome, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := slog.LevelWarn
		if outcome == "error" {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "festival operation failed", "op", op, "festival_id", id, "outcome", outcome, "error", err)
	}
	return err
}

func encodeFestival(f Festival) (store.Record, error) {
	if f.SubEvents == nil {
		f.SubEvents = []SubEvent{}
	}
	if f.Entities == nil {
		f.Entities = []Entity{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return store.Record{}, fmt.Errorf("encode festival %q: %w", f.ID, err)
	}
	return store.Record{ID: f.ID, Version: f.Version, Data: data}, nil
}

func decodeFestival(rec store.Record) (Festival, error) {
	var f Festival
	if err := json.Unmarshal(rec.Data, &f); err != nil {
		return Festival{}, fmt.Errorf("decode festival %q: %w", rec.ID, err)
	}
	f.ID = rec.ID
	f.Version = rec.Version
	return f, nil
}
