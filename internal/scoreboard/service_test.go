package scoreboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"astrascore/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingMetrics struct {
	mu        sync.Mutex
	outcomes  map[string][]string
	conflicts map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{outcomes: map[string][]string{}, conflicts: map[string]int{}}
}

func (m *recordingMetrics) RecordOperation(_ context.Context, op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[op] = append(m.outcomes[op], outcome)
}

func (m *recordingMetrics) RecordConflict(_ context.Context, op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[op]++
}

func newTestService(t *testing.T, st store.Store, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithLogger(testLogger()),
		WithTracer(noop.NewTracerProvider().Tracer("test")),
	}
	return NewService(st, append(base, opts...)...)
}

// putEvent stores e directly, bypassing validation, the way a test fixture would.
func putEvent(t *testing.T, st store.Store, e Event) {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	_, err = st.Put(context.Background(), store.Events, store.Record{ID: e.ID, Version: store.Unversioned, Data: data})
	require.NoError(t, err)
}

func TestServiceSeedsDemoEventsOnFirstUse(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory())

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "demo-football", events[0].ID)
	assert.Equal(t, "demo-quiz", events[1].ID)
	assert.Equal(t, int64(1), events[0].Version)

	did, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, did)
}

func TestServiceDoesNotReseedInitializedStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	_, err := st.Init(ctx, store.Events, nil)
	require.NoError(t, err)

	events, err := newTestService(t, st).ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestServiceScoreScenario(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := newTestService(t, st)
	putEvent(t, st, Event{ID: "e1", Name: "Final", Category: Academic, Teams: []Participant{{Name: "A", Score: 0}, {Name: "B", Score: 1}}})

	e, err := svc.ApplyScoreDelta(ctx, "e1", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, e.Teams[0].Score)

	e, err = svc.ApplyScoreDelta(ctx, "e1", 0, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Teams[0].Score)
	assert.Equal(t, 1, e.Teams[1].Score)

	stored, err := svc.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, e, stored)
	assert.Equal(t, []string{"A score updated to 0", "A score updated to 5"}, stored.Logs)
}

func TestServiceMutationsOnMissingEvent(t *testing.T) {
	ctx := context.Background()
	metrics := newRecordingMetrics()
	svc := newTestService(t, store.NewMemory(), WithMetrics(metrics))

	ops := map[string]func() (Event, error){
		"score":  func() (Event, error) { return svc.ApplyScoreDelta(ctx, "missing", 0, 1) },
		"toggle": func() (Event, error) { return svc.ToggleTimer(ctx, "missing") },
		"tick":   func() (Event, error) { return svc.TickTimer(ctx, "missing") },
		"reset":  func() (Event, error) { return svc.ResetTimer(ctx, "missing") },
		"get":    func() (Event, error) { return svc.GetEvent(ctx, "missing") },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			_, err := op()
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
	assert.Equal(t, []string{"not_found"}, metrics.outcomes["apply_score_delta"])
}

func TestServiceTeamIndexOutOfRangeWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := newTestService(t, st)
	putEvent(t, st, Event{ID: "e1", Name: "Final", Teams: []Participant{{Name: "A"}}})

	_, err := svc.ApplyScoreDelta(ctx, "e1", 3, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	rec, err := st.Get(ctx, store.Events, "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
}

func TestServiceTimerScenario(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := newTestService(t, st)
	putEvent(t, st, Event{ID: "e1", Name: "Final", Category: Sports, Teams: []Participant{{Name: "A"}, {Name: "B"}}, Timer: Timer{Seconds: 58, IsRunning: true}})

	_, err := svc.TickTimer(ctx, "e1")
	require.NoError(t, err)
	e, err := svc.TickTimer(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, Timer{Minutes: 1, Seconds: 0, IsRunning: true}, e.Timer)

	e, err = svc.ToggleTimer(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, e.Timer.IsRunning)

	before := e.Version
	e, err = svc.TickTimer(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, before, e.Version, "paused tick must not write")

	e, err = svc.ResetTimer(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, Timer{}, e.Timer)
}

func TestServiceCreateEvent(t *testing.T) {
	ctx := context.Background()
	fixed := time.UnixMilli(1_700_000_000_000)
	svc := newTestService(t, store.NewMemory(), WithIDGenerator(NewIDGenerator(func() time.Time { return fixed })))

	e, err := svc.CreateEvent(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, "evt-1700000000000", e.ID)
	assert.Equal(t, int64(1), e.Version)

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, e.ID, events[2].ID, "new events are appended after the demo events")
}

func TestServiceCreateEventRejectsZeroTeams(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	metrics := newRecordingMetrics()
	svc := newTestService(t, st, WithMetrics(metrics))

	_, err := svc.CreateEvent(ctx, EventInput{Name: "X", Category: Academic, Subcategory: "Quiz", Teams: []Participant{}})
	assert.True(t, IsValidation(err))

	recs, err := st.List(ctx, store.Events)
	require.NoError(t, err)
	assert.Empty(t, recs, "a rejected event must not touch the store")
	assert.Equal(t, []string{"invalid"}, metrics.outcomes["create_event"])
}

func TestServiceSearchEvents(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory())

	got, err := svc.SearchEvents(ctx, "WIZARD", "all")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "demo-quiz", got[0].ID)

	got, err = svc.SearchEvents(ctx, "", "sports")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "demo-football", got[0].ID)

	got, err = svc.SearchEvents(ctx, "final", "academic")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestServiceStatusLogAndPeriod(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, store.NewMemory())

	e, err := svc.SetStatus(ctx, "demo-quiz", StatusLive)
	require.NoError(t, err)
	assert.Equal(t, StatusLive, e.Status)

	unchanged, err := svc.SetStatus(ctx, "demo-quiz", StatusLive)
	require.NoError(t, err)
	assert.Equal(t, e.Version, unchanged.Version)

	_, err = svc.SetStatus(ctx, "demo-quiz", "archived")
	assert.True(t, IsValidation(err))

	e, err = svc.AppendLog(ctx, "demo-quiz", "Round 1 begins")
	require.NoError(t, err)
	assert.Equal(t, "Round 1 begins", e.Logs[0])

	e, err = svc.SetPeriod(ctx, "demo-quiz", "Round 2")
	require.NoError(t, err)
	assert.Equal(t, "Round 2", e.Timer.Period)
}

// racingStore lets another writer slip in between the service's read and its
// first write of an event.
type racingStore struct {
	store.Store
	once   sync.Once
	interf func()
}

func (r *racingStore) Put(ctx context.Context, c store.Collection, rec store.Record) (store.Record, error) {
	r.once.Do(r.interf)
	return r.Store.Put(ctx, c, rec)
}

func TestServiceRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	putEvent(t, mem, Event{ID: "e1", Name: "Final", Teams: []Participant{{Name: "A"}, {Name: "B"}}})

	rs := &racingStore{Store: mem}
	rs.interf = func() {
		rec, err := mem.Get(ctx, store.Events, "e1")
		require.NoError(t, err)
		e, err := decodeEvent(rec)
		require.NoError(t, err)
		e.Teams[1].Score = 7
		rec, err = encodeEvent(e)
		require.NoError(t, err)
		_, err = mem.Put(ctx, store.Events, rec)
		require.NoError(t, err)
	}
	metrics := newRecordingMetrics()
	svc := newTestService(t, rs, WithMetrics(metrics))

	e, err := svc.ApplyScoreDelta(ctx, "e1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Teams[0].Score)
	assert.Equal(t, 7, e.Teams[1].Score, "the concurrent write must survive")
	assert.Equal(t, 1, metrics.conflicts["apply_score_delta"])
}

type alwaysConflicting struct{ store.Store }

func (alwaysConflicting) Put(context.Context, store.Collection, store.Record) (store.Record, error) {
	return store.Record{}, store.ErrVersionConflict
}

func TestServiceGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	putEvent(t, mem, Event{ID: "e1", Name: "Final", Teams: []Participant{{Name: "A"}}})
	svc := newTestService(t, alwaysConflicting{mem})

	_, err := svc.ApplyScoreDelta(ctx, "e1", 0, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "conflict", Outcome(err))
}

func TestServiceConcurrentDeltasAllLand(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	putEvent(t, st, Event{ID: "e1", Name: "Final", Teams: []Participant{{Name: "A"}}})
	svc := newTestService(t, st)

	const n = 4
	var wg sync.WaitGroup
	var failed int
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ApplyScoreDelta(ctx, "e1", 0, 1); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	e, err := svc.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, n-failed, e.Teams[0].Score)
	assert.Len(t, e.Logs, n-failed)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "not_found", Outcome(ErrNotFound))
	assert.Equal(t, "invalid", Outcome(invalid("x", "y")))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}
