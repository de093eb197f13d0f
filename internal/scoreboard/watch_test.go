package scoreboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrascore/internal/store"
)

type snapshots struct {
	mu  sync.Mutex
	got []Event
}

func (s *snapshots) add(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, e)
}

func (s *snapshots) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func (s *snapshots) last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.got[len(s.got)-1]
}

func TestWatchReportsOnlyChanges(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	putEvent(t, st, Event{ID: "e1", Name: "Final", Teams: []Participant{{Name: "A"}}})
	svc := newTestService(t, st)

	var seen snapshots
	h := Watch(ctx, svc, "e1", 2*time.Millisecond, seen.add, nil)
	defer h.Stop()

	require.Equal(t, 1, seen.len(), "first snapshot is delivered immediately")
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, 1, seen.len(), "unchanged record is not re-delivered")

	_, err := svc.ApplyScoreDelta(ctx, "e1", 0, 3)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return seen.len() == 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, 3, seen.last().Teams[0].Score)
}

func TestWatchReportsErrors(t *testing.T) {
	svc := newTestService(t, store.NewMemory())

	errs := make(chan error, 1)
	h := Watch(context.Background(), svc, "missing", time.Hour, func(Event) {
		t.Error("unexpected snapshot")
	}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	defer h.Stop()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrNotFound)
	case <-time.After(time.Second):
		t.Fatal("no error reported")
	}
}
