package api

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyCacheRunsOncePerKey(t *testing.T) {
	c := NewIdempotencyCache(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	replays := make([]bool, 5)
	for i := range replays {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, body, replayed, err := c.Do(context.Background(), "k", func() (int, any) {
				calls.Add(1)
				<-release
				return http.StatusOK, "done"
			})
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, "done", body)
			replays[i] = replayed
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	fresh := 0
	for _, r := range replays {
		if !r {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestIdempotencyCacheForgetsServerErrors(t *testing.T) {
	c := NewIdempotencyCache(time.Minute)

	status, _, _, err := c.Do(context.Background(), "k", func() (int, any) { return http.StatusInternalServerError, nil })
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Zero(t, c.Len())

	status, _, replayed, err := c.Do(context.Background(), "k", func() (int, any) { return http.StatusOK, nil })
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, replayed)
}

func TestIdempotencyCacheExpiresEntries(t *testing.T) {
	c := NewIdempotencyCache(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	_, _, _, err := c.Do(context.Background(), "k", func() (int, any) { return http.StatusOK, 1 })
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, body, replayed, err := c.Do(context.Background(), "k", func() (int, any) { return http.StatusOK, 2 })
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 2, body)
}

func TestIdempotencyCacheWaitHonoursContext(t *testing.T) {
	c := NewIdempotencyCache(time.Minute)
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})

	go func() {
		_, _, _, _ = c.Do(context.Background(), "k", func() (int, any) {
			close(started)
			<-release
			return http.StatusOK, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, _, _, err := c.Do(ctx, "k", func() (int, any) { return http.StatusOK, nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
