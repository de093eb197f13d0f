package api

import (
	"context"
	"sync"
	"time"
)

// IdempotencyHeader carries the client-chosen key of a retryable write.
const IdempotencyHeader = "Idempotency-Key"

const defaultIdempotencyTTL = 10 * time.Minute

type idemEntry struct {
	done    chan struct{}
	status  int
	body    any
	created time.Time
}

// IdempotencyCache remembers the response of a keyed write so a retried
// request is answered without applying the write again. Concurrent requests
// with the same key wait for the first one.
type IdempotencyCache struct {
	mu      sync.Mutex
	entries map[string]*idemEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyCache{entries: make(map[string]*idemEntry), ttl: ttl, now: time.Now}
}

// Do runs fn once per key. Later calls with the same key get the first
// response with replayed set. Server errors (5xx) are not remembered.
func (c *IdempotencyCache) Do(ctx context.Context, key string, fn func() (int, any)) (status int, body any, replayed bool, err error) {
	c.mu.Lock()
	c.prune()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			if e.status == 0 {
				return c.Do(ctx, key, fn)
			}
			return e.status, e.body, true, nil
		case <-ctx.Done():
			return 0, nil, false, ctx.Err()
		}
	}
	e := &idemEntry{done: make(chan struct{}), created: c.now()}
	c.entries[key] = e
	c.mu.Unlock()

	status, body = fn()

	c.mu.Lock()
	if status >= 500 {
		delete(c.entries, key)
	} else {
		e.status, e.body = status, body
	}
	close(e.done)
	c.mu.Unlock()
	return status, body, false, nil
}

func (c *IdempotencyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// prune drops finished entries older than the TTL. c.mu must be held.
func (c *IdempotencyCache) prune() {
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		select {
		case <-e.done:
			if e.created.Before(cutoff) {
				delete(c.entries, k)
			}
		default:
		}
	}
}
