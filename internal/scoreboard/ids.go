package scoreboard

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out record ids derived from a millisecond clock. Event ids
// never repeat within one generator even when the clock stalls.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}

// EventID returns "evt-<ms>".
func (g *IDGenerator) EventID() string {
	return "evt-" + strconv.FormatInt(g.next(), 10)
}

// FestivalID returns "fest-<ms>".
func (g *IDGenerator) FestivalID() string {
	return "fest-" + strconv.FormatInt(g.next(), 10)
}

// BoardID returns "board-<ms>-<8 hex>". The random suffix keeps ids from
// different processes apart when boards are created in the same millisecond.
func (g *IDGenerator) BoardID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "board-" + strconv.FormatInt(g.now().UnixMilli(), 10) + "-" + suffix
}

// Now exposes the generator's clock.
func (g *IDGenerator) Now() time.Time {
	return g.now()
}
