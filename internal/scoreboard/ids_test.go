package scoreboard

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventIDsAreMonotonicWhenClockStalls(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return fixed })

	assert.Equal(t, "evt-1700000000000", g.EventID())
	assert.Equal(t, "evt-1700000000001", g.EventID())
	assert.Equal(t, "fest-1700000000002", g.FestivalID())
}

func TestBoardIDsCarryRandomSuffix(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewIDGenerator(func() time.Time { return fixed })

	a, b := g.BoardID(), g.BoardID()
	assert.Regexp(t, regexp.MustCompile(`^board-1700000000000-[0-9a-f]{8}$`), a)
	assert.NotEqual(t, a, b)
}
