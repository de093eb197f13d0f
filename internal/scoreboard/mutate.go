package scoreboard

import (
	"fmt"
	"math"
	"strings"
)

// The functions below mutate an Event in memory. Persisting the result is the
// caller's job; see Service for the read-modify-write cycle.

// ApplyScoreDelta adds delta to a team's score, clamping at zero, and prepends a
// log line with the new score.
func ApplyScoreDelta(e *Event, teamIndex, delta int) error {
	if teamIndex < 0 || teamIndex >= len(e.Teams) {
		return fmt.Errorf("team %d of event %q: %w", teamIndex, e.ID, ErrNotFound)
	}
	t := &e.Teams[teamIndex]
	t.Score = addScore(t.Score, delta)
	prependLog(e, fmt.Sprintf("%s score updated to %d", t.Name, t.Score))
	return nil
}

// addScore returns max(0, score+delta), saturating at math.MaxInt instead of
// wrapping. score is never negative, so only the upper bound can overflow.
func addScore(score, delta int) int {
	if delta > 0 && score > math.MaxInt-delta {
		return math.MaxInt
	}
	return max(0, score+delta)
}

// ToggleTimer starts a paused clock or pauses a running one.
func ToggleTimer(e *Event) {
	e.Timer.IsRunning = !e.Timer.IsRunning
}

// TickTimer advances a running clock by one second and reports whether
// anything changed.
func TickTimer(e *Event) bool {
	if !e.Timer.IsRunning {
		return false
	}
	e.Timer.Seconds++
	if e.Timer.Seconds >= 60 {
		e.Timer.Minutes += e.Timer.Seconds / 60
		e.Timer.Seconds %= 60
	}
	return true
}

// ResetTimer zeroes and stops the clock. Scores and logs are untouched.
func ResetTimer(e *Event) {
	e.Timer.Minutes = 0
	e.Timer.Seconds = 0
	e.Timer.IsRunning = false
}

func AppendLog(e *Event, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return invalid("message", "must not be empty")
	}
	prependLog(e, msg)
	return nil
}

func SetStatus(e *Event, s Status) error {
	if !s.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", s))
	}
	if e.Status == s {
		return nil
	}
	e.Status = s
	prependLog(e, fmt.Sprintf("Status changed to %s", s))
	return nil
}

func SetPeriod(e *Event, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return invalid("period", "must not be empty")
	}
	e.Timer.Period = label
	return nil
}

func prependLog(e *Event, msg string) {
	e.Logs = append([]string{msg}, e.Logs...)
}
