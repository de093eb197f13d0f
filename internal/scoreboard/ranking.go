package scoreboard

import (
	"fmt"
	"slices"
)

// PresentationMode tells board adapters how to lay out an event.
type PresentationMode string

const (
	// HeadToHead pins teams[0] and teams[1] left and right regardless of score.
	HeadToHead PresentationMode = "head_to_head"
	// RankedList orders participants by descending score.
	RankedList PresentationMode = "ranked_list"
)

func ModeFor(e Event) PresentationMode {
	if e.Category.TimeBased() && len(e.Teams) == 2 {
		return HeadToHead
	}
	return RankedList
}

// Rank returns a copy of teams sorted by descending score. Equal scores keep
// their original relative order.
func Rank(teams []Participant) []Participant {
	out := slices.Clone(teams)
	slices.SortStableFunc(out, func(a, b Participant) int {
		return b.Score - a.Score
	})
	return out
}

// DisplayOrder applies the layout rule of the event's presentation mode.
func DisplayOrder(e Event) []Participant {
	if ModeFor(e) == HeadToHead {
		return slices.Clone(e.Teams)
	}
	return Rank(e.Teams)
}

// Placements assigns competition ranks ("1224") to teams already in ranked
// order: tied scores share the best place.
func Placements(ranked []Participant) []int {
	places := make([]int, len(ranked))
	for i := range ranked {
		if i > 0 && ranked[i].Score == ranked[i-1].Score {
			places[i] = places[i-1]
			continue
		}
		places[i] = i + 1
	}
	return places
}

// MaxBoardLogs is how many log lines a board shows.
const MaxBoardLogs = 10

// Board is the read model consumed by display adapters.
type Board struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    Category         `json:"category"`
	Subcategory string           `json:"subcategory"`
	Scale       string           `json:"scale,omitempty"`
	Status      Status           `json:"status"`
	Mode        PresentationMode `json:"mode"`
	Teams       []Participant    `json:"teams"`
	Clock       string           `json:"clock"`
	Period      string           `json:"period,omitempty"`
	Running     bool             `json:"running"`
	Logs        []string         `json:"logs"`
	Version     int64            `json:"version"`
}

func BoardFor(e Event) Board {
	logs := e.Logs
	if len(logs) > MaxBoardLogs {
		logs = logs[:MaxBoardLogs]
	}
	return Board{
		ID:          e.ID,
		Name:        e.Name,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Scale:       e.Scale,
		Status:      e.Status,
		Mode:        ModeFor(e),
		Teams:       DisplayOrder(e),
		Clock:       FormatClock(e.Timer.Minutes, e.Timer.Seconds),
		Period:      e.Timer.Period,
		Running:     e.Timer.IsRunning,
		Logs:        slices.Clone(logs),
		Version:     e.Version,
	}
}

// FormatClock renders minutes and seconds as mm:ss.
func FormatClock(minutes, seconds int) string {
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
