package scoreboard

import (
	"maps"
	"slices"
)

// Category groups events by the kind of competition.
type Category string

const (
	Sports   Category = "sports"
	Academic Category = "academic"
	Cultural Category = "cultural"
	Esports  Category = "esports"
)

// TimeBased reports whether events of the category run a match clock.
func (c Category) TimeBased() bool {
	return c == Sports || c == Esports
}

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusCompleted:
		return true
	}
	return false
}

type Participant struct {
	Name  string `json:"name" yaml:"name"`
	Score int    `json:"score" yaml:"score"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

type Timer struct {
	Minutes   int    `json:"minutes" yaml:"minutes"`
	Seconds   int    `json:"seconds" yaml:"seconds"` // always in [0,60)
	IsRunning bool   `json:"isRunning" yaml:"isRunning"`
	Period    string `json:"period,omitempty" yaml:"period,omitempty"`
}

// Event is a single scoreboard-bearing competition. Logs are kept
// most-recent-first.
type Event struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Category    Category       `json:"category" yaml:"category"`
	Subcategory string         `json:"subcategory" yaml:"subcategory"`
	Status      Status         `json:"status" yaml:"status"`
	Scale       string         `json:"scale,omitempty" yaml:"scale,omitempty"`
	Config      map[string]int `json:"config,omitempty" yaml:"config,omitempty"`
	Teams       []Participant  `json:"teams" yaml:"teams"`
	Timer       Timer          `json:"timer" yaml:"timer"`
	Logs        []string       `json:"logs" yaml:"logs"`
	// Festival is the id of the festival that projects this event; empty for
	// standalone events.
	Festival string `json:"festival,omitempty" yaml:"festival,omitempty"`
	Version  int64  `json:"version" yaml:"version"`
}

// Clone returns a deep copy so callers can mutate without aliasing the original.
func (e Event) Clone() Event {
	out := e
	out.Config = maps.Clone(e.Config)
	out.Teams = slices.Clone(e.Teams)
	out.Logs = slices.Clone(e.Logs)
	return out
}

// EventInput is what an organizer submits to create an event.
type EventInput struct {
	Name        string         `json:"name" yaml:"name"`
	Category    Category       `json:"category" yaml:"category"`
	Subcategory string         `json:"subcategory" yaml:"subcategory"`
	Scale       string         `json:"scale" yaml:"scale"`
	Config      map[string]int `json:"config" yaml:"config"`
	Period      string         `json:"period" yaml:"period"`
	Teams       []Participant  `json:"teams" yaml:"teams"`
}
