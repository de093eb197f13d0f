package festival

import (
	"time"

	"astrascore/internal/scoreboard"
)

// Festival groups sub-events, their stages and the entities (houses, schools,
// clubs) that compete across them.
type Festival struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Organizer string     `json:"organizer" yaml:"organizer"`
	Dates     string     `json:"dates" yaml:"dates"`
	CreatedAt time.Time  `json:"createdAt" yaml:"createdAt"`
	SubEvents []SubEvent `json:"subEvents" yaml:"subEvents"`
	Entities  []Entity   `json:"entities" yaml:"entities"`
	Version   int64      `json:"version" yaml:"version"`
}

type SubEvent struct {
	Name         string              `json:"name" yaml:"name"`
	Category     scoreboard.Category `json:"category" yaml:"category"`
	Subcategory  string              `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Type         string              `json:"type" yaml:"type"`
	Participants []string            `json:"participants" yaml:"participants"`
	Stages       []Stage             `json:"stages" yaml:"stages"`
}

// BoardSubcategory is the subcategory given to the sub-event's boards. Older
// festivals only carry a type.
func (s SubEvent) BoardSubcategory() string {
	if s.Subcategory != "" {
		return s.Subcategory
	}
	return s.Type
}

// Stage is one round of a sub-event. A stage with a ScoreboardConfig is
// mirrored as a standalone event.
type Stage struct {
	Name             string            `json:"name" yaml:"name"`
	Type             string            `json:"type" yaml:"type"`
	ScoreboardConfig *scoreboard.Event `json:"scoreboardConfig,omitempty" yaml:"scoreboardConfig,omitempty"`
}

type Entity struct {
	Name      string `json:"name" yaml:"name"`
	Color     string `json:"color" yaml:"color"`
	Type      string `json:"type" yaml:"type"`
	ShortCode string `json:"shortCode" yaml:"shortCode"`
}

// Board locates a stage's scoreboard inside a festival.
type Board struct {
	SubEvent int
	Stage    int
	Config   scoreboard.Event
}

// Boards returns every stage scoreboard in sub-event then stage order.
func (f Festival) Boards() []Board {
	var out []Board
	for i, sub := range f.SubEvents {
		for j, st := range sub.Stages {
			if st.ScoreboardConfig == nil {
				continue
			}
			out = append(out, Board{SubEvent: i, Stage: j, Config: *st.ScoreboardConfig})
		}
	}
	return out
}

// Clone returns a deep copy of f.
func (f Festival) Clone() Festival {
	out := f
	out.Entities = append([]Entity(nil), f.Entities...)
	out.SubEvents = make([]SubEvent, len(f.SubEvents))
	for i, sub := range f.SubEvents {
		sub.Participants = append([]string(nil), sub.Participants...)
		stages := make([]Stage, len(sub.Stages))
		for j, st := range sub.Stages {
			if st.ScoreboardConfig != nil {
				cfg := st.ScoreboardConfig.Clone()
				st.ScoreboardConfig = &cfg
			}
			stages[j] = st
		}
		sub.Stages = stages
		out.SubEvents[i] = sub
	}
	return out
}
