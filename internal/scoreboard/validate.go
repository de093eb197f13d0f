package scoreboard

import (
	"fmt"
	"strings"
)

// CreatedLog is the first log line of every new event.
const CreatedLog = "Event Created"

// NewEvent validates in and builds an upcoming event with a stopped, zeroed
// clock. Blank team names are dropped before the team count is checked.
func NewEvent(id string, in EventInput) (Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Event{}, invalid("name", "is required")
	}
	if in.Category == "" {
		return Event{}, invalid("category", "is required")
	}
	if !KnownCategory(in.Category) {
		return Event{}, invalid("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	sub := strings.TrimSpace(in.Subcategory)
	if sub == "" {
		return Event{}, invalid("subcategory", "is required")
	}
	teams, err := normalizeTeams(in.Teams)
	if err != nil {
		return Event{}, err
	}

	period := strings.TrimSpace(in.Period)
	if period == "" {
		period = DefaultPeriod(in.Category, sub)
	}

	e := Event{
		ID:          id,
		Name:        name,
		Category:    in.Category,
		Subcategory: sub,
		Status:      StatusUpcoming,
		Scale:       strings.TrimSpace(in.Scale),
		Teams:       teams,
		Timer:       Timer{Period: period},
		Logs:        []string{CreatedLog},
	}
	if len(in.Config) > 0 {
		e.Config = make(map[string]int, len(in.Config))
		for k, v := range in.Config {
			e.Config[k] = v
		}
	}
	return e, nil
}

func normalizeTeams(in []Participant) ([]Participant, error) {
	teams := make([]Participant, 0, len(in))
	for _, t := range in {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		if t.Score < 0 {
			return nil, invalid("teams", fmt.Sprintf("team %q has a negative score", name))
		}
		teams = append(teams, Participant{Name: name, Score: t.Score, Color: strings.TrimSpace(t.Color)})
	}
	if len(teams) < 1 {
		return nil, invalid("teams", "add at least one team or participant")
	}
	return teams, nil
}

// Check verifies the invariants of a stored or imported event.
func Check(e Event) error {
	if e.ID == "" {
		return invalid("id", "is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return invalid("name", "is required")
	}
	if e.Status != "" && !e.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", e.Status))
	}
	for _, t := range e.Teams {
		if t.Score < 0 {
			return invalid("teams", fmt.Sprintf("team %q has a negative score", t.Name))
		}
	}
	if e.Timer.Minutes < 0 || e.Timer.Seconds < 0 || e.Timer.Seconds >= 60 {
		return invalid("timer", FormatClock(e.Timer.Minutes, e.Timer.Seconds)+" is out of range")
	}
	return nil
}
