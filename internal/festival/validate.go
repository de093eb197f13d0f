package festival

import (
	"errors"
	"fmt"
	"strings"

	"astrascore/internal/scoreboard"
)

func invalid(field, reason string) error {
	return &scoreboard.ValidationError{Field: field, Reason: reason}
}

// prepare validates f in place, trims names, assigns missing board ids and
// writes the derived fields onto every embedded board config.
func prepare(f *Festival, boardID func() string) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return invalid("name", "festival name is required")
	}
	f.Organizer = strings.TrimSpace(f.Organizer)
	f.Dates = strings.TrimSpace(f.Dates)

	for i := range f.Entities {
		ent := &f.Entities[i]
		ent.Name = strings.TrimSpace(ent.Name)
		ent.ShortCode = strings.TrimSpace(ent.ShortCode)
		if ent.Name == "" {
			return invalid(fmt.Sprintf("entities[%d].name", i), "is required")
		}
	}

	seen := make(map[string]string)
	for i := range f.SubEvents {
		sub := &f.SubEvents[i]
		sub.Name = strings.TrimSpace(sub.Name)
		if sub.Name == "" {
			return invalid(fmt.Sprintf("subEvents[%d].name", i), "is required")
		}
		if sub.Category != "" && !scoreboard.KnownCategory(sub.Category) {
			return invalid(fmt.Sprintf("subEvents[%d].category", i), fmt.Sprintf("unknown category %q", sub.Category))
		}
		for j := range sub.Stages {
			st := &sub.Stages[j]
			st.Name = strings.TrimSpace(st.Name)
			if st.ScoreboardConfig == nil {
				continue
			}
			field := fmt.Sprintf("subEvents[%d].stages[%d]", i, j)
			if st.Name == "" {
				return invalid(field+".name", "is required for a stage with a scoreboard")
			}
			if sub.Category == "" {
				return invalid(fmt.Sprintf("subEvents[%d].category", i), "is required for a sub-event with scoreboards")
			}
			cfg := st.ScoreboardConfig
			if cfg.ID == "" {
				cfg.ID = boardID()
			}
			if prev, dup := seen[cfg.ID]; dup {
				return invalid(field+".scoreboardConfig.id", fmt.Sprintf("board %q is also used by %s", cfg.ID, prev))
			}
			seen[cfg.ID] = field
			teams, err := boardTeams(cfg.Teams)
			if err != nil {
				return invalid(field+".scoreboardConfig.teams", err.Error())
			}
			cfg.Teams = teams
			normalizeConfig(*f, *sub, *st)
		}
	}
	return nil
}

func boardTeams(in []scoreboard.Participant) ([]scoreboard.Participant, error) {
	out := make([]scoreboard.Participant, 0, len(in))
	for _, t := range in {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			continue
		}
		if t.Score < 0 {
			return nil, fmt.Errorf("team %q has a negative score", t.Name)
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errors.New("add at least one team or participant")
	}
	return out, nil
}
