package festival

import (
	"fmt"

	"astrascore/internal/scoreboard"
)

// BoardName is the display name of a stage's standalone event.
func BoardName(sub SubEvent, st Stage) string {
	return sub.Name + " - " + st.Name
}

// Project derives the standalone event for a stage. existing is the stored copy
// of the event, or nil when the board has never been projected.
//
// Descriptive fields always come from the festival. An existing event keeps its
// scores, clock, logs and status; its roster is only replaced when the
// configured team names differ, and scores carry over for names that match.
func Project(f Festival, sub SubEvent, st Stage, existing *scoreboard.Event) scoreboard.Event {
	cfg := st.ScoreboardConfig.Clone()

	var out scoreboard.Event
	if existing != nil {
		out = existing.Clone()
		if !sameRoster(out.Teams, cfg.Teams) {
			out.Teams = carryScores(cfg.Teams, out.Teams)
		}
		if cfg.Config != nil {
			out.Config = cfg.Config
		}
	} else {
		out = cfg
		out.Version = 0
		if out.Status == "" {
			out.Status = scoreboard.StatusUpcoming
		}
		if len(out.Logs) == 0 {
			out.Logs = []string{scoreboard.CreatedLog}
		}
		if out.Timer.Period == "" {
			out.Timer.Period = scoreboard.DefaultPeriod(sub.Category, sub.BoardSubcategory())
		}
	}

	out.ID = cfg.ID
	out.Name = BoardName(sub, st)
	out.Category = sub.Category
	out.Subcategory = sub.BoardSubcategory()
	out.Scale = f.Name
	out.Festival = f.ID
	return out
}

func sameRoster(a, b []scoreboard.Participant) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

func carryScores(roster, previous []scoreboard.Participant) []scoreboard.Participant {
	scores := make(map[string]int, len(previous))
	for _, p := range previous {
		scores[p.Name] = p.Score
	}
	out := make([]scoreboard.Participant, len(roster))
	for i, p := range roster {
		if s, ok := scores[p.Name]; ok {
			p.Score = s
		}
		out[i] = p
	}
	return out
}

// normalizeConfig writes the derived fields onto the festival's embedded copy
// so that it agrees with the standalone event.
func normalizeConfig(f Festival, sub SubEvent, st Stage) {
	cfg := st.ScoreboardConfig
	cfg.Name = BoardName(sub, st)
	cfg.Category = sub.Category
	cfg.Subcategory = sub.BoardSubcategory()
	cfg.Scale = f.Name
	cfg.Festival = f.ID
}

// foreignBoard explains why ev cannot be projected by the festival id, or
// returns "" when the festival owns it.
func foreignBoard(ev scoreboard.Event, id string) string {
	switch ev.Festival {
	case id:
		return ""
	case "":
		return fmt.Sprintf("event %q is a standalone event", ev.ID)
	default:
		return fmt.Sprintf("event %q belongs to festival %q", ev.ID, ev.Festival)
	}
}
