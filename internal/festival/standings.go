package festival

import (
	"slices"
	"strings"

	"astrascore/internal/scoreboard"
)

// PointTable maps a placement (1-based) to the points it is worth. Places
// beyond the table score nothing.
type PointTable []int

var DefaultPointTable = PointTable{10, 8, 6, 5, 4, 3, 2, 1}

func (p PointTable) Points(place int) int {
	if place < 1 || place > len(p) {
		return 0
	}
	return p[place-1]
}

type Standing struct {
	Rank   int    `json:"rank"`
	Entity Entity `json:"entity"`
	Points int    `json:"points"`
	// Boards counts the completed boards the entity placed on.
	Boards int `json:"boards"`
}

// ComputeStandings totals entity points over the festival's completed boards.
// boards holds the standalone events by id; boards missing from it or not yet
// completed are skipped.
func ComputeStandings(f Festival, boards map[string]scoreboard.Event, table PointTable) []Standing {
	out := make([]Standing, len(f.Entities))
	for i, ent := range f.Entities {
		out[i] = Standing{Entity: ent}
	}

	for _, b := range f.Boards() {
		ev, ok := boards[b.Config.ID]
		if !ok || ev.Status != scoreboard.StatusCompleted {
			continue
		}
		ranked := scoreboard.Rank(ev.Teams)
		places := scoreboard.Placements(ranked)
		for i, team := range ranked {
			idx := matchEntity(f.Entities, team.Name)
			if idx < 0 {
				continue
			}
			out[idx].Points += table.Points(places[i])
			out[idx].Boards++
		}
	}

	slices.SortStableFunc(out, func(a, b Standing) int { return b.Points - a.Points })
	for i := range out {
		if i > 0 && out[i].Points == out[i-1].Points {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}

func matchEntity(entities []Entity, team string) int {
	team = strings.TrimSpace(team)
	for i, ent := range entities {
		if strings.EqualFold(ent.Name, team) {
			return i
		}
		if ent.ShortCode != "" && strings.EqualFold(ent.ShortCode, team) {
			return i
		}
	}
	return -1
}
