package festival

type Stats struct {
	SubEventCount int `json:"subEventCount"`
	StageCount    int `json:"stageCount"`
	BoardCount    int `json:"boardCount"`
	EntityCount   int `json:"entityCount"`
}

// ComputeStats counts the festival's parts. A board is a stage carrying a
// scoreboard config.
func ComputeStats(f Festival) Stats {
	s := Stats{SubEventCount: len(f.SubEvents), EntityCount: len(f.Entities)}
	for _, sub := range f.SubEvents {
		s.StageCount += len(sub.Stages)
		for _, st := range sub.Stages {
			if st.ScoreboardConfig != nil {
				s.BoardCount++
			}
		}
	}
	return s
}
