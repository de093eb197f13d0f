package scoreboard

// DemoEvents are written to an events collection the first time it is used.
func DemoEvents() []Event {
	return []Event{
		{
			ID:          "demo-football",
			Name:        "Inter-High Football Final",
			Category:    Sports,
			Subcategory: "Football",
			Status:      StatusLive,
			Scale:       "Inter-school",
			Config:      map[string]int{"duration": 90, "halves": 2},
			Teams: []Participant{
				{Name: "Red Dragons", Color: "red", Score: 2},
				{Name: "Blue Knights", Color: "blue", Score: 1},
			},
			Timer: Timer{Minutes: 42, Seconds: 15, IsRunning: true, Period: "1st Half"},
			Logs:  []string{"Match Started", "Goal! Red Dragons (12')", "Goal! Blue Knights (25')", "Goal! Red Dragons (40')"},
		},
		{
			ID:          "demo-quiz",
			Name:        "Science Wizard 2025",
			Category:    Academic,
			Subcategory: "Quiz",
			Status:      StatusUpcoming,
			Scale:       "City",
			Config:      map[string]int{"rounds": 5},
			Teams: []Participant{
				{Name: "Team Alpha"},
				{Name: "Team Beta"},
				{Name: "Team Gamma"},
			},
			Timer: Timer{Period: "Round 1"},
			Logs:  []string{},
		},
	}
}
