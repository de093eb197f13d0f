package scoreboard

// Subcategory is one competition format offered for a category.
type Subcategory struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	DefaultPeriod string `json:"defaultPeriod"`
}

type CategoryInfo struct {
	Category      Category      `json:"category"`
	Subcategories []Subcategory `json:"subcategories"`
}

var catalog = []CategoryInfo{
	{Category: Sports, Subcategories: []Subcategory{
		{Name: "Football", Description: "Goals, Halves", DefaultPeriod: "1st Half"},
		{Name: "Basketball", Description: "Points, Quarters", DefaultPeriod: "Q1"},
		{Name: "Cricket", Description: "Runs, Overs", DefaultPeriod: "1st Innings"},
	}},
	{Category: Academic, Subcategories: []Subcategory{
		{Name: "Quiz", Description: "Rounds, Points", DefaultPeriod: "Round 1"},
		{Name: "Debate", Description: "Judged Score", DefaultPeriod: "Opening"},
	}},
	{Category: Cultural, Subcategories: []Subcategory{
		{Name: "Dance", Description: "Judged Score", DefaultPeriod: "Performance"},
		{Name: "Music", Description: "Judged Score", DefaultPeriod: "Performance"},
	}},
	{Category: Esports, Subcategories: []Subcategory{
		{Name: "Valorant", Description: "Rounds", DefaultPeriod: "Round 1"},
		{Name: "FIFA", Description: "Goals", DefaultPeriod: "1st Half"},
	}},
}

// Catalog lists the known categories with their subcategories.
func Catalog() []CategoryInfo {
	out := make([]CategoryInfo, len(catalog))
	for i, c := range catalog {
		out[i] = CategoryInfo{Category: c.Category, Subcategories: append([]Subcategory(nil), c.Subcategories...)}
	}
	return out
}

func Subcategories(c Category) []Subcategory {
	for _, info := range catalog {
		if info.Category == c {
			return append([]Subcategory(nil), info.Subcategories...)
		}
	}
	return nil
}

func KnownCategory(c Category) bool {
	for _, info := range catalog {
		if info.Category == c {
			return true
		}
	}
	return false
}

// DefaultPeriod returns the opening period label for a subcategory, or "" when
// the subcategory is not in the catalog.
func DefaultPeriod(c Category, sub string) string {
	for _, s := range Subcategories(c) {
		if s.Name == sub {
			return s.DefaultPeriod
		}
	}
	return ""
}
