// Package growth maps a streak length onto the plant stages shown to users.
package growth

// Stage is one step of the growth ladder.
type Stage struct {
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
	MinDays int    `json:"min_days"`
}

// Status places a streak on the ladder.
type Status struct {
	Current    Stage   `json:"current"`
	Next       *Stage  `json:"next,omitempty"`
	DaysToNext int     `json:"days_to_next"`
	Progress   float64 `json:"progress"`
}

var stages = []Stage{
	{Name: "Seed", Emoji: "🌰", MinDays: 0},
	{Name: "Sprout", Emoji: "🌱", MinDays: 1},
	{Name: "Seedling", Emoji: "🌿", MinDays: 3},
	{Name: "Sapling", Emoji: "🪴", MinDays: 7},
	{Name: "Young Tree", Emoji: "🌲", MinDays: 14},
	{Name: "Tree", Emoji: "🌳", MinDays: 30},
	{Name: "Mighty Oak", Emoji: "🏞️", MinDays: 90},
	{Name: "Ancient Grove", Emoji: "🌄", MinDays: 365},
}

// Stages returns the ladder in ascending order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// ForStreak returns the stage reached after days and how far along the next one is.
// Progress is 1 once the final stage is reached.
func ForStreak(days int) Status {
	if days < 0 {
		days = 0
	}

	idx := 0
	for i, s := range stages {
		if days >= s.MinDays {
			idx = i
		}
	}

	status := Status{Current: stages[idx], Progress: 1}
	if idx+1 < len(stages) {
		next := stages[idx+1]
		span := next.MinDays - status.Current.MinDays
		status.Next = &next
		status.DaysToNext = next.MinDays - days
		status.Progress = float64(days-status.Current.MinDays) / float64(span)
	}
	return status
}
