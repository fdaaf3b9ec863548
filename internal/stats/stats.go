// Package stats derives relapse-based streak statistics for a journey.
//
// The streak here is the time since the last setback. It is unrelated to
// the badge evaluator's activity streak, which counts consecutive active days.
package stats

import (
	"math"
	"sort"
	"time"
)

const day = 24 * time.Hour

// UserStats summarises a journey.
type UserStats struct {
	CurrentStreak  int `json:"current_streak"`
	BestStreak     int `json:"best_streak"`
	TotalAttempts  int `json:"total_attempts"`
	UrgesResisted  int `json:"urges_resisted"`
	ResistanceRate int `json:"resistance_rate"`
}

// Input is the event history Calculate reads.
type Input struct {
	JourneyStart *time.Time
	Relapses     []time.Time
	// UrgesResisted is the number of logged urges that did not end in a relapse.
	UrgesResisted int
}

// Calculate computes stats as of now. A nil journey start yields the zero value.
func Calculate(in Input, now time.Time) UserStats {
	if in.JourneyStart == nil {
		return UserStats{}
	}
	start := *in.JourneyStart

	relapses := make([]time.Time, len(in.Relapses))
	copy(relapses, in.Relapses)
	sort.Slice(relapses, func(i, j int) bool { return relapses[i].Before(relapses[j]) })

	last := start
	if n := len(relapses); n > 0 {
		last = relapses[n-1]
	}

	best := 0
	prev := start
	for _, r := range relapses {
		best = max(best, wholeDays(r.Sub(prev)))
		prev = r
	}
	best = max(best, wholeDays(now.Sub(prev)))

	return UserStats{
		CurrentStreak:  wholeDays(now.Sub(last)),
		BestStreak:     best,
		TotalAttempts:  len(relapses),
		UrgesResisted:  in.UrgesResisted,
		ResistanceRate: resistanceRate(in.UrgesResisted, len(relapses)),
	}
}

func resistanceRate(resisted, relapses int) int {
	total := resisted + relapses
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(resisted) / float64(total) * 100))
}

// wholeDays floors d to days. Negative gaps, from a relapse dated before the
// journey start or a clock behind the data, count as zero.
func wholeDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / day)
}
