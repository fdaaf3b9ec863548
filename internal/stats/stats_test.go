package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func at(days int, hours ...int) time.Time {
	t := start.AddDate(0, 0, days)
	if len(hours) > 0 {
		t = t.Add(time.Duration(hours[0]) * time.Hour)
	}
	return t
}

func TestCalculate_NoJourney(t *testing.T) {
	got := Calculate(Input{Relapses: []time.Time{at(1)}, UrgesResisted: 4}, at(10))
	assert.Equal(t, UserStats{}, got)

	assert.Equal(t, UserStats{}, Calculate(Input{}, at(10)))
}

func TestCalculate_UrgesOnly(t *testing.T) {
	got := Calculate(Input{JourneyStart: &start, UrgesResisted: 5}, at(12, 6))

	assert.Equal(t, UserStats{
		CurrentStreak:  12,
		BestStreak:     12,
		TotalAttempts:  0,
		UrgesResisted:  5,
		ResistanceRate: 100,
	}, got)
}

func TestCalculate_NoEvents(t *testing.T) {
	got := Calculate(Input{JourneyStart: &start}, at(3))
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 0, got.ResistanceRate)
}

func TestCalculate_BestStreakOverAllGaps(t *testing.T) {
	tests := []struct {
		name     string
		relapses []time.Time
		now      time.Time
		current  int
		best     int
	}{
		{
			name:     "opening gap is longest",
			relapses: []time.Time{at(20), at(25)},
			now:      at(30),
			current:  5,
			best:     20,
		},
		{
			name:     "middle gap is longest",
			relapses: []time.Time{at(2), at(40, 12), at(45)},
			now:      at(50),
			current:  5,
			best:     38,
		},
		{
			name:     "trailing gap is longest",
			relapses: []time.Time{at(3)},
			now:      at(60, 23),
			current:  57,
			best:     57,
		},
		{
			name:     "unsorted input",
			relapses: []time.Time{at(25), at(20)},
			now:      at(30),
			current:  5,
			best:     20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(Input{JourneyStart: &start, Relapses: tt.relapses}, tt.now)
			assert.Equal(t, tt.current, got.CurrentStreak)
			assert.Equal(t, tt.best, got.BestStreak)
			assert.Equal(t, len(tt.relapses), got.TotalAttempts)
		})
	}
}

func TestCalculate_ResistanceRateRounds(t *testing.T) {
	relapses := []time.Time{at(1), at(2), at(3)}
	got := Calculate(Input{JourneyStart: &start, Relapses: relapses, UrgesResisted: 2}, at(4))
	assert.Equal(t, 40, got.ResistanceRate)

	got = Calculate(Input{JourneyStart: &start, Relapses: relapses[:1], UrgesResisted: 2}, at(4))
	assert.Equal(t, 67, got.ResistanceRate)
}

func TestCalculate_RelapseBeforeStartClamps(t *testing.T) {
	got := Calculate(Input{JourneyStart: &start, Relapses: []time.Time{at(-3)}}, at(2))
	assert.Equal(t, 5, got.CurrentStreak)
	assert.Equal(t, 5, got.BestStreak)
}
