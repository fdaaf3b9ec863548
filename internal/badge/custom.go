package badge

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Category labels referenced by custom predicates. Labels are matched exactly.
const (
	LabelMindfulness = "🧘 Mindfulness"
	LabelPhysical    = "💪 Physical"
	LabelCreative    = "🎨 Creative"
	LabelSocial      = "🤝 Social"
	LabelLearning    = "📚 Learning"
)

// wellRoundedGroups are the five groups that each need activity for wellRounded.
var wellRoundedGroups = []string{
	LabelMindfulness,
	LabelPhysical,
	LabelCreative,
	LabelSocial,
	LabelLearning,
}

const (
	perfectWeekDays = 7

	balancedWeekActivities = 10
	balancedWeekCategories = 5

	wellRoundedPerGroup = 10
	mindAndBodyPerSide  = 20

	consistentTrackerDays  = 90
	consistentTrackerShare = 0.8

	defaultNotesThreshold = 20
	defaultHourThreshold  = 10
	defaultComebackCount  = 5

	varietyLoverGap = 30 * day
)

type customFunc func(ev evaluation, c Criterion) outcome

// customChecks is the closed dispatch table for CriterionCustom.
var customChecks = map[CustomCheck]customFunc{
	CheckPerfectWeek:         perfectWeek,
	CheckBalancedWeek:        balancedWeek,
	CheckWellRounded:         wellRounded,
	CheckMindAndBody:         mindAndBody,
	CheckConsistentTracker:   consistentTracker,
	CheckActivitiesWithNotes: activitiesWithNotes,
	CheckNightOwl:            nightOwl,
	CheckEarlyBird:           earlyBird,
	CheckComeback:            comeback,
	CheckVarietyLover:        varietyLover,
}

// KnownCustomCheck reports whether name has a predicate.
func KnownCustomCheck(name CustomCheck) bool {
	_, ok := customChecks[name]
	return ok
}

func thresholdOr(c Criterion, fallback int) int {
	if c.Threshold > 0 {
		return c.Threshold
	}
	return fallback
}

// perfectWeek walks back from today without the yesterday grace, capped at seven days.
func perfectWeek(ev evaluation, _ Criterion) outcome {
	days := ev.activeDays(ev.activities)
	streak := consecutiveDays(days, truncateToDay(ev.now), perfectWeekDays)
	return thresholdOutcome(streak, perfectWeekDays)
}

func balancedWeek(ev evaluation, _ Criterion) outcome {
	recent := since(ev.activities, ev.now.Add(-7*day))
	categories := len(distinctCategories(recent))
	if len(recent) >= balancedWeekActivities && categories >= balancedWeekCategories {
		return outcome{unlocked: true}
	}

	// Both halves weigh equally toward progress.
	countShare := math.Min(float64(len(recent))/balancedWeekActivities, 1)
	categoryShare := math.Min(float64(categories)/balancedWeekCategories, 1)
	return outcome{progress: &Progress{
		Progress: (countShare + categoryShare) / 2,
		Current:  float64(len(recent)),
		Required: balancedWeekActivities,
	}}
}

func wellRounded(ev evaluation, _ Criterion) outcome {
	counts := categoryCounts(ev.activities)
	lowest := math.MaxInt
	for _, group := range wellRoundedGroups {
		if counts[group] < lowest {
			lowest = counts[group]
		}
	}
	return thresholdOutcome(lowest, wellRoundedPerGroup)
}

func mindAndBody(ev evaluation, _ Criterion) outcome {
	counts := categoryCounts(ev.activities)
	mind, body := counts[LabelMindfulness], counts[LabelPhysical]
	if mind >= mindAndBodyPerSide && body >= mindAndBodyPerSide {
		return outcome{unlocked: true}
	}
	current := min(mind, mindAndBodyPerSide) + min(body, mindAndBodyPerSide)
	return outcome{progress: fraction(float64(current), 2*mindAndBodyPerSide)}
}

// consistentTracker buckets the trailing 90 days by absolute epoch week.
func consistentTracker(ev evaluation, _ Criterion) outcome {
	recent := since(ev.activities, ev.now.Add(-consistentTrackerDays*day))
	weeks := make(map[int64]struct{}, len(recent))
	for _, a := range recent {
		weeks[a.Timestamp.UnixMilli()/(7*day).Milliseconds()] = struct{}{}
	}

	totalWeeks := math.Ceil(consistentTrackerDays / 7.0)
	active := float64(len(weeks))
	if active/totalWeeks >= consistentTrackerShare {
		return outcome{unlocked: true}
	}
	return outcome{progress: fraction(active, totalWeeks*consistentTrackerShare)}
}

func activitiesWithNotes(ev evaluation, c Criterion) outcome {
	count := 0
	for _, a := range ev.activities {
		if strings.TrimSpace(a.Note) != "" {
			count++
		}
	}
	return thresholdOutcome(count, thresholdOr(c, defaultNotesThreshold))
}

func nightOwl(ev evaluation, c Criterion) outcome {
	return ev.hourCount(c, func(hour int) bool { return hour >= 21 || hour < 6 })
}

func earlyBird(ev evaluation, c Criterion) outcome {
	return ev.hourCount(c, func(hour int) bool { return hour < 8 })
}

func (ev evaluation) hourCount(c Criterion, match func(hour int) bool) outcome {
	count := 0
	for _, a := range ev.activities {
		if match(a.Timestamp.In(ev.loc).Hour()) {
			count++
		}
	}
	return thresholdOutcome(count, thresholdOr(c, defaultHourThreshold))
}

// comeback unlocks when any relapse is followed by enough activities within 24 hours.
func comeback(ev evaluation, c Criterion) outcome {
	need := thresholdOr(c, defaultComebackCount)
	for _, r := range ev.relapses {
		windowEnd := r.Timestamp.Add(day)
		count := 0
		for _, a := range ev.activities {
			if a.Timestamp.After(r.Timestamp) && !a.Timestamp.After(windowEnd) {
				count++
			}
		}
		if count >= need {
			return outcome{unlocked: true}
		}
	}
	return outcome{}
}

// varietyLover unlocks when a category returns after at least 30 days unused.
func varietyLover(ev evaluation, _ Criterion) outcome {
	sorted := make([]Activity, len(ev.activities))
	copy(sorted, ev.activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	lastUsed := make(map[string]time.Time)
	for _, a := range sorted {
		for _, category := range a.Categories {
			if last, ok := lastUsed[category]; ok && a.Timestamp.Sub(last) >= varietyLoverGap {
				return outcome{unlocked: true}
			}
			lastUsed[category] = a.Timestamp
		}
	}
	return outcome{}
}

func categoryCounts(activities []Activity) map[string]int {
	counts := make(map[string]int)
	for _, a := range activities {
		for _, c := range a.Categories {
			counts[c]++
		}
	}
	return counts
}
