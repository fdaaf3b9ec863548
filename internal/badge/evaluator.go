package badge

import (
	"math"
	"time"
)

const (
	day = 24 * time.Hour

	// Volume badges over a day or week with at least this threshold count
	// distinct active days instead of raw events.
	daySpreadThreshold = 5
)

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Evaluator checks the badge catalog against an event log. It holds no
// per-user state and is safe for concurrent use.
type Evaluator struct {
	catalog []Definition
	clock   Clock
	loc     *time.Location
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCatalog replaces the default catalog.
func WithCatalog(defs []Definition) Option {
	return func(e *Evaluator) {
		e.catalog = defs
	}
}

// WithClock sets the source of "now".
func WithClock(c Clock) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLocation sets the location used to cut timestamps into calendar days and hours.
func WithLocation(loc *time.Location) Option {
	return func(e *Evaluator) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEvaluator returns an Evaluator over the built-in catalog in UTC.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		catalog: Catalog(),
		clock:   systemClock{},
		loc:     time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// In returns a copy of the evaluator that buckets days in loc.
func (e *Evaluator) In(loc *time.Location) *Evaluator {
	if loc == nil {
		return e
	}
	cp := *e
	cp.loc = loc
	return &cp
}

// Definitions returns the catalog this evaluator checks.
func (e *Evaluator) Definitions() []Definition {
	out := make([]Definition, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// CheckAll evaluates every badge not already earned. Unlocked badges are
// returned in catalog order; locked ones contribute a progress record when
// their strategy exposes one.
func (e *Evaluator) CheckAll(in Input) Result {
	earned := make(map[string]struct{}, len(in.Earned))
	for _, b := range in.Earned {
		earned[b.BadgeID] = struct{}{}
	}

	ev := evaluation{
		now:          e.clock.Now().In(e.loc),
		loc:          e.loc,
		activities:   in.Activities,
		relapses:     in.Relapses,
		journeyStart: in.JourneyStart,
	}

	result := Result{
		NewlyUnlocked: []Definition{},
		Progress:      []Progress{},
	}
	for _, def := range e.catalog {
		if _, ok := earned[def.ID]; ok {
			continue
		}

		out := ev.check(def.Criteria)
		if out.unlocked {
			result.NewlyUnlocked = append(result.NewlyUnlocked, def)
			continue
		}
		if out.progress != nil {
			p := *out.progress
			p.BadgeID = def.ID
			result.Progress = append(result.Progress, p)
		}
	}
	return result
}

// evaluation binds one snapshot to one instant.
type evaluation struct {
	now          time.Time
	loc          *time.Location
	activities   []Activity
	relapses     []Relapse
	journeyStart *time.Time
}

func (ev evaluation) check(c Criterion) outcome {
	switch c.Type {
	case CriterionActivityCount:
		return ev.activityCount(c)
	case CriterionStreakDays:
		return ev.streakDays(c)
	case CriterionCategoryDiversity:
		return ev.categoryDiversity(c)
	case CriterionTimeTracking:
		return ev.timeTracking(c)
	case CriterionCustom:
		check, ok := customChecks[c.CustomCheck]
		if !ok {
			return outcome{}
		}
		return check(ev, c)
	default:
		return outcome{}
	}
}

func (ev evaluation) activityCount(c Criterion) outcome {
	filtered := ev.activities
	if c.CategoryID != "" {
		filtered = withCategory(filtered, c.CategoryID)
	}
	if window := c.Timeframe.Window(); window > 0 {
		filtered = since(filtered, ev.now.Add(-window))
	}

	count := len(filtered)
	if (c.Timeframe == TimeframeDay || c.Timeframe == TimeframeWeek) && c.Threshold >= daySpreadThreshold {
		count = len(ev.activeDays(filtered))
	}

	return thresholdOutcome(count, c.Threshold)
}

func (ev evaluation) streakDays(c Criterion) outcome {
	return thresholdOutcome(ev.currentStreak(), c.Threshold)
}

func (ev evaluation) categoryDiversity(c Criterion) outcome {
	return thresholdOutcome(len(distinctCategories(ev.activities)), c.Threshold)
}

func (ev evaluation) timeTracking(c Criterion) outcome {
	if ev.journeyStart == nil {
		return outcome{}
	}
	days := int(math.Floor(float64(ev.now.Sub(*ev.journeyStart)) / float64(day)))
	if days < 0 {
		days = 0
	}
	return thresholdOutcome(days, c.Threshold)
}

// currentStreak counts consecutive active days ending today. A log with no
// activity today or yesterday is a broken streak.
func (ev evaluation) currentStreak() int {
	if len(ev.activities) == 0 {
		return 0
	}
	days := ev.activeDays(ev.activities)
	today := truncateToDay(ev.now)
	yesterday := today.AddDate(0, 0, -1)

	_, activeToday := days[today]
	_, activeYesterday := days[yesterday]
	if !activeToday && !activeYesterday {
		return 0
	}
	return consecutiveDays(days, today, len(days))
}

// consecutiveDays walks backward from start while each day is active, up to limit days.
func consecutiveDays(days map[time.Time]struct{}, start time.Time, limit int) int {
	streak := 0
	for d := start; streak < limit; d = d.AddDate(0, 0, -1) {
		if _, ok := days[d]; !ok {
			break
		}
		streak++
	}
	return streak
}

// activeDays returns the set of local midnights touched by activities.
func (ev evaluation) activeDays(activities []Activity) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(activities))
	for _, a := range activities {
		days[truncateToDay(a.Timestamp.In(ev.loc))] = struct{}{}
	}
	return days
}

func thresholdOutcome(count, threshold int) outcome {
	if count >= threshold {
		return outcome{unlocked: true}
	}
	return outcome{progress: fraction(float64(count), float64(threshold))}
}

func fraction(current, required float64) *Progress {
	p := 0.0
	if required > 0 {
		p = math.Min(current/required, 1)
	}
	return &Progress{Progress: p, Current: current, Required: required}
}

func withCategory(activities []Activity, category string) []Activity {
	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if hasCategory(a, category) {
			out = append(out, a)
		}
	}
	return out
}

func hasCategory(a Activity, category string) bool {
	for _, c := range a.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func since(activities []Activity, cutoff time.Time) []Activity {
	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if !a.Timestamp.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

func distinctCategories(activities []Activity) map[string]struct{} {
	set := make(map[string]struct{})
	for _, a := range activities {
		for _, c := range a.Categories {
			set[c] = struct{}{}
		}
	}
	return set
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
