package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkOne(t *testing.T, id string, in Input) (bool, *Progress) {
	t.Helper()
	res := newTestEvaluator(testNow, mustFind(t, id)).CheckAll(in)
	if len(res.NewlyUnlocked) == 1 {
		return true, nil
	}
	if p, ok := progressFor(res, id); ok {
		return false, &p
	}
	return false, nil
}

func repeat(n int, fn func(i int) Activity) []Activity {
	out := make([]Activity, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fn(i))
	}
	return out
}

func TestPerfectWeek(t *testing.T) {
	week := repeat(7, func(i int) Activity { return activityAt(daysAgo(i, 8)) })
	unlocked, _ := checkOne(t, "perfect_week", Input{Activities: week})
	assert.True(t, unlocked)

	unlocked, p := checkOne(t, "perfect_week", Input{Activities: week[:6]})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.InDelta(t, 6.0/7.0, p.Progress, 1e-9)

	endingYesterday := repeat(7, func(i int) Activity { return activityAt(daysAgo(i+1, 8)) })
	unlocked, p = checkOne(t, "perfect_week", Input{Activities: endingYesterday})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.Zero(t, p.Current)
}

func TestBalancedWeek(t *testing.T) {
	labels := []string{LabelMindfulness, LabelPhysical, LabelCreative, LabelSocial, LabelLearning}
	balanced := repeat(10, func(i int) Activity { return activityAt(testNow.Add(-time.Duration(i)*10*time.Hour), labels[i%5]) })
	unlocked, _ := checkOne(t, "balanced_week", Input{Activities: balanced})
	assert.True(t, unlocked)

	narrow := repeat(10, func(i int) Activity { return activityAt(testNow.Add(-time.Duration(i)*10*time.Hour), labels[i%4]) })
	unlocked, p := checkOne(t, "balanced_week", Input{Activities: narrow})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.InDelta(t, 0.9, p.Progress, 1e-9)

	stale := repeat(10, func(i int) Activity { return activityAt(daysAgo(8+i, 9), labels[i%5]) })
	unlocked, p = checkOne(t, "balanced_week", Input{Activities: stale})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.Zero(t, p.Current)
}

func TestWellRounded(t *testing.T) {
	var all []Activity
	for _, label := range wellRoundedGroups {
		all = append(all, repeat(10, func(i int) Activity { return activityAt(daysAgo(i, 9), label) })...)
	}
	unlocked, _ := checkOne(t, "well_rounded", Input{Activities: all})
	assert.True(t, unlocked)

	unlocked, p := checkOne(t, "well_rounded", Input{Activities: all[1:]})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.Equal(t, 9.0, p.Current)
}

func TestMindAndBody(t *testing.T) {
	mind := repeat(20, func(i int) Activity { return activityAt(daysAgo(i, 7), LabelMindfulness) })
	body := repeat(20, func(i int) Activity { return activityAt(daysAgo(i, 18), LabelPhysical) })

	unlocked, _ := checkOne(t, "mind_and_body", Input{Activities: append(append([]Activity{}, mind...), body...)})
	assert.True(t, unlocked)

	unlocked, p := checkOne(t, "mind_and_body", Input{Activities: append(append([]Activity{}, mind...), body[:10]...)})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.InDelta(t, 0.75, p.Progress, 1e-9)
}

func TestConsistentTracker(t *testing.T) {
	weekly := func(n int) []Activity {
		return repeat(n, func(i int) Activity { return activityAt(testNow.Add(-time.Duration(i) * 7 * day)) })
	}

	unlocked, _ := checkOne(t, "consistent_tracker", Input{Activities: weekly(12)})
	assert.True(t, unlocked)

	unlocked, p := checkOne(t, "consistent_tracker", Input{Activities: weekly(10)})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.Equal(t, 10.0, p.Current)
	assert.Less(t, p.Progress, 1.0)
}

func TestActivitiesWithNotes(t *testing.T) {
	noted := repeat(20, func(i int) Activity {
		a := activityAt(daysAgo(i, 9))
		a.Note = "felt good"
		return a
	})
	unlocked, _ := checkOne(t, "reflective_writer", Input{Activities: noted})
	assert.True(t, unlocked)

	noted[0].Note = "   "
	unlocked, p := checkOne(t, "reflective_writer", Input{Activities: noted})
	assert.False(t, unlocked)
	require.NotNil(t, p)
	assert.Equal(t, 19.0, p.Current)
}

func TestActivitiesWithNotes_DefaultThreshold(t *testing.T) {
	def := Definition{ID: "notes", Criteria: Criterion{Type: CriterionCustom, CustomCheck: CheckActivitiesWithNotes}}
	res := newTestEvaluator(testNow, def).CheckAll(Input{})
	p, ok := progressFor(res, "notes")
	require.True(t, ok)
	assert.Equal(t, float64(defaultNotesThreshold), p.Required)
}

func TestNightOwlAndEarlyBird(t *testing.T) {
	at := func(hour int) []Activity {
		return repeat(10, func(i int) Activity { return activityAt(daysAgo(i, hour)) })
	}

	tests := []struct {
		id       string
		hour     int
		unlocked bool
	}{
		{"night_owl", 22, true},
		{"night_owl", 0, true},
		{"night_owl", 5, true},
		{"night_owl", 6, false},
		{"night_owl", 20, false},
		{"early_bird", 0, true},
		{"early_bird", 7, true},
		{"early_bird", 8, false},
	}
	for _, tt := range tests {
		unlocked, _ := checkOne(t, tt.id, Input{Activities: at(tt.hour)})
		assert.Equal(t, tt.unlocked, unlocked, "%s at %02d:00", tt.id, tt.hour)
	}
}

func TestNightOwl_UsesLocalHour(t *testing.T) {
	// 15:00 UTC is 22:00 at UTC+7.
	activities := repeat(10, func(i int) Activity { return activityAt(daysAgo(i, 15)) })
	ev := newTestEvaluator(testNow, mustFind(t, "night_owl"))

	assert.Empty(t, ev.CheckAll(Input{Activities: activities}).NewlyUnlocked)
	assert.Len(t, ev.In(time.FixedZone("WIB", 7*60*60)).CheckAll(Input{Activities: activities}).NewlyUnlocked, 1)
}

func TestComeback(t *testing.T) {
	relapseAt := testNow.Add(-3 * day)
	relapses := []Relapse{{ID: "r1", Timestamp: relapseAt}}
	offsets := []time.Duration{
		time.Hour,
		3 * time.Hour,
		10 * time.Hour,
		20 * time.Hour,
		23*time.Hour + 59*time.Minute,
	}
	after := func(offsets []time.Duration) []Activity {
		out := make([]Activity, 0, len(offsets))
		for _, o := range offsets {
			out = append(out, activityAt(relapseAt.Add(o)))
		}
		return out
	}

	unlocked, _ := checkOne(t, "comeback_kid", Input{Activities: after(offsets), Relapses: relapses})
	assert.True(t, unlocked)

	late := append(append([]time.Duration{}, offsets[:4]...), 24*time.Hour+time.Minute)
	unlocked, p := checkOne(t, "comeback_kid", Input{Activities: after(late), Relapses: relapses})
	assert.False(t, unlocked)
	assert.Nil(t, p, "comeback reports no progress")

	before := append(after(offsets[:4]), activityAt(relapseAt.Add(-time.Minute)))
	unlocked, _ = checkOne(t, "comeback_kid", Input{Activities: before, Relapses: relapses})
	assert.False(t, unlocked)

	unlocked, _ = checkOne(t, "comeback_kid", Input{Activities: after(offsets)})
	assert.False(t, unlocked, "no relapses means nothing to come back from")
}

func TestComeback_ChecksEveryRelapse(t *testing.T) {
	early := testNow.Add(-10 * day)
	latest := testNow.Add(-1 * day)

	activities := repeat(5, func(i int) Activity { return activityAt(early.Add(time.Duration(i+1) * time.Hour)) })
	relapses := []Relapse{{ID: "r1", Timestamp: early}, {ID: "r2", Timestamp: latest}}

	unlocked, _ := checkOne(t, "comeback_kid", Input{Activities: activities, Relapses: relapses})
	assert.True(t, unlocked)
}

func TestVarietyLover(t *testing.T) {
	returned := []Activity{
		activityAt(daysAgo(20, 9), LabelCreative),
		activityAt(daysAgo(60, 9), LabelCreative),
		activityAt(daysAgo(50, 9), LabelSocial),
	}
	unlocked, p := checkOne(t, "variety_lover", Input{Activities: returned})
	assert.True(t, unlocked)
	assert.Nil(t, p)

	regular := repeat(10, func(i int) Activity { return activityAt(daysAgo(i*10, 9), LabelCreative) })
	unlocked, p = checkOne(t, "variety_lover", Input{Activities: regular})
	assert.False(t, unlocked)
	assert.Nil(t, p, "variety lover reports no progress")

	exact := []Activity{
		activityAt(daysAgo(30, 9), LabelPhysical),
		activityAt(daysAgo(0, 9), LabelPhysical),
	}
	unlocked, _ = checkOne(t, "variety_lover", Input{Activities: exact})
	assert.True(t, unlocked, "a gap of exactly 30 days counts")
}
