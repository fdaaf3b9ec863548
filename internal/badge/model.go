package badge

import (
	"time"
)

// Category groups badges for display.
type Category string

const (
	CategoryFrequency Category = "frequency"
	CategoryStreak    Category = "streak"
	CategoryDiversity Category = "diversity"
	CategoryMilestone Category = "milestone"
	CategoryRecovery  Category = "recovery"
	CategorySpecial   Category = "special"
)

// CriterionType identifies which evaluation strategy unlocks a badge.
type CriterionType string

const (
	CriterionActivityCount     CriterionType = "activity_count"
	CriterionStreakDays        CriterionType = "streak_days"
	CriterionCategoryDiversity CriterionType = "category_diversity"
	CriterionTimeTracking      CriterionType = "time_tracking"
	CriterionCustom            CriterionType = "custom"
)

// Timeframe is a sliding lookback window measured backward from evaluation time.
type Timeframe string

const (
	TimeframeDay     Timeframe = "day"
	TimeframeWeek    Timeframe = "week"
	TimeframeMonth   Timeframe = "month"
	TimeframeAllTime Timeframe = "all_time"
)

// Window returns the lookback duration; zero means unbounded.
func (t Timeframe) Window() time.Duration {
	switch t {
	case TimeframeDay:
		return day
	case TimeframeWeek:
		return 7 * day
	case TimeframeMonth:
		return 30 * day
	default:
		return 0
	}
}

// CustomCheck names one of the fixed custom predicates.
type CustomCheck string

const (
	CheckPerfectWeek         CustomCheck = "perfectWeek"
	CheckBalancedWeek        CustomCheck = "balancedWeek"
	CheckWellRounded         CustomCheck = "wellRounded"
	CheckMindAndBody         CustomCheck = "mindAndBody"
	CheckConsistentTracker   CustomCheck = "consistentTracker"
	CheckActivitiesWithNotes CustomCheck = "activitiesWithNotes"
	CheckNightOwl            CustomCheck = "nightOwl"
	CheckEarlyBird           CustomCheck = "earlyBird"
	CheckComeback            CustomCheck = "comeback"
	CheckVarietyLover        CustomCheck = "varietyLover"
)

// Criterion describes when a badge unlocks. Which fields apply depends on Type.
type Criterion struct {
	Type        CriterionType `json:"type"`
	Threshold   int           `json:"threshold,omitempty"`
	Timeframe   Timeframe     `json:"timeframe,omitempty"`
	CategoryID  string        `json:"category_id,omitempty"`
	CustomCheck CustomCheck   `json:"custom_check,omitempty"`
}

// Definition is a static badge template. IDs are persisted by clients; keep them stable.
type Definition struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Emoji       string    `json:"emoji"`
	IsHidden    bool      `json:"is_hidden,omitempty"`
	Criteria    Criterion `json:"unlock_criteria"`
}

// Activity is a logged positive action as seen by the evaluator.
type Activity struct {
	ID         string
	Timestamp  time.Time
	Note       string
	Categories []string
}

// Relapse is a logged setback as seen by the evaluator.
type Relapse struct {
	ID        string
	Timestamp time.Time
	Note      string
	Tags      []string
}

// EarnedBadge records that a badge has been unlocked once.
type EarnedBadge struct {
	BadgeID    string    `json:"badge_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Progress is the derived distance to a locked badge.
type Progress struct {
	BadgeID  string  `json:"badge_id"`
	Progress float64 `json:"progress"`
	Current  float64 `json:"current"`
	Required float64 `json:"required"`
}

// Input is the event-log snapshot handed to the evaluator.
type Input struct {
	Activities   []Activity
	Earned       []EarnedBadge
	Relapses     []Relapse
	JourneyStart *time.Time
}

// Result lists the badges unlocked by this evaluation and progress for the rest.
type Result struct {
	NewlyUnlocked []Definition `json:"newly_unlocked"`
	Progress      []Progress   `json:"progress"`
}

// outcome is what a single strategy reports. progress is nil when the
// strategy has nothing meaningful to expose.
type outcome struct {
	unlocked bool
	progress *Progress
}
