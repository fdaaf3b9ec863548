package badge

import (
	"errors"
	"fmt"
	"strings"
)

// Catalog returns the canonical badge list. Keep IDs stable because clients
// and the earned-badge store key on them.
func Catalog() []Definition {
	return []Definition{
		// Frequency
		{ID: "first_step", Category: CategoryFrequency, Emoji: "🌱", Title: "First Step",
			Description: "Log your first activity",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 1, Timeframe: TimeframeAllTime}},
		{ID: "getting_started", Category: CategoryFrequency, Emoji: "🌿", Title: "Getting Started",
			Description: "Log 10 activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 10, Timeframe: TimeframeAllTime}},
		{ID: "dedicated", Category: CategoryFrequency, Emoji: "🪴", Title: "Dedicated",
			Description: "Log 50 activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 50, Timeframe: TimeframeAllTime}},
		{ID: "centurion", Category: CategoryFrequency, Emoji: "💯", Title: "Centurion",
			Description: "Log 100 activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 100, Timeframe: TimeframeAllTime}},
		{ID: "daily_double", Category: CategoryFrequency, Emoji: "✌️", Title: "Daily Double",
			Description: "Log 3 activities within 24 hours",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 3, Timeframe: TimeframeDay}},
		{ID: "weekly_warrior", Category: CategoryFrequency, Emoji: "🗓️", Title: "Weekly Warrior",
			Description: "Be active on 5 different days within a week",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 5, Timeframe: TimeframeWeek}},
		{ID: "weekly_champion", Category: CategoryFrequency, Emoji: "🏆", Title: "Weekly Champion",
			Description: "Be active on 7 different days within a week",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 7, Timeframe: TimeframeWeek}},
		{ID: "monthly_master", Category: CategoryFrequency, Emoji: "📅", Title: "Monthly Master",
			Description: "Log 20 activities within 30 days",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 20, Timeframe: TimeframeMonth}},
		{ID: "mindful_moments", Category: CategoryFrequency, Emoji: "🧘", Title: "Mindful Moments",
			Description: "Log 10 mindfulness activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 10, Timeframe: TimeframeAllTime, CategoryID: LabelMindfulness}},
		{ID: "body_mover", Category: CategoryFrequency, Emoji: "💪", Title: "Body Mover",
			Description: "Log 10 physical activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 10, Timeframe: TimeframeAllTime, CategoryID: LabelPhysical}},
		{ID: "creative_spark", Category: CategoryFrequency, Emoji: "🎨", Title: "Creative Spark",
			Description: "Log 10 creative activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 10, Timeframe: TimeframeAllTime, CategoryID: LabelCreative}},
		{ID: "social_butterfly", Category: CategoryFrequency, Emoji: "🦋", Title: "Social Butterfly",
			Description: "Log 10 social activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 10, Timeframe: TimeframeAllTime, CategoryID: LabelSocial}},
		{ID: "lifelong_learner", Category: CategoryFrequency, Emoji: "📚", Title: "Lifelong Learner",
			Description: "Log 10 learning activities",
			Criteria:    Criterion{Type: CriterionActivityCount, Threshold: 10, Timeframe: TimeframeAllTime, CategoryID: LabelLearning}},

		// Streak
		{ID: "hot_streak", Category: CategoryStreak, Emoji: "🔥", Title: "Hot Streak",
			Description: "Be active 3 days in a row",
			Criteria:    Criterion{Type: CriterionStreakDays, Threshold: 3}},
		{ID: "week_strong", Category: CategoryStreak, Emoji: "💫", Title: "Week Strong",
			Description: "Be active 7 days in a row",
			Criteria:    Criterion{Type: CriterionStreakDays, Threshold: 7}},
		{ID: "fortnight_focus", Category: CategoryStreak, Emoji: "⚡", Title: "Fortnight Focus",
			Description: "Be active 14 days in a row",
			Criteria:    Criterion{Type: CriterionStreakDays, Threshold: 14}},
		{ID: "monthly_momentum", Category: CategoryStreak, Emoji: "🚀", Title: "Monthly Momentum",
			Description: "Be active 30 days in a row",
			Criteria:    Criterion{Type: CriterionStreakDays, Threshold: 30}},
		{ID: "unstoppable", Category: CategoryStreak, Emoji: "🌋", Title: "Unstoppable",
			Description: "Be active 60 days in a row",
			Criteria:    Criterion{Type: CriterionStreakDays, Threshold: 60}},
		{ID: "century_streak", Category: CategoryStreak, Emoji: "👑", Title: "Century Streak",
			Description: "Be active 100 days in a row",
			Criteria:    Criterion{Type: CriterionStreakDays, Threshold: 100}},

		// Diversity
		{ID: "explorer", Category: CategoryDiversity, Emoji: "🧭", Title: "Explorer",
			Description: "Try 3 different activity categories",
			Criteria:    Criterion{Type: CriterionCategoryDiversity, Threshold: 3}},
		{ID: "variety_seeker", Category: CategoryDiversity, Emoji: "🌈", Title: "Variety Seeker",
			Description: "Try 5 different activity categories",
			Criteria:    Criterion{Type: CriterionCategoryDiversity, Threshold: 5}},
		{ID: "renaissance", Category: CategoryDiversity, Emoji: "🎭", Title: "Renaissance Soul",
			Description: "Try 8 different activity categories",
			Criteria:    Criterion{Type: CriterionCategoryDiversity, Threshold: 8}},

		// Milestone
		{ID: "day_one", Category: CategoryMilestone, Emoji: "🌄", Title: "Day One",
			Description: "One day on your journey",
			Criteria:    Criterion{Type: CriterionTimeTracking, Threshold: 1}},
		{ID: "one_week", Category: CategoryMilestone, Emoji: "🌤️", Title: "One Week",
			Description: "Seven days on your journey",
			Criteria:    Criterion{Type: CriterionTimeTracking, Threshold: 7}},
		{ID: "one_month", Category: CategoryMilestone, Emoji: "🌙", Title: "One Month",
			Description: "Thirty days on your journey",
			Criteria:    Criterion{Type: CriterionTimeTracking, Threshold: 30}},
		{ID: "three_months", Category: CategoryMilestone, Emoji: "🌳", Title: "Three Months",
			Description: "Ninety days on your journey",
			Criteria:    Criterion{Type: CriterionTimeTracking, Threshold: 90}},
		{ID: "half_year", Category: CategoryMilestone, Emoji: "🏔️", Title: "Half a Year",
			Description: "180 days on your journey",
			Criteria:    Criterion{Type: CriterionTimeTracking, Threshold: 180}},
		{ID: "one_year", Category: CategoryMilestone, Emoji: "🎉", Title: "One Year",
			Description: "A full year on your journey",
			Criteria:    Criterion{Type: CriterionTimeTracking, Threshold: 365}},

		// Recovery
		{ID: "comeback_kid", Category: CategoryRecovery, Emoji: "🌅", Title: "Comeback Kid",
			Description: "Log 5 activities within 24 hours of a relapse",
			Criteria:    Criterion{Type: CriterionCustom, CustomCheck: CheckComeback, Threshold: 5}},
		{ID: "consistent_tracker", Category: CategoryRecovery, Emoji: "📈", Title: "Consistent Tracker",
			Description: "Stay active in most weeks over three months",
			Criteria:    Criterion{Type: CriterionCustom, CustomCheck: CheckConsistentTracker}},

		// Special
		{ID: "perfect_week", Category: CategorySpecial, Emoji: "⭐", Title: "Perfect Week",
			Description: "Log an activity every day for a week",
			Criteria:    Criterion{Type: CriterionCustom, CustomCheck: CheckPerfectWeek}},
		{ID: "balanced_week", Category: CategorySpecial, Emoji: "⚖️", Title: "Balanced Week",
			Description: "Log 10 activities across 5 categories in a week",
			Criteria:    Criterion{Type: CriterionCustom, CustomCheck: CheckBalancedWeek}},
		{ID: "well_rounded", Category: CategorySpecial, Emoji: "🔵", Title: "Well Rounded",
			Description: "Log 10 activities in each core category",
			Criteria:    Criterion{Type: CriterionCustom, CustomCheck: CheckWellRounded}},
		{ID: "mind_and_body", Category: CategorySpecial, Emoji: "☯️", Title: "Mind & Body",
			Description: "Log 20 mindfulness and 20 physical activities",
			Criteria:    Criterion{Type: CriterionCustom, CustomCheck: CheckMindAndBody}},
		{ID: "reflective_writer", Category: CategorySpecial, Emoji: "📝", Title: "Reflective Writer",
			Description: "Add notes to 20 activities",
			Criteria:    Criterion{Type: CriterionCustom, CustomCheck: CheckActivitiesWithNotes, Threshold: 20}},
		{ID: "night_owl", Category: CategorySpecial, Emoji: "🦉", Title: "Night Owl",
			Description: "Log 10 activities late at night", IsHidden: true,
			Criteria: Criterion{Type: CriterionCustom, CustomCheck: CheckNightOwl, Threshold: 10}},
		{ID: "early_bird", Category: CategorySpecial, Emoji: "🐦", Title: "Early Bird",
			Description: "Log 10 activities early in the morning", IsHidden: true,
			Criteria: Criterion{Type: CriterionCustom, CustomCheck: CheckEarlyBird, Threshold: 10}},
		{ID: "variety_lover", Category: CategorySpecial, Emoji: "🔄", Title: "Old Friend",
			Description: "Return to a category after a month away", IsHidden: true,
			Criteria: Criterion{Type: CriterionCustom, CustomCheck: CheckVarietyLover}},
	}
}

// Find returns the catalog definition with the given id.
func Find(defs []Definition, id string) (Definition, bool) {
	for _, d := range defs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// ValidateCatalog reports every malformed definition in defs.
func ValidateCatalog(defs []Definition) error {
	var problems []string
	seen := make(map[string]struct{}, len(defs))

	for _, d := range defs {
		if strings.TrimSpace(d.ID) == "" {
			problems = append(problems, "badge with empty id")
			continue
		}
		if _, dup := seen[d.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", d.ID))
		}
		seen[d.ID] = struct{}{}

		c := d.Criteria
		switch c.Type {
		case CriterionActivityCount:
			switch c.Timeframe {
			case TimeframeDay, TimeframeWeek, TimeframeMonth, TimeframeAllTime:
			default:
				problems = append(problems, fmt.Sprintf("%s: unknown timeframe %q", d.ID, c.Timeframe))
			}
			fallthrough
		case CriterionStreakDays, CriterionCategoryDiversity, CriterionTimeTracking:
			if c.Threshold <= 0 {
				problems = append(problems, fmt.Sprintf("%s: threshold must be positive", d.ID))
			}
		case CriterionCustom:
			if !KnownCustomCheck(c.CustomCheck) {
				problems = append(problems, fmt.Sprintf("%s: unknown custom check %q", d.ID, c.CustomCheck))
			}
			if c.Threshold < 0 {
				problems = append(problems, fmt.Sprintf("%s: threshold must not be negative", d.ID))
			}
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown criterion type %q", d.ID, c.Type))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
