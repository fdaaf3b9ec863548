package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/focusnest/seeding-service/internal/badge"
)

const (
	// MaxCategories caps the labels attached to a single activity.
	MaxCategories = 5
	// MaxNoteLength caps free-text notes, in runes.
	MaxNoteLength = 2000

	MinIntensity = 1
	MaxIntensity = 10
)

type Activity struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Timestamp  time.Time  `json:"timestamp"`
	Note       string     `json:"note,omitempty"`
	Categories []string   `json:"categories"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"-"`
}

type Relapse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Timestamp time.Time  `json:"timestamp"`
	Note      string     `json:"note,omitempty"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// Urge is a craving the user logged and resisted.
type Urge struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Timestamp time.Time  `json:"timestamp"`
	Intensity int        `json:"intensity"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

// Journey anchors milestone badges and relapse stats. Timezone is an IANA
// name used to cut events into calendar days.
type Journey struct {
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is everything stored for one user.
type Snapshot struct {
	UserID     string              `json:"user_id"`
	Journey    *Journey            `json:"journey,omitempty"`
	Activities []Activity          `json:"activities"`
	Relapses   []Relapse           `json:"relapses"`
	Urges      []Urge              `json:"urges"`
	Earned     []badge.EarnedBadge `json:"earned_badges"`
	ExportedAt time.Time           `json:"exported_at"`
}

func (a Activity) toBadge() badge.Activity {
	return badge.Activity{ID: a.ID, Timestamp: a.Timestamp, Note: a.Note, Categories: a.Categories}
}

func (r Relapse) toBadge() badge.Relapse {
	return badge.Relapse{ID: r.ID, Timestamp: r.Timestamp, Note: r.Note, Tags: r.Tags}
}

// ActivityInput captures a new activity. A nil Timestamp means now.
type ActivityInput struct {
	UserID     string
	Timestamp  *time.Time
	Note       string
	Categories []string
}

// Validate ensures the input fields meet the domain constraints.
func (i ActivityInput) Validate() error {
	var problems []string
	if i.UserID == "" {
		problems = append(problems, "user_id is required")
	}
	if n := len(normalizeLabels(i.Categories)); n > MaxCategories {
		problems = append(problems, fmt.Sprintf("at most %d categories allowed, got %d", MaxCategories, n))
	}
	problems = append(problems, noteProblems(i.Note)...)
	return joinProblems(problems)
}

// RelapseInput captures a new relapse. A nil Timestamp means now.
type RelapseInput struct {
	UserID    string
	Timestamp *time.Time
	Note      string
	Tags      []string
}

func (i RelapseInput) Validate() error {
	var problems []string
	if i.UserID == "" {
		problems = append(problems, "user_id is required")
	}
	problems = append(problems, noteProblems(i.Note)...)
	return joinProblems(problems)
}

// UrgeInput captures a resisted urge. A nil Timestamp means now.
type UrgeInput struct {
	UserID    string
	Timestamp *time.Time
	Intensity int
	Note      string
}

func (i UrgeInput) Validate() error {
	var problems []string
	if i.UserID == "" {
		problems = append(problems, "user_id is required")
	}
	if i.Intensity < MinIntensity || i.Intensity > MaxIntensity {
		problems = append(problems, fmt.Sprintf("intensity must be between %d and %d", MinIntensity, MaxIntensity))
	}
	problems = append(problems, noteProblems(i.Note)...)
	return joinProblems(problems)
}

// JourneyInput starts or restarts a journey. A nil StartedAt means now; an
// empty Timezone keeps the stored one or falls back to the service default.
type JourneyInput struct {
	UserID    string
	StartedAt *time.Time
	Timezone  string
}

func (i JourneyInput) Validate() error {
	var problems []string
	if i.UserID == "" {
		problems = append(problems, "user_id is required")
	}
	if tz := strings.TrimSpace(i.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			problems = append(problems, fmt.Sprintf("unknown timezone %q", tz))
		}
	}
	return joinProblems(problems)
}

func noteProblems(note string) []string {
	if len([]rune(note)) > MaxNoteLength {
		return []string{fmt.Sprintf("note must be at most %d characters", MaxNoteLength)}
	}
	return nil
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// normalizeLabels trims labels, drops empties and de-duplicates while keeping order.
func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
