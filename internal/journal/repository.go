package journal

import (
	"context"
	"time"

	"github.com/focusnest/seeding-service/internal/badge"
)

// Repository encapsulates persistence for a user's journal. List methods
// return live (not deleted) records, newest first.
type Repository interface {
	CreateActivity(ctx context.Context, a Activity) error
	DeleteActivity(ctx context.Context, userID, id string, deletedAt time.Time) error
	ListActivities(ctx context.Context, userID string) ([]Activity, error)

	CreateRelapse(ctx context.Context, r Relapse) error
	DeleteRelapse(ctx context.Context, userID, id string, deletedAt time.Time) error
	ListRelapses(ctx context.Context, userID string) ([]Relapse, error)

	CreateUrge(ctx context.Context, u Urge) error
	DeleteUrge(ctx context.Context, userID, id string, deletedAt time.Time) error
	ListUrges(ctx context.Context, userID string) ([]Urge, error)

	// GetJourney returns ErrNotFound when the user never started one.
	GetJourney(ctx context.Context, userID string) (Journey, error)
	// UpsertJourney stores j, keeping the original CreatedAt when one exists.
	UpsertJourney(ctx context.Context, j Journey) (Journey, error)

	ListEarnedBadges(ctx context.Context, userID string) ([]badge.EarnedBadge, error)
	// AwardBadge records an earned badge once. already reports whether the
	// badge was on record before this call; the stored record is left untouched.
	AwardBadge(ctx context.Context, userID string, earned badge.EarnedBadge) (already bool, err error)

	// DeleteUser hard-deletes every record owned by the user.
	DeleteUser(ctx context.Context, userID string) error
}

// ProgressCache stores the last computed progress per user.
type ProgressCache interface {
	Get(ctx context.Context, userID string) ([]badge.Progress, bool, error)
	Set(ctx context.Context, userID string, progress []badge.Progress) error
	Invalidate(ctx context.Context, userID string) error
}

// Archiver keeps a copy of a user's data before it is reset and returns
// where it was written.
type Archiver interface {
	Archive(ctx context.Context, snap Snapshot) (string, error)
}

// Recorder receives evaluation telemetry.
type Recorder interface {
	ObserveEvaluation(d time.Duration)
	BadgeUnlocked(def badge.Definition)
}
