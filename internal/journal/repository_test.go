package journal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/focusnest/seeding-service/internal/badge"
)

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo, err := NewGormRepository(context.Background(), db)
	require.NoError(t, err)
	return repo
}

func TestRepositories(t *testing.T) {
	impls := map[string]func(t *testing.T) Repository{
		"memory": func(*testing.T) Repository { return NewMemoryRepository() },
		"sqlite": newSQLiteRepository,
	}
	for name, newRepo := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("activities", func(t *testing.T) { testActivities(t, newRepo(t)) })
			t.Run("relapses and urges", func(t *testing.T) { testRelapsesAndUrges(t, newRepo(t)) })
			t.Run("journey", func(t *testing.T) { testJourney(t, newRepo(t)) })
			t.Run("earned badges", func(t *testing.T) { testEarnedBadges(t, newRepo(t)) })
			t.Run("delete user", func(t *testing.T) { testDeleteUser(t, newRepo(t)) })
		})
	}
}

var base = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func testActivities(t *testing.T, repo Repository) {
	ctx := context.Background()

	older := Activity{ID: "a1", UserID: "u1", Timestamp: base, Categories: []string{"🧘 Mindfulness"}, CreatedAt: base}
	newer := Activity{ID: "a2", UserID: "u1", Timestamp: base.Add(time.Hour), Note: "run", Categories: []string{}, CreatedAt: base}
	other := Activity{ID: "a3", UserID: "u2", Timestamp: base, Categories: []string{}, CreatedAt: base}

	for _, a := range []Activity{older, newer, other} {
		require.NoError(t, repo.CreateActivity(ctx, a))
	}
	assert.ErrorIs(t, repo.CreateActivity(ctx, older), ErrConflict)

	list, err := repo.ListActivities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID, "newest first")
	assert.Equal(t, []string{"🧘 Mindfulness"}, list[1].Categories)
	assert.True(t, list[1].Timestamp.Equal(base))
	assert.Equal(t, "run", list[0].Note)

	require.NoError(t, repo.DeleteActivity(ctx, "u1", "a1", base.Add(2*time.Hour)))
	assert.ErrorIs(t, repo.DeleteActivity(ctx, "u1", "a1", base.Add(3*time.Hour)), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteActivity(ctx, "u1", "missing", base), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteActivity(ctx, "u2", "a2", base), ErrNotFound, "other users' records are invisible")

	list, err = repo.ListActivities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a2", list[0].ID)

	list, err = repo.ListActivities(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testRelapsesAndUrges(t *testing.T, repo Repository) {
	ctx := context.Background()

	require.NoError(t, repo.CreateRelapse(ctx, Relapse{ID: "r1", UserID: "u1", Timestamp: base, Tags: []string{"stress"}, CreatedAt: base}))
	require.NoError(t, repo.CreateRelapse(ctx, Relapse{ID: "r2", UserID: "u1", Timestamp: base.Add(24 * time.Hour), Tags: []string{}, CreatedAt: base}))
	assert.ErrorIs(t, repo.CreateRelapse(ctx, Relapse{ID: "r1", UserID: "u1", Timestamp: base}), ErrConflict)

	relapses, err := repo.ListRelapses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, relapses, 2)
	assert.Equal(t, "r2", relapses[0].ID)
	assert.Equal(t, []string{"stress"}, relapses[1].Tags)

	require.NoError(t, repo.DeleteRelapse(ctx, "u1", "r2", base))
	relapses, err = repo.ListRelapses(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, relapses, 1)

	require.NoError(t, repo.CreateUrge(ctx, Urge{ID: "g1", UserID: "u1", Timestamp: base, Intensity: 6, CreatedAt: base}))
	urges, err := repo.ListUrges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, urges, 1)
	assert.Equal(t, 6, urges[0].Intensity)

	require.NoError(t, repo.DeleteUrge(ctx, "u1", "g1", base))
	assert.ErrorIs(t, repo.DeleteUrge(ctx, "u1", "g1", base), ErrNotFound)
	urges, err = repo.ListUrges(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, urges)
}

func testJourney(t *testing.T, repo Repository) {
	ctx := context.Background()

	_, err := repo.GetJourney(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := repo.UpsertJourney(ctx, Journey{UserID: "u1", StartedAt: base, Timezone: "Asia/Jakarta", CreatedAt: base, UpdatedAt: base})
	require.NoError(t, err)
	assert.True(t, first.StartedAt.Equal(base))

	later := base.Add(72 * time.Hour)
	second, err := repo.UpsertJourney(ctx, Journey{UserID: "u1", StartedAt: later, Timezone: "UTC", CreatedAt: later, UpdatedAt: later})
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.Equal(base), "created_at survives a restart")
	assert.True(t, second.StartedAt.Equal(later))
	assert.Equal(t, "UTC", second.Timezone)

	got, err := repo.GetJourney(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.StartedAt.Equal(later))
}

func testEarnedBadges(t *testing.T, repo Repository) {
	ctx := context.Background()

	already, err := repo.AwardBadge(ctx, "u1", badge.EarnedBadge{BadgeID: "first_step", UnlockedAt: base})
	require.NoError(t, err)
	assert.False(t, already)

	already, err = repo.AwardBadge(ctx, "u1", badge.EarnedBadge{BadgeID: "first_step", UnlockedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, already)

	_, err = repo.AwardBadge(ctx, "u1", badge.EarnedBadge{BadgeID: "explorer", UnlockedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	earned, err := repo.ListEarnedBadges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, earned, 2)
	assert.Equal(t, "first_step", earned[0].BadgeID)
	assert.True(t, earned[0].UnlockedAt.Equal(base), "first award is kept")
	assert.Equal(t, "explorer", earned[1].BadgeID)

	others, err := repo.ListEarnedBadges(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func testDeleteUser(t *testing.T, repo Repository) {
	ctx := context.Background()

	require.NoError(t, repo.CreateActivity(ctx, Activity{ID: "a1", UserID: "u1", Timestamp: base, Categories: []string{}}))
	require.NoError(t, repo.CreateActivity(ctx, Activity{ID: "a2", UserID: "u2", Timestamp: base, Categories: []string{}}))
	require.NoError(t, repo.CreateRelapse(ctx, Relapse{ID: "r1", UserID: "u1", Timestamp: base, Tags: []string{}}))
	require.NoError(t, repo.CreateUrge(ctx, Urge{ID: "g1", UserID: "u1", Timestamp: base, Intensity: 3}))
	_, err := repo.UpsertJourney(ctx, Journey{UserID: "u1", StartedAt: base})
	require.NoError(t, err)
	_, err = repo.AwardBadge(ctx, "u1", badge.EarnedBadge{BadgeID: "first_step", UnlockedAt: base})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, "u1"))

	activities, _ := repo.ListActivities(ctx, "u1")
	relapses, _ := repo.ListRelapses(ctx, "u1")
	urges, _ := repo.ListUrges(ctx, "u1")
	earned, _ := repo.ListEarnedBadges(ctx, "u1")
	assert.Empty(t, activities)
	assert.Empty(t, relapses)
	assert.Empty(t, urges)
	assert.Empty(t, earned)
	_, err = repo.GetJourney(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Awards are possible again after a reset.
	already, err := repo.AwardBadge(ctx, "u1", badge.EarnedBadge{BadgeID: "first_step", UnlockedAt: base})
	require.NoError(t, err)
	assert.False(t, already)

	survivors, err := repo.ListActivities(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, survivors, 1)
}
