package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/focusnest/seeding-service/internal/badge"
)

type activityRow struct {
	ID         string                      `gorm:"primaryKey;size:64"`
	UserID     string                      `gorm:"index:idx_activities_user_ts,priority:1;size:128;not null"`
	Timestamp  time.Time                   `gorm:"index:idx_activities_user_ts,priority:2;not null"`
	Note       string                      `gorm:"type:text"`
	Categories datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (activityRow) TableName() string { return "activities" }

type relapseRow struct {
	ID        string                      `gorm:"primaryKey;size:64"`
	UserID    string                      `gorm:"index:idx_relapses_user_ts,priority:1;size:128;not null"`
	Timestamp time.Time                   `gorm:"index:idx_relapses_user_ts,priority:2;not null"`
	Note      string                      `gorm:"type:text"`
	Tags      datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (relapseRow) TableName() string { return "relapses" }

type urgeRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"index:idx_urges_user_ts,priority:1;size:128;not null"`
	Timestamp time.Time `gorm:"index:idx_urges_user_ts,priority:2;not null"`
	Intensity int       `gorm:"not null"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (urgeRow) TableName() string { return "urges" }

type journeyRow struct {
	UserID    string    `gorm:"primaryKey;size:128"`
	StartedAt time.Time `gorm:"not null"`
	Timezone  string    `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (journeyRow) TableName() string { return "journeys" }

type earnedBadgeRow struct {
	UserID     string    `gorm:"primaryKey;size:128"`
	BadgeID    string    `gorm:"primaryKey;size:64"`
	UnlockedAt time.Time `gorm:"not null"`
}

func (earnedBadgeRow) TableName() string { return "earned_badges" }

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository migrates the schema and returns a SQL-backed repository.
// db should be opened with TranslateError so duplicate keys surface as
// gorm.ErrDuplicatedKey.
func NewGormRepository(ctx context.Context, db *gorm.DB) (Repository, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if err := db.WithContext(ctx).AutoMigrate(
		&activityRow{},
		&relapseRow{},
		&urgeRow{},
		&journeyRow{},
		&earnedBadgeRow{},
	); err != nil {
		return nil, fmt.Errorf("migrate journal schema: %w", err)
	}
	return &gormRepository{db: db}, nil
}

// ===== Activities =====

func (r *gormRepository) CreateActivity(ctx context.Context, a Activity) error {
	return translate(r.db.WithContext(ctx).Create(&activityRow{
		ID:         a.ID,
		UserID:     a.UserID,
		Timestamp:  a.Timestamp,
		Note:       a.Note,
		Categories: datatypes.JSONSlice[string](nonNil(a.Categories)),
		CreatedAt:  a.CreatedAt,
	}).Error)
}

func (r *gormRepository) DeleteActivity(ctx context.Context, userID, id string, deletedAt time.Time) error {
	return r.softDelete(ctx, &activityRow{}, userID, id, deletedAt)
}

func (r *gormRepository) ListActivities(ctx context.Context, userID string) ([]Activity, error) {
	var rows []activityRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Activity, 0, len(rows))
	for _, row := range rows {
		out = append(out, Activity{
			ID:         row.ID,
			UserID:     row.UserID,
			Timestamp:  row.Timestamp.UTC(),
			Note:       row.Note,
			Categories: nonNil(row.Categories),
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// ===== Relapses =====

func (r *gormRepository) CreateRelapse(ctx context.Context, rel Relapse) error {
	return translate(r.db.WithContext(ctx).Create(&relapseRow{
		ID:        rel.ID,
		UserID:    rel.UserID,
		Timestamp: rel.Timestamp,
		Note:      rel.Note,
		Tags:      datatypes.JSONSlice[string](nonNil(rel.Tags)),
		CreatedAt: rel.CreatedAt,
	}).Error)
}

func (r *gormRepository) DeleteRelapse(ctx context.Context, userID, id string, deletedAt time.Time) error {
	return r.softDelete(ctx, &relapseRow{}, userID, id, deletedAt)
}

func (r *gormRepository) ListRelapses(ctx context.Context, userID string) ([]Relapse, error) {
	var rows []relapseRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Relapse, 0, len(rows))
	for _, row := range rows {
		out = append(out, Relapse{
			ID:        row.ID,
			UserID:    row.UserID,
			Timestamp: row.Timestamp.UTC(),
			Note:      row.Note,
			Tags:      nonNil(row.Tags),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// ===== Urges =====

func (r *gormRepository) CreateUrge(ctx context.Context, u Urge) error {
	return translate(r.db.WithContext(ctx).Create(&urgeRow{
		ID:        u.ID,
		UserID:    u.UserID,
		Timestamp: u.Timestamp,
		Intensity: u.Intensity,
		Note:      u.Note,
		CreatedAt: u.CreatedAt,
	}).Error)
}

func (r *gormRepository) DeleteUrge(ctx context.Context, userID, id string, deletedAt time.Time) error {
	return r.softDelete(ctx, &urgeRow{}, userID, id, deletedAt)
}

func (r *gormRepository) ListUrges(ctx context.Context, userID string) ([]Urge, error) {
	var rows []urgeRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Urge, 0, len(rows))
	for _, row := range rows {
		out = append(out, Urge{
			ID:        row.ID,
			UserID:    row.UserID,
			Timestamp: row.Timestamp.UTC(),
			Intensity: row.Intensity,
			Note:      row.Note,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// ===== Journey =====

func (r *gormRepository) GetJourney(ctx context.Context, userID string) (Journey, error) {
	var row journeyRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Journey{}, ErrNotFound
	}
	if err != nil {
		return Journey{}, err
	}
	return Journey{
		UserID:    row.UserID,
		StartedAt: row.StartedAt.UTC(),
		Timezone:  row.Timezone,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func (r *gormRepository) UpsertJourney(ctx context.Context, j Journey) (Journey, error) {
	row := journeyRow{
		UserID:    j.UserID,
		StartedAt: j.StartedAt,
		Timezone:  j.Timezone,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"started_at", "timezone", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return Journey{}, err
	}
	return r.GetJourney(ctx, j.UserID)
}

// ===== Earned badges =====

func (r *gormRepository) ListEarnedBadges(ctx context.Context, userID string) ([]badge.EarnedBadge, error) {
	var rows []earnedBadgeRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Order("badge_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]badge.EarnedBadge, 0, len(rows))
	for _, row := range rows {
		out = append(out, badge.EarnedBadge{BadgeID: row.BadgeID, UnlockedAt: row.UnlockedAt.UTC()})
	}
	return out, nil
}

func (r *gormRepository) AwardBadge(ctx context.Context, userID string, earned badge.EarnedBadge) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&earnedBadgeRow{
		UserID:     userID,
		BadgeID:    earned.BadgeID,
		UnlockedAt: earned.UnlockedAt,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 0, nil
}

// ===== Reset =====

func (r *gormRepository) DeleteUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&activityRow{}, &relapseRow{}, &urgeRow{}, &journeyRow{}, &earnedBadgeRow{}} {
			if err := tx.Unscoped().Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return fmt.Errorf("delete %T: %w", model, err)
			}
		}
		return nil
	})
}

// ===== helpers =====

// softDelete stamps deleted_at with the service clock instead of gorm's own.
func (r *gormRepository) softDelete(ctx context.Context, model any, userID, id string, deletedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND id = ?", userID, id).
		Update("deleted_at", deletedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}
