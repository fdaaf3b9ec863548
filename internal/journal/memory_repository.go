package journal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/focusnest/seeding-service/internal/badge"
)

type userStore struct {
	activities map[string]Activity
	relapses   map[string]Relapse
	urges      map[string]Urge
	journey    *Journey
	earned     map[string]badge.EarnedBadge
}

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]*userStore // userID -> records
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		store: make(map[string]*userStore),
	}
}

// user returns the store for userID, creating it when missing. Callers hold the write lock.
func (r *memoryRepository) user(userID string) *userStore {
	us, ok := r.store[userID]
	if !ok {
		us = &userStore{
			activities: make(map[string]Activity),
			relapses:   make(map[string]Relapse),
			urges:      make(map[string]Urge),
			earned:     make(map[string]badge.EarnedBadge),
		}
		r.store[userID] = us
	}
	return us
}

func (r *memoryRepository) CreateActivity(_ context.Context, a Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := r.user(a.UserID)
	if _, exists := us.activities[a.ID]; exists {
		return ErrConflict
	}
	a.Categories = append([]string{}, a.Categories...)
	us.activities[a.ID] = a
	return nil
}

func (r *memoryRepository) DeleteActivity(_ context.Context, userID, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	us, ok := r.store[userID]
	if !ok {
		return ErrNotFound
	}
	a, ok := us.activities[id]
	if !ok || a.DeletedAt != nil {
		return ErrNotFound
	}
	a.DeletedAt = &deletedAt
	us.activities[id] = a
	return nil
}

func (r *memoryRepository) ListActivities(_ context.Context, userID string) ([]Activity, error) {
	r.mu.RLock()
	out := make([]Activity, 0)
	if us, ok := r.store[userID]; ok {
		for _, a := range us.activities {
			if a.DeletedAt == nil {
				out = append(out, a)
			}
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memoryRepository) CreateRelapse(_ context.Context, rel Relapse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := r.user(rel.UserID)
	if _, exists := us.relapses[rel.ID]; exists {
		return ErrConflict
	}
	rel.Tags = append([]string{}, rel.Tags...)
	us.relapses[rel.ID] = rel
	return nil
}

func (r *memoryRepository) DeleteRelapse(_ context.Context, userID, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	us, ok := r.store[userID]
	if !ok {
		return ErrNotFound
	}
	rel, ok := us.relapses[id]
	if !ok || rel.DeletedAt != nil {
		return ErrNotFound
	}
	rel.DeletedAt = &deletedAt
	us.relapses[id] = rel
	return nil
}

func (r *memoryRepository) ListRelapses(_ context.Context, userID string) ([]Relapse, error) {
	r.mu.RLock()
	out := make([]Relapse, 0)
	if us, ok := r.store[userID]; ok {
		for _, rel := range us.relapses {
			if rel.DeletedAt == nil {
				out = append(out, rel)
			}
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memoryRepository) CreateUrge(_ context.Context, u Urge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := r.user(u.UserID)
	if _, exists := us.urges[u.ID]; exists {
		return ErrConflict
	}
	us.urges[u.ID] = u
	return nil
}

func (r *memoryRepository) DeleteUrge(_ context.Context, userID, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	us, ok := r.store[userID]
	if !ok {
		return ErrNotFound
	}
	u, ok := us.urges[id]
	if !ok || u.DeletedAt != nil {
		return ErrNotFound
	}
	u.DeletedAt = &deletedAt
	us.urges[id] = u
	return nil
}

func (r *memoryRepository) ListUrges(_ context.Context, userID string) ([]Urge, error) {
	r.mu.RLock()
	out := make([]Urge, 0)
	if us, ok := r.store[userID]; ok {
		for _, u := range us.urges {
			if u.DeletedAt == nil {
				out = append(out, u)
			}
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memoryRepository) GetJourney(_ context.Context, userID string) (Journey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	us, ok := r.store[userID]
	if !ok || us.journey == nil {
		return Journey{}, ErrNotFound
	}
	return *us.journey, nil
}

func (r *memoryRepository) UpsertJourney(_ context.Context, j Journey) (Journey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := r.user(j.UserID)
	if us.journey != nil {
		j.CreatedAt = us.journey.CreatedAt
	}
	us.journey = &j
	return j, nil
}

func (r *memoryRepository) ListEarnedBadges(_ context.Context, userID string) ([]badge.EarnedBadge, error) {
	r.mu.RLock()
	out := make([]badge.EarnedBadge, 0)
	if us, ok := r.store[userID]; ok {
		for _, e := range us.earned {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].BadgeID < out[j].BadgeID
		}
		return out[i].UnlockedAt.Before(out[j].UnlockedAt)
	})
	return out, nil
}

func (r *memoryRepository) AwardBadge(_ context.Context, userID string, earned badge.EarnedBadge) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	us := r.user(userID)
	if _, ok := us.earned[earned.BadgeID]; ok {
		return true, nil
	}
	us.earned[earned.BadgeID] = earned
	return false, nil
}

func (r *memoryRepository) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, userID)
	return nil
}
