package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/focusnest/seeding-service/internal/badge"
)

// ===== Clock =====

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystemClock returns a Clock implementation backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// ===== ID Generator =====

// IDGenerator produces unique identifiers for new records.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

// NewUUIDGenerator returns an IDGenerator that produces v7 UUIDs where available, falling back to v4.
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// ===== No-op collaborators =====

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(time.Duration) {}

func (nopRecorder) BadgeUnlocked(badge.Definition) {}

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]badge.Progress, bool, error) { return nil, false, nil }

func (nopCache) Set(context.Context, string, []badge.Progress) error { return nil }

func (nopCache) Invalidate(context.Context, string) error { return nil }
