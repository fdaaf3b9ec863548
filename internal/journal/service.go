package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/focusnest/seeding-service/internal/badge"
	"github.com/focusnest/seeding-service/internal/growth"
	"github.com/focusnest/seeding-service/internal/stats"
	"github.com/focusnest/seeding-service/pkg/logging"
)

// BadgeReport is the outcome of one badge check.
type BadgeReport struct {
	Earned        []badge.EarnedBadge `json:"earned"`
	NewlyUnlocked []badge.Definition  `json:"newly_unlocked"`
	Progress      []badge.Progress    `json:"progress"`
}

// ActivityResult pairs a logged activity with any badges it unlocked.
type ActivityResult struct {
	Activity      Activity           `json:"activity"`
	NewlyUnlocked []badge.Definition `json:"newly_unlocked"`
}

// StatsReport combines relapse stats with the growth stage they reach.
type StatsReport struct {
	stats.UserStats
	Growth growth.Status `json:"growth"`
}

// Service orchestrates journal writes and badge evaluation.
type Service struct {
	repo      Repository
	clock     Clock
	ids       IDGenerator
	evaluator *badge.Evaluator
	cache     ProgressCache
	archiver  Archiver
	recorder  Recorder
	logger    *slog.Logger
	loc       *time.Location
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithProgressCache(c ProgressCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithArchiver enables archiving a snapshot before every reset.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultLocation sets the calendar used for users whose journey has no timezone.
func WithDefaultLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService constructs a Service instance with the provided collaborators.
// The evaluator's catalog is validated up front.
func NewService(repo Repository, clock Clock, ids IDGenerator, evaluator *badge.Evaluator, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}
	if err := badge.ValidateCatalog(evaluator.Definitions()); err != nil {
		return nil, fmt.Errorf("invalid badge catalog: %w", err)
	}

	s := &Service{
		repo:      repo,
		clock:     clock,
		ids:       ids,
		evaluator: evaluator,
		cache:     nopCache{},
		recorder:  nopRecorder{},
		logger:    logging.Discard(),
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ===== Journey =====

// StartJourney creates or restarts the user's journey.
func (s *Service) StartJourney(ctx context.Context, input JourneyInput) (Journey, error) {
	if err := input.Validate(); err != nil {
		return Journey{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	j := Journey{
		UserID:    input.UserID,
		StartedAt: now,
		Timezone:  strings.TrimSpace(input.Timezone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.StartedAt != nil {
		j.StartedAt = input.StartedAt.UTC()
	}
	if j.StartedAt.After(now) {
		return Journey{}, fmt.Errorf("%w: started_at must not be in the future", ErrInvalidInput)
	}
	if j.Timezone == "" {
		if existing, err := s.repo.GetJourney(ctx, input.UserID); err == nil {
			j.Timezone = existing.Timezone
		} else if !errors.Is(err, ErrNotFound) {
			return Journey{}, err
		}
	}

	stored, err := s.repo.UpsertJourney(ctx, j)
	if err != nil {
		return Journey{}, err
	}
	s.invalidate(ctx, input.UserID)
	return stored, nil
}

// GetJourney returns ErrJourneyNotStarted when the user has none.
func (s *Service) GetJourney(ctx context.Context, userID string) (Journey, error) {
	if userID == "" {
		return Journey{}, ErrMissingUserID
	}
	j, err := s.repo.GetJourney(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Journey{}, ErrJourneyNotStarted
	}
	return j, err
}

// ===== Events =====

// LogActivity stores the activity and runs a badge check. A failed check is
// logged and leaves the activity in place; the next check picks it up.
func (s *Service) LogActivity(ctx context.Context, input ActivityInput) (ActivityResult, error) {
	if err := input.Validate(); err != nil {
		return ActivityResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	a := Activity{
		ID:         s.ids.NewID(),
		UserID:     input.UserID,
		Timestamp:  s.eventTime(input.Timestamp, now),
		Note:       strings.TrimSpace(input.Note),
		Categories: normalizeLabels(input.Categories),
		CreatedAt:  now,
	}
	if err := s.repo.CreateActivity(ctx, a); err != nil {
		return ActivityResult{}, err
	}
	s.invalidate(ctx, input.UserID)

	result := ActivityResult{Activity: a, NewlyUnlocked: []badge.Definition{}}
	report, err := s.CheckBadges(ctx, input.UserID)
	if err != nil {
		logging.WithRequestID(ctx, s.logger).WarnContext(ctx, "badge check after activity failed",
			slog.String("userId", input.UserID),
			slog.String("activityId", a.ID),
			slog.Any("error", err),
		)
		return result, nil
	}
	result.NewlyUnlocked = report.NewlyUnlocked
	return result, nil
}

func (s *Service) ListActivities(ctx context.Context, userID string) ([]Activity, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.repo.ListActivities(ctx, userID)
}

// DeleteActivity soft-deletes an activity. Badges already earned stay earned.
func (s *Service) DeleteActivity(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrNotFound
	}
	if err := s.repo.DeleteActivity(ctx, userID, id, s.clock.Now().UTC()); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) LogRelapse(ctx context.Context, input RelapseInput) (Relapse, error) {
	if err := input.Validate(); err != nil {
		return Relapse{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	r := Relapse{
		ID:        s.ids.NewID(),
		UserID:    input.UserID,
		Timestamp: s.eventTime(input.Timestamp, now),
		Note:      strings.TrimSpace(input.Note),
		Tags:      normalizeLabels(input.Tags),
		CreatedAt: now,
	}
	if err := s.repo.CreateRelapse(ctx, r); err != nil {
		return Relapse{}, err
	}
	s.invalidate(ctx, input.UserID)
	return r, nil
}

func (s *Service) ListRelapses(ctx context.Context, userID string) ([]Relapse, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.repo.ListRelapses(ctx, userID)
}

func (s *Service) DeleteRelapse(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrNotFound
	}
	if err := s.repo.DeleteRelapse(ctx, userID, id, s.clock.Now().UTC()); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) LogUrge(ctx context.Context, input UrgeInput) (Urge, error) {
	if err := input.Validate(); err != nil {
		return Urge{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	u := Urge{
		ID:        s.ids.NewID(),
		UserID:    input.UserID,
		Timestamp: s.eventTime(input.Timestamp, now),
		Intensity: input.Intensity,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: now,
	}
	if err := s.repo.CreateUrge(ctx, u); err != nil {
		return Urge{}, err
	}
	return u, nil
}

func (s *Service) ListUrges(ctx context.Context, userID string) ([]Urge, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.repo.ListUrges(ctx, userID)
}

func (s *Service) DeleteUrge(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrNotFound
	}
	return s.repo.DeleteUrge(ctx, userID, id, s.clock.Now().UTC())
}

// ===== Badges =====

type evaluationInput struct {
	activities []Activity
	relapses   []Relapse
	journey    *Journey
	earned     []badge.EarnedBadge
}

func (s *Service) loadEvaluationInput(ctx context.Context, userID string) (evaluationInput, error) {
	var in evaluationInput

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a, err := s.repo.ListActivities(ctx, userID)
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		in.activities = a
		return nil
	})

	g.Go(func() error {
		r, err := s.repo.ListRelapses(ctx, userID)
		if err != nil {
			return fmt.Errorf("list relapses: %w", err)
		}
		in.relapses = r
		return nil
	})

	g.Go(func() error {
		j, err := s.repo.GetJourney(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get journey: %w", err)
		}
		in.journey = &j
		return nil
	})

	g.Go(func() error {
		e, err := s.repo.ListEarnedBadges(ctx, userID)
		if err != nil {
			return fmt.Errorf("list earned badges: %w", err)
		}
		in.earned = e
		return nil
	})

	if err := g.Wait(); err != nil {
		return evaluationInput{}, err
	}
	return in, nil
}

// CheckBadges evaluates the catalog for the user and persists new unlocks.
// A badge another request awarded first is reported as earned, not new.
// Awarding is idempotent so a partially failed check is safe to repeat.
func (s *Service) CheckBadges(ctx context.Context, userID string) (BadgeReport, error) {
	if userID == "" {
		return BadgeReport{}, ErrMissingUserID
	}

	in, err := s.loadEvaluationInput(ctx, userID)
	if err != nil {
		return BadgeReport{}, err
	}

	input := badge.Input{
		Activities: make([]badge.Activity, 0, len(in.activities)),
		Relapses:   make([]badge.Relapse, 0, len(in.relapses)),
		Earned:     in.earned,
	}
	for _, a := range in.activities {
		input.Activities = append(input.Activities, a.toBadge())
	}
	for _, r := range in.relapses {
		input.Relapses = append(input.Relapses, r.toBadge())
	}
	if in.journey != nil {
		start := in.journey.StartedAt
		input.JourneyStart = &start
	}

	started := time.Now()
	result := s.evaluator.In(s.location(in.journey)).CheckAll(input)
	s.recorder.ObserveEvaluation(time.Since(started))

	report := BadgeReport{
		Earned:        append([]badge.EarnedBadge{}, in.earned...),
		NewlyUnlocked: make([]badge.Definition, 0, len(result.NewlyUnlocked)),
		Progress:      result.Progress,
	}

	now := s.clock.Now().UTC()
	for _, def := range result.NewlyUnlocked {
		earned := badge.EarnedBadge{BadgeID: def.ID, UnlockedAt: now}
		already, err := s.repo.AwardBadge(ctx, userID, earned)
		if err != nil {
			return BadgeReport{}, fmt.Errorf("award badge %s: %w", def.ID, err)
		}
		report.Earned = append(report.Earned, earned)
		if already {
			continue
		}
		report.NewlyUnlocked = append(report.NewlyUnlocked, def)
		s.recorder.BadgeUnlocked(def)
		logging.WithRequestID(ctx, s.logger).InfoContext(ctx, "badge unlocked",
			slog.String("userId", userID),
			slog.String("badgeId", def.ID),
			slog.String("category", string(def.Category)),
		)
	}

	if err := s.cache.Set(ctx, userID, report.Progress); err != nil {
		s.logger.WarnContext(ctx, "cache progress failed", slog.String("userId", userID), slog.Any("error", err))
	}
	return report, nil
}

// BadgeProgress returns cached progress, running a fresh check on a miss.
func (s *Service) BadgeProgress(ctx context.Context, userID string) ([]badge.Progress, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if cached, ok, err := s.cache.Get(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "read cached progress failed", slog.String("userId", userID), slog.Any("error", err))
	} else if ok {
		return cached, nil
	}

	report, err := s.CheckBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	return report.Progress, nil
}

// Catalog lists the badge definitions visible to the user. Hidden badges
// appear only once earned.
func (s *Service) Catalog(ctx context.Context, userID string) ([]badge.Definition, error) {
	earned := map[string]struct{}{}
	if userID != "" {
		list, err := s.repo.ListEarnedBadges(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, e := range list {
			earned[e.BadgeID] = struct{}{}
		}
	}

	defs := s.evaluator.Definitions()
	out := make([]badge.Definition, 0, len(defs))
	for _, d := range defs {
		if _, ok := earned[d.ID]; d.IsHidden && !ok {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// ===== Stats =====

func (s *Service) Stats(ctx context.Context, userID string) (StatsReport, error) {
	if userID == "" {
		return StatsReport{}, ErrMissingUserID
	}

	var (
		journey  *Journey
		relapses []Relapse
		urges    []Urge
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		j, err := s.repo.GetJourney(gctx, userID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		journey = &j
		return nil
	})
	g.Go(func() error {
		r, err := s.repo.ListRelapses(gctx, userID)
		relapses = r
		return err
	})
	g.Go(func() error {
		u, err := s.repo.ListUrges(gctx, userID)
		urges = u
		return err
	})
	if err := g.Wait(); err != nil {
		return StatsReport{}, err
	}

	in := stats.Input{
		Relapses:      make([]time.Time, 0, len(relapses)),
		UrgesResisted: len(urges),
	}
	for _, r := range relapses {
		in.Relapses = append(in.Relapses, r.Timestamp)
	}
	if journey != nil {
		start := journey.StartedAt
		in.JourneyStart = &start
	}

	us := stats.Calculate(in, s.clock.Now())
	return StatsReport{UserStats: us, Growth: growth.ForStreak(us.CurrentStreak)}, nil
}

// ===== Data =====

// Export collects everything stored for the user.
func (s *Service) Export(ctx context.Context, userID string) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, ErrMissingUserID
	}

	in, err := s.loadEvaluationInput(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	urges, err := s.repo.ListUrges(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list urges: %w", err)
	}

	return Snapshot{
		UserID:     userID,
		Journey:    in.journey,
		Activities: in.activities,
		Relapses:   in.relapses,
		Urges:      urges,
		Earned:     in.earned,
		ExportedAt: s.clock.Now().UTC(),
	}, nil
}

// Reset deletes all of the user's data, earned badges included. When an
// archiver is configured the snapshot is archived first and a failed
// archive aborts the reset.
func (s *Service) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}

	log := logging.WithRequestID(ctx, s.logger).With(slog.String("userId", userID))
	if s.archiver != nil {
		snap, err := s.Export(ctx, userID)
		if err != nil {
			return err
		}
		location, err := s.archiver.Archive(ctx, snap)
		if err != nil {
			return fmt.Errorf("archive before reset: %w", err)
		}
		log.InfoContext(ctx, "archived user data", slog.String("location", location))
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	log.InfoContext(ctx, "user data reset")
	return nil
}

// ===== helpers =====

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "invalidate progress cache failed", slog.String("userId", userID), slog.Any("error", err))
	}
}

func (s *Service) eventTime(ts *time.Time, now time.Time) time.Time {
	if ts == nil {
		return now
	}
	return ts.UTC()
}

// location resolves the user's calendar. Stored timezones were validated on
// write, so a load failure only happens if the tz database changed.
func (s *Service) location(j *Journey) *time.Location {
	if j == nil || j.Timezone == "" {
		return s.loc
	}
	loc, err := time.LoadLocation(j.Timezone)
	if err != nil {
		return s.loc
	}
	return loc
}
