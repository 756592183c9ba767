// Package aggregator assembles the CompleteContext snapshot of a user from the
// store and the readiness scorer, caching it per user for a short TTL.
//
// Missing records never fail aggregation: every field has a default (see
// defaults.go). Only store unavailability is returned to the caller.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/briangreenhill/coachengine/cache"
	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
)

// Store is the subset of the persistence layer read during aggregation.
type Store interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	ListGoals(ctx context.Context, userID string) ([]domain.Goal, error)
	GetPreferences(ctx context.Context, userID string) (domain.Preferences, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]domain.WorkoutSession, error)
	ListSessions(ctx context.Context, userID string, from, to time.Time) ([]domain.WorkoutSession, error)
	ActivePlan(ctx context.Context, userID string) (domain.WorkoutPlan, error)
	ListScheduled(ctx context.Context, userID, planID string, from, to time.Time) ([]domain.ScheduledWorkout, error)
	ScheduledOn(ctx context.Context, userID, planID string, day time.Time) (domain.ScheduledWorkout, error)
	WearableBefore(ctx context.Context, userID string, t time.Time, limit int) ([]domain.WearableMetrics, error)
	ListSleep(ctx context.Context, userID string, from, to time.Time) ([]domain.SleepRecord, error)
	GetWellness(ctx context.Context, userID string) (domain.WellnessSettings, error)
	ListInjuries(ctx context.Context, userID string) ([]domain.Injury, error)
	AppendAudit(ctx context.Context, userID string, kind domain.AuditKind, v any) error
}

// ReadinessSource provides the daily readiness embedded in the health context.
type ReadinessSource interface {
	Score(ctx context.Context, userID string, date time.Time, force bool) (domain.ReadinessScore, error)
}

// Aggregator builds and caches CompleteContext snapshots.
type Aggregator struct {
	store     Store
	readiness ReadinessSource
	cache     cache.ContextCache
	ttl       time.Duration
	persona   string
	now       func() time.Time
	log       zerolog.Logger

	pending sync.WaitGroup
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithTTL sets how long a cached snapshot is served before a refresh.
func WithTTL(ttl time.Duration) Option {
	return func(a *Aggregator) { a.ttl = ttl }
}

// WithDefaultPersona sets the persona given to users whose profile names none.
func WithDefaultPersona(name string) Option {
	return func(a *Aggregator) { a.persona = name }
}

func New(st Store, rs ReadinessSource, c cache.ContextCache, log zerolog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:     st,
		readiness: rs,
		cache:     c,
		ttl:       cache.DefaultTTL,
		persona:   DefaultPersona,
		now:       time.Now,
		log:       log.With().Str("component", "aggregator").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetContext returns the user's snapshot, from cache when fresh and force is unset.
func (a *Aggregator) GetContext(ctx context.Context, userID string, force bool) (domain.CompleteContext, error) {
	if !force {
		if e, ok := a.cache.Read(userID, a.ttl); ok {
			cc := e.Context
			cc.Cached = true
			return cc, nil
		}
	}

	cc, err := a.build(ctx, userID)
	if err != nil {
		return domain.CompleteContext{}, err
	}
	a.cache.Write(userID, &cache.Entry{Context: cc, FetchedAt: cc.Timestamp})
	a.snapshot(ctx, userID, cc)
	return cc, nil
}

// Invalidate drops the cached snapshot for userID.
func (a *Aggregator) Invalidate(userID string) {
	a.cache.Invalidate(userID)
}

// Preload refreshes the cached snapshot without returning it.
func (a *Aggregator) Preload(ctx context.Context, userID string) error {
	_, err := a.GetContext(ctx, userID, true)
	return err
}

// Wait blocks until in-flight audit writes finish.
func (a *Aggregator) Wait() {
	a.pending.Wait()
}

func (a *Aggregator) snapshot(ctx context.Context, userID string, cc domain.CompleteContext) {
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := a.store.AppendAudit(actx, userID, domain.AuditContextSnapshot, cc); err != nil {
			a.log.Error().Err(err).Str("user_id", userID).Str("op", "context_snapshot").Msg("audit write failed")
		}
	}()
}

func (a *Aggregator) build(ctx context.Context, userID string) (domain.CompleteContext, error) {
	now := a.now().UTC()
	var (
		g  errgroup.Group
		cc = domain.CompleteContext{Timestamp: now}
	)
	g.Go(func() (err error) {
		cc.User, err = a.userContext(ctx, userID, now)
		return err
	})
	g.Go(func() (err error) {
		cc.Workout, err = a.workoutContext(ctx, userID, now)
		return err
	})
	g.Go(func() (err error) {
		cc.Health, err = a.healthContext(ctx, userID, now)
		return err
	})
	g.Go(func() (err error) {
		cc.Goals, err = a.goalContext(ctx, userID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.CompleteContext{}, err
	}
	return cc, nil
}

// soft reports whether err may be defaulted. Unavailability is returned wrapped.
func (a *Aggregator) soft(userID, op string, err error) error {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.log.Warn().Err(err).Str("user_id", userID).Str("op", op).Msg("sub-context defaulted")
	return nil
}
