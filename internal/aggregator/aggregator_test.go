package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/coachengine/cache"
	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/readiness"
	"github.com/briangreenhill/coachengine/internal/store"
	"github.com/briangreenhill/coachengine/internal/testutil"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newAggregator(t *testing.T, st Store, clk *clock) *Aggregator {
	t.Helper()
	scorer := readiness.NewScorer(st.(readiness.Store), zerolog.Nop(), readiness.WithClock(clk.Now))
	c := cache.NewLRUCache(16, time.Hour, cache.WithClock(clk.Now))
	return New(st, scorer, c, testutil.Logger(t), WithClock(clk.Now))
}

func TestGetContext_NewUserDefaults(t *testing.T) {
	st := testutil.NewTestStore(t)
	a := newAggregator(t, st, &clock{t: now})

	cc, err := a.GetContext(context.Background(), "new-user", false)
	require.NoError(t, err)
	a.Wait()

	assert.False(t, cc.Cached)
	assert.Equal(t, now, cc.Timestamp)
	assert.True(t, cc.User.IsNewUser)
	assert.Equal(t, domain.LevelIntermediate, cc.User.Profile.FitnessLevel)
	assert.Equal(t, domain.StyleBalanced, cc.User.Profile.TrainingStyle)
	assert.Equal(t, "calm", cc.User.Profile.Persona)
	assert.Equal(t, 60, cc.User.Preferences.WorkoutDuration)
	assert.Equal(t, 3, cc.User.Preferences.WorkoutsPerWeek)
	assert.Equal(t, []string{"full_gym"}, cc.User.Preferences.Equipment)
	assert.NotNil(t, cc.User.PrimaryGoals)
	assert.NotNil(t, cc.Workout.RecentSessions)
	assert.Nil(t, cc.Workout.ActivePlan)
	assert.Len(t, cc.Workout.MuscleRecovery, len(MuscleGroups))
	for _, e := range cc.Workout.MuscleRecovery {
		assert.Equal(t, domain.RecoveryFresh, e.Status)
		assert.Nil(t, e.LastTrained)
	}
	assert.Equal(t, 7.0, cc.Health.Sleep.DurationHours)
	assert.Equal(t, domain.StressModerate, cc.Health.Stress)
	assert.Equal(t, "2025-03-10", cc.Health.Readiness.Date)
	assert.Equal(t, domain.GoalGeneral, cc.PrimaryGoalType())
	assert.Equal(t, domain.TrendInsufficientData, cc.Goals.Trend)
	assert.NotEmpty(t, cc.Goals.Recommendations)
}

func TestGetContext_ConfiguredDefaultPersona(t *testing.T) {
	st := testutil.NewTestStore(t)
	clk := &clock{t: now}
	scorer := readiness.NewScorer(st, zerolog.Nop(), readiness.WithClock(clk.Now))
	a := New(st, scorer, cache.NewLRUCache(4, time.Hour), testutil.Logger(t), WithClock(clk.Now), WithDefaultPersona("gentle"))

	cc, err := a.GetContext(context.Background(), "new-user", false)
	require.NoError(t, err)
	a.Wait()
	assert.Equal(t, "gentle", cc.User.Profile.Persona)
}

func TestGetContext_CacheLifecycle(t *testing.T) {
	st, rb := testutil.NewRecordingStore(t)
	clk := &clock{t: now}
	a := newAggregator(t, st, clk)
	ctx := context.Background()

	_, err := a.GetContext(ctx, "u1", false)
	require.NoError(t, err)

	hit, err := a.GetContext(ctx, "u1", false)
	require.NoError(t, err)
	assert.True(t, hit.Cached)
	a.Wait()
	assert.Equal(t, 1, rb.Puts("audit:context_snapshot"), "a cache hit writes nothing")

	forced, err := a.GetContext(ctx, "u1", true)
	require.NoError(t, err)
	assert.False(t, forced.Cached)

	clk.t = clk.t.Add(6 * time.Minute)
	stale, err := a.GetContext(ctx, "u1", false)
	require.NoError(t, err)
	assert.False(t, stale.Cached, "older than the five minute TTL")

	a.Invalidate("u1")
	fresh, err := a.GetContext(ctx, "u1", false)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)

	require.NoError(t, a.Preload(ctx, "u1"))
	a.Wait()
	assert.Equal(t, 5, rb.Puts("audit:context_snapshot"))
}

func TestGetContext_AuditFailureIsNotFatal(t *testing.T) {
	st, rb := testutil.NewRecordingStore(t)
	rb.FailPuts("audit:", errors.New("disk full"))
	a := newAggregator(t, st, &clock{t: now})

	_, err := a.GetContext(context.Background(), "u1", false)
	require.NoError(t, err)
	a.Wait()
}

func TestGetContext_UserProfileAndHistory(t *testing.T) {
	st := testutil.NewTestStore(t)
	target := now.AddDate(0, 2, 0)
	testutil.SeedUser(t, st, "u1",
		testutil.WithProfile(domain.LevelAdvanced, domain.StyleBodybuilding, "motivational"),
		testutil.WithPreferences(45, 5, "dumbbells", "bench"),
		testutil.WithGoal(domain.Goal{Type: domain.GoalMuscle, Priority: 1, StartValue: 70, CurrentValue: 71, TargetValue: 75,
			TargetDate: &target, CreatedAt: now.AddDate(0, -1, 0)}),
		testutil.WithGoal(domain.Goal{Type: domain.GoalEndurance, Priority: 5}),
	)
	testutil.SeedSessions(t, st,
		testutil.NewTestSession("u1", now.Add(-2*time.Hour), testutil.WithMuscles("chest")),
		testutil.NewTestSession("u1", now.AddDate(0, 0, -1), testutil.WithMuscles("quads", "glutes")),
		testutil.NewTestSession("u1", now.AddDate(0, 0, -2), testutil.WithMuscles("back")),
		testutil.NewTestSession("u1", now.AddDate(0, 0, -5), testutil.Skipped()),
	)
	a := newAggregator(t, st, &clock{t: now})

	cc, err := a.GetContext(context.Background(), "u1", false)
	require.NoError(t, err)
	a.Wait()

	u := cc.User
	assert.False(t, u.IsNewUser)
	assert.Equal(t, "motivational", u.Profile.Persona)
	assert.Equal(t, 45, u.Preferences.WorkoutDuration)
	require.Len(t, u.PrimaryGoals, 1)
	require.Len(t, u.SecondaryGoals, 1)
	assert.Equal(t, 3, u.History.TotalWorkouts)
	assert.Equal(t, 3, u.History.CurrentStreak)
	assert.InDelta(t, 0.75, u.History.CompletionRate, 1e-9)
	assert.Equal(t, 60.0, u.History.AverageDuration)

	assert.Len(t, cc.Workout.RecentSessions, 4)
	rec := cc.Workout.MuscleRecovery
	assert.Equal(t, domain.RecoveryFatigued, rec["chest"].Status)
	assert.Equal(t, 2, rec["chest"].RestDaysRemaining)
	assert.Equal(t, domain.RecoveryFatigued, rec["quads"].Status)
	assert.Equal(t, domain.RecoveryRecovering, rec["glutes"].Status)
	assert.Equal(t, domain.RecoveryFresh, rec["triceps"].Status, "skipped sessions do not count")
	assert.Equal(t, domain.RecoveryRecovered, rec["back"].Status)
	assert.Equal(t, domain.RecoveryFresh, rec["biceps"].Status)

	// 1 of 5 kg gained a third of the way through: behind schedule
	assert.Equal(t, domain.GoalMuscle, cc.PrimaryGoalType())
	assert.InDelta(t, 20, cc.Goals.Primary.ProgressPercent, 1e-9)
	assert.False(t, cc.Goals.Primary.OnTrack)
	assert.NotNil(t, cc.Goals.Primary.ProjectedCompletion)
}

func TestGetContext_ActivePlanAndToday(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()
	start := now.AddDate(0, 0, -9).Truncate(24 * time.Hour)

	plan := domain.WorkoutPlan{
		ID: "p1", UserID: "u1", Name: "Block", GoalType: domain.GoalStrength, TotalWeeks: 4, WorkoutsPerWeek: 3,
		StartDate: start, CreatedAt: start,
		Phases: []domain.TrainingPhase{{Name: "Base", Weeks: 1}, {Name: "Build", Weeks: 3}},
	}
	require.NoError(t, st.PutPlan(ctx, plan))
	require.NoError(t, st.SetActivePlan(ctx, "u1", "p1"))
	for i, off := range []int{0, 2, 4, 7, 9} {
		require.NoError(t, st.PutScheduled(ctx, domain.ScheduledWorkout{
			ID: "sw" + string(rune('0'+i)), PlanID: "p1", UserID: "u1",
			ScheduledDate: start.AddDate(0, 0, off), Status: domain.StatusPending,
			Workout: domain.GeneratedWorkout{Name: "Day " + string(rune('1'+i))},
		}))
	}
	done := testutil.NewTestSession("u1", start.Add(10*time.Hour))
	done.ScheduledWorkoutID = "sw0"
	done2 := testutil.NewTestSession("u1", start.AddDate(0, 0, 2).Add(10*time.Hour))
	done2.ScheduledWorkoutID = "sw1"
	testutil.SeedSessions(t, st, done, done2)

	a := newAggregator(t, st, &clock{t: now})
	cc, err := a.GetContext(ctx, "u1", false)
	require.NoError(t, err)
	a.Wait()

	ap := cc.Workout.ActivePlan
	require.NotNil(t, ap)
	assert.Equal(t, 1, ap.WeeksCompleted)
	assert.Equal(t, "Build", ap.CurrentPhase)
	assert.InDelta(t, 0.5, ap.AdherenceRate, 1e-9)

	require.NotNil(t, cc.Workout.Today)
	assert.Equal(t, "sw4", cc.Workout.Today.ScheduledWorkoutID)
	assert.Equal(t, domain.StatusPending, cc.Workout.Today.Status)
}

type brokenStore struct {
	*store.Store
	profileErr error
	injuryErr  error
}

func (b *brokenStore) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	if b.profileErr != nil {
		return domain.Profile{}, b.profileErr
	}
	return b.Store.GetProfile(ctx, userID)
}

func (b *brokenStore) ListInjuries(ctx context.Context, userID string) ([]domain.Injury, error) {
	if b.injuryErr != nil {
		return nil, b.injuryErr
	}
	return b.Store.ListInjuries(ctx, userID)
}

func TestGetContext_FailurePolicy(t *testing.T) {
	t.Run("unavailable propagates", func(t *testing.T) {
		bs := &brokenStore{Store: testutil.NewTestStore(t), profileErr: store.ErrUnavailable}
		a := newAggregator(t, bs, &clock{t: now})

		_, err := a.GetContext(context.Background(), "u1", false)
		assert.ErrorIs(t, err, store.ErrUnavailable)
	})

	t.Run("other errors default", func(t *testing.T) {
		bs := &brokenStore{Store: testutil.NewTestStore(t), injuryErr: errors.New("decode injury: bad json")}
		a := newAggregator(t, bs, &clock{t: now})

		cc, err := a.GetContext(context.Background(), "u1", false)
		require.NoError(t, err)
		a.Wait()
		assert.NotNil(t, cc.Health.ActiveInjuries)
		assert.Empty(t, cc.Health.ActiveInjuries)
	})
}

func TestRecoveryStatusFor(t *testing.T) {
	tests := []struct {
		days float64
		rest int
		want domain.RecoveryStatus
	}{
		{-1, 3, domain.RecoveryFresh},
		{0, 3, domain.RecoveryFatigued},
		{1.4, 3, domain.RecoveryFatigued},
		{1.5, 3, domain.RecoveryRecovering},
		{2.9, 3, domain.RecoveryRecovering},
		{3, 3, domain.RecoveryRecovered},
		{5.9, 3, domain.RecoveryRecovered},
		{6, 3, domain.RecoveryFresh},
		{0.4, 1, domain.RecoveryFatigued},
		{0.7, 1, domain.RecoveryRecovering},
		{1.2, 1, domain.RecoveryRecovered},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RecoveryStatusFor(tt.days, tt.rest), "days=%v rest=%d", tt.days, tt.rest)
	}
}

func TestTrend(t *testing.T) {
	mk := func(loads ...int) []domain.WorkoutSession {
		out := make([]domain.WorkoutSession, 0, len(loads))
		for i, l := range loads {
			out = append(out, domain.WorkoutSession{Date: now.AddDate(0, 0, i-len(loads)), DurationMinutes: l, Intensity: 1, Completed: true})
		}
		return out
	}
	assert.Equal(t, domain.TrendInsufficientData, trend(mk(10, 20, 30)))
	assert.Equal(t, domain.TrendImproving, trend(mk(40, 40, 60, 60)))
	assert.Equal(t, domain.TrendDeclining, trend(mk(60, 60, 40, 40)))
	assert.Equal(t, domain.TrendStable, trend(mk(50, 50, 51, 52)))
}

func TestProgress(t *testing.T) {
	created := now.AddDate(0, 0, -10)
	target := now.AddDate(0, 0, 10)

	ahead := progress(domain.Goal{StartValue: 100, CurrentValue: 130, TargetValue: 150, CreatedAt: created, TargetDate: &target}, now)
	assert.InDelta(t, 60, ahead.ProgressPercent, 1e-9)
	assert.True(t, ahead.OnTrack)
	require.NotNil(t, ahead.ProjectedCompletion)
	assert.True(t, ahead.ProjectedCompletion.Before(target))

	done := progress(domain.Goal{StartValue: 80, CurrentValue: 70, TargetValue: 70, CreatedAt: created, TargetDate: &target}, now)
	assert.Equal(t, 100.0, done.ProgressPercent)
	assert.True(t, done.OnTrack)

	open := progress(domain.Goal{Type: domain.GoalGeneral}, now)
	assert.True(t, open.OnTrack)
	assert.Nil(t, open.ProjectedCompletion)
}
