package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
)

// Session options
type SessionOption func(*domain.WorkoutSession)

func WithMuscles(groups ...string) SessionOption {
	return func(s *domain.WorkoutSession) { s.MuscleGroups = groups }
}

func WithRPE(rpe float64) SessionOption {
	return func(s *domain.WorkoutSession) { s.Intensity = rpe }
}

func Skipped() SessionOption {
	return func(s *domain.WorkoutSession) { s.Completed = false }
}

// NewTestSession returns a completed 60 minute RPE 6 session at the given time.
func NewTestSession(userID string, at time.Time, opts ...SessionOption) domain.WorkoutSession {
	s := domain.WorkoutSession{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            "Session",
		Date:            at,
		DurationMinutes: 60,
		Intensity:       6,
		MuscleGroups:    []string{"chest", "triceps"},
		Completed:       true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// User options
type UserOption func(*seedUser)

type seedUser struct {
	profile  *domain.Profile
	prefs    *domain.Preferences
	goals    []domain.Goal
	wellness *domain.WellnessSettings
}

func WithProfile(level domain.FitnessLevel, style domain.TrainingStyle, persona string) UserOption {
	return func(u *seedUser) {
		u.profile = &domain.Profile{FitnessLevel: level, TrainingStyle: style, Persona: persona, OnboardingComplete: true}
	}
}

func WithPreferences(minutes, perWeek int, equipment ...string) UserOption {
	return func(u *seedUser) {
		u.prefs = &domain.Preferences{WorkoutDuration: minutes, WorkoutsPerWeek: perWeek, Equipment: equipment}
	}
}

func WithGoal(g domain.Goal) UserOption {
	return func(u *seedUser) { u.goals = append(u.goals, g) }
}

func WithWellness(w domain.WellnessSettings) UserOption {
	return func(u *seedUser) { u.wellness = &w }
}

// SeedUser writes the requested user records and fails the test on error.
func SeedUser(t *testing.T, st *store.Store, userID string, opts ...UserOption) {
	t.Helper()
	ctx := context.Background()
	var u seedUser
	for _, opt := range opts {
		opt(&u)
	}
	if u.profile != nil {
		must(t, st.PutProfile(ctx, userID, *u.profile))
	}
	if u.prefs != nil {
		must(t, st.PutPreferences(ctx, userID, *u.prefs))
	}
	for _, g := range u.goals {
		_, err := st.PutGoal(ctx, userID, g)
		must(t, err)
	}
	if u.wellness != nil {
		must(t, st.PutWellness(ctx, userID, *u.wellness))
	}
}

// SeedSessions appends sessions and fails the test on error.
func SeedSessions(t *testing.T, st *store.Store, sessions ...domain.WorkoutSession) {
	t.Helper()
	for _, s := range sessions {
		_, err := st.AppendSession(context.Background(), s)
		must(t, err)
	}
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
