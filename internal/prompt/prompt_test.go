package prompt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/coachengine/internal/domain"
)

func TestLookup(t *testing.T) {
	assert.Equal(t, "Zen Coach", Lookup("calm").Name)
	assert.Equal(t, "Hype Coach", Lookup("motivational").Name)
	assert.Equal(t, "Supportive Coach", Lookup(" Gentle ").Name)
	assert.Equal(t, "Tactical Coach", Lookup("concise").Name)
	assert.Equal(t, "Zen Coach", Lookup("drill-sergeant").Name)
	assert.Equal(t, "Zen Coach", Lookup("").Name)
	assert.False(t, Known("drill-sergeant"))
	assert.Len(t, All(), 4)
}

func TestLoadBase(t *testing.T) {
	s, err := LoadBase("")
	require.NoError(t, err)
	assert.Equal(t, GetDefault(), s)

	path := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(path, []byte("  custom coach\n"), 0o600))
	s, err = LoadBase(path)
	require.NoError(t, err)
	assert.Equal(t, "custom coach", s)

	_, err = LoadBase(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)

	g := NewGenerator(filepath.Join(t.TempDir(), "missing.md"), zerolog.Nop())
	assert.Contains(t, g.System(Lookup("calm"), domain.CompleteContext{}, nil), "AI Fitness Coach Instructions")
}

func TestSystem_ComposesPersonaContextAndPlan(t *testing.T) {
	g := NewGenerator("", zerolog.Nop())
	cc := domain.CompleteContext{
		Health: domain.HealthContext{
			Readiness: domain.ReadinessScore{Overall: 72, Recommendation: domain.RecommendModerate, LimitingFactor: "sleep"},
			Stress:    domain.StressLow,
		},
		Workout: domain.WorkoutContext{
			Today:          &domain.TodayWorkout{Name: "Upper Body Strength", Status: domain.StatusPending},
			MuscleRecovery: map[string]domain.MuscleRecoveryEntry{"quads": {Status: domain.RecoveryFatigued}},
		},
	}
	plan := &domain.WorkoutPlan{Name: "8-Week Strength Plan", TotalWeeks: 8, StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}

	s := g.System(Lookup("concise"), cc, plan)

	assert.Contains(t, s, "Tactical Coach")
	assert.Contains(t, s, "Readiness: 72/100 (moderate), limiting factor: sleep")
	assert.Contains(t, s, "Today's workout: Upper Body Strength (pending)")
	assert.Contains(t, s, "Fatigued muscles: quads")
	assert.Contains(t, s, `"name": "8-Week Strength Plan"`)
	assert.Contains(t, s, `"start_date": "2025-03-10"`)

	assert.NotContains(t, g.System(Lookup("calm"), cc, nil), "## Current Plan")
}

func TestPlanRequest(t *testing.T) {
	g := NewGenerator("", zerolog.Nop())
	info := domain.UserPlanInfo{Goal: domain.GoalStrength, Experience: domain.LevelBeginner, DaysPerWeek: 4, SessionLength: 45, Equipment: []string{"dumbbells"}}

	sys, user := g.PlanRequest(info, domain.CompleteContext{})
	assert.Contains(t, sys, "JSON")
	assert.Contains(t, user, "- Days per week: 4")
	assert.Contains(t, user, "- Equipment: dumbbells")
	assert.Contains(t, user, "total_weeks")
}

func TestFallbackAndExplanation(t *testing.T) {
	for _, p := range All() {
		assert.NotEmpty(t, Fallback(p), p.Key)
	}
	plan := domain.WorkoutPlan{
		Name: "8-Week Strength Plan", TotalWeeks: 8, WorkoutsPerWeek: 4, SessionMinutes: 45,
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Phases:    []domain.TrainingPhase{{Name: "Anatomical Adaptation", Weeks: 2, Focus: "Movement quality"}},
	}
	s := PlanExplanation(Lookup("calm"), plan)
	assert.Contains(t, s, "8 weeks, 4 sessions per week of about 45 minutes, starting Mon Mar 10.")
	assert.Contains(t, s, "1. Anatomical Adaptation (2 weeks): Movement quality")
}
