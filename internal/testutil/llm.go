package testutil

import (
	"context"
	"sync"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/llm"
)

// FakeLLM replays canned replies in order and records every request.
// When Err is set every call fails with it.
type FakeLLM struct {
	mu       sync.Mutex
	Replies  []string
	Err      error
	Requests []llm.Request
}

func (f *FakeLLM) Name() string { return "fake" }

func (f *FakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Replies) == 0 {
		return "", llm.ErrInvalidOutput
	}
	r := f.Replies[0]
	if len(f.Replies) > 1 {
		f.Replies = f.Replies[1:]
	}
	return r, nil
}

// Calls returns how many requests were made.
func (f *FakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// NewContext returns a defaulted CompleteContext for an intermediate
// balanced user with a full gym, 60 minute sessions and readiness 85.
func NewContext(userID string) domain.CompleteContext {
	return domain.CompleteContext{
		User: domain.UserContext{
			UserID:      userID,
			Profile:     domain.Profile{FitnessLevel: domain.LevelIntermediate, TrainingStyle: domain.StyleBalanced, Persona: "calm"},
			Preferences: domain.Preferences{WorkoutDuration: 60, WorkoutsPerWeek: 3, Equipment: []string{"full_gym"}},
		},
		Workout: domain.WorkoutContext{
			RecentSessions: []domain.WorkoutSession{},
			MuscleRecovery: map[string]domain.MuscleRecoveryEntry{},
		},
		Health: domain.HealthContext{
			Readiness: domain.ReadinessScore{Overall: 85, Recommendation: domain.RecommendFullIntensity},
			Stress:    domain.StressModerate,
		},
		Goals: domain.GoalContext{
			Primary: domain.GoalProgress{Goal: domain.Goal{Type: domain.GoalGeneral}, OnTrack: true},
			Trend:   domain.TrendInsufficientData,
		},
	}
}
