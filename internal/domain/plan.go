package domain

import (
	"strings"
	"time"
)

// IntensityLevel is the coarse intensity label of a training phase.
type IntensityLevel string

const (
	IntensityLow      IntensityLevel = "low"
	IntensityModerate IntensityLevel = "moderate"
	IntensityHigh     IntensityLevel = "high"
	IntensityVeryHigh IntensityLevel = "very_high"
)

var intensityOrder = []IntensityLevel{IntensityLow, IntensityModerate, IntensityHigh, IntensityVeryHigh}

// Step moves the level up (delta > 0) or down (delta < 0), saturating at the ends.
func (l IntensityLevel) Step(delta int) IntensityLevel {
	idx := 1
	for i, v := range intensityOrder {
		if v == l {
			idx = i
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(intensityOrder) {
		idx = len(intensityOrder) - 1
	}
	return intensityOrder[idx]
}

// Multiplier is applied to exercise intensity for sessions in a phase.
func (l IntensityLevel) Multiplier() float64 {
	switch l {
	case IntensityLow:
		return 0.85
	case IntensityHigh:
		return 1.05
	case IntensityVeryHigh:
		return 1.10
	default:
		return 1.0
	}
}

type TrainingPhase struct {
	Name           string         `json:"name"`
	Weeks          int            `json:"weeks"`
	Focus          string         `json:"focus"`
	Intensity      IntensityLevel `json:"intensity_level"`
	VolumeModifier float64        `json:"volume_modifier"`
}

// PlanStatus marks whether a plan is the one being followed.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanReplaced  PlanStatus = "replaced"
	PlanAbandoned PlanStatus = "abandoned"
)

// WorkoutPlan is a periodized multi-week plan.
type WorkoutPlan struct {
	ID                      string          `json:"id"`
	UserID                  string          `json:"user_id"`
	Name                    string          `json:"name"`
	GoalType                GoalType        `json:"goal_type"`
	TotalWeeks              int             `json:"total_weeks"`
	WorkoutsPerWeek         int             `json:"workouts_per_week"`
	SessionMinutes          int             `json:"session_minutes"`
	Phases                  []TrainingPhase `json:"phases"`
	StartDate               time.Time       `json:"start_date"`
	EndDate                 time.Time       `json:"end_date"`
	Difficulty              Difficulty      `json:"difficulty"`
	Equipment               []string        `json:"equipment"`
	EstimatedCompletionRate float64         `json:"estimated_completion_rate"`
	GoalAlignmentScore      float64         `json:"goal_alignment_score"`
	Status                  PlanStatus      `json:"status"`
	Source                  string          `json:"source"`
	Revision                int             `json:"revision"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// PhaseForWeek returns the phase that contains the 1-based week number.
func (p *WorkoutPlan) PhaseForWeek(week int) (TrainingPhase, bool) {
	acc := 0
	for _, ph := range p.Phases {
		acc += ph.Weeks
		if week <= acc {
			return ph, true
		}
	}
	return TrainingPhase{}, false
}

// Clone returns a deep copy of the plan.
func (p WorkoutPlan) Clone() WorkoutPlan {
	out := p
	out.Phases = append([]TrainingPhase(nil), p.Phases...)
	out.Equipment = append([]string(nil), p.Equipment...)
	return out
}

// Summary renders a short human readable description of the phases.
func (p *WorkoutPlan) Summary() string {
	parts := make([]string, 0, len(p.Phases))
	for _, ph := range p.Phases {
		parts = append(parts, ph.Name)
	}
	return strings.Join(parts, " → ")
}

// ScheduledWorkout is a dated session belonging to a plan.
type ScheduledWorkout struct {
	ID            string           `json:"id"`
	PlanID        string           `json:"plan_id"`
	UserID        string           `json:"user_id"`
	ScheduledDate time.Time        `json:"scheduled_date"`
	WeekNumber    int              `json:"week_number"`
	DayNumber     int              `json:"day_number"`
	PhaseName     string           `json:"phase_name"`
	Status        WorkoutStatus    `json:"status"`
	Workout       GeneratedWorkout `json:"workout"`
}

// AdjustmentReason is why an existing plan is being modified.
type AdjustmentReason string

const (
	AdjustLowAdherence AdjustmentReason = "low_adherence"
	AdjustTooEasy      AdjustmentReason = "too_easy"
	AdjustGoalChange   AdjustmentReason = "goal_change"
	AdjustInjury       AdjustmentReason = "injury"
	AdjustPlateau      AdjustmentReason = "plateau"
)

// Valid reports whether r is one of the known adjustment reasons.
func (r AdjustmentReason) Valid() bool {
	switch r {
	case AdjustLowAdherence, AdjustTooEasy, AdjustGoalChange, AdjustInjury, AdjustPlateau:
		return true
	}
	return false
}

// PlanModification is the audit entry written by plan adjustments.
type PlanModification struct {
	ID        string           `json:"id"`
	PlanID    string           `json:"plan_id"`
	UserID    string           `json:"user_id"`
	Reason    AdjustmentReason `json:"reason"`
	Note      string           `json:"note,omitempty"`
	Before    WorkoutPlan      `json:"before"`
	After     WorkoutPlan      `json:"after"`
	CreatedAt time.Time        `json:"created_at"`
}
