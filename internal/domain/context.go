// Package domain holds the records shared by the coaching subsystems.
package domain

import "time"

// FitnessLevel is the self-reported training experience of a user.
type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// TrainingStyle drives the default muscle split of generated sessions.
type TrainingStyle string

const (
	StyleBodybuilding TrainingStyle = "bodybuilding"
	StylePowerlifting TrainingStyle = "powerlifting"
	StyleBalanced     TrainingStyle = "balanced"
)

// GoalType classifies what a user is training for.
type GoalType string

const (
	GoalStrength    GoalType = "strength"
	GoalMuscle      GoalType = "muscle"
	GoalHypertrophy GoalType = "hypertrophy"
	GoalEndurance   GoalType = "endurance"
	GoalWeightLoss  GoalType = "weight_loss"
	GoalGeneral     GoalType = "general"
)

// ParseGoalType maps loose user wording onto a GoalType. Unknown values map to GoalGeneral.
func ParseGoalType(s string) GoalType {
	switch s {
	case "strength", "power", "powerlifting":
		return GoalStrength
	case "muscle", "muscle_gain", "build_muscle", "bodybuilding":
		return GoalMuscle
	case "hypertrophy":
		return GoalHypertrophy
	case "endurance", "cardio", "running", "conditioning":
		return GoalEndurance
	case "weight_loss", "weight-loss", "fat_loss", "lose_weight", "cut":
		return GoalWeightLoss
	default:
		return GoalGeneral
	}
}

// Profile is the stored user profile row.
type Profile struct {
	FitnessLevel       FitnessLevel  `json:"fitness_level"`
	TrainingStyle      TrainingStyle `json:"training_style"`
	Persona            string        `json:"persona"`
	OnboardingComplete bool          `json:"onboarding_complete"`
}

// Goal is a single user goal. Priority 1..3 marks a primary goal.
type Goal struct {
	ID           string     `json:"id"`
	Type         GoalType   `json:"type"`
	Description  string     `json:"description"`
	Priority     int        `json:"priority"`
	StartValue   float64    `json:"start_value"`
	CurrentValue float64    `json:"current_value"`
	TargetValue  float64    `json:"target_value"`
	Unit         string     `json:"unit,omitempty"`
	TargetDate   *time.Time `json:"target_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Preferences are the user's training preferences.
type Preferences struct {
	WorkoutDuration int      `json:"workout_duration"`
	WorkoutsPerWeek int      `json:"workouts_per_week"`
	Equipment       []string `json:"equipment"`
	Restrictions    []string `json:"restrictions"`
}

// History is the rolling training history derived from stored sessions.
type History struct {
	TotalWorkouts   int        `json:"total_workouts"`
	CurrentStreak   int        `json:"current_streak"`
	LastWorkoutDate *time.Time `json:"last_workout_date,omitempty"`
	AverageDuration float64    `json:"average_duration"`
	CompletionRate  float64    `json:"completion_rate"`
}

type UserContext struct {
	UserID         string      `json:"user_id"`
	Profile        Profile     `json:"profile"`
	PrimaryGoals   []Goal      `json:"primary_goals"`
	SecondaryGoals []Goal      `json:"secondary_goals"`
	Preferences    Preferences `json:"preferences"`
	History        History     `json:"history"`
	IsNewUser      bool        `json:"is_new_user"`
}

// WorkoutStatus tracks a scheduled workout through the day.
type WorkoutStatus string

const (
	StatusPending    WorkoutStatus = "pending"
	StatusInProgress WorkoutStatus = "in_progress"
	StatusCompleted  WorkoutStatus = "completed"
	StatusSkipped    WorkoutStatus = "skipped"
)

// WorkoutSession is a logged training session.
type WorkoutSession struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	Date               time.Time `json:"date"`
	DurationMinutes    int       `json:"duration_minutes"`
	Intensity          float64   `json:"intensity"` // RPE 1..10
	MuscleGroups       []string  `json:"muscle_groups"`
	Completed          bool      `json:"completed"`
	PlanID             string    `json:"plan_id,omitempty"`
	ScheduledWorkoutID string    `json:"scheduled_workout_id,omitempty"`
}

// Load is the session's training load, duration times intensity.
func (s WorkoutSession) Load() float64 {
	return float64(s.DurationMinutes) * s.Intensity
}

type ActivePlanSummary struct {
	PlanID          string   `json:"plan_id"`
	Name            string   `json:"name"`
	GoalType        GoalType `json:"goal_type"`
	TotalWeeks      int      `json:"total_weeks"`
	WorkoutsPerWeek int      `json:"workouts_per_week"`
	WeeksCompleted  int      `json:"weeks_completed"`
	AdherenceRate   float64  `json:"adherence_rate"`
	CurrentPhase    string   `json:"current_phase"`
}

type TodayWorkout struct {
	ScheduledWorkoutID string            `json:"scheduled_workout_id"`
	Name               string            `json:"name"`
	Status             WorkoutStatus     `json:"status"`
	Workout            *GeneratedWorkout `json:"workout,omitempty"`
}

// RecoveryStatus is the four-state muscle recovery scale.
type RecoveryStatus string

const (
	RecoveryFatigued   RecoveryStatus = "fatigued"
	RecoveryRecovering RecoveryStatus = "recovering"
	RecoveryRecovered  RecoveryStatus = "recovered"
	RecoveryFresh      RecoveryStatus = "fresh"
)

type MuscleRecoveryEntry struct {
	MuscleGroup       string         `json:"muscle_group"`
	LastTrained       *time.Time     `json:"last_trained,omitempty"`
	Status            RecoveryStatus `json:"recovery_status"`
	RestDaysRemaining int            `json:"rest_days_remaining"`
}

type WorkoutContext struct {
	ActivePlan     *ActivePlanSummary             `json:"active_plan,omitempty"`
	Today          *TodayWorkout                  `json:"today,omitempty"`
	RecentSessions []WorkoutSession               `json:"recent_sessions"`
	MuscleRecovery map[string]MuscleRecoveryEntry `json:"muscle_recovery"`
}

// StressLevel is the coarse stress classification shown to the coach.
type StressLevel string

const (
	StressLow      StressLevel = "low"
	StressModerate StressLevel = "moderate"
	StressHigh     StressLevel = "high"
)

type Injury struct {
	BodyPart string     `json:"body_part"`
	Severity string     `json:"severity"`
	Notes    string     `json:"notes,omitempty"`
	Since    time.Time  `json:"since"`
	HealedAt *time.Time `json:"healed_at,omitempty"`
}

// Active reports whether the injury has not healed yet.
func (i Injury) Active() bool { return i.HealedAt == nil }

type HealthContext struct {
	Readiness      ReadinessScore  `json:"readiness"`
	Sleep          SleepRecord     `json:"sleep"`
	Wearable       WearableMetrics `json:"wearable"`
	Stress         StressLevel     `json:"stress"`
	ActiveInjuries []Injury        `json:"active_injuries"`
	PastInjuries   []Injury        `json:"past_injuries"`
}

// PerformanceTrend classifies recent training load direction.
type PerformanceTrend string

const (
	TrendImproving        PerformanceTrend = "improving"
	TrendStable           PerformanceTrend = "stable"
	TrendDeclining        PerformanceTrend = "declining"
	TrendInsufficientData PerformanceTrend = "insufficient_data"
)

type GoalProgress struct {
	Goal                Goal       `json:"goal"`
	ProgressPercent     float64    `json:"progress_percent"`
	ProjectedCompletion *time.Time `json:"projected_completion,omitempty"`
	OnTrack             bool       `json:"on_track"`
}

type GoalContext struct {
	Primary         GoalProgress     `json:"primary"`
	Trend           PerformanceTrend `json:"trend"`
	Recommendations []string         `json:"recommendations"`
}

// CompleteContext is an immutable snapshot of everything known about a user.
type CompleteContext struct {
	User      UserContext    `json:"user"`
	Workout   WorkoutContext `json:"workout"`
	Health    HealthContext  `json:"health"`
	Goals     GoalContext    `json:"goals"`
	Timestamp time.Time      `json:"timestamp"`
	Cached    bool           `json:"cached"`
}

// PrimaryGoalType returns the type of the top primary goal, or GoalGeneral.
func (c *CompleteContext) PrimaryGoalType() GoalType {
	if c == nil || c.Goals.Primary.Goal.Type == "" {
		return GoalGeneral
	}
	return c.Goals.Primary.Goal.Type
}
