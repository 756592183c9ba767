package aggregator

import (
	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/readiness"
)

// Defaults applied when a user has no stored record for a field.
const (
	DefaultFitnessLevel    = domain.LevelIntermediate
	DefaultTrainingStyle   = domain.StyleBalanced
	DefaultPersona         = "calm"
	DefaultWorkoutDuration = 60
	DefaultWorkoutsPerWeek = 3
)

// DefaultEquipment is assumed when no preference is stored.
var DefaultEquipment = []string{"full_gym"}

// RestDays is the recommended rest per muscle group, in days.
var RestDays = map[string]int{
	"quads":      3,
	"hamstrings": 3,
	"glutes":     2,
	"chest":      2,
	"back":       2,
	"shoulders":  2,
	"biceps":     1,
	"triceps":    1,
	"calves":     1,
	"core":       1,
}

// MuscleGroups lists the tracked groups in a stable order.
var MuscleGroups = []string{
	"chest", "back", "shoulders", "biceps", "triceps",
	"quads", "hamstrings", "glutes", "calves", "core",
}

func defaultProfile(persona string) domain.Profile {
	return domain.Profile{
		FitnessLevel:  DefaultFitnessLevel,
		TrainingStyle: DefaultTrainingStyle,
		Persona:       persona,
	}
}

// fillProfile fills blank profile fields.
func fillProfile(p domain.Profile, persona string) domain.Profile {
	d := defaultProfile(persona)
	if p.FitnessLevel == "" {
		p.FitnessLevel = d.FitnessLevel
	}
	if p.TrainingStyle == "" {
		p.TrainingStyle = d.TrainingStyle
	}
	if p.Persona == "" {
		p.Persona = d.Persona
	}
	return p
}

// fillPreferences fills blank or zero preference fields.
func fillPreferences(p domain.Preferences) domain.Preferences {
	if p.WorkoutDuration <= 0 {
		p.WorkoutDuration = DefaultWorkoutDuration
	}
	if p.WorkoutsPerWeek <= 0 {
		p.WorkoutsPerWeek = DefaultWorkoutsPerWeek
	}
	if len(p.Equipment) == 0 {
		p.Equipment = append([]string(nil), DefaultEquipment...)
	}
	if p.Restrictions == nil {
		p.Restrictions = []string{}
	}
	return p
}

func defaultSleep() domain.SleepRecord {
	return domain.SleepRecord{DurationHours: readiness.DefaultSleepHours, Quality: readiness.DefaultSleepQuality}
}

// neutralReadiness stands in when the scorer fails for a reason other than
// store unavailability.
func neutralReadiness(userID, date string) domain.ReadinessScore {
	return domain.ReadinessScore{
		UserID:         userID,
		Date:           date,
		Sleep:          readiness.NeutralWearable,
		Recovery:       readiness.NeutralWearable,
		StrainBalance:  readiness.NeutralWearable,
		Environmental:  readiness.NeutralWearable,
		Overall:        readiness.Overall(75, 75, 75, 75),
		Recommendation: readiness.Recommend(75),
		LimitingFactor: readiness.NoLimitingFactor,
		Insights:       []string{},
	}
}

func defaultGoal() domain.Goal {
	return domain.Goal{Type: domain.GoalGeneral, Description: "General fitness", Priority: 1}
}

func classifyStress(level float64) domain.StressLevel {
	switch {
	case level <= 3:
		return domain.StressLow
	case level <= 6:
		return domain.StressModerate
	default:
		return domain.StressHigh
	}
}
