package domain

import "time"

// WorkoutType selects the sets/reps/rest scheme of a session.
type WorkoutType string

const (
	TypeStrength    WorkoutType = "strength"
	TypeHypertrophy WorkoutType = "hypertrophy"
	TypeEndurance   WorkoutType = "endurance"
	TypePower       WorkoutType = "power"
	TypeMixed       WorkoutType = "mixed"
)

// Difficulty is derived from mean intensity and total set count.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
)

// Movement distinguishes multi-joint from single-joint exercises.
type Movement string

const (
	MovementCompound  Movement = "compound"
	MovementIsolation Movement = "isolation"
)

// Exercise is one prescribed movement. Intensity is a percentage of max effort.
type Exercise struct {
	Name            string   `json:"name"`
	MuscleGroup     string   `json:"muscle_group,omitempty"`
	Movement        Movement `json:"movement,omitempty"`
	Equipment       []string `json:"equipment,omitempty"`
	Sets            int      `json:"sets,omitempty"`
	Reps            int      `json:"reps,omitempty"`
	RestSeconds     int      `json:"rest_seconds,omitempty"`
	Intensity       float64  `json:"intensity,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
}

// GeneratedWorkout is a single session produced by the workout generator.
type GeneratedWorkout struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	WorkoutType       WorkoutType `json:"workout_type"`
	DurationMinutes   int         `json:"duration_minutes"`
	Difficulty        Difficulty  `json:"difficulty"`
	MuscleGroups      []string    `json:"muscle_groups"`
	Equipment         []string    `json:"equipment"`
	Exercises         []Exercise  `json:"exercises"`
	WarmUp            []Exercise  `json:"warm_up"`
	CoolDown          []Exercise  `json:"cool_down"`
	GoalAlignment     string      `json:"goal_alignment"`
	ReadinessAdjusted bool        `json:"readiness_adjusted"`
	ReadinessScore    int         `json:"readiness_score"`
	GeneratedAt       time.Time   `json:"generated_at"`
}

// TotalSets sums the sets of the main exercises.
func (w GeneratedWorkout) TotalSets() int {
	n := 0
	for _, e := range w.Exercises {
		n += e.Sets
	}
	return n
}

// MeanIntensity averages the intensity of the main exercises.
func (w GeneratedWorkout) MeanIntensity() float64 {
	if len(w.Exercises) == 0 {
		return 0
	}
	var sum float64
	for _, e := range w.Exercises {
		sum += e.Intensity
	}
	return sum / float64(len(w.Exercises))
}

// Clone returns a deep copy so callers can adjust exercises without aliasing.
func (w GeneratedWorkout) Clone() GeneratedWorkout {
	out := w
	out.MuscleGroups = append([]string(nil), w.MuscleGroups...)
	out.Equipment = append([]string(nil), w.Equipment...)
	out.Exercises = cloneExercises(w.Exercises)
	out.WarmUp = cloneExercises(w.WarmUp)
	out.CoolDown = cloneExercises(w.CoolDown)
	return out
}

func cloneExercises(in []Exercise) []Exercise {
	if in == nil {
		return nil
	}
	out := make([]Exercise, len(in))
	for i, e := range in {
		e.Equipment = append([]string(nil), e.Equipment...)
		out[i] = e
	}
	return out
}
