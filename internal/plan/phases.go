package plan

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/briangreenhill/coachengine/internal/domain"
)

type weekRange struct{ min, max int }

var durations = map[domain.GoalType]weekRange{
	domain.GoalStrength:    {8, 16},
	domain.GoalWeightLoss:  {4, 12},
	domain.GoalMuscle:      {6, 12},
	domain.GoalHypertrophy: {6, 12},
}

var defaultDuration = weekRange{4, 12}

const offTrackScale = 0.8

// SelectWeeks derives a plan length from the goal. With a target date the
// weeks until it are clamped into the goal's range; otherwise the middle of
// the range is used. Off-track goals get 20% fewer weeks.
func SelectWeeks(goal domain.GoalType, start time.Time, target *time.Time, onTrack bool) int {
	r, ok := durations[goal]
	if !ok {
		r = defaultDuration
	}
	weeks := (r.min + r.max) / 2
	if target != nil && target.After(start) {
		weeks = int(math.Ceil(target.Sub(start).Hours() / (24 * 7)))
		weeks = max(r.min, min(r.max, weeks))
	}
	if !onTrack {
		weeks = max(1, int(math.Round(float64(weeks)*offTrackScale)))
	}
	return weeks
}

type phaseTemplate struct {
	name      string
	focus     string
	intensity domain.IntensityLevel
	volume    float64
}

var phaseTemplates = map[domain.GoalType][]phaseTemplate{
	domain.GoalStrength: {
		{"Anatomical Adaptation", "Movement quality, tendon strength and work capacity", domain.IntensityModerate, 1.0},
		{"Hypertrophy", "Muscle size to support strength gains", domain.IntensityModerate, 1.2},
		{"Max Strength", "Heavy low-rep strength work on the main lifts", domain.IntensityHigh, 0.8},
		{"Power & Peaking", "Explosive power and peak strength expression", domain.IntensityVeryHigh, 0.6},
	},
	domain.GoalMuscle: {
		{"Foundation", "Technique and base muscle building", domain.IntensityModerate, 1.0},
		{"Volume Accumulation", "High volume hypertrophy work for muscle growth", domain.IntensityModerate, 1.3},
		{"Intensity & Definition", "Heavier loads to consolidate muscle size and definition", domain.IntensityHigh, 1.0},
	},
	domain.GoalEndurance: {
		{"Base Building", "Aerobic base and muscular endurance", domain.IntensityLow, 1.0},
		{"Threshold", "Threshold work to raise stamina", domain.IntensityModerate, 1.2},
		{"Race Prep", "Event-specific endurance and pace", domain.IntensityHigh, 0.9},
	},
	domain.GoalWeightLoss: {
		{"Metabolic Conditioning", "Metabolic conditioning circuits for fat loss", domain.IntensityModerate, 1.0},
		{"Intensity Progression", "Higher intensity intervals to increase calorie burn", domain.IntensityHigh, 1.1},
		{"Maintenance & Toning", "Maintain fat loss and tone muscle", domain.IntensityModerate, 1.0},
	},
}

var genericPhases = []phaseTemplate{
	{"Foundation", "General fitness foundation and movement quality", domain.IntensityModerate, 1.0},
	{"Progression", "Progressive overload for overall fitness", domain.IntensityModerate, 1.1},
}

func templatesFor(goal domain.GoalType) []phaseTemplate {
	if goal == domain.GoalHypertrophy {
		goal = domain.GoalMuscle
	}
	if t, ok := phaseTemplates[goal]; ok {
		return t
	}
	return genericPhases
}

// DesignPhases splits weeks across the goal's phase templates in equal parts,
// with the remainder added to the last phase. Plans shorter than the
// template keep one week per phase from the start of the template.
func DesignPhases(goal domain.GoalType, weeks int) []domain.TrainingPhase {
	tpl := templatesFor(goal)
	if weeks < len(tpl) {
		tpl = tpl[:max(0, weeks)]
	}
	if len(tpl) == 0 {
		return []domain.TrainingPhase{}
	}
	base := weeks / len(tpl)
	out := make([]domain.TrainingPhase, len(tpl))
	for i, t := range tpl {
		out[i] = domain.TrainingPhase{
			Name:           t.name,
			Weeks:          base,
			Focus:          t.focus,
			Intensity:      t.intensity,
			VolumeModifier: t.volume,
		}
	}
	out[len(out)-1].Weeks += weeks - base*len(tpl)
	return out
}

// Weekly session band every plan stays within.
const (
	MinPerWeek = 3
	MaxPerWeek = 6
)

// Frequency derives workouts per week from the preference, experience and
// typical session length.
func Frequency(preferred int, level domain.FitnessLevel, avgSessionMinutes float64) int {
	f := preferred
	if f <= 0 {
		f = MinPerWeek
	}
	f = clamp(f, MinPerWeek, MaxPerWeek)
	switch level {
	case domain.LevelBeginner:
		f = min(f, 4)
	case domain.LevelAdvanced:
		f = max(f, 4)
	}
	switch {
	case avgSessionMinutes > 90:
		f--
	case avgSessionMinutes > 0 && avgSessionMinutes < 30:
		f++
	}
	return clamp(f, MinPerWeek, MaxPerWeek)
}

// RestGap is the number of days from session dayIndex to the next session in
// a week with perWeek sessions.
func RestGap(perWeek, dayIndex int) int {
	switch perWeek {
	case 7:
		return 1
	case 6:
		if (dayIndex+1)%3 == 0 {
			return 2
		}
		return 1
	case 5, 4:
		if dayIndex%2 == 1 {
			return 2
		}
		return 1
	case 3:
		return 2
	default:
		return 3
	}
}

// EstimateCompletion predicts the share of scheduled sessions the user will
// finish: historical completion once ten workouts exist, else a heuristic.
func EstimateCompletion(h domain.History, level domain.FitnessLevel, perWeek int) float64 {
	if h.TotalWorkouts >= 10 {
		return round2(h.CompletionRate)
	}
	rate := 0.8
	switch level {
	case domain.LevelBeginner:
		rate = 0.7
	case domain.LevelAdvanced:
		rate = 0.9
	}
	rate -= 0.05 * float64(max(0, perWeek-3))
	return round2(math.Max(0.5, math.Min(0.95, rate)))
}

var goalKeywords = map[domain.GoalType][]string{
	domain.GoalStrength:    {"strength", "power", "heavy", "lift"},
	domain.GoalMuscle:      {"muscle", "hypertrophy", "volume", "size"},
	domain.GoalHypertrophy: {"muscle", "hypertrophy", "volume", "size"},
	domain.GoalEndurance:   {"endurance", "aerobic", "stamina", "threshold"},
	domain.GoalWeightLoss:  {"fat", "calorie", "metabolic", "conditioning"},
}

var genericKeywords = []string{"fitness", "overall", "movement", "progressive"}

// GoalAlignment averages, over phases, the share of goal keywords found in
// each phase's focus text.
func GoalAlignment(goal domain.GoalType, phases []domain.TrainingPhase) float64 {
	kw, ok := goalKeywords[goal]
	if !ok {
		kw = genericKeywords
	}
	if len(phases) == 0 {
		return 0
	}
	var sum float64
	for _, ph := range phases {
		focus := strings.ToLower(ph.Focus)
		n := 0
		for _, k := range kw {
			if strings.Contains(focus, k) {
				n++
			}
		}
		sum += float64(n) / float64(len(kw))
	}
	return round2(sum / float64(len(phases)))
}

func planDifficulty(level domain.FitnessLevel) domain.Difficulty {
	switch level {
	case domain.LevelBeginner:
		return domain.DifficultyEasy
	case domain.LevelAdvanced:
		return domain.DifficultyHard
	default:
		return domain.DifficultyModerate
	}
}

var goalLabels = map[domain.GoalType]string{
	domain.GoalStrength:    "Strength",
	domain.GoalMuscle:      "Muscle Building",
	domain.GoalHypertrophy: "Hypertrophy",
	domain.GoalEndurance:   "Endurance",
	domain.GoalWeightLoss:  "Weight Loss",
}

func planName(goal domain.GoalType, weeks int) string {
	label, ok := goalLabels[goal]
	if !ok {
		label = "General Fitness"
	}
	return fmt.Sprintf("%d-Week %s Plan", weeks, label)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
