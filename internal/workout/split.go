package workout

import (
	"context"
	"math"
	"slices"

	"github.com/briangreenhill/coachengine/internal/domain"
)

var styleSplits = map[domain.TrainingStyle][][]string{
	domain.StyleBodybuilding: {
		{"chest", "triceps"},
		{"back", "biceps"},
		{"quads", "hamstrings", "calves"},
		{"shoulders", "core"},
	},
	domain.StylePowerlifting: {
		{"quads", "glutes", "core"},
		{"chest", "triceps", "shoulders"},
		{"back", "hamstrings", "glutes"},
	},
	domain.StyleBalanced: {
		{"chest", "back", "shoulders", "core"},
		{"quads", "hamstrings", "glutes", "calves"},
		{"chest", "back", "quads", "glutes", "core"},
	},
}

var statusWeight = map[domain.RecoveryStatus]float64{
	domain.RecoveryFresh:      2,
	domain.RecoveryRecovered:  2,
	domain.RecoveryRecovering: 0,
	domain.RecoveryFatigued:   -3,
}

// chooseSplit picks the style split that best avoids the previous session's
// groups and favours recovered or fresh groups. Ties go to the earlier split.
func chooseSplit(cc domain.CompleteContext, avoid []string) []string {
	splits, ok := styleSplits[cc.User.Profile.TrainingStyle]
	if !ok {
		splits = styleSplits[domain.StyleBalanced]
	}
	var previous []string
	if len(cc.Workout.RecentSessions) > 0 {
		previous = cc.Workout.RecentSessions[0].MuscleGroups
	}

	best, bestScore := splits[0], math.Inf(-1)
	for _, s := range splits {
		var score float64
		for _, g := range s {
			switch {
			case slices.Contains(previous, g):
				score -= 10
			case slices.Contains(avoid, g):
				score -= 3
			default:
				if e, ok := cc.Workout.MuscleRecovery[g]; ok {
					score += statusWeight[e.Status]
				} else {
					score += statusWeight[domain.RecoveryFresh]
				}
			}
		}
		score /= float64(len(s))
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return slices.Clone(best)
}

// rotation is the muscle pattern cycled through the days of a plan week.
func rotation(perWeek int) [][]string {
	switch {
	case perWeek <= 3:
		return [][]string{
			{"chest", "shoulders", "triceps"},
			{"back", "biceps", "core"},
			{"quads", "hamstrings", "glutes", "calves"},
		}
	case perWeek == 4:
		return [][]string{
			{"chest", "back", "shoulders", "triceps"},
			{"quads", "hamstrings", "glutes", "calves"},
			{"back", "chest", "biceps", "core"},
			{"glutes", "quads", "hamstrings", "core"},
		}
	default:
		return [][]string{
			{"chest", "triceps"},
			{"back", "biceps"},
			{"quads", "hamstrings", "calves"},
			{"shoulders", "core"},
			{"glutes", "hamstrings", "quads"},
		}
	}
}

// GeneratePlanWorkouts returns weeks×perWeek sessions following the weekly
// muscle rotation, with sets and intensity rising 5% per week. Future
// sessions are built without today's readiness adjustment.
func (g *Generator) GeneratePlanWorkouts(ctx context.Context, cc domain.CompleteContext, weeks, perWeek int, base Overrides) [][]domain.GeneratedWorkout {
	pattern := rotation(perWeek)
	out := make([][]domain.GeneratedWorkout, 0, weeks)
	for w := 0; w < weeks; w++ {
		if ctx.Err() != nil {
			break
		}
		factor := 1 + WeeklyOverload*float64(w)
		week := make([]domain.GeneratedWorkout, 0, perWeek)
		for d := 0; d < perWeek; d++ {
			ov := base
			ov.MuscleGroups = pattern[d%len(pattern)]
			ov.SkipReadiness = true
			wo := g.build(cc, ov, d/len(pattern))
			Overload(wo.Exercises, factor)
			if base.Difficulty == "" {
				wo.Difficulty = DifficultyOf(wo)
			}
			week = append(week, wo)
		}
		out = append(out, week)
	}
	return out
}

// Overload multiplies sets and intensity by factor, capping intensity.
func Overload(ex []domain.Exercise, factor float64) {
	for i := range ex {
		ex[i].Sets = max(1, int(math.Round(float64(ex[i].Sets)*factor)))
		ex[i].Intensity = math.Min(MaxIntensity, round1(ex[i].Intensity*factor))
	}
}
