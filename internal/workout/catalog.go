package workout

import (
	"slices"

	"github.com/briangreenhill/coachengine/internal/domain"
)

// Equipment tags. An exercise is available when the user has every tag it
// lists; "full_gym" satisfies any tag.
const (
	EquipFullGym    = "full_gym"
	EquipBarbell    = "barbell"
	EquipDumbbells  = "dumbbells"
	EquipBench      = "bench"
	EquipCable      = "cable"
	EquipMachine    = "machine"
	EquipPullUpBar  = "pull_up_bar"
	EquipKettlebell = "kettlebell"
	EquipBands      = "bands"
)

type catalogEntry struct {
	name      string
	muscle    string
	movement  domain.Movement
	equipment []string
}

func compound(name, muscle string, equipment ...string) catalogEntry {
	return catalogEntry{name: name, muscle: muscle, movement: domain.MovementCompound, equipment: equipment}
}

func isolation(name, muscle string, equipment ...string) catalogEntry {
	return catalogEntry{name: name, muscle: muscle, movement: domain.MovementIsolation, equipment: equipment}
}

// catalog is ordered by preference within each muscle group.
var catalog = []catalogEntry{
	compound("Barbell Bench Press", "chest", EquipBarbell, EquipBench),
	compound("Dumbbell Bench Press", "chest", EquipDumbbells, EquipBench),
	compound("Push-Up", "chest"),
	isolation("Cable Fly", "chest", EquipCable),
	isolation("Dumbbell Fly", "chest", EquipDumbbells, EquipBench),

	compound("Barbell Row", "back", EquipBarbell),
	compound("Pull-Up", "back", EquipPullUpBar),
	compound("One-Arm Dumbbell Row", "back", EquipDumbbells),
	isolation("Straight-Arm Pulldown", "back", EquipCable),
	isolation("Band Pull-Apart", "back", EquipBands),

	compound("Overhead Press", "shoulders", EquipBarbell),
	compound("Dumbbell Shoulder Press", "shoulders", EquipDumbbells),
	compound("Pike Push-Up", "shoulders"),
	isolation("Lateral Raise", "shoulders", EquipDumbbells),
	isolation("Face Pull", "shoulders", EquipCable),

	compound("Chin-Up", "biceps", EquipPullUpBar),
	isolation("Dumbbell Curl", "biceps", EquipDumbbells),
	isolation("Cable Curl", "biceps", EquipCable),
	isolation("Band Curl", "biceps", EquipBands),

	compound("Close-Grip Bench Press", "triceps", EquipBarbell, EquipBench),
	compound("Bench Dip", "triceps", EquipBench),
	isolation("Triceps Pushdown", "triceps", EquipCable),
	isolation("Overhead Dumbbell Extension", "triceps", EquipDumbbells),

	compound("Back Squat", "quads", EquipBarbell),
	compound("Goblet Squat", "quads", EquipDumbbells),
	compound("Bodyweight Squat", "quads"),
	isolation("Leg Extension", "quads", EquipMachine),

	compound("Romanian Deadlift", "hamstrings", EquipBarbell),
	compound("Dumbbell Romanian Deadlift", "hamstrings", EquipDumbbells),
	isolation("Lying Leg Curl", "hamstrings", EquipMachine),
	isolation("Nordic Curl", "hamstrings"),

	compound("Hip Thrust", "glutes", EquipBarbell, EquipBench),
	compound("Kettlebell Swing", "glutes", EquipKettlebell),
	compound("Walking Lunge", "glutes"),
	isolation("Glute Bridge", "glutes"),

	isolation("Standing Calf Raise", "calves", EquipMachine),
	isolation("Single-Leg Calf Raise", "calves"),

	compound("Hanging Leg Raise", "core", EquipPullUpBar),
	isolation("Plank", "core"),
	isolation("Dead Bug", "core"),
	isolation("Cable Crunch", "core", EquipCable),
}

// fallbackSet is used when no catalog entry survives filtering.
var fallbackSet = []catalogEntry{
	compound("Push-Ups", "chest"),
	compound("Pull-Ups", "back", EquipPullUpBar),
	compound("Squats", "quads"),
	isolation("Plank", "core"),
}

func hasEquipment(owned []string, needed []string) bool {
	if slices.Contains(owned, EquipFullGym) {
		return true
	}
	for _, n := range needed {
		if !slices.Contains(owned, n) {
			return false
		}
	}
	return true
}

// candidates returns catalog entries for groups, in group order then catalog
// order, that the equipment allows and the avoid list does not exclude.
func candidates(groups, equipment, avoid []string, movement domain.Movement) []catalogEntry {
	var out []catalogEntry
	for _, g := range groups {
		if slices.Contains(avoid, g) {
			continue
		}
		for _, e := range catalog {
			if e.muscle == g && e.movement == movement && hasEquipment(equipment, e.equipment) {
				out = append(out, e)
			}
		}
	}
	return out
}
