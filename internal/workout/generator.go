// Package workout selects and parameterizes the exercises of a single
// training session, and the week-by-week sessions of a plan.
package workout

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/domain"
)

const (
	MinutesPerExercise = 8
	CompoundShare      = 0.6
	MaxIntensity       = 95.0
	FullReadiness      = 80
	MinAdjustedSets    = 2
	WeeklyOverload     = 0.05
	DefaultDuration    = 60
)

// Params is the sets/reps/rest/intensity scheme of a workout type.
type Params struct {
	Sets        int
	Reps        int
	Intensity   float64
	RestSeconds int
}

var paramTable = map[domain.WorkoutType]Params{
	domain.TypeStrength:    {Sets: 5, Reps: 5, Intensity: 85, RestSeconds: 180},
	domain.TypeHypertrophy: {Sets: 4, Reps: 10, Intensity: 75, RestSeconds: 90},
	domain.TypeEndurance:   {Sets: 3, Reps: 15, Intensity: 65, RestSeconds: 60},
	domain.TypePower:       {Sets: 4, Reps: 3, Intensity: 90, RestSeconds: 240},
	domain.TypeMixed:       {Sets: 3, Reps: 8, Intensity: 80, RestSeconds: 120},
}

// ParamsFor returns the lookup-table scheme for t, using mixed for unknown types.
func ParamsFor(t domain.WorkoutType) Params {
	if p, ok := paramTable[t]; ok {
		return p
	}
	return paramTable[domain.TypeMixed]
}

// TypeForGoal maps a goal onto the workout type that serves it.
func TypeForGoal(g domain.GoalType) domain.WorkoutType {
	switch g {
	case domain.GoalStrength:
		return domain.TypeStrength
	case domain.GoalMuscle, domain.GoalHypertrophy:
		return domain.TypeHypertrophy
	case domain.GoalEndurance, domain.GoalWeightLoss:
		return domain.TypeEndurance
	default:
		return domain.TypeMixed
	}
}

// Overrides replace values otherwise derived from the user's context.
// Zero values mean "derive".
type Overrides struct {
	Goal            domain.GoalType    `json:"goal,omitempty"`
	DurationMinutes int                `json:"duration_minutes,omitempty"`
	Equipment       []string           `json:"equipment,omitempty"`
	MuscleGroups    []string           `json:"muscle_groups,omitempty"`
	Difficulty      domain.Difficulty  `json:"difficulty,omitempty"`
	WorkoutType     domain.WorkoutType `json:"workout_type,omitempty"`
	Avoid           []string           `json:"avoid,omitempty"`

	// SkipReadiness leaves today's readiness out of the parameters, as for
	// sessions scheduled on future days.
	SkipReadiness bool `json:"skip_readiness,omitempty"`
}

// Auditor records generated workouts.
type Auditor interface {
	AppendAudit(ctx context.Context, userID string, kind domain.AuditKind, v any) error
}

// Generator builds workouts from a user's CompleteContext.
type Generator struct {
	audit Auditor
	now   func() time.Time
	log   zerolog.Logger
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(audit Auditor, log zerolog.Logger, opts ...Option) *Generator {
	g := &Generator{
		audit: audit,
		now:   time.Now,
		log:   log.With().Str("component", "workout").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a session and records it in the audit log. A failed audit
// write is logged; the workout is always returned.
func (g *Generator) Generate(ctx context.Context, cc domain.CompleteContext, ov Overrides) domain.GeneratedWorkout {
	w := g.Build(cc, ov)
	if g.audit != nil {
		if err := g.audit.AppendAudit(ctx, w.UserID, domain.AuditGeneratedWorkout, w); err != nil {
			g.log.Warn().Err(err).Str("user_id", w.UserID).Str("op", "generated_workout").Msg("audit write failed")
		}
	}
	return w
}

// Build is Generate without the audit write.
func (g *Generator) Build(cc domain.CompleteContext, ov Overrides) domain.GeneratedWorkout {
	return g.build(cc, ov, 0)
}

func (g *Generator) build(cc domain.CompleteContext, ov Overrides, variant int) domain.GeneratedWorkout {
	goal := ov.Goal
	if goal == "" {
		goal = cc.PrimaryGoalType()
	}
	wtype := ov.WorkoutType
	if wtype == "" {
		wtype = TypeForGoal(goal)
	}
	duration := ov.DurationMinutes
	if duration <= 0 {
		duration = cc.User.Preferences.WorkoutDuration
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	equipment := ov.Equipment
	if len(equipment) == 0 {
		equipment = cc.User.Preferences.Equipment
	}
	if len(equipment) == 0 {
		equipment = []string{EquipFullGym}
	}

	avoid := avoidList(cc, ov)
	groups := ov.MuscleGroups
	if len(groups) == 0 {
		groups = chooseSplit(cc, avoid)
	}

	count := max(1, duration/MinutesPerExercise)
	picked := selectExercises(groups, equipment, avoid, count, variant)

	p := ParamsFor(wtype)
	exercises := make([]domain.Exercise, 0, len(picked))
	for _, e := range picked {
		exercises = append(exercises, domain.Exercise{
			Name:        e.name,
			MuscleGroup: e.muscle,
			Movement:    e.movement,
			Equipment:   slices.Clone(e.equipment),
			Sets:        p.Sets,
			Reps:        p.Reps,
			RestSeconds: p.RestSeconds,
			Intensity:   p.Intensity,
		})
	}

	w := domain.GeneratedWorkout{
		ID:              uuid.NewString(),
		UserID:          cc.User.UserID,
		WorkoutType:     wtype,
		DurationMinutes: duration,
		MuscleGroups:    worked(exercises),
		Equipment:       slices.Clone(equipment),
		Exercises:       exercises,
		WarmUp:          warmUp(exercises[0]),
		CoolDown:        coolDown(),
		GeneratedAt:     g.now().UTC(),
	}

	w.ReadinessScore = cc.Health.Readiness.Overall
	if !ov.SkipReadiness && readinessKnown(cc.Health.Readiness) && w.ReadinessScore < FullReadiness {
		ApplyReadiness(w.Exercises, w.ReadinessScore)
		w.ReadinessAdjusted = true
	}

	// The goal boost is added on top of the readiness-scaled prescription.
	onTrack := cc.Goals.Primary.OnTrack || cc.Goals.Primary.Goal.Type == ""
	if !onTrack {
		applyGoalBoost(w.Exercises)
	}

	w.Difficulty = ov.Difficulty
	if w.Difficulty == "" {
		w.Difficulty = DifficultyOf(w)
	}
	w.Name = workoutName(w.MuscleGroups, wtype)
	w.Description = fmt.Sprintf("%d-minute %s session targeting %s.", duration, wtype, strings.Join(w.MuscleGroups, ", "))
	w.GoalAlignment = goalAlignment(goal, wtype, onTrack)
	return w
}

func readinessKnown(r domain.ReadinessScore) bool {
	return r.Date != "" || r.Overall > 0
}

// avoidList merges explicit avoids with fatigued muscle groups and active
// injuries. Groups requested explicitly are only dropped by explicit avoids.
func avoidList(cc domain.CompleteContext, ov Overrides) []string {
	out := slices.Clone(ov.Avoid)
	add := func(g string) {
		if !slices.Contains(out, g) && !slices.Contains(ov.MuscleGroups, g) {
			out = append(out, g)
		}
	}
	for _, g := range sortedKeys(cc.Workout.MuscleRecovery) {
		if cc.Workout.MuscleRecovery[g].Status == domain.RecoveryFatigued {
			add(g)
		}
	}
	for _, in := range cc.Health.ActiveInjuries {
		add(strings.ToLower(in.BodyPart))
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// selectExercises fills count slots, 60% compound, the rest isolation. A
// short pool in one kind is topped up from the other. An empty pool yields
// the bodyweight fallback set.
func selectExercises(groups, equipment, avoid []string, count, variant int) []catalogEntry {
	nc := int(math.Round(float64(count) * CompoundShare))
	if count == 1 {
		nc = 1
	}
	comp := pick(groups, equipment, avoid, domain.MovementCompound, nc, variant)
	iso := pick(groups, equipment, avoid, domain.MovementIsolation, count-len(comp), variant)
	if short := count - len(comp) - len(iso); short > 0 {
		comp = pick(groups, equipment, avoid, domain.MovementCompound, len(comp)+short, variant)
	}
	out := append(comp, iso...)
	if len(out) == 0 {
		return slices.Clone(fallbackSet)
	}
	return out
}

// pick takes up to n entries round-robin across groups so each group is
// represented before any repeats. variant rotates each group's list.
func pick(groups, equipment, avoid []string, movement domain.Movement, n, variant int) []catalogEntry {
	if n <= 0 {
		return nil
	}
	var lists [][]catalogEntry
	for _, g := range groups {
		l := candidates([]string{g}, equipment, avoid, movement)
		if len(l) == 0 {
			continue
		}
		k := variant % len(l)
		lists = append(lists, slices.Concat(l[k:], l[:k]))
	}

	var out []catalogEntry
	for round := 0; len(out) < n; round++ {
		progressed := false
		for _, l := range lists {
			if round >= len(l) {
				continue
			}
			out = append(out, l[round])
			progressed = true
			if len(out) == n {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func worked(exercises []domain.Exercise) []string {
	var out []string
	for _, e := range exercises {
		if !slices.Contains(out, e.MuscleGroup) {
			out = append(out, e.MuscleGroup)
		}
	}
	return out
}

func warmUp(first domain.Exercise) []domain.Exercise {
	return []domain.Exercise{
		{Name: "Dynamic Stretching", DurationMinutes: 3},
		{Name: "Light Cardio", DurationMinutes: 5},
		{Name: first.Name, MuscleGroup: first.MuscleGroup, Movement: first.Movement, Sets: 2, Reps: 10, Intensity: 50},
	}
}

func coolDown() []domain.Exercise {
	return []domain.Exercise{
		{Name: "Light Walking", DurationMinutes: 5},
		{Name: "Static Stretching", DurationMinutes: 7},
	}
}

func applyGoalBoost(ex []domain.Exercise) {
	for i := range ex {
		ex[i].Sets++
		ex[i].Intensity = math.Min(MaxIntensity, ex[i].Intensity+5)
	}
}

// ApplyReadiness scales sets and intensity down by readiness/100 and rest up
// by the same margin. Sets never drop below two or rise above their input.
func ApplyReadiness(ex []domain.Exercise, readiness int) {
	f := math.Max(0, math.Min(1, float64(readiness)/100))
	for i := range ex {
		sets := max(MinAdjustedSets, int(math.Round(float64(ex[i].Sets)*f)))
		ex[i].Sets = min(ex[i].Sets, sets)
		ex[i].Intensity = round1(ex[i].Intensity * f)
		ex[i].RestSeconds = int(math.Round(float64(ex[i].RestSeconds) * (2 - f)))
	}
}

// DifficultyOf labels a workout by mean intensity and total sets.
func DifficultyOf(w domain.GeneratedWorkout) domain.Difficulty {
	mean, total := w.MeanIntensity(), w.TotalSets()
	switch {
	case mean > 85 || total > 20:
		return domain.DifficultyHard
	case mean > 70 || total > 15:
		return domain.DifficultyModerate
	default:
		return domain.DifficultyEasy
	}
}

var (
	upperGroups = []string{"chest", "back", "shoulders", "biceps", "triceps"}
	lowerGroups = []string{"quads", "hamstrings", "glutes", "calves"}
)

func workoutName(groups []string, t domain.WorkoutType) string {
	label := strings.ToUpper(string(t[:1])) + string(t[1:])
	var region string
	switch {
	case len(groups) <= 2:
		titled := make([]string, len(groups))
		for i, g := range groups {
			titled[i] = strings.ToUpper(g[:1]) + g[1:]
		}
		region = strings.Join(titled, " & ")
	case containsOnly(groups, upperGroups, "core"):
		region = "Upper Body"
	case containsOnly(groups, lowerGroups, "core"):
		region = "Lower Body"
	default:
		region = "Full Body"
	}
	return region + " " + label
}

func containsOnly(groups, allowed []string, extra string) bool {
	for _, g := range groups {
		if g != extra && !slices.Contains(allowed, g) {
			return false
		}
	}
	return true
}

func goalAlignment(goal domain.GoalType, t domain.WorkoutType, onTrack bool) string {
	p := ParamsFor(t)
	s := fmt.Sprintf("Supports your %s goal with %d×%d at %.0f%% intensity.", strings.ReplaceAll(string(goal), "_", " "), p.Sets, p.Reps, p.Intensity)
	if !onTrack {
		s += " Volume is raised because the goal is behind schedule."
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
