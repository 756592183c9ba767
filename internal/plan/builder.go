// Package plan composes periodized multi-week training plans, schedules their
// sessions on the calendar and adjusts stored plans.
package plan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/llm"
	"github.com/briangreenhill/coachengine/internal/prompt"
	"github.com/briangreenhill/coachengine/internal/store"
	"github.com/briangreenhill/coachengine/internal/workout"
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrUnknownAdjustment = errors.New("unknown plan adjustment")
)

const (
	SourceTemplate = "template"
	SourceModel    = "model"
)

// Store is the subset of the persistence layer used for plans.
type Store interface {
	PutPlan(ctx context.Context, p domain.WorkoutPlan) error
	GetPlan(ctx context.Context, userID, planID string) (domain.WorkoutPlan, error)
	ActivePlan(ctx context.Context, userID string) (domain.WorkoutPlan, error)
	SetActivePlan(ctx context.Context, userID, planID string) error
	PutScheduled(ctx context.Context, sw domain.ScheduledWorkout) error
	ListScheduled(ctx context.Context, userID, planID string, from, to time.Time) ([]domain.ScheduledWorkout, error)
	DeleteScheduledFrom(ctx context.Context, userID, planID string, from time.Time) (int64, error)
	AppendAudit(ctx context.Context, userID string, kind domain.AuditKind, v any) error
}

// WorkoutSource produces the week-by-day sessions of a plan.
type WorkoutSource interface {
	GeneratePlanWorkouts(ctx context.Context, cc domain.CompleteContext, weeks, perWeek int, base workout.Overrides) [][]domain.GeneratedWorkout
}

// Options override values otherwise derived from the user's context.
type Options struct {
	Weeks           int                 `json:"weeks,omitempty"`
	StartDate       *time.Time          `json:"start_date,omitempty"`
	Goal            domain.GoalType     `json:"goal,omitempty"`
	Experience      domain.FitnessLevel `json:"experience,omitempty"`
	WorkoutsPerWeek int                 `json:"workouts_per_week,omitempty"`
	SessionMinutes  int                 `json:"session_minutes,omitempty"`
	Equipment       []string            `json:"equipment,omitempty"`
}

// Result is a plan with its scheduled sessions. Unsaved counts sessions
// whose write failed.
type Result struct {
	Plan     domain.WorkoutPlan        `json:"plan"`
	Schedule []domain.ScheduledWorkout `json:"schedule"`
	Unsaved  int                       `json:"unsaved,omitempty"`
}

// Builder creates, stores and adjusts plans.
type Builder struct {
	store    Store
	workouts WorkoutSource
	model    llm.Client
	prompts  *prompt.Generator
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Builder)

func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithModel enables model-designed phases in BuildFromConversation.
func WithModel(c llm.Client, p *prompt.Generator) Option {
	return func(b *Builder) {
		b.model = c
		b.prompts = p
	}
}

func NewBuilder(st Store, ws WorkoutSource, log zerolog.Logger, opts ...Option) *Builder {
	b := &Builder{
		store:    st,
		workouts: ws,
		now:      time.Now,
		log:      log.With().Str("component", "plan").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildPlan designs a plan from the context, persists it as the active plan
// and schedules every session. Only the plan write itself is fatal.
func (b *Builder) BuildPlan(ctx context.Context, cc domain.CompleteContext, opts Options) (Result, error) {
	p := b.design(cc, opts, nil)
	return b.save(ctx, cc, p, opts)
}

// Get returns a stored plan and its full schedule.
func (b *Builder) Get(ctx context.Context, userID, planID string) (Result, error) {
	p, err := b.store.GetPlan(ctx, userID, planID)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, ErrPlanNotFound
	}
	if err != nil {
		return Result{}, err
	}
	sched, err := b.store.ListScheduled(ctx, userID, planID, p.StartDate, p.EndDate)
	if err != nil {
		return Result{}, err
	}
	if sched == nil {
		sched = []domain.ScheduledWorkout{}
	}
	return Result{Plan: p, Schedule: sched}, nil
}

// design fills a plan without persisting it. phases, when given, replace the
// goal template and fix the plan length.
func (b *Builder) design(cc domain.CompleteContext, opts Options, phases []domain.TrainingPhase) domain.WorkoutPlan {
	now := b.now().UTC()
	start := day(now)
	if opts.StartDate != nil {
		start = day(*opts.StartDate)
	}

	goal := opts.Goal
	if goal == "" {
		goal = cc.PrimaryGoalType()
	}
	level := opts.Experience
	if level == "" {
		level = cc.User.Profile.FitnessLevel
	}

	weeks := opts.Weeks
	switch {
	case len(phases) > 0:
		weeks = 0
		for _, ph := range phases {
			weeks += ph.Weeks
		}
	case weeks <= 0:
		primary := cc.Goals.Primary
		var target *time.Time
		onTrack := true
		if primary.Goal.Type == goal {
			target = primary.Goal.TargetDate
			onTrack = primary.OnTrack
		}
		weeks = SelectWeeks(goal, start, target, onTrack)
	}
	weeks = clamp(weeks, 1, 52)
	if len(phases) == 0 {
		phases = DesignPhases(goal, weeks)
	}

	preferred := opts.WorkoutsPerWeek
	if preferred <= 0 {
		preferred = cc.User.Preferences.WorkoutsPerWeek
	}
	perWeek := Frequency(preferred, level, cc.User.History.AverageDuration)

	minutes := opts.SessionMinutes
	if minutes <= 0 {
		minutes = cc.User.Preferences.WorkoutDuration
	}
	if minutes <= 0 {
		minutes = workout.DefaultDuration
	}
	equipment := opts.Equipment
	if len(equipment) == 0 {
		equipment = cc.User.Preferences.Equipment
	}

	return domain.WorkoutPlan{
		ID:                      uuid.NewString(),
		UserID:                  cc.User.UserID,
		Name:                    planName(goal, weeks),
		GoalType:                goal,
		TotalWeeks:              weeks,
		WorkoutsPerWeek:         perWeek,
		SessionMinutes:          minutes,
		Phases:                  phases,
		StartDate:               start,
		EndDate:                 start.AddDate(0, 0, 7*weeks),
		Difficulty:              planDifficulty(level),
		Equipment:               slices.Clone(equipment),
		EstimatedCompletionRate: EstimateCompletion(cc.User.History, level, perWeek),
		GoalAlignmentScore:      GoalAlignment(goal, phases),
		Status:                  domain.PlanActive,
		Source:                  SourceTemplate,
		Revision:                1,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

func (b *Builder) save(ctx context.Context, cc domain.CompleteContext, p domain.WorkoutPlan, opts Options) (Result, error) {
	log := b.log.With().Str("user_id", p.UserID).Str("plan_id", p.ID).Logger()

	prev, err := b.store.ActivePlan(ctx, p.UserID)
	switch {
	case err == nil && prev.ID != p.ID:
		prev.Status = domain.PlanReplaced
		prev.UpdatedAt = p.CreatedAt
		if err := b.store.PutPlan(ctx, prev); err != nil {
			log.Warn().Err(err).Str("op", "replace_plan").Msg("could not mark previous plan replaced")
		}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		log.Warn().Err(err).Str("op", "active_plan").Msg("could not read previous plan")
	}

	if err := b.store.PutPlan(ctx, p); err != nil {
		return Result{}, fmt.Errorf("save plan: %w", err)
	}
	if err := b.store.SetActivePlan(ctx, p.UserID, p.ID); err != nil {
		return Result{}, fmt.Errorf("activate plan: %w", err)
	}

	sched := b.schedule(ctx, cc, p, opts.Equipment)
	res := Result{Plan: p, Schedule: sched}
	res.Unsaved = b.persistSchedule(ctx, log, sched)
	log.Info().Int("weeks", p.TotalWeeks).Int("per_week", p.WorkoutsPerWeek).Int("sessions", len(sched)).
		Int("unsaved", res.Unsaved).Msg("plan built")
	return res, nil
}

// schedule walks phases, weeks and days in order. Each week starts seven days
// after the previous one and sessions within it follow the rest-day cadence.
func (b *Builder) schedule(ctx context.Context, cc domain.CompleteContext, p domain.WorkoutPlan, equipment []string) []domain.ScheduledWorkout {
	base := workout.Overrides{
		Goal:            p.GoalType,
		DurationMinutes: p.SessionMinutes,
		Equipment:       equipment,
	}
	if len(base.Equipment) == 0 {
		base.Equipment = p.Equipment
	}
	weeks := b.workouts.GeneratePlanWorkouts(ctx, cc, p.TotalWeeks, p.WorkoutsPerWeek, base)

	out := make([]domain.ScheduledWorkout, 0, p.TotalWeeks*p.WorkoutsPerWeek)
	week := 0
	for _, ph := range p.Phases {
		for pw := 0; pw < ph.Weeks && week < len(weeks); pw++ {
			date := p.StartDate.AddDate(0, 0, 7*week)
			for d, w := range weeks[week] {
				w = w.Clone()
				applyPhase(&w, ph)
				out = append(out, domain.ScheduledWorkout{
					ID:            uuid.NewString(),
					PlanID:        p.ID,
					UserID:        p.UserID,
					ScheduledDate: date,
					WeekNumber:    week + 1,
					DayNumber:     d + 1,
					PhaseName:     ph.Name,
					Status:        domain.StatusPending,
					Workout:       w,
				})
				date = date.AddDate(0, 0, RestGap(p.WorkoutsPerWeek, d))
			}
			week++
		}
	}
	return out
}

func (b *Builder) persistSchedule(ctx context.Context, log zerolog.Logger, sched []domain.ScheduledWorkout) int {
	failed := 0
	for _, sw := range sched {
		if err := b.store.PutScheduled(ctx, sw); err != nil {
			failed++
			log.Error().Err(err).Str("op", "scheduled_workout").Int("week", sw.WeekNumber).Int("day", sw.DayNumber).
				Msg("scheduled workout write failed")
		}
	}
	return failed
}

// applyPhase scales a generated session by the phase's volume and intensity.
func applyPhase(w *domain.GeneratedWorkout, ph domain.TrainingPhase) {
	mult := ph.Intensity.Multiplier()
	for i := range w.Exercises {
		e := &w.Exercises[i]
		e.Sets = max(1, int(math.Round(float64(e.Sets)*ph.VolumeModifier)))
		e.Intensity = math.Min(workout.MaxIntensity, math.Round(e.Intensity*mult*10)/10)
	}
	w.Difficulty = workout.DifficultyOf(*w)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
