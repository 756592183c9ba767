package plan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
)

const tooEasyAdherence = 0.95

// AdjustPlan modifies a stored plan for reason, reschedules the sessions from
// today onwards and records the before/after pair in the audit log. Sessions
// dated before today are left as they were, and so is today's session once
// the user has started or finished it.
func (b *Builder) AdjustPlan(ctx context.Context, cc domain.CompleteContext, planID string, reason domain.AdjustmentReason) (Result, error) {
	if !reason.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAdjustment, reason)
	}
	userID := cc.User.UserID
	before, err := b.store.GetPlan(ctx, userID, planID)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, ErrPlanNotFound
	}
	if err != nil {
		return Result{}, err
	}

	now := b.now().UTC()
	after := before.Clone()
	note := adjust(&after, reason, cc)
	after.Revision++
	after.UpdatedAt = now
	after.GoalAlignmentScore = GoalAlignment(after.GoalType, after.Phases)

	log := b.log.With().Str("user_id", userID).Str("plan_id", planID).Str("reason", string(reason)).Logger()
	if err := b.store.PutPlan(ctx, after); err != nil {
		return Result{}, fmt.Errorf("save adjusted plan: %w", err)
	}

	from := day(now)
	if b.startedOn(ctx, cc, planID, from) {
		from = from.AddDate(0, 0, 1)
	}
	var upcoming []domain.ScheduledWorkout
	if from.Before(after.EndDate) {
		if _, err := b.store.DeleteScheduledFrom(ctx, userID, planID, from); err != nil {
			log.Error().Err(err).Str("op", "clear_schedule").Msg("could not clear upcoming sessions")
		}
		for _, sw := range b.schedule(ctx, cc, after, nil) {
			if !sw.ScheduledDate.Before(from) {
				upcoming = append(upcoming, sw)
			}
		}
	}
	res := Result{Plan: after, Schedule: upcoming}
	if res.Schedule == nil {
		res.Schedule = []domain.ScheduledWorkout{}
	}
	res.Unsaved = b.persistSchedule(ctx, log, upcoming)

	mod := domain.PlanModification{
		ID:        uuid.NewString(),
		PlanID:    planID,
		UserID:    userID,
		Reason:    reason,
		Note:      note,
		Before:    before,
		After:     after,
		CreatedAt: now,
	}
	if err := b.store.AppendAudit(ctx, userID, domain.AuditPlanModification, mod); err != nil {
		log.Warn().Err(err).Str("op", "plan_modification").Msg("audit write failed")
	}
	log.Info().Str("note", note).Int("rescheduled", len(upcoming)).Msg("plan adjusted")
	return res, nil
}

// startedOn reports whether the plan's session on d is no longer pending,
// either by its stored status or through a logged session linked to it.
func (b *Builder) startedOn(ctx context.Context, cc domain.CompleteContext, planID string, d time.Time) bool {
	entries, err := b.store.ListScheduled(ctx, cc.User.UserID, planID, d, d.AddDate(0, 0, 1))
	if err != nil {
		b.log.Warn().Err(err).Str("plan_id", planID).Msg("could not read today's session; keeping it")
		return true
	}
	linked := map[string]bool{}
	if t := cc.Workout.Today; t != nil && t.Status != domain.StatusPending {
		linked[t.ScheduledWorkoutID] = true
	}
	for _, s := range cc.Workout.RecentSessions {
		if s.ScheduledWorkoutID != "" {
			linked[s.ScheduledWorkoutID] = true
		}
	}
	for _, sw := range entries {
		if sw.Status != domain.StatusPending || linked[sw.ID] {
			return true
		}
	}
	return false
}

// adjust mutates p for reason and returns a short description of the change.
func adjust(p *domain.WorkoutPlan, reason domain.AdjustmentReason, cc domain.CompleteContext) string {
	switch reason {
	case domain.AdjustLowAdherence:
		prev := p.WorkoutsPerWeek
		p.WorkoutsPerWeek = max(MinPerWeek, p.WorkoutsPerWeek-1)
		for i := range p.Phases {
			p.Phases[i].Intensity = p.Phases[i].Intensity.Step(-1)
		}
		if p.WorkoutsPerWeek == prev {
			return fmt.Sprintf("kept %d sessions per week at lower intensity", p.WorkoutsPerWeek)
		}
		return fmt.Sprintf("reduced to %d sessions per week at lower intensity", p.WorkoutsPerWeek)

	case domain.AdjustTooEasy:
		adherence, known := adherenceFor(cc, p.ID)
		if !known || adherence <= tooEasyAdherence {
			return fmt.Sprintf("intensity unchanged: adherence %.0f%% is not above %.0f%%", adherence*100, tooEasyAdherence*100)
		}
		for i := range p.Phases {
			p.Phases[i].Intensity = p.Phases[i].Intensity.Step(1)
		}
		return "raised intensity in every phase"

	case domain.AdjustGoalChange:
		goal := cc.PrimaryGoalType()
		p.GoalType = goal
		p.Phases = DesignPhases(goal, p.TotalWeeks)
		p.Name = planName(goal, p.TotalWeeks)
		return fmt.Sprintf("phases regenerated for %s", goal)

	case domain.AdjustInjury:
		for i := range p.Phases {
			p.Phases[i].VolumeModifier = math.Round(p.Phases[i].VolumeModifier*50) / 100
			p.Phases[i].Intensity = domain.IntensityLow
		}
		return "volume halved and intensity set to low"

	case domain.AdjustPlateau:
		for i := range p.Phases {
			if i%2 == 0 {
				p.Phases[i].Intensity = domain.IntensityHigh
			} else {
				p.Phases[i].Intensity = domain.IntensityLow
			}
		}
		return "alternating high and low intensity phases"
	}
	return ""
}

func adherenceFor(cc domain.CompleteContext, planID string) (float64, bool) {
	if ap := cc.Workout.ActivePlan; ap != nil && ap.PlanID == planID {
		return ap.AdherenceRate, true
	}
	return 0, false
}
