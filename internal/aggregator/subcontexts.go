package aggregator

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
)

const (
	recentSessionCount = 7
	historyLimit       = 200
	recoveryWindowDays = 14
)

func (a *Aggregator) userContext(ctx context.Context, userID string, now time.Time) (domain.UserContext, error) {
	uc := domain.UserContext{
		UserID:         userID,
		PrimaryGoals:   []domain.Goal{},
		SecondaryGoals: []domain.Goal{},
	}

	profile, err := a.store.GetProfile(ctx, userID)
	missingProfile := errors.Is(err, store.ErrNotFound)
	if err := a.soft(userID, "profile", err); err != nil {
		return uc, err
	}
	uc.Profile = fillProfile(profile, a.persona)

	goals, err := a.store.ListGoals(ctx, userID)
	if err := a.soft(userID, "goals", err); err != nil {
		return uc, err
	}
	sortGoals(goals)
	for _, g := range goals {
		if g.Priority <= 3 {
			uc.PrimaryGoals = append(uc.PrimaryGoals, g)
		} else {
			uc.SecondaryGoals = append(uc.SecondaryGoals, g)
		}
	}

	prefs, err := a.store.GetPreferences(ctx, userID)
	if err := a.soft(userID, "preferences", err); err != nil {
		return uc, err
	}
	uc.Preferences = fillPreferences(prefs)

	sessions, err := a.store.RecentSessions(ctx, userID, historyLimit)
	if err := a.soft(userID, "history", err); err != nil {
		return uc, err
	}
	uc.History = history(sessions, now)

	uc.IsNewUser = missingProfile || (!uc.Profile.OnboardingComplete && uc.History.TotalWorkouts == 0)
	return uc, nil
}

func sortGoals(goals []domain.Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		if goals[i].Priority != goals[j].Priority {
			return goals[i].Priority < goals[j].Priority
		}
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
}

// history summarizes sessions given newest first.
func history(sessions []domain.WorkoutSession, now time.Time) domain.History {
	var h domain.History
	if len(sessions) == 0 {
		return h
	}

	var minutes int
	trained := map[time.Time]bool{}
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		h.TotalWorkouts++
		minutes += s.DurationMinutes
		trained[day(s.Date)] = true
		if h.LastWorkoutDate == nil || s.Date.After(*h.LastWorkoutDate) {
			d := s.Date
			h.LastWorkoutDate = &d
		}
	}
	h.CompletionRate = float64(h.TotalWorkouts) / float64(len(sessions))
	if h.TotalWorkouts == 0 {
		return h
	}
	h.AverageDuration = float64(minutes) / float64(h.TotalWorkouts)

	// the streak survives a missing session today
	cursor := day(now)
	if !trained[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for trained[cursor] {
		h.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return h
}

func (a *Aggregator) workoutContext(ctx context.Context, userID string, now time.Time) (domain.WorkoutContext, error) {
	wc := domain.WorkoutContext{
		RecentSessions: []domain.WorkoutSession{},
		MuscleRecovery: map[string]domain.MuscleRecoveryEntry{},
	}

	recent, err := a.store.RecentSessions(ctx, userID, recentSessionCount)
	if err := a.soft(userID, "recent sessions", err); err != nil {
		return wc, err
	}
	if recent != nil {
		wc.RecentSessions = recent
	}

	window, err := a.store.ListSessions(ctx, userID, day(now).AddDate(0, 0, -recoveryWindowDays), now.Add(time.Nanosecond))
	if err := a.soft(userID, "recovery sessions", err); err != nil {
		return wc, err
	}
	wc.MuscleRecovery = muscleRecovery(window, now)

	plan, err := a.store.ActivePlan(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return wc, nil
	}
	if err := a.soft(userID, "active plan", err); err != nil || plan.ID == "" {
		return wc, err
	}

	scheduled, err := a.store.ListScheduled(ctx, userID, plan.ID, plan.StartDate, day(now))
	if err := a.soft(userID, "schedule", err); err != nil {
		return wc, err
	}
	done := completedScheduleIDs(window, recent)
	wc.ActivePlan = planSummary(plan, scheduled, done, now)

	sw, err := a.store.ScheduledOn(ctx, userID, plan.ID, now)
	if err == nil {
		status := sw.Status
		if done[sw.ID] {
			status = domain.StatusCompleted
		}
		w := sw.Workout
		wc.Today = &domain.TodayWorkout{
			ScheduledWorkoutID: sw.ID,
			Name:               sw.Workout.Name,
			Status:             status,
			Workout:            &w,
		}
	} else if err := a.soft(userID, "today", err); err != nil {
		return wc, err
	}
	return wc, nil
}

func completedScheduleIDs(lists ...[]domain.WorkoutSession) map[string]bool {
	out := map[string]bool{}
	for _, l := range lists {
		for _, s := range l {
			if s.Completed && s.ScheduledWorkoutID != "" {
				out[s.ScheduledWorkoutID] = true
			}
		}
	}
	return out
}

func planSummary(p domain.WorkoutPlan, past []domain.ScheduledWorkout, done map[string]bool, now time.Time) *domain.ActivePlanSummary {
	weeks := 0
	if now.After(p.StartDate) {
		weeks = int(now.Sub(p.StartDate).Hours() / (24 * 7))
	}
	weeks = min(weeks, p.TotalWeeks)

	adherence := 1.0
	if len(past) > 0 {
		n := 0
		for _, sw := range past {
			if sw.Status == domain.StatusCompleted || done[sw.ID] {
				n++
			}
		}
		adherence = float64(n) / float64(len(past))
	}

	phase := ""
	if ph, ok := p.PhaseForWeek(min(weeks+1, p.TotalWeeks)); ok {
		phase = ph.Name
	}
	return &domain.ActivePlanSummary{
		PlanID:          p.ID,
		Name:            p.Name,
		GoalType:        p.GoalType,
		TotalWeeks:      p.TotalWeeks,
		WorkoutsPerWeek: p.WorkoutsPerWeek,
		WeeksCompleted:  weeks,
		AdherenceRate:   adherence,
		CurrentPhase:    phase,
	}
}

func (a *Aggregator) healthContext(ctx context.Context, userID string, now time.Time) (domain.HealthContext, error) {
	hc := domain.HealthContext{
		Sleep:          defaultSleep(),
		Stress:         classifyStress(5),
		ActiveInjuries: []domain.Injury{},
		PastInjuries:   []domain.Injury{},
	}
	today := day(now)

	sc, err := a.readiness.Score(ctx, userID, today, false)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return hc, err
		}
		a.log.Warn().Err(err).Str("user_id", userID).Str("op", "readiness").Msg("sub-context defaulted")
		sc = neutralReadiness(userID, today.Format(domain.DateLayout))
	}
	hc.Readiness = sc

	nights, err := a.store.ListSleep(ctx, userID, today.AddDate(0, 0, -1), today.AddDate(0, 0, 1))
	if err := a.soft(userID, "sleep", err); err != nil {
		return hc, err
	}
	if len(nights) > 0 {
		hc.Sleep = nights[len(nights)-1]
	}

	samples, err := a.store.WearableBefore(ctx, userID, now.Add(time.Nanosecond), 1)
	if err := a.soft(userID, "wearable", err); err != nil {
		return hc, err
	}
	if len(samples) > 0 {
		hc.Wearable = samples[0]
	}

	w, err := a.store.GetWellness(ctx, userID)
	if err != nil {
		if err := a.soft(userID, "wellness", err); err != nil {
			return hc, err
		}
		w.Stress = 5
	}
	hc.Stress = classifyStress(w.Stress)

	injuries, err := a.store.ListInjuries(ctx, userID)
	if err := a.soft(userID, "injuries", err); err != nil {
		return hc, err
	}
	for _, in := range injuries {
		if in.Active() {
			hc.ActiveInjuries = append(hc.ActiveInjuries, in)
		} else {
			hc.PastInjuries = append(hc.PastInjuries, in)
		}
	}
	return hc, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
