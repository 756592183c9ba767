package aggregator

import (
	"time"

	"github.com/briangreenhill/coachengine/internal/domain"
)

// RecoveryStatusFor classifies a muscle group trained daysSince days ago that
// needs restDays of rest. A negative daysSince means never trained.
func RecoveryStatusFor(daysSince float64, restDays int) domain.RecoveryStatus {
	r := float64(restDays)
	switch {
	case daysSince < 0:
		return domain.RecoveryFresh
	case daysSince < r/2:
		return domain.RecoveryFatigued
	case daysSince < r:
		return domain.RecoveryRecovering
	case daysSince < 2*r:
		return domain.RecoveryRecovered
	default:
		return domain.RecoveryFresh
	}
}

// muscleRecovery derives the per-group recovery map from completed sessions.
func muscleRecovery(sessions []domain.WorkoutSession, now time.Time) map[string]domain.MuscleRecoveryEntry {
	last := map[string]time.Time{}
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		for _, g := range s.MuscleGroups {
			if t, ok := last[g]; !ok || s.Date.After(t) {
				last[g] = s.Date
			}
		}
	}

	out := make(map[string]domain.MuscleRecoveryEntry, len(MuscleGroups))
	for _, g := range MuscleGroups {
		rest := RestDays[g]
		e := domain.MuscleRecoveryEntry{MuscleGroup: g, Status: domain.RecoveryFresh}
		if t, ok := last[g]; ok {
			lt := t
			days := now.Sub(t).Hours() / 24
			e.LastTrained = &lt
			e.Status = RecoveryStatusFor(days, rest)
			e.RestDaysRemaining = max(0, rest-int(days))
		}
		out[g] = e
	}
	return out
}
