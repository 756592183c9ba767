package aggregator

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/briangreenhill/coachengine/internal/domain"
)

const (
	trendWindowDays   = 28
	trendMinSessions  = 4
	trendThreshold    = 0.05
	onTrackToleranceP = 10.0
)

func (a *Aggregator) goalContext(ctx context.Context, userID string, now time.Time) (domain.GoalContext, error) {
	gc := domain.GoalContext{Trend: domain.TrendInsufficientData, Recommendations: []string{}}

	goals, err := a.store.ListGoals(ctx, userID)
	if err := a.soft(userID, "goals", err); err != nil {
		return gc, err
	}
	primary := defaultGoal()
	if len(goals) > 0 {
		sortGoals(goals)
		primary = goals[0]
	}
	gc.Primary = progress(primary, now)

	sessions, err := a.store.ListSessions(ctx, userID, day(now).AddDate(0, 0, -trendWindowDays), now.Add(time.Nanosecond))
	if err := a.soft(userID, "trend sessions", err); err != nil {
		return gc, err
	}
	gc.Trend = trend(sessions)
	gc.Recommendations = recommendations(gc)
	return gc, nil
}

// progress projects goal completion linearly from the start value and
// creation time. A goal is on track while progress is no more than ten
// points behind the elapsed share of its window.
func progress(g domain.Goal, now time.Time) domain.GoalProgress {
	gp := domain.GoalProgress{Goal: g, OnTrack: true}

	span := g.TargetValue - g.StartValue
	if span != 0 {
		gp.ProgressPercent = math.Max(0, math.Min(100, (g.CurrentValue-g.StartValue)/span*100))
	}
	if gp.ProgressPercent >= 100 || g.CreatedAt.IsZero() {
		return gp
	}

	elapsed := now.Sub(g.CreatedAt)
	if gp.ProgressPercent > 0 && elapsed > 0 {
		total := time.Duration(float64(elapsed) / (gp.ProgressPercent / 100))
		p := g.CreatedAt.Add(total)
		gp.ProjectedCompletion = &p
	}

	if g.TargetDate != nil {
		window := g.TargetDate.Sub(g.CreatedAt)
		if window > 0 {
			expected := math.Min(100, float64(elapsed)/float64(window)*100)
			gp.OnTrack = gp.ProgressPercent >= expected-onTrackToleranceP
		} else {
			gp.OnTrack = false
		}
	}
	return gp
}

// trend compares the mean load of the older and newer halves of completed sessions.
func trend(sessions []domain.WorkoutSession) domain.PerformanceTrend {
	done := make([]domain.WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed {
			done = append(done, s)
		}
	}
	if len(done) < trendMinSessions {
		return domain.TrendInsufficientData
	}
	sort.SliceStable(done, func(i, j int) bool { return done[i].Date.Before(done[j].Date) })

	half := len(done) / 2
	older, newer := meanLoad(done[:half]), meanLoad(done[len(done)-half:])
	if older == 0 {
		if newer > 0 {
			return domain.TrendImproving
		}
		return domain.TrendStable
	}
	change := (newer - older) / older
	switch {
	case change > trendThreshold:
		return domain.TrendImproving
	case change < -trendThreshold:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func meanLoad(s []domain.WorkoutSession) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, x := range s {
		sum += x.Load()
	}
	return sum / float64(len(s))
}

func recommendations(gc domain.GoalContext) []string {
	out := []string{}
	if !gc.Primary.OnTrack {
		out = append(out, "Your primary goal is behind schedule; consider adjusting the plan or adding a session.")
	}
	switch gc.Trend {
	case domain.TrendDeclining:
		out = append(out, "Training load has dropped recently; aim to rebuild consistency.")
	case domain.TrendImproving:
		out = append(out, "Training load is trending up; keep recovery in step with it.")
	case domain.TrendInsufficientData:
		out = append(out, "Log a few more sessions to unlock trend insights.")
	}
	if len(out) == 0 {
		out = append(out, "Stay consistent with your current routine.")
	}
	return out
}
