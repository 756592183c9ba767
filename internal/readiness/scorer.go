// Package readiness computes the daily 0-100 training readiness of a user from
// sleep, wearable, check-in, training-load and wellness signals.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
)

// Store is the subset of the persistence layer the scorer reads and writes.
type Store interface {
	GetReadiness(ctx context.Context, userID, date string) (domain.ReadinessScore, error)
	PutReadiness(ctx context.Context, sc domain.ReadinessScore) error
	ListSleep(ctx context.Context, userID string, from, to time.Time) ([]domain.SleepRecord, error)
	WearableBefore(ctx context.Context, userID string, t time.Time, limit int) ([]domain.WearableMetrics, error)
	GetCheckIn(ctx context.Context, userID, date string) (domain.CheckIn, error)
	ListSessions(ctx context.Context, userID string, from, to time.Time) ([]domain.WorkoutSession, error)
	GetWellness(ctx context.Context, userID string) (domain.WellnessSettings, error)
}

// Scorer computes and caches one readiness score per user and calendar day.
type Scorer struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

type Option func(*Scorer)

// WithClock sets the clock used for ComputedAt and for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

func NewScorer(st Store, log zerolog.Logger, opts ...Option) *Scorer {
	s := &Scorer{
		store: st,
		now:   time.Now,
		log:   log.With().Str("component", "readiness").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the scorer's current calendar day in UTC.
func (s *Scorer) Today() time.Time { return day(s.now()) }

// Score returns the readiness of userID on date. A stored score is returned
// unchanged unless force is set; otherwise the score is computed, upserted
// and returned.
func (s *Scorer) Score(ctx context.Context, userID string, date time.Time, force bool) (domain.ReadinessScore, error) {
	d := day(date)
	key := d.Format(domain.DateLayout)

	if !force {
		sc, err := s.store.GetReadiness(ctx, userID, key)
		if err == nil {
			return sc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.ReadinessScore{}, fmt.Errorf("load readiness %s: %w", key, err)
		}
	}

	sig, err := s.gather(ctx, userID, d)
	if err != nil {
		return domain.ReadinessScore{}, err
	}

	sc := Assess(sig)
	sc.UserID = userID
	sc.Date = key
	sc.ComputedAt = s.now().UTC()

	if err := s.store.PutReadiness(ctx, sc); err != nil {
		return domain.ReadinessScore{}, fmt.Errorf("save readiness %s: %w", key, err)
	}
	s.log.Debug().Str("user_id", userID).Str("date", key).Int("overall", sc.Overall).
		Str("recommendation", string(sc.Recommendation)).Msg("readiness computed")
	return sc, nil
}

// RecalculateHistorical recomputes the trailing days ending at end, oldest
// first. Each day is scored independently.
func (s *Scorer) RecalculateHistorical(ctx context.Context, userID string, days int, end time.Time) ([]domain.ReadinessScore, error) {
	if days <= 0 {
		days = 30
	}
	last := day(end)
	out := make([]domain.ReadinessScore, 0, days)
	for i := days - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		sc, err := s.Score(ctx, userID, last.AddDate(0, 0, -i), true)
		if err != nil {
			return out, err
		}
		out = append(out, sc)
	}
	s.log.Info().Str("user_id", userID).Int("days", days).Msg("readiness backfill done")
	return out, nil
}

// soft swallows everything but store unavailability, logging what it drops.
func (s *Scorer) soft(userID, op string, err error) error {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Warn().Err(err).Str("user_id", userID).Str("op", op).Msg("signal defaulted")
	return nil
}

func (s *Scorer) gather(ctx context.Context, userID string, d time.Time) (Signals, error) {
	var (
		g   errgroup.Group
		sig Signals
		end = d.AddDate(0, 0, 1)
	)

	g.Go(func() error {
		recs, err := s.store.ListSleep(ctx, userID, d.AddDate(0, 0, -6), end)
		if err != nil {
			sig.Sleep = sleepSignals(nil, d)
			return s.soft(userID, "sleep", err)
		}
		sig.Sleep = sleepSignals(recs, d)
		return nil
	})

	g.Go(func() error {
		rec := RecoverySignals{Soreness: DefaultSoreness, Energy: DefaultEnergy}
		samples, err := s.store.WearableBefore(ctx, userID, end, 4)
		if err != nil {
			if serr := s.soft(userID, "wearable", err); serr != nil {
				return serr
			}
		} else {
			applyWearable(&rec, samples)
		}
		ci, err := s.store.GetCheckIn(ctx, userID, d.Format(domain.DateLayout))
		if err != nil {
			if serr := s.soft(userID, "check-in", err); serr != nil {
				return serr
			}
		} else {
			rec.Soreness, rec.Energy = ci.Soreness, ci.Energy
		}
		sig.Recovery = rec
		return nil
	})

	g.Go(func() error {
		sessions, err := s.store.ListSessions(ctx, userID, d.AddDate(0, 0, -27), end)
		if err != nil {
			sig.Strain = strainSignals(nil, d)
			return s.soft(userID, "sessions", err)
		}
		sig.Strain = strainSignals(sessions, d)
		return nil
	})

	g.Go(func() error {
		env := EnvironmentalSignals{Stress: DefaultWellness, Nutrition: DefaultWellness, Hydration: DefaultWellness}
		w, err := s.store.GetWellness(ctx, userID)
		if err != nil {
			sig.Environmental = env
			return s.soft(userID, "wellness", err)
		}
		sig.Environmental = EnvironmentalSignals{
			Stress:           w.Stress,
			Nutrition:        w.Nutrition,
			Hydration:        w.Hydration,
			ScheduleConflict: w.ScheduleConflict,
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Signals{}, err
	}
	return sig, nil
}

func sleepSignals(recs []domain.SleepRecord, d time.Time) SleepSignals {
	out := SleepSignals{DurationHours: DefaultSleepHours, Quality: DefaultSleepQuality}
	if len(recs) == 0 {
		return out
	}

	var total float64
	for _, r := range recs {
		total += r.DurationHours
	}
	out.DebtHours = max(0, nightlySleepTarget*float64(len(recs))-total)

	latest := recs[len(recs)-1]
	if !latest.Date.Before(d.AddDate(0, 0, -1)) {
		out.DurationHours = latest.DurationHours
		if latest.Quality > 0 {
			out.Quality = latest.Quality
		}
		out.DeepMinutes = latest.DeepMinutes
		out.RemMinutes = latest.RemMinutes
	}
	return out
}

// applyWearable uses the newest sample as current and the next three as baseline.
func applyWearable(rec *RecoverySignals, samples []domain.WearableMetrics) {
	if len(samples) == 0 {
		return
	}
	cur := samples[0]
	rec.HRV, rec.RestingHR = cur.HRV, cur.RestingHR
	rec.HRVBaseline, rec.RHRBaseline = cur.HRV, cur.RestingHR

	prior := samples[1:]
	if len(prior) == 0 {
		return
	}
	var hrv, rhr float64
	var nh, nr int
	for _, p := range prior {
		if p.HRV > 0 {
			hrv += p.HRV
			nh++
		}
		if p.RestingHR > 0 {
			rhr += p.RestingHR
			nr++
		}
	}
	if nh > 0 {
		rec.HRVBaseline = hrv / float64(nh)
	}
	if nr > 0 {
		rec.RHRBaseline = rhr / float64(nr)
	}
}

func strainSignals(sessions []domain.WorkoutSession, d time.Time) StrainSignals {
	out := StrainSignals{DaysSinceLastSession: -1}

	done := make([]domain.WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed {
			done = append(done, s)
		}
	}
	if len(done) == 0 {
		return out
	}
	sort.SliceStable(done, func(i, j int) bool { return done[i].Date.After(done[j].Date) })

	out.DaysSinceLastSession = daysBetween(day(done[0].Date), d)

	acuteFrom := d.AddDate(0, 0, -6)
	var chronic float64
	trained := map[time.Time]bool{}
	for _, s := range done {
		chronic += s.Load()
		if !s.Date.Before(acuteFrom) {
			out.AcuteLoad += s.Load()
			out.SessionsLast7Days++
		}
		trained[day(s.Date)] = true
	}
	out.ChronicLoad = chronic / 4

	for _, s := range done {
		if s.Intensity < highIntensityRPE {
			break
		}
		out.ConsecutiveHighSession++
	}

	cursor := d
	if !trained[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for trained[cursor] {
		out.ConsecutiveDays++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, dd := t.UTC().Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
