package readiness

import (
	"fmt"

	"github.com/briangreenhill/coachengine/internal/domain"
)

// NoLimitingFactor is reported when every pillar is at least 50.
const NoLimitingFactor = "none — all systems ready"

// Signals bundles the four signal sets of one day.
type Signals struct {
	Sleep         SleepSignals
	Recovery      RecoverySignals
	Strain        StrainSignals
	Environmental EnvironmentalSignals
}

// Assess turns signals into a score. It is deterministic for identical inputs;
// identity and timestamps are filled in by the caller.
func Assess(sig Signals) domain.ReadinessScore {
	sc := domain.ReadinessScore{
		Sleep:         SleepScore(sig.Sleep),
		Recovery:      RecoveryScore(sig.Recovery),
		StrainBalance: StrainScore(sig.Strain),
		Environmental: EnvironmentalScore(sig.Environmental),
	}
	sc.Overall = Overall(sc.Sleep, sc.Recovery, sc.StrainBalance, sc.Environmental)
	sc.Recommendation = Recommend(sc.Overall)
	sc.LimitingFactor = limitingFactor(sc)
	sc.Insights = insights(sig, sc)
	return sc
}

// Recommend maps an overall score to a training recommendation.
func Recommend(overall int) domain.Recommendation {
	switch {
	case overall >= 80:
		return domain.RecommendFullIntensity
	case overall >= 60:
		return domain.RecommendModerate
	case overall >= 40:
		return domain.RecommendRecovery
	default:
		return domain.RecommendRest
	}
}

func limitingFactor(sc domain.ReadinessScore) string {
	pillars := []struct {
		name  string
		value float64
	}{
		{"sleep", sc.Sleep},
		{"recovery", sc.Recovery},
		{"strain_balance", sc.StrainBalance},
		{"environmental", sc.Environmental},
	}
	worst := pillars[0]
	for _, p := range pillars[1:] {
		if p.value < worst.value {
			worst = p
		}
	}
	if worst.value < 50 {
		return worst.name
	}
	return NoLimitingFactor
}

// insights are emitted in a fixed order.
func insights(sig Signals, sc domain.ReadinessScore) []string {
	out := []string{}

	if sc.Sleep < 60 {
		out = append(out, "Sleep was short or poor; prioritise an earlier night.")
	}
	rec := sig.Recovery
	if rec.HRV > 0 && rec.HRVBaseline > 0 && rec.HRV < rec.HRVBaseline {
		out = append(out, fmt.Sprintf("HRV is %.0f%% below your baseline; recovery may be incomplete.",
			(1-rec.HRV/rec.HRVBaseline)*100))
	}
	if rec.RestingHR > 0 && rec.RHRBaseline > 0 && rec.RestingHR > rec.RHRBaseline {
		out = append(out, fmt.Sprintf("Resting heart rate is %.0f bpm above baseline.", rec.RestingHR-rec.RHRBaseline))
	}
	switch r := sig.Strain.Ratio(); {
	case r > 1.3:
		out = append(out, fmt.Sprintf("Acute training load spike (ratio %.2f); ease off to limit injury risk.", r))
	case r < 0.8:
		out = append(out, fmt.Sprintf("Training load is below your usual (ratio %.2f); room to build.", r))
	}
	if sig.Strain.ConsecutiveDays >= 4 {
		out = append(out, fmt.Sprintf("You have trained %d days in a row; a rest day would help.", sig.Strain.ConsecutiveDays))
	}
	if rec.Soreness >= 7 {
		out = append(out, "High muscle soreness reported; favour mobility or light work.")
	}
	if sig.Environmental.Stress >= 7 {
		out = append(out, "Stress is high; keep intensity controlled today.")
	}
	if sc.Sleep >= 80 && sc.Recovery >= 80 && sc.StrainBalance >= 80 && sc.Environmental >= 80 {
		out = append(out, "All systems optimal. A great day to push.")
	}
	return out
}
