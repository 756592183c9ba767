package readiness

import "math"

// Pillar weights of the overall score.
const (
	WeightSleep         = 0.35
	WeightRecovery      = 0.35
	WeightStrain        = 0.20
	WeightEnvironmental = 0.10
)

// Signal defaults used when nothing was recorded.
const (
	DefaultSleepHours   = 7.0
	DefaultSleepQuality = 75.0
	DefaultStageScore   = 75.0
	DefaultSoreness     = 3.0
	DefaultEnergy       = 7.0
	DefaultWellness     = 5.0
	NeutralWearable     = 75.0

	stageTargetMinutes  = 90.0
	nightlySleepTarget  = 8.0
	maxSleepDebtPenalty = 20.0
	highIntensityRPE    = 7.0
)

// SleepSignals are the inputs of the sleep pillar.
type SleepSignals struct {
	DurationHours float64
	Quality       float64
	DeepMinutes   float64 // 0 when unknown
	RemMinutes    float64 // 0 when unknown
	DebtHours     float64
}

// RecoverySignals are the inputs of the recovery pillar. Zero baselines or
// zero current values mean the wearable reading is missing.
type RecoverySignals struct {
	HRV         float64
	HRVBaseline float64
	RestingHR   float64
	RHRBaseline float64
	Soreness    float64
	Energy      float64
}

// StrainSignals are the inputs of the strain-balance pillar.
type StrainSignals struct {
	DaysSinceLastSession   int // -1 when the user never trained
	AcuteLoad              float64
	ChronicLoad            float64 // weekly average over 28 days
	ConsecutiveHighSession int
	ConsecutiveDays        int
	SessionsLast7Days      int
}

// Ratio is acute over chronic load, 1.0 when no chronic load exists.
func (s StrainSignals) Ratio() float64 {
	if s.ChronicLoad <= 0 {
		return 1.0
	}
	return s.AcuteLoad / s.ChronicLoad
}

// EnvironmentalSignals are the 0..10 self-ratings of the environmental pillar.
type EnvironmentalSignals struct {
	Stress           float64
	Nutrition        float64
	Hydration        float64
	ScheduleConflict bool
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func durationScore(h float64) float64 {
	switch {
	case h >= 7 && h <= 9:
		return 100
	case h < 7:
		return math.Max(50, 100-(7-h)*15)
	default:
		return math.Max(50, 100-(h-9)*10)
	}
}

func stageScore(minutes float64) float64 {
	if minutes <= 0 {
		return DefaultStageScore
	}
	return math.Min(100, minutes/stageTargetMinutes*100)
}

// SleepScore weighs duration 40%, quality 30% and deep/REM adequacy 20%,
// then subtracts two points per hour of sleep debt, capped at twenty.
func SleepScore(s SleepSignals) float64 {
	stages := (stageScore(s.DeepMinutes) + stageScore(s.RemMinutes)) / 2
	score := 0.4*durationScore(s.DurationHours) + 0.3*s.Quality + 0.2*stages
	score -= math.Min(maxSleepDebtPenalty, 2*math.Max(0, s.DebtHours))
	return clamp(score, 0, 100)
}

// ratioScore maps current/baseline onto 25..100 with 75 at parity.
func ratioScore(r float64) float64 {
	if r >= 1 {
		return math.Min(100, 75+(r-1)*250)
	}
	return math.Max(25, 75-(1-r)*250)
}

func hrvScore(s RecoverySignals) float64 {
	if s.HRV <= 0 || s.HRVBaseline <= 0 {
		return NeutralWearable
	}
	return ratioScore(s.HRV / s.HRVBaseline)
}

func rhrScore(s RecoverySignals) float64 {
	if s.RestingHR <= 0 || s.RHRBaseline <= 0 {
		return NeutralWearable
	}
	// lower resting HR than baseline is good
	return ratioScore(s.RHRBaseline / s.RestingHR)
}

func RecoveryScore(s RecoverySignals) float64 {
	score := 0.4*hrvScore(s) + 0.3*rhrScore(s) +
		0.15*(10-s.Soreness)*10 + 0.15*s.Energy*10
	return clamp(score, 0, 100)
}

func StrainScore(s StrainSignals) float64 {
	var base float64
	switch d := s.DaysSinceLastSession; {
	case d < 0 || d >= 3:
		base = 100
	case d == 0:
		base = 50
	case d == 1:
		base = 75
	default:
		base = 90
	}

	switch r := s.Ratio(); {
	case r > 1.5:
		base -= 25
	case r > 1.3:
		base -= 15
	case r < 0.8:
		base -= 10
	}

	switch {
	case s.ConsecutiveHighSession >= 3:
		base -= 20
	case s.ConsecutiveHighSession == 2:
		base -= 10
	}
	return clamp(base, 0, 100)
}

func EnvironmentalScore(s EnvironmentalSignals) float64 {
	score := 0.4*(10-s.Stress)*10 + 0.3*s.Nutrition*10 + 0.2*s.Hydration*10
	if s.ScheduleConflict {
		score -= 2
	}
	return clamp(score, 0, 100)
}

// Overall combines the pillars into the rounded, clamped composite.
func Overall(sleep, recovery, strain, environmental float64) int {
	v := WeightSleep*sleep + WeightRecovery*recovery + WeightStrain*strain + WeightEnvironmental*environmental
	return int(clamp(math.Round(v), 0, 100))
}
