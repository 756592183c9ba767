package domain

import "time"

// DateLayout is the calendar date key format used for daily records.
const DateLayout = "2006-01-02"

// Recommendation is the training advice derived from the overall readiness.
type Recommendation string

const (
	RecommendFullIntensity Recommendation = "full_intensity"
	RecommendModerate      Recommendation = "moderate"
	RecommendRecovery      Recommendation = "recovery"
	RecommendRest          Recommendation = "rest"
)

// ReadinessScore is the daily composite readiness of one user.
type ReadinessScore struct {
	UserID         string         `json:"user_id"`
	Date           string         `json:"date"`
	Sleep          float64        `json:"sleep"`
	Recovery       float64        `json:"recovery"`
	StrainBalance  float64        `json:"strain_balance"`
	Environmental  float64        `json:"environmental"`
	Overall        int            `json:"overall_score"`
	Recommendation Recommendation `json:"recommendation"`
	LimitingFactor string         `json:"limiting_factor"`
	Insights       []string       `json:"insights"`
	ComputedAt     time.Time      `json:"computed_at"`
}

// SleepRecord is one night of sleep, keyed by wake date.
type SleepRecord struct {
	Date          time.Time `json:"date"`
	DurationHours float64   `json:"duration_hours"`
	Quality       float64   `json:"quality"` // 0..100
	DeepMinutes   float64   `json:"deep_minutes"`
	RemMinutes    float64   `json:"rem_minutes"`
}

// WearableMetrics is a single wearable sample.
type WearableMetrics struct {
	RecordedAt time.Time `json:"recorded_at"`
	HRV        float64   `json:"hrv"`
	RestingHR  float64   `json:"resting_hr"`
	Steps      int       `json:"steps"`
}

// CheckIn is the subjective daily check-in (0..10 scales).
type CheckIn struct {
	Date     string  `json:"date"`
	Soreness float64 `json:"soreness"`
	Energy   float64 `json:"energy"`
}

// WellnessSettings holds the environmental self-ratings (0..10 scales).
type WellnessSettings struct {
	Stress           float64 `json:"stress"`
	Nutrition        float64 `json:"nutrition"`
	Hydration        float64 `json:"hydration"`
	ScheduleConflict bool    `json:"schedule_conflict"`
}
