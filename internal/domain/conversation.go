package domain

import "time"

// UserPlanInfo accumulates the slot values collected while gathering plan details.
type UserPlanInfo struct {
	Goal          GoalType     `json:"goal,omitempty"`
	Experience    FitnessLevel `json:"experience,omitempty"`
	DaysPerWeek   int          `json:"days_per_week,omitempty"`
	SessionLength int          `json:"session_length,omitempty"`
	Equipment     []string     `json:"equipment,omitempty"`
	Constraints   []string     `json:"constraints,omitempty"`
	Preferences   []string     `json:"preferences,omitempty"`
}

// Complete reports whether every required slot is filled.
func (u UserPlanInfo) Complete() bool {
	return u.Goal != "" && u.Experience != "" && u.DaysPerWeek > 0 &&
		u.SessionLength > 0 && len(u.Equipment) > 0
}

// Clear empties the accumulator in place.
func (u *UserPlanInfo) Clear() {
	*u = UserPlanInfo{}
}

// ChatMessage is one stored turn of the coaching conversation.
type ChatMessage struct {
	Role string    `json:"role"` // "user" or "coach"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// AuditKind labels the audit streams kept in the store.
type AuditKind string

const (
	AuditContextSnapshot  AuditKind = "context_snapshot"
	AuditGeneratedWorkout AuditKind = "generated_workout"
	AuditPlanModification AuditKind = "plan_modification"
)
