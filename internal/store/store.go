package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/briangreenhill/coachengine/internal/domain"
)

const (
	kindProfile      = "profile"
	kindGoal         = "goal"
	kindPreferences  = "preferences"
	kindSession      = "session"
	kindSleep        = "sleep"
	kindWearable     = "wearable"
	kindCheckIn      = "checkin"
	kindWellness     = "wellness"
	kindInjury       = "injury"
	kindReadiness    = "readiness"
	kindPlan         = "plan"
	kindActivePlan   = "active_plan"
	kindConversation = "conversation"

	singletonKey = "current"
)

func scheduledKind(planID string) string  { return "scheduled:" + planID }
func auditKind(k domain.AuditKind) string { return "audit:" + string(k) }

// Store exposes typed accessors for every record the coaching engine reads
// or writes. It is safe for concurrent use if the Backend is.
type Store struct {
	b Backend
}

// New wraps a Backend.
func New(b Backend) *Store {
	return &Store{b: b}
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.b.Ping(ctx) }

// Close releases the backend.
func (s *Store) Close() error { return s.b.Close() }

func putJSON(ctx context.Context, b Backend, userID, kind, key string, at time.Time, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	return b.Put(ctx, Record{UserID: userID, Kind: kind, Key: key, At: at, Body: body})
}

func getJSON[T any](ctx context.Context, b Backend, userID, kind, key string) (T, error) {
	var out T
	rec, err := b.Get(ctx, userID, kind, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(rec.Body, &out); err != nil {
		return out, fmt.Errorf("decode %s/%s: %w", kind, key, err)
	}
	return out, nil
}

func listJSON[T any](ctx context.Context, b Backend, q Query) ([]T, error) {
	recs, err := b.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := json.Unmarshal(rec.Body, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", q.Kind, rec.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ---- profile, goals, preferences

func (s *Store) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return getJSON[domain.Profile](ctx, s.b, userID, kindProfile, singletonKey)
}

func (s *Store) PutProfile(ctx context.Context, userID string, p domain.Profile) error {
	return putJSON(ctx, s.b, userID, kindProfile, singletonKey, time.Now().UTC(), p)
}

// ListGoals returns every goal of the user ordered by creation time.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	return listJSON[domain.Goal](ctx, s.b, Query{UserID: userID, Kind: kindGoal})
}

// PutGoal upserts a goal, assigning an id when it has none.
func (s *Store) PutGoal(ctx context.Context, userID string, g domain.Goal) (domain.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return g, putJSON(ctx, s.b, userID, kindGoal, g.ID, g.CreatedAt, g)
}

func (s *Store) GetPreferences(ctx context.Context, userID string) (domain.Preferences, error) {
	return getJSON[domain.Preferences](ctx, s.b, userID, kindPreferences, singletonKey)
}

func (s *Store) PutPreferences(ctx context.Context, userID string, p domain.Preferences) error {
	return putJSON(ctx, s.b, userID, kindPreferences, singletonKey, time.Now().UTC(), p)
}

// ---- workout sessions

// AppendSession stores a logged session, assigning an id when it has none.
func (s *Store) AppendSession(ctx context.Context, ws domain.WorkoutSession) (domain.WorkoutSession, error) {
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	return ws, putJSON(ctx, s.b, ws.UserID, kindSession, ws.ID, ws.Date, ws)
}

// ListSessions returns sessions dated within [from, to) in chronological order.
func (s *Store) ListSessions(ctx context.Context, userID string, from, to time.Time) ([]domain.WorkoutSession, error) {
	return listJSON[domain.WorkoutSession](ctx, s.b, Query{UserID: userID, Kind: kindSession, From: from, To: to})
}

// RecentSessions returns up to limit sessions, newest first. A zero limit returns all.
func (s *Store) RecentSessions(ctx context.Context, userID string, limit int) ([]domain.WorkoutSession, error) {
	return listJSON[domain.WorkoutSession](ctx, s.b, Query{UserID: userID, Kind: kindSession, Limit: limit, Desc: true})
}

// ---- biometric signals

func (s *Store) PutSleep(ctx context.Context, userID string, r domain.SleepRecord) error {
	return putJSON(ctx, s.b, userID, kindSleep, r.Date.UTC().Format(domain.DateLayout), r.Date, r)
}

// ListSleep returns nights whose wake date falls within [from, to), oldest first.
func (s *Store) ListSleep(ctx context.Context, userID string, from, to time.Time) ([]domain.SleepRecord, error) {
	return listJSON[domain.SleepRecord](ctx, s.b, Query{UserID: userID, Kind: kindSleep, From: from, To: to})
}

func (s *Store) PutWearable(ctx context.Context, userID string, m domain.WearableMetrics) error {
	return putJSON(ctx, s.b, userID, kindWearable, m.RecordedAt.UTC().Format(time.RFC3339Nano), m.RecordedAt, m)
}

// WearableBefore returns up to limit samples recorded before t, newest first.
func (s *Store) WearableBefore(ctx context.Context, userID string, t time.Time, limit int) ([]domain.WearableMetrics, error) {
	return listJSON[domain.WearableMetrics](ctx, s.b, Query{UserID: userID, Kind: kindWearable, To: t, Limit: limit, Desc: true})
}

func (s *Store) PutCheckIn(ctx context.Context, userID string, c domain.CheckIn) error {
	at, err := time.Parse(domain.DateLayout, c.Date)
	if err != nil {
		return fmt.Errorf("check-in date %q: %w", c.Date, err)
	}
	return putJSON(ctx, s.b, userID, kindCheckIn, c.Date, at, c)
}

func (s *Store) GetCheckIn(ctx context.Context, userID, date string) (domain.CheckIn, error) {
	return getJSON[domain.CheckIn](ctx, s.b, userID, kindCheckIn, date)
}

func (s *Store) GetWellness(ctx context.Context, userID string) (domain.WellnessSettings, error) {
	return getJSON[domain.WellnessSettings](ctx, s.b, userID, kindWellness, singletonKey)
}

func (s *Store) PutWellness(ctx context.Context, userID string, w domain.WellnessSettings) error {
	return putJSON(ctx, s.b, userID, kindWellness, singletonKey, time.Now().UTC(), w)
}

func (s *Store) PutInjury(ctx context.Context, userID string, in domain.Injury) error {
	key := in.BodyPart + "@" + in.Since.UTC().Format(time.RFC3339)
	return putJSON(ctx, s.b, userID, kindInjury, key, in.Since, in)
}

func (s *Store) ListInjuries(ctx context.Context, userID string) ([]domain.Injury, error) {
	return listJSON[domain.Injury](ctx, s.b, Query{UserID: userID, Kind: kindInjury})
}

// ---- readiness

// GetReadiness returns the stored score for a calendar date (YYYY-MM-DD).
func (s *Store) GetReadiness(ctx context.Context, userID, date string) (domain.ReadinessScore, error) {
	return getJSON[domain.ReadinessScore](ctx, s.b, userID, kindReadiness, date)
}

// PutReadiness upserts the score keyed by (user, date).
func (s *Store) PutReadiness(ctx context.Context, sc domain.ReadinessScore) error {
	at, err := time.Parse(domain.DateLayout, sc.Date)
	if err != nil {
		return fmt.Errorf("readiness date %q: %w", sc.Date, err)
	}
	return putJSON(ctx, s.b, sc.UserID, kindReadiness, sc.Date, at, sc)
}

// ---- plans

func (s *Store) PutPlan(ctx context.Context, p domain.WorkoutPlan) error {
	return putJSON(ctx, s.b, p.UserID, kindPlan, p.ID, p.CreatedAt, p)
}

func (s *Store) GetPlan(ctx context.Context, userID, planID string) (domain.WorkoutPlan, error) {
	return getJSON[domain.WorkoutPlan](ctx, s.b, userID, kindPlan, planID)
}

type activePlanRef struct {
	PlanID string `json:"plan_id"`
}

// SetActivePlan points the user at planID.
func (s *Store) SetActivePlan(ctx context.Context, userID, planID string) error {
	return putJSON(ctx, s.b, userID, kindActivePlan, singletonKey, time.Now().UTC(), activePlanRef{PlanID: planID})
}

// ActivePlan resolves the user's active plan pointer.
func (s *Store) ActivePlan(ctx context.Context, userID string) (domain.WorkoutPlan, error) {
	ref, err := getJSON[activePlanRef](ctx, s.b, userID, kindActivePlan, singletonKey)
	if err != nil {
		return domain.WorkoutPlan{}, err
	}
	return s.GetPlan(ctx, userID, ref.PlanID)
}

func (s *Store) PutScheduled(ctx context.Context, sw domain.ScheduledWorkout) error {
	return putJSON(ctx, s.b, sw.UserID, scheduledKind(sw.PlanID), sw.ID, sw.ScheduledDate, sw)
}

// ListScheduled returns the plan's workouts dated within [from, to) in date order.
func (s *Store) ListScheduled(ctx context.Context, userID, planID string, from, to time.Time) ([]domain.ScheduledWorkout, error) {
	return listJSON[domain.ScheduledWorkout](ctx, s.b, Query{UserID: userID, Kind: scheduledKind(planID), From: from, To: to})
}

// DeleteScheduledFrom removes the plan's workouts dated on or after from.
func (s *Store) DeleteScheduledFrom(ctx context.Context, userID, planID string, from time.Time) (int64, error) {
	return s.b.Delete(ctx, Query{UserID: userID, Kind: scheduledKind(planID), From: from})
}

// ScheduledOn returns the workout of the active plan scheduled for the given day, if any.
func (s *Store) ScheduledOn(ctx context.Context, userID, planID string, day time.Time) (domain.ScheduledWorkout, error) {
	from := dayStart(day)
	items, err := s.ListScheduled(ctx, userID, planID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return domain.ScheduledWorkout{}, err
	}
	if len(items) == 0 {
		return domain.ScheduledWorkout{}, ErrNotFound
	}
	return items[0], nil
}

// ---- audit

// AppendAudit writes v to the given audit stream.
func (s *Store) AppendAudit(ctx context.Context, userID string, kind domain.AuditKind, v any) error {
	return putJSON(ctx, s.b, userID, auditKind(kind), uuid.NewString(), time.Now().UTC(), v)
}

// ListAudit returns up to limit raw audit entries, newest first.
func (s *Store) ListAudit(ctx context.Context, userID string, kind domain.AuditKind, limit int) ([]json.RawMessage, error) {
	recs, err := s.b.List(ctx, Query{UserID: userID, Kind: auditKind(kind), Limit: limit, Desc: true})
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(recs))
	for _, r := range recs {
		out = append(out, json.RawMessage(r.Body))
	}
	return out, nil
}

// ---- conversation

// LoadConversation decodes the stored conversation into v.
// It reports false when nothing has been stored yet.
func (s *Store) LoadConversation(ctx context.Context, userID string, v any) (bool, error) {
	rec, err := s.b.Get(ctx, userID, kindConversation, singletonKey)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(rec.Body, v); err != nil {
		return false, fmt.Errorf("decode conversation: %w", err)
	}
	return true, nil
}

func (s *Store) SaveConversation(ctx context.Context, userID string, v any) error {
	return putJSON(ctx, s.b, userID, kindConversation, singletonKey, time.Now().UTC(), v)
}
