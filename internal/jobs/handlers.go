// Package jobs defines the background tasks run by the worker and the
// client used to enqueue them.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
)

// Scorer computes daily readiness.
type Scorer interface {
	Score(ctx context.Context, userID string, date time.Time, force bool) (domain.ReadinessScore, error)
	RecalculateHistorical(ctx context.Context, userID string, days int, end time.Time) ([]domain.ReadinessScore, error)
	Today() time.Time
}

// Preloader warms the context cache.
type Preloader interface {
	Preload(ctx context.Context, userID string) error
}

// Handlers runs the worker's tasks.
type Handlers struct {
	scorer   Scorer
	contexts Preloader
	log      zerolog.Logger
}

func NewHandlers(s Scorer, p Preloader, log zerolog.Logger) *Handlers {
	return &Handlers{scorer: s, contexts: p, log: log.With().Str("component", "jobs").Logger()}
}

// Register mounts every handler on mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskReadinessScore, h.HandleReadinessScore)
	mux.HandleFunc(TaskReadinessBackfill, h.HandleReadinessBackfill)
	mux.HandleFunc(TaskContextPreload, h.HandleContextPreload)
}

func (h *Handlers) HandleReadinessScore(ctx context.Context, t *asynq.Task) error {
	var p ReadinessScorePayload
	if err := decode(t, &p); err != nil {
		return err
	}
	date := h.scorer.Today()
	if p.Date != "" {
		d, err := time.Parse(domain.DateLayout, p.Date)
		if err != nil {
			return fmt.Errorf("bad date %q: %w", p.Date, asynq.SkipRetry)
		}
		date = d
	}
	start := time.Now()
	sc, err := h.scorer.Score(ctx, p.UserID, date, p.Force)
	if err != nil {
		return h.fail(t, p.UserID, start, err)
	}
	h.log.Info().Str("user_id", p.UserID).Str("date", sc.Date).Int("overall", sc.Overall).
		Dur("duration", time.Since(start)).Msg("readiness scored")
	return nil
}

func (h *Handlers) HandleReadinessBackfill(ctx context.Context, t *asynq.Task) error {
	var p ReadinessBackfillPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	if p.Days < 1 || p.Days > MaxBackfillDays {
		return fmt.Errorf("days %d out of range: %w", p.Days, asynq.SkipRetry)
	}
	start := time.Now()
	scores, err := h.scorer.RecalculateHistorical(ctx, p.UserID, p.Days, h.scorer.Today())
	if err != nil {
		return h.fail(t, p.UserID, start, err)
	}
	h.log.Info().Str("user_id", p.UserID).Int("days", p.Days).Int("scored", len(scores)).
		Dur("duration", time.Since(start)).Msg("readiness backfilled")
	return nil
}

func (h *Handlers) HandleContextPreload(ctx context.Context, t *asynq.Task) error {
	var p ContextPreloadPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	start := time.Now()
	if err := h.contexts.Preload(ctx, p.UserID); err != nil {
		return h.fail(t, p.UserID, start, err)
	}
	h.log.Debug().Str("user_id", p.UserID).Dur("duration", time.Since(start)).Msg("context preloaded")
	return nil
}

func decode(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("bad %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	var withUser struct {
		UserID string `json:"user_id"`
	}
	_ = json.Unmarshal(t.Payload(), &withUser)
	if strings.TrimSpace(withUser.UserID) == "" {
		return fmt.Errorf("%s payload has no user_id: %w", t.Type(), asynq.SkipRetry)
	}
	return nil
}

// fail logs err and decides whether asynq should retry the task.
func (h *Handlers) fail(t *asynq.Task, userID string, start time.Time, err error) error {
	level := zerolog.WarnLevel
	if !isRetryableError(err) {
		level = zerolog.ErrorLevel
		err = fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	h.log.WithLevel(level).Err(err).Str("task", t.Type()).Str("user_id", userID).Dur("duration", time.Since(start)).Msg("task failed")
	return err
}

// isRetryableError determines if an error should trigger a job retry
func isRetryableError(err error) bool {
	if errors.Is(err, store.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, s := range []string{"timeout", "connection", "network", "too many clients", "database is locked"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
