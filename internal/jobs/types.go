package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskReadinessScore    = "readiness:score"
	TaskReadinessBackfill = "readiness:backfill"
	TaskContextPreload    = "context:preload"
)

const (
	QueueDefault  = "default"
	QueueBackfill = "backfill"
)

// MaxBackfillDays caps a single backfill request.
const MaxBackfillDays = 365

type ReadinessScorePayload struct {
	UserID string `json:"user_id"`
	Date   string `json:"date,omitempty"` // YYYY-MM-DD, empty for today
	Force  bool   `json:"force,omitempty"`
}

type ReadinessBackfillPayload struct {
	UserID string `json:"user_id"`
	Days   int    `json:"days"`
}

type ContextPreloadPayload struct {
	UserID string `json:"user_id"`
}

func NewReadinessScoreTask(p ReadinessScorePayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReadinessScore, b, asynq.Queue(QueueDefault), asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

func NewReadinessBackfillTask(p ReadinessBackfillPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReadinessBackfill, b, asynq.Queue(QueueBackfill), asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

func NewContextPreloadTask(p ContextPreloadPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContextPreload, b, asynq.Queue(QueueDefault), asynq.MaxRetry(2), asynq.Timeout(30*time.Second)), nil
}
