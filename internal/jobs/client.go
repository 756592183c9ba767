package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Client enqueues tasks on the redis-backed queue.
type Client struct {
	q   *asynq.Client
	log zerolog.Logger
}

func NewClient(redisAddr string, log zerolog.Logger) *Client {
	return &Client{
		q:   asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		log: log.With().Str("component", "jobs").Logger(),
	}
}

func (c *Client) Close() error { return c.q.Close() }

// EnqueueBackfill queues a readiness backfill and returns the task id.
func (c *Client) EnqueueBackfill(ctx context.Context, userID string, days int) (string, error) {
	t, err := NewReadinessBackfillTask(ReadinessBackfillPayload{UserID: userID, Days: days})
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, t, userID)
}

// EnqueueScore queues scoring of one day; date is YYYY-MM-DD or empty for today.
func (c *Client) EnqueueScore(ctx context.Context, userID, date string, force bool) (string, error) {
	t, err := NewReadinessScoreTask(ReadinessScorePayload{UserID: userID, Date: date, Force: force})
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, t, userID)
}

// EnqueuePreload queues a context cache warm-up.
func (c *Client) EnqueuePreload(ctx context.Context, userID string) (string, error) {
	t, err := NewContextPreloadTask(ContextPreloadPayload{UserID: userID})
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, t, userID)
}

func (c *Client) enqueue(ctx context.Context, t *asynq.Task, userID string) (string, error) {
	info, err := c.q.EnqueueContext(ctx, t)
	if err != nil {
		c.log.Error().Err(err).Str("task", t.Type()).Str("user_id", userID).Msg("enqueue failed")
		return "", err
	}
	c.log.Info().Str("task", t.Type()).Str("id", info.ID).Str("queue", info.Queue).Int("max_retry", info.MaxRetry).
		Str("user_id", userID).Msg("enqueued task")
	return info.ID, nil
}
