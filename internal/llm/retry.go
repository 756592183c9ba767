package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 500 * time.Millisecond
)

// Retrying retries a Client with linearly increasing backoff: the wait after
// attempt n is base×n. ErrUnavailable and context errors are not retried.
type Retrying struct {
	next     Client
	attempts int
	base     time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      zerolog.Logger
}

func NewRetrying(next Client, attempts int, base time.Duration, log zerolog.Logger) *Retrying {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return &Retrying{
		next:     next,
		attempts: attempts,
		base:     base,
		sleep:    sleepCtx,
		log:      log.With().Str("component", "llm").Logger(),
	}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) Generate(ctx context.Context, req Request) (string, error) {
	var last error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, ErrUnavailable) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		last = err
		r.log.Warn().Err(err).Str("task", req.Task).Int("attempt", attempt).Msg("model call failed")
		if attempt == r.attempts {
			break
		}
		if err := r.sleep(ctx, r.base*time.Duration(attempt)); err != nil {
			return "", fmt.Errorf("%w: %w", ErrTimeout, err)
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, r.attempts, last)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
