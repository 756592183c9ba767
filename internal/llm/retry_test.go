package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	errs  []error
	calls int
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Generate(context.Context, Request) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return "", s.errs[s.calls-1]
	}
	return "ok", nil
}

func newRetrying(next Client) (*Retrying, *[]time.Duration) {
	var waits []time.Duration
	r := NewRetrying(next, 3, 100*time.Millisecond, zerolog.Nop())
	r.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return r, &waits
}

func TestRetrying_SucceedsAfterTransientFailures(t *testing.T) {
	boom := errors.New("503")
	next := &scripted{errs: []error{boom, boom}}
	r, waits := newRetrying(next)

	out, err := r.Generate(context.Background(), Request{Task: TaskChat})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *waits)
}

func TestRetrying_Exhausted(t *testing.T) {
	boom := errors.New("503")
	next := &scripted{errs: []error{boom, boom, boom, boom}}
	r, waits := newRetrying(next)

	_, err := r.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, next.calls)
	assert.Len(t, *waits, 2)
}

func TestRetrying_UnavailableIsNotRetried(t *testing.T) {
	r, _ := newRetrying(Unavailable{})
	_, err := r.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRetrying_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	next := &scripted{errs: []error{context.Canceled}}
	r, _ := newRetrying(next)

	_, err := r.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, next.calls)
}
