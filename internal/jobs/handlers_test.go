package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
)

var today = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type fakeScorer struct {
	err       error
	scored    []time.Time
	forced    []bool
	backfills []int
}

func (f *fakeScorer) Today() time.Time { return today }

func (f *fakeScorer) Score(_ context.Context, userID string, date time.Time, force bool) (domain.ReadinessScore, error) {
	if f.err != nil {
		return domain.ReadinessScore{}, f.err
	}
	f.scored = append(f.scored, date)
	f.forced = append(f.forced, force)
	return domain.ReadinessScore{UserID: userID, Date: date.Format(domain.DateLayout), Overall: 80}, nil
}

func (f *fakeScorer) RecalculateHistorical(_ context.Context, _ string, days int, _ time.Time) ([]domain.ReadinessScore, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.backfills = append(f.backfills, days)
	return make([]domain.ReadinessScore, days), nil
}

type fakePreloader struct {
	err   error
	users []string
}

func (f *fakePreloader) Preload(_ context.Context, userID string) error {
	f.users = append(f.users, userID)
	return f.err
}

func newHandlers() (*Handlers, *fakeScorer, *fakePreloader) {
	s, p := &fakeScorer{}, &fakePreloader{}
	return NewHandlers(s, p, zerolog.Nop()), s, p
}

func TestHandleReadinessScore(t *testing.T) {
	h, s, _ := newHandlers()
	ctx := context.Background()

	task, err := NewReadinessScoreTask(ReadinessScorePayload{UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, h.HandleReadinessScore(ctx, task))

	task, err = NewReadinessScoreTask(ReadinessScorePayload{UserID: "u1", Date: "2025-03-01", Force: true})
	require.NoError(t, err)
	require.NoError(t, h.HandleReadinessScore(ctx, task))

	assert.Equal(t, []time.Time{today, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, s.scored)
	assert.Equal(t, []bool{false, true}, s.forced)
}

func TestHandleReadinessScore_BadInputSkipsRetry(t *testing.T) {
	h, _, _ := newHandlers()
	ctx := context.Background()

	cases := map[string]*asynq.Task{
		"not json": asynq.NewTask(TaskReadinessScore, []byte("{")),
		"no user":  asynq.NewTask(TaskReadinessScore, []byte(`{"date":"2025-03-01"}`)),
		"bad date": asynq.NewTask(TaskReadinessScore, []byte(`{"user_id":"u1","date":"March 1"}`)),
	}
	for name, task := range cases {
		t.Run(name, func(t *testing.T) {
			err := h.HandleReadinessScore(ctx, task)
			require.Error(t, err)
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
}

func TestHandlers_RetryClassification(t *testing.T) {
	ctx := context.Background()
	task, err := NewContextPreloadTask(ContextPreloadPayload{UserID: "u1"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"store unavailable", fmt.Errorf("load profile: %w", store.ErrUnavailable), true},
		{"deadline", context.DeadlineExceeded, true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"decode failure", errors.New("decode conversation: unexpected end of JSON input"), false},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, p := newHandlers()
			p.err = tt.err
			err := h.HandleContextPreload(ctx, task)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, !tt.retry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestHandleReadinessBackfill(t *testing.T) {
	h, s, _ := newHandlers()
	ctx := context.Background()

	task, err := NewReadinessBackfillTask(ReadinessBackfillPayload{UserID: "u1", Days: 30})
	require.NoError(t, err)
	require.NoError(t, h.HandleReadinessBackfill(ctx, task))
	assert.Equal(t, []int{30}, s.backfills)

	task, err = NewReadinessBackfillTask(ReadinessBackfillPayload{UserID: "u1", Days: 1000})
	require.NoError(t, err)
	assert.ErrorIs(t, h.HandleReadinessBackfill(ctx, task), asynq.SkipRetry)

	s.err = store.ErrUnavailable
	task, err = NewReadinessBackfillTask(ReadinessBackfillPayload{UserID: "u1", Days: 7})
	require.NoError(t, err)
	err = h.HandleReadinessBackfill(ctx, task)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleContextPreload(t *testing.T) {
	h, _, p := newHandlers()
	task, err := NewContextPreloadTask(ContextPreloadPayload{UserID: "u7"})
	require.NoError(t, err)
	require.NoError(t, h.HandleContextPreload(context.Background(), task))
	assert.Equal(t, []string{"u7"}, p.users)
}

func TestTaskOptions(t *testing.T) {
	task, err := NewReadinessBackfillTask(ReadinessBackfillPayload{UserID: "u1", Days: 3})
	require.NoError(t, err)
	assert.Equal(t, TaskReadinessBackfill, task.Type())
	assert.JSONEq(t, `{"user_id":"u1","days":3}`, string(task.Payload()))
}
