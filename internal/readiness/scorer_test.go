package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/store"
	"github.com/briangreenhill/coachengine/internal/testutil"
)

var refDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func seedReferenceDay(t *testing.T, st *store.Store, userID string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, st.PutSleep(ctx, userID, domain.SleepRecord{Date: refDay, DurationHours: 8, Quality: 90}))
	for i := 3; i >= 1; i-- {
		require.NoError(t, st.PutWearable(ctx, userID, domain.WearableMetrics{
			RecordedAt: refDay.AddDate(0, 0, -i).Add(7 * time.Hour), HRV: 55, RestingHR: 60,
		}))
	}
	require.NoError(t, st.PutWearable(ctx, userID, domain.WearableMetrics{RecordedAt: refDay.Add(7 * time.Hour), HRV: 60, RestingHR: 58}))
	require.NoError(t, st.PutCheckIn(ctx, userID, domain.CheckIn{Date: "2025-03-10", Soreness: 2, Energy: 8}))
	require.NoError(t, st.PutWellness(ctx, userID, domain.WellnessSettings{Stress: 3, Nutrition: 8, Hydration: 8}))

	// one session per week keeps the acute:chronic ratio at 1.0
	for _, back := range []int{3, 10, 17, 24} {
		testutil.SeedSessions(t, st, testutil.NewTestSession(userID, refDay.AddDate(0, 0, -back).Add(18*time.Hour)))
	}
}

func TestScorer_ReferenceDay(t *testing.T) {
	st := testutil.NewTestStore(t)
	seedReferenceDay(t, st, "u1")
	s := NewScorer(st, testutil.Logger(t), WithClock(testutil.FixedClock(refDay.Add(9*time.Hour))))

	sc, err := s.Score(context.Background(), "u1", refDay, false)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", sc.Date)
	assert.InDelta(t, 82, sc.Sleep, 1e-9)
	assert.Equal(t, 100.0, sc.StrainBalance)
	assert.InDelta(t, 68, sc.Environmental, 1e-9)
	assert.Equal(t, 86, sc.Overall)
	assert.Equal(t, domain.RecommendFullIntensity, sc.Recommendation)
}

func TestScorer_IdempotentPerDay(t *testing.T) {
	st, rb := testutil.NewRecordingStore(t)
	seedReferenceDay(t, st, "u1")
	s := NewScorer(st, zerolog.Nop(), WithClock(testutil.FixedClock(refDay.Add(9*time.Hour))))
	ctx := context.Background()

	first, err := s.Score(ctx, "u1", refDay, false)
	require.NoError(t, err)
	require.Equal(t, 1, rb.Puts("readiness"))

	// new data arriving later must not change the stored score
	require.NoError(t, st.PutCheckIn(ctx, "u1", domain.CheckIn{Date: "2025-03-10", Soreness: 9, Energy: 1}))

	second, err := s.Score(ctx, "u1", refDay.Add(20*time.Hour), false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, rb.Puts("readiness"), "no second write")

	forced, err := s.Score(ctx, "u1", refDay, true)
	require.NoError(t, err)
	assert.Less(t, forced.Recovery, first.Recovery)
	assert.Equal(t, 2, rb.Puts("readiness"))
}

func TestScorer_NewUserDefaults(t *testing.T) {
	st := testutil.NewTestStore(t)
	s := NewScorer(st, zerolog.Nop(), WithClock(testutil.FixedClock(refDay)))

	sc, err := s.Score(context.Background(), "nobody", refDay, false)
	require.NoError(t, err)

	// 7h/75 sleep, neutral wearable, soreness 3 energy 7, rested, mid-range wellness
	assert.InDelta(t, 0.4*100+0.3*75+0.2*75, sc.Sleep, 1e-9)
	assert.InDelta(t, 0.4*75+0.3*75+0.15*70+0.15*70, sc.Recovery, 1e-9)
	assert.Equal(t, 100.0, sc.StrainBalance)
	assert.InDelta(t, 45, sc.Environmental, 1e-9)
	assert.Equal(t, 77, sc.Overall)
	assert.Equal(t, domain.RecommendModerate, sc.Recommendation)
	assert.NotNil(t, sc.Insights)
}

func TestScorer_RecalculateHistorical(t *testing.T) {
	st, rb := testutil.NewRecordingStore(t)
	seedReferenceDay(t, st, "u1")
	s := NewScorer(st, zerolog.Nop(), WithClock(testutil.FixedClock(refDay)))

	scores, err := s.RecalculateHistorical(context.Background(), "u1", 7, refDay)
	require.NoError(t, err)
	require.Len(t, scores, 7)
	assert.Equal(t, "2025-03-04", scores[0].Date)
	assert.Equal(t, "2025-03-10", scores[6].Date)
	assert.Equal(t, 7, rb.Puts("readiness"))

	// 2025-03-07 is the day of the latest session
	assert.Equal(t, 50.0, scores[3].StrainBalance)

	again, err := s.RecalculateHistorical(context.Background(), "u1", 7, refDay)
	require.NoError(t, err)
	assert.Equal(t, scores, again)
}

type flakyStore struct {
	*store.Store
	sleepErr    error
	wellnessErr error
}

func (f *flakyStore) ListSleep(ctx context.Context, userID string, from, to time.Time) ([]domain.SleepRecord, error) {
	if f.sleepErr != nil {
		return nil, f.sleepErr
	}
	return f.Store.ListSleep(ctx, userID, from, to)
}

func (f *flakyStore) GetWellness(ctx context.Context, userID string) (domain.WellnessSettings, error) {
	if f.wellnessErr != nil {
		return domain.WellnessSettings{}, f.wellnessErr
	}
	return f.Store.GetWellness(ctx, userID)
}

func TestScorer_UnavailablePropagates(t *testing.T) {
	fs := &flakyStore{Store: testutil.NewTestStore(t), sleepErr: store.ErrUnavailable}
	s := NewScorer(fs, zerolog.Nop(), WithClock(testutil.FixedClock(refDay)))

	_, err := s.Score(context.Background(), "u1", refDay, false)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestScorer_OtherSignalErrorsDefault(t *testing.T) {
	fs := &flakyStore{Store: testutil.NewTestStore(t), wellnessErr: errors.New("decode wellness: bad json")}
	s := NewScorer(fs, zerolog.Nop(), WithClock(testutil.FixedClock(refDay)))

	sc, err := s.Score(context.Background(), "u1", refDay, false)
	require.NoError(t, err)
	assert.InDelta(t, 45, sc.Environmental, 1e-9)
}
