package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/coachengine/cache"
	"github.com/briangreenhill/coachengine/internal/aggregator"
	"github.com/briangreenhill/coachengine/internal/conversation"
	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/prompt"
	"github.com/briangreenhill/coachengine/internal/readiness"
	"github.com/briangreenhill/coachengine/internal/testutil"
	"github.com/briangreenhill/coachengine/internal/workout"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newApp(t *testing.T) *App {
	t.Helper()
	st := testutil.NewTestStore(t)
	clock := testutil.FixedClock(now)
	log := testutil.Logger(t)

	scorer := readiness.NewScorer(st, log, readiness.WithClock(clock))
	agg := aggregator.New(st, scorer, cache.NewLRUCache(8, time.Minute), log, aggregator.WithClock(clock))
	t.Cleanup(agg.Wait)
	gen := workout.NewGenerator(st, log, workout.WithClock(clock))
	builder := plan.NewBuilder(st, gen, log, plan.WithClock(clock))
	engine := conversation.NewEngine(agg, builder, st, nil, prompt.NewGenerator("", zerolog.Nop()), log,
		conversation.WithClock(clock), conversation.WithExplainDelay(0))

	testutil.SeedUser(t, st, "u1", testutil.WithPreferences(40, 3, "dumbbells"))
	return &App{Contexts: agg, Readiness: scorer, Workouts: gen, Plans: builder, Chat: engine}
}

func run(t *testing.T, app *App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserFlagRequired(t *testing.T) {
	_, err := run(t, newApp(t), "", "readiness")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestReadinessCmd(t *testing.T) {
	out, err := run(t, newApp(t), "", "readiness", "-u", "u1", "--date", "2025-03-05")
	require.NoError(t, err)
	var sc domain.ReadinessScore
	require.NoError(t, json.Unmarshal([]byte(out), &sc))
	assert.Equal(t, "2025-03-05", sc.Date)

	_, err = run(t, newApp(t), "", "readiness", "-u", "u1", "--date", "yesterday")
	assert.Error(t, err)
}

func TestBackfillCmd(t *testing.T) {
	out, err := run(t, newApp(t), "", "backfill", "-u", "u1", "--days", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "2025-03-10"), lines[2])

	_, err = run(t, newApp(t), "", "backfill", "-u", "u1", "--days", "0")
	assert.Error(t, err)
}

func TestWorkoutCmd(t *testing.T) {
	out, err := run(t, newApp(t), "", "workout", "-u", "u1", "--minutes", "25")
	require.NoError(t, err)
	var w domain.GeneratedWorkout
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	assert.Equal(t, 25, w.DurationMinutes)
	assert.Equal(t, "u1", w.UserID)
}

func TestPlanCmds(t *testing.T) {
	app := newApp(t)

	out, err := run(t, app, "", "plan", "build", "-u", "u1", "--weeks", "4", "--start", "2025-03-17")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-17 to ")
	assert.Contains(t, out, "12 sessions scheduled")

	id := regexp.MustCompile(`\(([0-9a-f-]{36}), revision 1\)`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	out, err = run(t, app, "", "plan", "adjust", "-u", "u1", "--plan", id[1], "--reason", "injury")
	require.NoError(t, err)
	assert.Contains(t, out, "revision 2")

	out, err = run(t, app, "", "plan", "show", "-u", "u1", "--plan", id[1])
	require.NoError(t, err)
	var res plan.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Plan.Revision)

	_, err = run(t, app, "", "plan", "adjust", "-u", "u1", "--plan", id[1], "--reason", "bored")
	assert.ErrorIs(t, err, plan.ErrUnknownAdjustment)
}

func TestChatCmd_OneShot(t *testing.T) {
	out, err := run(t, newApp(t), "", "chat", "-u", "u1", "make", "me", "a", "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "coach: ")
	assert.Contains(t, out, "[1] ")
	assert.Contains(t, out, "(PLAN_CONFIRM)")
}

func TestChatCmd_InteractiveQuickReplies(t *testing.T) {
	out, err := run(t, newApp(t), "make me a plan\n1\n", "chat", "-u", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "(PLAN_CONFIRM)")
	assert.Contains(t, out, "(PLAN_INFO_GATHER)")
}

func TestInputFor(t *testing.T) {
	offered := []conversation.QuickReply{{Label: "Yes", Action: conversation.ActionConfirmPlan}}
	assert.Equal(t, conversation.Input{Action: conversation.ActionConfirmPlan}, inputFor("1", offered))
	assert.Equal(t, conversation.Input{Message: "2"}, inputFor("2", offered))
	assert.Equal(t, conversation.Input{Message: "hello"}, inputFor("hello", offered))
}
