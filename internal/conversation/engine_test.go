package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/llm"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/prompt"
	"github.com/briangreenhill/coachengine/internal/store"
	"github.com/briangreenhill/coachengine/internal/testutil"
	"github.com/briangreenhill/coachengine/internal/workout"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type staticContext struct {
	cc  domain.CompleteContext
	err error
}

func (s staticContext) GetContext(_ context.Context, userID string, _ bool) (domain.CompleteContext, error) {
	cc := s.cc
	cc.User.UserID = userID
	return cc, s.err
}

// flakyBuilder fails the first n builds, then delegates.
type flakyBuilder struct {
	fails int
	calls int
	next  PlanBuilder
}

func (f *flakyBuilder) BuildFromConversation(ctx context.Context, cc domain.CompleteContext, info domain.UserPlanInfo) (plan.Result, error) {
	f.calls++
	if f.calls <= f.fails {
		return plan.Result{}, errors.New("plan write failed")
	}
	return f.next.BuildFromConversation(ctx, cc, info)
}

type harness struct {
	st      *store.Store
	model   *testutil.FakeLLM
	builder *flakyBuilder
	engine  *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := testutil.NewTestStore(t)
	clock := testutil.FixedClock(now)
	gen := workout.NewGenerator(st, zerolog.Nop(), workout.WithClock(clock))
	builder := &flakyBuilder{next: plan.NewBuilder(st, gen, zerolog.Nop(), plan.WithClock(clock))}
	h := &harness{st: st, model: &testutil.FakeLLM{Replies: []string{"Warm up with five minutes of easy cardio."}}, builder: builder}
	h.engine = h.newEngine(t)
	return h
}

func (h *harness) newEngine(t *testing.T) *Engine {
	return NewEngine(staticContext{cc: testutil.NewContext("")}, h.builder, h.st, h.model,
		prompt.NewGenerator("", zerolog.Nop()), testutil.Logger(t),
		WithClock(testutil.FixedClock(now)), WithExplainDelay(time.Second))
}

func (h *harness) send(t *testing.T, in Input) Reply {
	t.Helper()
	r, err := h.engine.Process(context.Background(), "u1", in)
	require.NoError(t, err)
	return r
}

func say(text string) Input               { return Input{Message: text} }
func pick(a Action, payload string) Input { return Input{Action: a, Payload: payload} }

func actions(qrs []QuickReply) []Action {
	out := make([]Action, len(qrs))
	for i, q := range qrs {
		out[i] = q.Action
	}
	return out
}

func TestProcess_PlanIntentSkipsModel(t *testing.T) {
	h := newHarness(t)

	r := h.send(t, say("can you make me a push pull legs plan"))

	assert.Equal(t, StatePlanConfirm, r.State)
	assert.Equal(t, []Action{ActionConfirmPlan, ActionDeclinePlan}, actions(r.QuickReplies))
	require.Len(t, r.Messages, 1)
	assert.Zero(t, h.model.Calls())
}

func TestProcess_IdleChatUsesModel(t *testing.T) {
	h := newHarness(t)

	r := h.send(t, say("how should I warm up?"))

	assert.Equal(t, StateIdle, r.State)
	assert.Equal(t, "calm", r.Persona)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, "Warm up with five minutes of easy cardio.", r.Messages[0].Text)
	assert.Empty(t, r.QuickReplies)

	require.Equal(t, 1, h.model.Calls())
	req := h.model.Requests[0]
	assert.Equal(t, llm.TaskChat, req.Task)
	assert.Equal(t, "how should I warm up?", req.Prompt)
	assert.Contains(t, req.System, "## Athlete Context")
	assert.NotContains(t, req.System, "## Current Plan")
	assert.Empty(t, req.History)
}

func TestProcess_PersonaOverride(t *testing.T) {
	h := newHarness(t)
	r := h.send(t, Input{Message: "hi", Persona: "Concise"})
	assert.Equal(t, "concise", r.Persona)

	r = h.send(t, Input{Message: "hi", Persona: "pirate"})
	assert.Equal(t, "calm", r.Persona)
}

func TestProcess_ModelFailureUsesScriptedReply(t *testing.T) {
	h := newHarness(t)
	h.model.Err = fmt.Errorf("%w after 3 attempts", llm.ErrRetryExhausted)

	r := h.send(t, say("how should I warm up?"))

	assert.Equal(t, StateIdle, r.State)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, prompt.Fallback(prompt.Lookup("calm")), r.Messages[0].Text)
}

func TestProcess_FullPlanFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.send(t, say("make me a workout plan"))

	r := h.send(t, pick(ActionConfirmPlan, ""))
	assert.Equal(t, StateInfoGather, r.State)
	assert.Len(t, r.QuickReplies, 5)
	assert.Equal(t, ActionSetGoal, r.QuickReplies[0].Action)

	r = h.send(t, pick(ActionSetGoal, "strength"))
	assert.Equal(t, StateInfoGather, r.State)
	assert.Equal(t, ActionSetExperience, r.QuickReplies[0].Action)

	r = h.send(t, pick(ActionSetExperience, "beginner"))
	assert.Equal(t, ActionSetDays, r.QuickReplies[0].Action)

	r = h.send(t, say("4 days"))
	assert.Equal(t, ActionSetSessionLength, r.QuickReplies[0].Action)

	r = h.send(t, say("45 minutes"))
	assert.Equal(t, ActionSetEquipment, r.QuickReplies[0].Action)

	r = h.send(t, pick(ActionSetEquipment, "dumbbells,bench"))
	assert.Equal(t, StateExplained, r.State)
	require.NotNil(t, r.Plan)
	assert.Equal(t, 4, r.Plan.WorkoutsPerWeek)
	assert.Equal(t, 45, r.Plan.SessionMinutes)
	assert.Equal(t, []string{"dumbbells", "bench"}, r.Plan.Equipment)
	require.Len(t, r.Messages, 3)
	assert.Zero(t, r.Messages[1].DelayMS)
	assert.Equal(t, int64(1000), r.Messages[2].DelayMS)
	assert.Equal(t, prompt.PlanExplanation(prompt.Lookup("calm"), *r.Plan), r.Messages[2].Text)
	assert.Empty(t, r.QuickReplies)
	assert.Zero(t, h.model.Calls())

	active, err := h.st.ActivePlan(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, r.Plan.ID, active.ID)

	conv, err := h.engine.Conversation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, StateExplained, conv.State)
	assert.Equal(t, r.Plan.ID, conv.PlanID)
	assert.Equal(t, domain.UserPlanInfo{}, conv.Info)

	r = h.send(t, say("what do I do in week one?"))
	assert.Equal(t, StateExplained, r.State)
	require.Equal(t, 1, h.model.Calls())
	assert.Contains(t, h.model.Requests[0].System, "## Current Plan")
	assert.Contains(t, h.model.Requests[0].System, r.Plan.Name)
	assert.Len(t, h.model.Requests[0].History, ModelWindow)
}

func TestProcess_StopAndResume(t *testing.T) {
	h := newHarness(t)
	h.send(t, say("build me a plan"))
	h.send(t, say("yes"))
	h.send(t, pick(ActionSetGoal, "muscle"))

	r := h.send(t, say("actually, cancel"))
	assert.Equal(t, StateStopConfirm, r.State)
	assert.Equal(t, []Action{ActionConfirmStop, ActionDeclineStop}, actions(r.QuickReplies))

	r = h.send(t, pick(ActionDeclineStop, ""))
	assert.Equal(t, StateInfoGather, r.State)
	assert.Equal(t, ActionSetExperience, r.QuickReplies[0].Action, "goal is preserved")

	h.send(t, say("stop"))
	r = h.send(t, say("yes"))
	assert.Equal(t, StateIdle, r.State)

	conv, err := h.engine.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserPlanInfo{}, conv.Info)
}

func TestProcess_InvalidActionIsNoop(t *testing.T) {
	h := newHarness(t)
	h.send(t, say("make me a ppl split"))

	r := h.send(t, pick(ActionSetDays, "4"))
	assert.Equal(t, StatePlanConfirm, r.State)
	assert.Equal(t, []Action{ActionConfirmPlan, ActionDeclinePlan}, actions(r.QuickReplies))

	r = h.send(t, pick(ActionConfirmStop, ""))
	assert.Equal(t, StatePlanConfirm, r.State)

	conv, err := h.engine.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, conv.Info.DaysPerWeek)
}

func TestProcess_UnparseableSlotIsAskedAgain(t *testing.T) {
	h := newHarness(t)
	h.send(t, say("make me a plan"))
	first := h.send(t, say("sure"))

	r := h.send(t, say("purple"))
	assert.Equal(t, StateInfoGather, r.State)
	assert.Equal(t, first.Messages[0].Text, r.Messages[0].Text)
}

func TestProcess_BuildFailureReturnsToGather(t *testing.T) {
	h := newHarness(t)
	h.builder.fails = 1

	h.send(t, say("make me a plan"))
	h.send(t, pick(ActionConfirmPlan, ""))
	h.send(t, pick(ActionSetGoal, "endurance"))
	h.send(t, pick(ActionSetExperience, "intermediate"))
	h.send(t, pick(ActionSetDays, "3"))
	h.send(t, pick(ActionSetSessionLength, "60"))

	r := h.send(t, pick(ActionSetEquipment, "full_gym"))
	assert.Equal(t, StateInfoGather, r.State)
	assert.Nil(t, r.Plan)
	require.Len(t, r.Messages, 3)

	conv, err := h.engine.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, conv.Info.Complete())

	r = h.send(t, say("try again"))
	assert.Equal(t, StateExplained, r.State)
	require.NotNil(t, r.Plan)
	assert.Equal(t, domain.GoalEndurance, r.Plan.GoalType)
	assert.Equal(t, 2, h.builder.calls)
}

func TestProcess_StateSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	h.send(t, say("make me a plan"))
	h.send(t, pick(ActionConfirmPlan, ""))

	h.engine = h.newEngine(t)
	r := h.send(t, pick(ActionSetGoal, "strength"))
	assert.Equal(t, StateInfoGather, r.State)
	assert.Equal(t, ActionSetExperience, r.QuickReplies[0].Action)
}

func TestProcess_HistoryIsBounded(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 15; i++ {
		h.send(t, say(fmt.Sprintf("question %d", i)))
	}

	conv, err := h.engine.Conversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, conv.History, MaxStoredMessages)
	assert.Equal(t, "question 5", conv.History[0].Text)

	last := h.model.Requests[len(h.model.Requests)-1]
	assert.Len(t, last.History, ModelWindow)
	assert.Equal(t, llm.RoleUser, last.History[0].Role)
	assert.Equal(t, "question 11", last.History[0].Text)
}

func TestProcess_EmptyInput(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Process(context.Background(), "u1", Input{Message: "  "})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestProcess_ContextFailureStillReplies(t *testing.T) {
	h := newHarness(t)
	h.engine.contexts = staticContext{err: store.ErrUnavailable}

	r := h.send(t, say("hello"))
	assert.Equal(t, StateIdle, r.State)
	require.Len(t, r.Messages, 1)
}
