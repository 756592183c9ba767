package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/coachengine/internal/domain"
)

func TestTransition(t *testing.T) {
	msg := func(in Intents) Event { return Event{Kind: EventMessage, Intents: in} }
	act := func(a Action, complete bool) Event { return Event{Kind: EventMessage, Action: a, Complete: complete} }

	tests := []struct {
		name    string
		from    State
		ev      Event
		want    State
		effects []Effect
	}{
		{"idle chat", StateIdle, msg(Intents{}), StateIdle, []Effect{EffectChat}},
		{"idle plan request", StateIdle, msg(Intents{PlanRequest: true}), StatePlanConfirm, []Effect{EffectOfferPlan}},
		{"idle ignores stop", StateIdle, msg(Intents{Stop: true}), StateIdle, []Effect{EffectChat}},
		{"idle invalid action", StateIdle, act(ActionConfirmStop, false), StateIdle, []Effect{EffectRepeat}},

		{"confirm by action", StatePlanConfirm, act(ActionConfirmPlan, false), StateInfoGather, []Effect{EffectAskSlot}},
		{"confirm by text", StatePlanConfirm, msg(Intents{Confirm: true}), StateInfoGather, []Effect{EffectAskSlot}},
		{"confirm with slots filled", StatePlanConfirm, act(ActionConfirmPlan, true), StateBuilding, []Effect{EffectBuildPlan}},
		{"decline by action", StatePlanConfirm, act(ActionDeclinePlan, false), StateIdle, []Effect{EffectDeclined}},
		{"decline by text", StatePlanConfirm, msg(Intents{Deny: true}), StateIdle, []Effect{EffectDeclined}},
		{"stop while confirming", StatePlanConfirm, msg(Intents{Stop: true}), StateStopConfirm, []Effect{EffectAskStop}},
		{"unclear answer re-offers", StatePlanConfirm, msg(Intents{}), StatePlanConfirm, []Effect{EffectOfferPlan}},
		{"slot action while confirming", StatePlanConfirm, act(ActionSetDays, false), StatePlanConfirm, []Effect{EffectRepeat}},

		{"gather next slot", StateInfoGather, act(ActionSetGoal, false), StateInfoGather, []Effect{EffectAskSlot}},
		{"gather complete", StateInfoGather, act(ActionSetEquipment, true), StateBuilding, []Effect{EffectBuildPlan}},
		{"gather complete by text", StateInfoGather, Event{Kind: EventMessage, Complete: true}, StateBuilding, []Effect{EffectBuildPlan}},
		{"gather stop", StateInfoGather, msg(Intents{Stop: true}), StateStopConfirm, []Effect{EffectAskStop}},
		{"gather invalid action", StateInfoGather, act(ActionConfirmPlan, false), StateInfoGather, []Effect{EffectRepeat}},

		{"building stop", StateBuilding, msg(Intents{Stop: true}), StateStopConfirm, []Effect{EffectAskStop}},
		{"building retry", StateBuilding, msg(Intents{}), StateBuilding, []Effect{EffectBuildPlan}},
		{"built", StateBuilding, Event{Kind: EventPlanBuilt}, StatePersisting, []Effect{EffectPlanReady}},
		{"build failed", StateBuilding, Event{Kind: EventBuildFailed}, StateInfoGather, []Effect{EffectApologize, EffectAskSlot}},
		{"saved", StatePersisting, Event{Kind: EventPlanSaved}, StateExplained, []Effect{EffectExplainPlan}},
		{"message while persisting", StatePersisting, msg(Intents{}), StateExplained, []Effect{EffectExplainPlan}},
		{"stray outcome ignored", StateIdle, Event{Kind: EventPlanSaved}, StateIdle, nil},

		{"explained chat", StateExplained, msg(Intents{}), StateExplained, []Effect{EffectChat}},
		{"explained new plan", StateExplained, msg(Intents{PlanRequest: true}), StatePlanConfirm, []Effect{EffectOfferPlan}},

		{"stop confirmed by action", StateStopConfirm, act(ActionConfirmStop, false), StateIdle, []Effect{EffectStopped}},
		{"stop confirmed by text", StateStopConfirm, msg(Intents{Confirm: true}), StateIdle, []Effect{EffectStopped}},
		{"stop repeated", StateStopConfirm, msg(Intents{Stop: true}), StateIdle, []Effect{EffectStopped}},
		{"stop declined by action", StateStopConfirm, act(ActionDeclineStop, false), StateInfoGather, []Effect{EffectAskSlot}},
		{"stop declined by text", StateStopConfirm, msg(Intents{Deny: true, Stop: true}), StateInfoGather, []Effect{EffectAskSlot}},
		{"stop unclear", StateStopConfirm, msg(Intents{}), StateStopConfirm, []Effect{EffectAskStop}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, effects := Transition(tt.from, tt.ev)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.effects, effects)
		})
	}
}

func TestRegexClassifier(t *testing.T) {
	c := NewRegexClassifier()
	ctx := context.Background()

	plan := []string{
		"can you make me a push pull legs plan",
		"I want a ppl split",
		"Create a workout plan for me",
		"build me a 4 day routine",
		"I need a new program",
		"give me an upper lower split",
	}
	for _, s := range plan {
		assert.True(t, c.Classify(ctx, s).PlanRequest, s)
	}
	notPlan := []string{"how was my sleep?", "what should I eat after training", "how's my plan going", ""}
	for _, s := range notPlan {
		assert.False(t, c.Classify(ctx, s).PlanRequest, s)
	}

	for _, s := range []string{"stop", "cancel that", "never mind", "forget it", "let's start over"} {
		assert.True(t, c.Classify(ctx, s).Stop, s)
	}
	for _, s := range []string{"yes", "Yeah sure", "ok", "let's do it", "sounds good"} {
		in := c.Classify(ctx, s)
		assert.True(t, in.Confirm, s)
		assert.False(t, in.Deny, s)
	}
	for _, s := range []string{"no", "nope", "not now", "maybe later", "don't stop"} {
		assert.True(t, c.Classify(ctx, s).Deny, s)
	}
	assert.False(t, c.Classify(ctx, "yoga tomorrow").Confirm)
	assert.False(t, c.Classify(ctx, "nothing much").Deny)
}

func TestSetSlot(t *testing.T) {
	tests := []struct {
		slot  Slot
		value string
		ok    bool
		check func(domain.UserPlanInfo) any
		want  any
	}{
		{SlotGoal, "strength", true, func(i domain.UserPlanInfo) any { return i.Goal }, domain.GoalStrength},
		{SlotGoal, "I want to lose some fat", true, func(i domain.UserPlanInfo) any { return i.Goal }, domain.GoalWeightLoss},
		{SlotGoal, "weight_loss", true, func(i domain.UserPlanInfo) any { return i.Goal }, domain.GoalWeightLoss},
		{SlotGoal, "build muscle", true, func(i domain.UserPlanInfo) any { return i.Goal }, domain.GoalMuscle},
		{SlotGoal, "banana", false, func(i domain.UserPlanInfo) any { return i.Goal }, domain.GoalType("")},
		{SlotExperience, "I'm pretty new to this", true, func(i domain.UserPlanInfo) any { return i.Experience }, domain.LevelBeginner},
		{SlotExperience, "advanced", true, func(i domain.UserPlanInfo) any { return i.Experience }, domain.LevelAdvanced},
		{SlotDays, "4 days", true, func(i domain.UserPlanInfo) any { return i.DaysPerWeek }, 4},
		{SlotDays, "three", true, func(i domain.UserPlanInfo) any { return i.DaysPerWeek }, 3},
		{SlotDays, "12", false, func(i domain.UserPlanInfo) any { return i.DaysPerWeek }, 0},
		{SlotDays, "three or four days", true, func(i domain.UserPlanInfo) any { return i.DaysPerWeek }, 3},
		{SlotDays, "maybe 5, or six", true, func(i domain.UserPlanInfo) any { return i.DaysPerWeek }, 5},
		{SlotDays, "none really", false, func(i domain.UserPlanInfo) any { return i.DaysPerWeek }, 0},
		{SlotDays, "someone said daily", true, func(i domain.UserPlanInfo) any { return i.DaysPerWeek }, 7},
		{SlotSessionLength, "45 minutes", true, func(i domain.UserPlanInfo) any { return i.SessionLength }, 45},
		{SlotSessionLength, "about an hour", true, func(i domain.UserPlanInfo) any { return i.SessionLength }, 60},
		{SlotSessionLength, "half an hour", true, func(i domain.UserPlanInfo) any { return i.SessionLength }, 30},
		{SlotSessionLength, "1 hour", true, func(i domain.UserPlanInfo) any { return i.SessionLength }, 60},
		{SlotSessionLength, "5", false, func(i domain.UserPlanInfo) any { return i.SessionLength }, 0},
		{SlotEquipment, "dumbbells,bench", true, func(i domain.UserPlanInfo) any { return i.Equipment }, []string{"dumbbells", "bench"}},
		{SlotEquipment, "I go to a gym with dumbbells", true, func(i domain.UserPlanInfo) any { return i.Equipment }, []string{"full_gym"}},
		{SlotEquipment, "no equipment at all", true, func(i domain.UserPlanInfo) any { return i.Equipment }, []string{"bodyweight"}},
		{SlotEquipment, "a rowing machine", true, func(i domain.UserPlanInfo) any { return i.Equipment }, []string{"machine"}},
		{SlotEquipment, "", false, func(i domain.UserPlanInfo) any { return i.Equipment }, []string(nil)},
	}
	for _, tt := range tests {
		t.Run(string(tt.slot)+"/"+tt.value, func(t *testing.T) {
			var info domain.UserPlanInfo
			assert.Equal(t, tt.ok, SetSlot(&info, tt.slot, tt.value))
			assert.Equal(t, tt.want, tt.check(info))
		})
	}
}

func TestSetSlotDaysIsStable(t *testing.T) {
	for range 100 {
		var info domain.UserPlanInfo
		require.True(t, SetSlot(&info, SlotDays, "two or three days"))
		require.Equal(t, 2, info.DaysPerWeek)
	}
}

func TestNextSlotOrder(t *testing.T) {
	var info domain.UserPlanInfo
	order := []Slot{}
	values := map[Slot]string{
		SlotGoal: "strength", SlotExperience: "beginner", SlotDays: "4",
		SlotSessionLength: "45", SlotEquipment: "full_gym",
	}
	for s := NextSlot(info); s != SlotNone; s = NextSlot(info) {
		order = append(order, s)
		assert.True(t, SetSlot(&info, s, values[s]))
	}
	assert.Equal(t, []Slot{SlotGoal, SlotExperience, SlotDays, SlotSessionLength, SlotEquipment}, order)
	assert.True(t, info.Complete())
}
