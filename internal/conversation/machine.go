// Package conversation drives the coaching chat: free-form model replies,
// and the guided flow that collects plan details and builds a plan.
//
// The flow is a table of pure transitions. Transition takes the current
// state and an event and returns the next state plus the effects the engine
// must carry out. Effects that produce a result (building a plan) feed a new
// event back into Transition.
package conversation

// State is a conversation state.
type State string

const (
	StateIdle        State = "IDLE"
	StatePlanConfirm State = "PLAN_CONFIRM"
	StateInfoGather  State = "PLAN_INFO_GATHER"
	StateBuilding    State = "PLAN_BUILDING"
	StatePersisting  State = "PLAN_PERSISTING"
	StateExplained   State = "PLAN_EXPLAINED"
	StateStopConfirm State = "STOP_PLAN_CONFIRM"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StatePlanConfirm, StateInfoGather, StateBuilding, StatePersisting, StateExplained, StateStopConfirm:
		return true
	}
	return false
}

// Action is the machine-readable value carried by a quick reply.
type Action string

const (
	ActionConfirmPlan      Action = "CONFIRM_PLAN"
	ActionDeclinePlan      Action = "DECLINE_PLAN"
	ActionConfirmStop      Action = "CONFIRM_STOP"
	ActionDeclineStop      Action = "DECLINE_STOP"
	ActionSetGoal          Action = "SET_GOAL"
	ActionSetExperience    Action = "SET_EXPERIENCE"
	ActionSetDays          Action = "SET_DAYS"
	ActionSetSessionLength Action = "SET_SESSION_LENGTH"
	ActionSetEquipment     Action = "SET_EQUIPMENT"
)

// IsSlot reports whether a sets one of the plan detail slots.
func (a Action) IsSlot() bool {
	switch a {
	case ActionSetGoal, ActionSetExperience, ActionSetDays, ActionSetSessionLength, ActionSetEquipment:
		return true
	}
	return false
}

// EventKind distinguishes user input from the outcomes of effects.
type EventKind int

const (
	EventMessage EventKind = iota
	EventPlanBuilt
	EventBuildFailed
	EventPlanSaved
)

// Event is the input to Transition. For EventMessage, Action is set when the
// user picked a quick reply and Intents holds the classification of any
// free text. Complete reports whether every plan slot is filled after the
// message's slot values were applied.
type Event struct {
	Kind     EventKind
	Action   Action
	Intents  Intents
	Complete bool
}

// Effect is work the engine performs after a transition.
type Effect int

const (
	// EffectChat answers with the language model.
	EffectChat Effect = iota
	// EffectOfferPlan asks whether the user wants a plan.
	EffectOfferPlan
	// EffectDeclined acknowledges a declined plan offer.
	EffectDeclined
	// EffectAskSlot asks for the first missing plan detail.
	EffectAskSlot
	// EffectAskStop asks the user to confirm abandoning the plan flow.
	EffectAskStop
	// EffectStopped clears the collected details and acknowledges.
	EffectStopped
	// EffectBuildPlan runs the plan builder. Its outcome is an event.
	EffectBuildPlan
	// EffectApologize reports a failed build.
	EffectApologize
	// EffectPlanReady attaches the built plan. Its outcome is EventPlanSaved.
	EffectPlanReady
	// EffectExplainPlan sends the scripted plan explanation.
	EffectExplainPlan
	// EffectRepeat re-sends the last prompt unchanged.
	EffectRepeat
)

var effectNames = [...]string{
	"chat", "offer_plan", "declined", "ask_slot", "ask_stop", "stopped",
	"build_plan", "apologize", "plan_ready", "explain_plan", "repeat",
}

func (e Effect) String() string {
	if int(e) < len(effectNames) {
		return effectNames[e]
	}
	return "unknown"
}

// Transition is the conversation state table.
func Transition(s State, ev Event) (State, []Effect) {
	switch ev.Kind {
	case EventPlanBuilt:
		if s == StateBuilding {
			return StatePersisting, []Effect{EffectPlanReady}
		}
		return s, nil
	case EventBuildFailed:
		if s == StateBuilding {
			return StateInfoGather, []Effect{EffectApologize, EffectAskSlot}
		}
		return s, nil
	case EventPlanSaved:
		if s == StatePersisting {
			return StateExplained, []Effect{EffectExplainPlan}
		}
		return s, nil
	}

	if ev.Action != "" && !actionValid(s, ev.Action) {
		return s, []Effect{EffectRepeat}
	}
	in := ev.Intents

	switch s {
	case StatePlanConfirm:
		switch {
		case ev.Action == ActionConfirmPlan:
			return startGather(ev.Complete)
		case ev.Action == ActionDeclinePlan:
			return StateIdle, []Effect{EffectDeclined}
		case in.Stop:
			return StateStopConfirm, []Effect{EffectAskStop}
		case in.Deny:
			return StateIdle, []Effect{EffectDeclined}
		case in.Confirm, in.PlanRequest:
			return startGather(ev.Complete)
		}
		return s, []Effect{EffectOfferPlan}

	case StateInfoGather:
		if ev.Action == "" && in.Stop {
			return StateStopConfirm, []Effect{EffectAskStop}
		}
		return startGather(ev.Complete)

	case StateBuilding:
		if ev.Action == "" && in.Stop {
			return StateStopConfirm, []Effect{EffectAskStop}
		}
		return StateBuilding, []Effect{EffectBuildPlan}

	case StatePersisting:
		return StateExplained, []Effect{EffectExplainPlan}

	case StateStopConfirm:
		switch {
		case ev.Action == ActionConfirmStop:
			return StateIdle, []Effect{EffectStopped}
		case ev.Action == ActionDeclineStop:
			return StateInfoGather, []Effect{EffectAskSlot}
		case in.Deny:
			return StateInfoGather, []Effect{EffectAskSlot}
		case in.Confirm, in.Stop:
			return StateIdle, []Effect{EffectStopped}
		}
		return s, []Effect{EffectAskStop}

	case StateExplained:
		if in.PlanRequest {
			return StatePlanConfirm, []Effect{EffectOfferPlan}
		}
		return StateExplained, []Effect{EffectChat}
	}

	// IDLE and anything unrecognised.
	if in.PlanRequest {
		return StatePlanConfirm, []Effect{EffectOfferPlan}
	}
	return StateIdle, []Effect{EffectChat}
}

func startGather(complete bool) (State, []Effect) {
	if complete {
		return StateBuilding, []Effect{EffectBuildPlan}
	}
	return StateInfoGather, []Effect{EffectAskSlot}
}

var stateActions = map[State][]Action{
	StatePlanConfirm: {ActionConfirmPlan, ActionDeclinePlan},
	StateStopConfirm: {ActionConfirmStop, ActionDeclineStop},
	StateInfoGather:  {ActionSetGoal, ActionSetExperience, ActionSetDays, ActionSetSessionLength, ActionSetEquipment},
}

func actionValid(s State, a Action) bool {
	for _, v := range stateActions[s] {
		if v == a {
			return true
		}
	}
	return false
}
