package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/llm"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/prompt"
)

const (
	// MaxStoredMessages bounds the persisted message history.
	MaxStoredMessages = 20
	// ModelWindow is how many prior messages are sent to the model.
	ModelWindow = 6
	// DefaultExplainDelay paces the plan explanation after the saved notice.
	DefaultExplainDelay = 1500 * time.Millisecond
)

var ErrEmptyInput = errors.New("conversation: message or action required")

// ContextSource supplies the user's CompleteContext.
type ContextSource interface {
	GetContext(ctx context.Context, userID string, force bool) (domain.CompleteContext, error)
}

// PlanBuilder builds and saves a plan from collected slot values.
type PlanBuilder interface {
	BuildFromConversation(ctx context.Context, cc domain.CompleteContext, info domain.UserPlanInfo) (plan.Result, error)
}

// Store persists conversations between messages.
type Store interface {
	LoadConversation(ctx context.Context, userID string, v any) (bool, error)
	SaveConversation(ctx context.Context, userID string, v any) error
	GetPlan(ctx context.Context, userID, planID string) (domain.WorkoutPlan, error)
}

// Conversation is the persisted per-user conversation record.
type Conversation struct {
	UserID       string               `json:"user_id"`
	State        State                `json:"state"`
	Info         domain.UserPlanInfo  `json:"info"`
	History      []domain.ChatMessage `json:"history"`
	Prompt       string               `json:"prompt,omitempty"`
	QuickReplies []QuickReply         `json:"quick_replies,omitempty"`
	PlanID       string               `json:"plan_id,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Input is one message from the user. Action is set when a quick reply was
// chosen; Persona optionally overrides the profile persona for this turn.
type Input struct {
	Message string `json:"message"`
	Action  Action `json:"action,omitempty"`
	Payload string `json:"payload,omitempty"`
	Persona string `json:"persona,omitempty"`
}

// Outgoing is one coach message. DelayMS asks the client to wait before
// showing it.
type Outgoing struct {
	Text    string `json:"text"`
	DelayMS int64  `json:"delay_ms,omitempty"`
}

// Reply is everything produced for one Input.
type Reply struct {
	State        State               `json:"state"`
	Messages     []Outgoing          `json:"messages"`
	QuickReplies []QuickReply        `json:"quick_replies"`
	Plan         *domain.WorkoutPlan `json:"plan,omitempty"`
	Persona      string              `json:"persona"`
}

// Engine processes messages for any user. Messages for the same user must be
// serialised by the caller.
type Engine struct {
	contexts     ContextSource
	plans        PlanBuilder
	store        Store
	model        llm.Client
	prompts      *prompt.Generator
	intents      IntentClassifier
	persona      string
	explainDelay time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithClassifier replaces the regex intent classifier.
func WithClassifier(c IntentClassifier) Option {
	return func(e *Engine) { e.intents = c }
}

func WithDefaultPersona(name string) Option {
	return func(e *Engine) { e.persona = name }
}

func WithExplainDelay(d time.Duration) Option {
	return func(e *Engine) { e.explainDelay = d }
}

func NewEngine(cs ContextSource, pb PlanBuilder, st Store, model llm.Client, prompts *prompt.Generator, log zerolog.Logger, opts ...Option) *Engine {
	if model == nil {
		model = llm.Unavailable{}
	}
	e := &Engine{
		contexts:     cs,
		plans:        pb,
		store:        st,
		model:        model,
		prompts:      prompts,
		intents:      NewRegexClassifier(),
		persona:      prompt.DefaultPersona,
		explainDelay: DefaultExplainDelay,
		now:          time.Now,
		log:          log.With().Str("component", "conversation").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type turn struct {
	conv    *Conversation
	cc      domain.CompleteContext
	persona prompt.Persona
	text    string
	prior   []domain.ChatMessage
	plan    *domain.WorkoutPlan
	reply   *Reply
	at      time.Time
	log     zerolog.Logger
}

// Process handles one user message and persists the updated conversation.
// Model and store failures never fail the call; they fall back to scripted
// messages.
func (e *Engine) Process(ctx context.Context, userID string, in Input) (Reply, error) {
	if strings.TrimSpace(in.Message) == "" && in.Action == "" {
		return Reply{}, ErrEmptyInput
	}
	log := e.log.With().Str("user_id", userID).Logger()

	conv := e.load(ctx, userID, log)
	cc, err := e.contexts.GetContext(ctx, userID, false)
	if err != nil {
		log.Warn().Err(err).Str("op", "context").Msg("continuing without context")
		cc = domain.CompleteContext{User: domain.UserContext{UserID: userID}}
	}

	t := &turn{
		conv:    conv,
		cc:      cc,
		persona: e.pickPersona(in.Persona, cc),
		text:    strings.TrimSpace(in.Message),
		prior:   conv.History,
		reply:   &Reply{Messages: []Outgoing{}, QuickReplies: []QuickReply{}},
		at:      e.now().UTC(),
		log:     log,
	}
	t.reply.Persona = t.persona.Key

	ev := e.event(ctx, conv, in)
	if said := userText(conv, in); said != "" {
		conv.History = append(conv.History, domain.ChatMessage{Role: llm.RoleUser, Text: said, At: t.at})
	}

	from := conv.State
	var effects []Effect
	conv.State, effects = Transition(conv.State, ev)
	for i := 0; i < len(effects); i++ {
		next, ok := e.apply(ctx, t, effects[i])
		if !ok {
			continue
		}
		var more []Effect
		conv.State, more = Transition(conv.State, next)
		effects = append(effects, more...)
	}
	log.Debug().Str("from", string(from)).Str("to", string(conv.State)).Stringers("effects", stringers(effects)).Msg("message processed")

	t.reply.State = conv.State
	e.save(ctx, conv, log)
	return *t.reply, nil
}

// Conversation returns the stored conversation for userID, or a fresh one.
func (e *Engine) Conversation(ctx context.Context, userID string) (Conversation, error) {
	conv := Conversation{UserID: userID, State: StateIdle, History: []domain.ChatMessage{}}
	if _, err := e.store.LoadConversation(ctx, userID, &conv); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

func (e *Engine) load(ctx context.Context, userID string, log zerolog.Logger) *Conversation {
	conv := &Conversation{UserID: userID, State: StateIdle}
	if _, err := e.store.LoadConversation(ctx, userID, conv); err != nil {
		log.Warn().Err(err).Str("op", "load_conversation").Msg("starting a new conversation")
		conv = &Conversation{UserID: userID, State: StateIdle}
	}
	if !conv.State.Valid() {
		conv.State = StateIdle
	}
	return conv
}

func (e *Engine) save(ctx context.Context, conv *Conversation, log zerolog.Logger) {
	if n := len(conv.History); n > MaxStoredMessages {
		conv.History = conv.History[n-MaxStoredMessages:]
	}
	conv.UpdatedAt = e.now().UTC()
	if err := e.store.SaveConversation(ctx, conv.UserID, conv); err != nil {
		log.Error().Err(err).Str("op", "save_conversation").Msg("conversation write failed")
	}
}

func (e *Engine) pickPersona(override string, cc domain.CompleteContext) prompt.Persona {
	for _, name := range []string{override, cc.User.Profile.Persona} {
		if prompt.Known(name) {
			return prompt.Lookup(name)
		}
	}
	return prompt.Lookup(e.persona)
}

// event classifies the input and, while gathering, applies any slot value it
// carries so Transition sees the updated completeness.
func (e *Engine) event(ctx context.Context, conv *Conversation, in Input) Event {
	ev := Event{Kind: EventMessage, Action: in.Action}
	if in.Action == "" {
		ev.Intents = e.intents.Classify(ctx, in.Message)
	}
	if conv.State == StateInfoGather {
		switch {
		case in.Action.IsSlot():
			SetSlot(&conv.Info, slotActions[in.Action], in.Payload)
		case in.Action == "" && !ev.Intents.Stop:
			if s := NextSlot(conv.Info); s != SlotNone {
				SetSlot(&conv.Info, s, in.Message)
			}
		}
	}
	ev.Complete = conv.Info.Complete()
	return ev
}

// userText is what gets recorded for the user's turn: the text, or the label
// of the chosen quick reply.
func userText(conv *Conversation, in Input) string {
	if in.Action == "" {
		return strings.TrimSpace(in.Message)
	}
	for _, qr := range conv.QuickReplies {
		if qr.Action == in.Action && qr.Payload == in.Payload {
			return qr.Label
		}
	}
	if in.Payload != "" {
		return in.Payload
	}
	return string(in.Action)
}

func (e *Engine) apply(ctx context.Context, t *turn, eff Effect) (Event, bool) {
	conv := t.conv
	switch eff {
	case EffectChat:
		t.say(e.chat(ctx, t))

	case EffectOfferPlan:
		t.ask(offerText(t.persona), []QuickReply{
			{Label: "Yes, let's do it", Action: ActionConfirmPlan},
			{Label: "Not now", Action: ActionDeclinePlan},
		})

	case EffectDeclined:
		t.say("No problem. Just ask whenever you'd like a plan.")

	case EffectAskSlot:
		slot := NextSlot(conv.Info)
		if slot == SlotNone {
			t.ask("I have everything I need. Send any message when you're ready and I'll build your plan.", nil)
			break
		}
		q := questions[slot]
		t.ask(q.text, q.replies)

	case EffectAskStop:
		t.ask("Do you want to stop building your plan? The details you've given me so far will be discarded.", []QuickReply{
			{Label: "Yes, stop", Action: ActionConfirmStop},
			{Label: "Keep going", Action: ActionDeclineStop},
		})

	case EffectStopped:
		conv.Info.Clear()
		t.say("Okay, I've stopped the plan. Ask me anything, or ask for a plan again whenever you're ready.")

	case EffectBuildPlan:
		t.say("Great, building your plan now.")
		res, err := e.plans.BuildFromConversation(ctx, t.cc, conv.Info)
		if err != nil {
			t.log.Error().Err(err).Str("op", "build_plan").Msg("plan build failed")
			return Event{Kind: EventBuildFailed}, true
		}
		if res.Unsaved > 0 {
			t.log.Warn().Int("unsaved", res.Unsaved).Str("plan_id", res.Plan.ID).Msg("plan saved with missing sessions")
		}
		p := res.Plan
		t.plan = &p
		conv.PlanID = p.ID
		return Event{Kind: EventPlanBuilt}, true

	case EffectApologize:
		t.say("Sorry, I couldn't put your plan together just now. Your answers are saved, so send any message to try again.")

	case EffectPlanReady:
		t.reply.Plan = t.plan
		name := "Your plan"
		if t.plan != nil {
			name = t.plan.Name
		}
		t.say(fmt.Sprintf("%s is saved to your calendar.", name))
		return Event{Kind: EventPlanSaved}, true

	case EffectExplainPlan:
		p := t.plan
		if p == nil {
			p = e.currentPlan(ctx, t)
		}
		conv.Info.Clear()
		if p == nil {
			t.say("Your plan is saved. Ask me anything about it.")
			break
		}
		t.reply.Plan = p
		t.sayAfter(prompt.PlanExplanation(t.persona, *p), e.explainDelay)

	case EffectRepeat:
		text := conv.Prompt
		if text == "" {
			text = "That option isn't available right now."
		}
		t.reply.Messages = append(t.reply.Messages, Outgoing{Text: text})
		t.reply.QuickReplies = append(t.reply.QuickReplies[:0], conv.QuickReplies...)
	}
	return Event{}, false
}

func (e *Engine) chat(ctx context.Context, t *turn) string {
	var p *domain.WorkoutPlan
	if t.conv.State == StateExplained {
		p = e.currentPlan(ctx, t)
	}
	req := llm.Request{
		Task:    llm.TaskChat,
		System:  e.prompts.System(t.persona, t.cc, p),
		History: window(t.prior, ModelWindow),
		Prompt:  t.text,
	}
	text, err := e.model.Generate(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrInvalidOutput
	}
	if err != nil {
		t.log.Warn().Err(err).Str("op", "chat").Str("model", e.model.Name()).Msg("using scripted reply")
		return prompt.Fallback(t.persona)
	}
	return strings.TrimSpace(text)
}

func (e *Engine) currentPlan(ctx context.Context, t *turn) *domain.WorkoutPlan {
	if t.plan != nil {
		return t.plan
	}
	if t.conv.PlanID == "" {
		return nil
	}
	p, err := e.store.GetPlan(ctx, t.conv.UserID, t.conv.PlanID)
	if err != nil {
		t.log.Warn().Err(err).Str("op", "get_plan").Str("plan_id", t.conv.PlanID).Msg("plan unavailable for chat")
		return nil
	}
	t.plan = &p
	return t.plan
}

func (t *turn) say(text string) {
	t.sayAfter(text, 0)
}

func (t *turn) sayAfter(text string, delay time.Duration) {
	t.reply.Messages = append(t.reply.Messages, Outgoing{Text: text, DelayMS: delay.Milliseconds()})
	t.reply.QuickReplies = []QuickReply{}
	t.conv.Prompt = ""
	t.conv.QuickReplies = nil
	t.record(text)
}

func (t *turn) ask(text string, replies []QuickReply) {
	if replies == nil {
		replies = []QuickReply{}
	}
	t.reply.Messages = append(t.reply.Messages, Outgoing{Text: text})
	t.reply.QuickReplies = replies
	t.conv.Prompt = text
	t.conv.QuickReplies = replies
	t.record(text)
}

func (t *turn) record(text string) {
	t.conv.History = append(t.conv.History, domain.ChatMessage{Role: llm.RoleCoach, Text: text, At: t.at})
}

func offerText(p prompt.Persona) string {
	switch p.Key {
	case "motivational":
		return "Let's build you a plan that gets RESULTS! 🔥 I'll ask a few quick questions first. Ready?"
	case "gentle":
		return "I'd love to put together a plan that fits your life ✨ I'll ask a few gentle questions first. Shall we?"
	case "concise":
		return "Build a plan? 5 quick questions."
	default:
		return "Would you like me to build you a personalized training plan? I'll ask a few quick questions first."
	}
}

func window(history []domain.ChatMessage, n int) []llm.Message {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]llm.Message, len(history))
	for i, m := range history {
		out[i] = llm.Message{Role: m.Role, Text: m.Text}
	}
	return out
}

func stringers(effects []Effect) []fmt.Stringer {
	out := make([]fmt.Stringer, len(effects))
	for i, e := range effects {
		out[i] = e
	}
	return out
}
