package conversation

import (
	"context"
	"regexp"
	"strings"
)

// Intents is the classification of one message. More than one flag may be
// set; the state table decides which one matters.
type Intents struct {
	PlanRequest bool
	Stop        bool
	Confirm     bool
	Deny        bool
}

// IntentClassifier classifies free text.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) Intents
}

// RegexClassifier matches messages against fixed phrase patterns.
type RegexClassifier struct {
	plan, stop, confirm, deny []*regexp.Regexp
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

var (
	planPatterns = []string{
		`\b(make|create|build|design|generate|give|write|put together|set up)\b.*\b(plan|program|programme|routine|split|schedule)\b`,
		`\b(workout|training|gym|lifting|strength|running)\s+(plan|program|programme|routine|split)\b`,
		`\bppl\b`,
		`\bpush[\s/,-]*pull[\s/,-]*legs?\b`,
		`\bupper[\s/-]*lower\s+(split|plan|program)\b`,
		`\b(want|need)\s+(a|an|some|new)\b.*\b(plan|program|programme|routine)\b`,
		`\bnew\s+(plan|program|programme|routine)\b`,
	}
	stopPatterns = []string{
		`\b(stop|cancel|quit|abort|exit)\b`,
		`\bnever\s*mind\b`,
		`\bforget\s+(it|about\s+it|the\s+plan)\b`,
		`\bstart\s+over\b`,
	}
	confirmPatterns = []string{
		`^\s*(yes|yeah|yea|yep|yup|sure|ok|okay|absolutely|definitely|of\s+course|please|go\s+ahead|do\s+it|sounds\s+good|y)\b`,
		`\blet'?s\s+(do|go|start)\b`,
		`\b(i'?m|i\s+am)\s+(in|ready)\b`,
	}
	denyPatterns = []string{
		`^\s*(no|nope|nah|n)\b`,
		`\bnot\s+(now|yet|really|today)\b`,
		`\bmaybe\s+later\b`,
		`\b(don'?t|do\s+not)\b`,
	}
)

// NewRegexClassifier returns the default phrase-pattern classifier.
func NewRegexClassifier() *RegexClassifier {
	return &RegexClassifier{
		plan:    compile(planPatterns...),
		stop:    compile(stopPatterns...),
		confirm: compile(confirmPatterns...),
		deny:    compile(denyPatterns...),
	}
}

func (c *RegexClassifier) Classify(_ context.Context, text string) Intents {
	t := strings.TrimSpace(text)
	if t == "" {
		return Intents{}
	}
	return Intents{
		PlanRequest: matchAny(c.plan, t),
		Stop:        matchAny(c.stop, t),
		Confirm:     matchAny(c.confirm, t),
		Deny:        matchAny(c.deny, t),
	}
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
