// Package prompt handles coaching prompt composition and the persona registry
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/domain"
)

// Generator composes system prompts from the base prompt, a persona and the
// user's context.
type Generator struct {
	base string
}

// NewGenerator loads the base prompt from customPath, or uses the built-in
// prompt when the path is empty or unreadable.
func NewGenerator(customPath string, log zerolog.Logger) *Generator {
	base, err := LoadBase(customPath)
	if err != nil {
		log.Warn().Err(err).Str("path", customPath).Msg("using default coaching prompt")
		base = GetDefault()
	}
	return &Generator{base: base}
}

// LoadBase returns the coaching prompt content (custom or default)
func LoadBase(path string) (string, error) {
	if path == "" {
		return GetDefault(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read coaching prompt: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", fmt.Errorf("coaching prompt %s is empty", path)
	}
	return s, nil
}

// System builds the chat system prompt. plan is attached when the user is
// asking about a freshly built plan.
func (g *Generator) System(p Persona, cc domain.CompleteContext, plan *domain.WorkoutPlan) string {
	var b strings.Builder
	b.WriteString(g.base)
	b.WriteString("\n\n")
	b.WriteString(p.Addon())
	b.WriteString("\n## Athlete Context\n")
	b.WriteString(ContextSummary(cc))
	if plan != nil {
		data, _ := json.MarshalIndent(planForPrompt(*plan), "", "  ")
		b.WriteString("\n## Current Plan\n")
		b.Write(data)
		b.WriteString("\n")
	}
	return b.String()
}

// ContextSummary renders the facts from the context the coach should know.
func ContextSummary(cc domain.CompleteContext) string {
	var b strings.Builder
	r := cc.Health.Readiness
	fmt.Fprintf(&b, "- Readiness: %d/100 (%s)", r.Overall, r.Recommendation)
	if r.LimitingFactor != "" {
		fmt.Fprintf(&b, ", limiting factor: %s", r.LimitingFactor)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Level: %s, style: %s\n", cc.User.Profile.FitnessLevel, cc.User.Profile.TrainingStyle)
	if g := cc.Goals.Primary.Goal; g.Type != "" {
		status := "on track"
		if !cc.Goals.Primary.OnTrack {
			status = "behind schedule"
		}
		fmt.Fprintf(&b, "- Primary goal: %s (%.0f%%, %s)\n", describeGoal(g), cc.Goals.Primary.ProgressPercent, status)
	}
	fmt.Fprintf(&b, "- Workouts logged: %d, current streak: %d days\n", cc.User.History.TotalWorkouts, cc.User.History.CurrentStreak)
	if t := cc.Workout.Today; t != nil {
		fmt.Fprintf(&b, "- Today's workout: %s (%s)\n", t.Name, t.Status)
	}
	if ap := cc.Workout.ActivePlan; ap != nil {
		fmt.Fprintf(&b, "- Active plan: %s, week %d of %d, phase %s, adherence %.0f%%\n",
			ap.Name, ap.WeeksCompleted+1, ap.TotalWeeks, ap.CurrentPhase, ap.AdherenceRate*100)
	}
	if fatigued := fatiguedGroups(cc); len(fatigued) > 0 {
		fmt.Fprintf(&b, "- Fatigued muscles: %s\n", strings.Join(fatigued, ", "))
	}
	fmt.Fprintf(&b, "- Sleep last night: %.1fh, stress: %s\n", cc.Health.Sleep.DurationHours, cc.Health.Stress)
	for _, in := range cc.Health.ActiveInjuries {
		fmt.Fprintf(&b, "- Active injury: %s (%s)\n", in.BodyPart, in.Severity)
	}
	return b.String()
}

func describeGoal(g domain.Goal) string {
	if g.Description != "" {
		return g.Description
	}
	return strings.ReplaceAll(string(g.Type), "_", " ")
}

func fatiguedGroups(cc domain.CompleteContext) []string {
	var out []string
	for g, e := range cc.Workout.MuscleRecovery {
		if e.Status == domain.RecoveryFatigued {
			out = append(out, g)
		}
	}
	sort.Strings(out)
	return out
}

type promptPlan struct {
	Name            string                 `json:"name"`
	GoalType        domain.GoalType        `json:"goal_type"`
	TotalWeeks      int                    `json:"total_weeks"`
	WorkoutsPerWeek int                    `json:"workouts_per_week"`
	SessionMinutes  int                    `json:"session_minutes"`
	StartDate       string                 `json:"start_date"`
	Phases          []domain.TrainingPhase `json:"phases"`
}

func planForPrompt(p domain.WorkoutPlan) promptPlan {
	return promptPlan{
		Name:            p.Name,
		GoalType:        p.GoalType,
		TotalWeeks:      p.TotalWeeks,
		WorkoutsPerWeek: p.WorkoutsPerWeek,
		SessionMinutes:  p.SessionMinutes,
		StartDate:       p.StartDate.Format(domain.DateLayout),
		Phases:          p.Phases,
	}
}

// PlanRequest returns the system prompt and user prompt asking the model for
// a JSON plan built from the collected slots.
func (g *Generator) PlanRequest(info domain.UserPlanInfo, cc domain.CompleteContext) (system, user string) {
	var b strings.Builder
	b.WriteString(planJSONInstructions)
	b.WriteString("\n\n## Athlete\n")
	fmt.Fprintf(&b, "- Goal: %s\n", info.Goal)
	fmt.Fprintf(&b, "- Experience: %s\n", info.Experience)
	fmt.Fprintf(&b, "- Days per week: %d\n", info.DaysPerWeek)
	fmt.Fprintf(&b, "- Session length: %d minutes\n", info.SessionLength)
	fmt.Fprintf(&b, "- Equipment: %s\n", strings.Join(info.Equipment, ", "))
	if len(info.Constraints) > 0 {
		fmt.Fprintf(&b, "- Constraints: %s\n", strings.Join(info.Constraints, "; "))
	}
	if len(info.Preferences) > 0 {
		fmt.Fprintf(&b, "- Preferences: %s\n", strings.Join(info.Preferences, "; "))
	}
	b.WriteString(ContextSummary(cc))
	return "You are a strength and conditioning coach who writes training plans as strict JSON.", b.String()
}

// Fallback is the scripted reply used when the model cannot be reached.
func Fallback(p Persona) string {
	switch p.Key {
	case "motivational":
		return "I'm having trouble connecting right now, but don't let that slow you down! Try me again in a moment 💪"
	case "gentle":
		return "I'm having a little trouble connecting right now. Please try again in a moment, I'll be here ❤️"
	case "concise":
		return "Connection issue. Retry shortly. ✓"
	default:
		return "I'm having trouble connecting right now. Let's take a breath and try again in a moment 🍃"
	}
}

// PlanExplanation is the scripted message sent after a plan is saved.
func PlanExplanation(p Persona, plan domain.WorkoutPlan) string {
	var b strings.Builder
	switch p.Key {
	case "motivational":
		fmt.Fprintf(&b, "Your %s is LOCKED IN! 🔥 ", plan.Name)
	case "gentle":
		fmt.Fprintf(&b, "Your %s is ready, and I'm so proud of you for starting ✨ ", plan.Name)
	case "concise":
		fmt.Fprintf(&b, "Plan saved: %s. ", plan.Name)
	default:
		fmt.Fprintf(&b, "Your %s is ready. Let's walk through it together. ", plan.Name)
	}
	fmt.Fprintf(&b, "%d weeks, %d sessions per week of about %d minutes, starting %s.\n",
		plan.TotalWeeks, plan.WorkoutsPerWeek, plan.SessionMinutes, plan.StartDate.Format("Mon Jan 2"))
	for i, ph := range plan.Phases {
		fmt.Fprintf(&b, "%d. %s (%d weeks): %s\n", i+1, ph.Name, ph.Weeks, ph.Focus)
	}
	b.WriteString("Ask me anything about the plan.")
	return b.String()
}
