package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/briangreenhill/coachengine/internal/domain"
	"github.com/briangreenhill/coachengine/internal/llm"
)

type modelPlan struct {
	Name            string       `json:"name"`
	GoalType        string       `json:"goal_type"`
	TotalWeeks      int          `json:"total_weeks"`
	WorkoutsPerWeek int          `json:"workouts_per_week"`
	Phases          []modelPhase `json:"phases"`
}

type modelPhase struct {
	Name           string  `json:"name"`
	Weeks          int     `json:"weeks"`
	Focus          string  `json:"focus"`
	IntensityLevel string  `json:"intensity_level"`
	VolumeModifier float64 `json:"volume_modifier"`
}

// BuildFromConversation builds a plan from the slots collected in chat. The
// model designs the phases when it answers with a valid plan; any model or
// parse failure falls back to the goal template. Sessions are always
// scheduled deterministically.
func (b *Builder) BuildFromConversation(ctx context.Context, cc domain.CompleteContext, info domain.UserPlanInfo) (Result, error) {
	opts := Options{
		Goal:            info.Goal,
		Experience:      info.Experience,
		WorkoutsPerWeek: info.DaysPerWeek,
		SessionMinutes:  info.SessionLength,
		Equipment:       info.Equipment,
	}

	mp, err := b.askModel(ctx, cc, info)
	if err != nil {
		b.log.Warn().Err(err).Str("user_id", cc.User.UserID).Msg("using template plan")
		return b.BuildPlan(ctx, cc, opts)
	}

	p := b.design(cc, opts, mp.phases())
	p.Source = SourceModel
	if name := strings.TrimSpace(mp.Name); name != "" {
		p.Name = name
	}
	return b.save(ctx, cc, p, opts)
}

func (b *Builder) askModel(ctx context.Context, cc domain.CompleteContext, info domain.UserPlanInfo) (modelPlan, error) {
	if b.model == nil || b.prompts == nil {
		return modelPlan{}, llm.ErrUnavailable
	}
	system, user := b.prompts.PlanRequest(info, cc)
	text, err := b.model.Generate(ctx, llm.Request{Task: llm.TaskPlanJSON, System: system, Prompt: user, JSON: true})
	if err != nil {
		return modelPlan{}, err
	}
	var mp modelPlan
	if err := llm.ExtractJSON(text, &mp); err != nil {
		return modelPlan{}, err
	}
	if err := mp.validate(); err != nil {
		return modelPlan{}, err
	}
	return mp, nil
}

func (mp modelPlan) validate() error {
	if mp.TotalWeeks < 1 || mp.TotalWeeks > 52 {
		return fmt.Errorf("%w: total_weeks %d out of range", llm.ErrInvalidOutput, mp.TotalWeeks)
	}
	if len(mp.Phases) == 0 {
		return fmt.Errorf("%w: no phases", llm.ErrInvalidOutput)
	}
	sum := 0
	for _, ph := range mp.Phases {
		if ph.Weeks < 1 || strings.TrimSpace(ph.Name) == "" {
			return fmt.Errorf("%w: invalid phase %q", llm.ErrInvalidOutput, ph.Name)
		}
		sum += ph.Weeks
	}
	if sum != mp.TotalWeeks {
		return fmt.Errorf("%w: phase weeks sum to %d, want %d", llm.ErrInvalidOutput, sum, mp.TotalWeeks)
	}
	return nil
}

func (mp modelPlan) phases() []domain.TrainingPhase {
	out := make([]domain.TrainingPhase, len(mp.Phases))
	for i, ph := range mp.Phases {
		level := domain.IntensityLevel(strings.ToLower(ph.IntensityLevel))
		switch level {
		case domain.IntensityLow, domain.IntensityModerate, domain.IntensityHigh, domain.IntensityVeryHigh:
		default:
			level = domain.IntensityModerate
		}
		vol := ph.VolumeModifier
		if vol <= 0 {
			vol = 1.0
		}
		out[i] = domain.TrainingPhase{
			Name:           strings.TrimSpace(ph.Name),
			Weeks:          ph.Weeks,
			Focus:          ph.Focus,
			Intensity:      level,
			VolumeModifier: min(1.5, max(0.5, vol)),
		}
	}
	return out
}
