// Package app wires the coaching components from configuration. The api,
// worker and coachctl binaries share it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/cache"
	"github.com/briangreenhill/coachengine/internal/aggregator"
	"github.com/briangreenhill/coachengine/internal/config"
	"github.com/briangreenhill/coachengine/internal/conversation"
	"github.com/briangreenhill/coachengine/internal/llm"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/prompt"
	"github.com/briangreenhill/coachengine/internal/readiness"
	"github.com/briangreenhill/coachengine/internal/store"
	"github.com/briangreenhill/coachengine/internal/workout"
)

type App struct {
	Store      *store.Store
	Scorer     *readiness.Scorer
	Aggregator *aggregator.Aggregator
	Workouts   *workout.Generator
	Plans      *plan.Builder
	Chat       *conversation.Engine
	Model      llm.Client
}

// OpenStore connects the configured backend.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	var (
		b   store.Backend
		err error
	)
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		b, err = store.NewPostgresBackend(ctx, cfg.Store.DatabaseURL)
	case config.DriverSQLite:
		b, err = store.OpenSQLite(cfg.Store.SQLitePath)
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store.New(b), nil
}

// NewModel returns the Gemini client wrapped in retries, or llm.Unavailable
// when no key is configured so callers use their scripted fallbacks.
func NewModel(ctx context.Context, cfg *config.Config, log zerolog.Logger) llm.Client {
	if !cfg.HasLLM() {
		log.Warn().Msg("GEMINI_API_KEY not set; model replies disabled")
		return llm.Unavailable{}
	}
	g, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, log)
	if err != nil {
		log.Error().Err(err).Msg("model client unavailable")
		return llm.Unavailable{}
	}
	return llm.NewRetrying(g, cfg.LLM.MaxAttempts, cfg.LLM.BaseDelay, log)
}

// New builds every component on top of st.
func New(st *store.Store, model llm.Client, cfg *config.Config, log zerolog.Logger) *App {
	prompts := prompt.NewGenerator(cfg.CoachingPromptPath, log)
	scorer := readiness.NewScorer(st, log)
	agg := aggregator.New(st, scorer, cache.NewLRUCache(cfg.ContextCacheSize, cfg.ContextTTL), log,
		aggregator.WithTTL(cfg.ContextTTL), aggregator.WithDefaultPersona(cfg.DefaultPersona))
	gen := workout.NewGenerator(st, log)
	builder := plan.NewBuilder(st, gen, log, plan.WithModel(model, prompts))
	engine := conversation.NewEngine(agg, builder, st, model, prompts, log,
		conversation.WithDefaultPersona(cfg.DefaultPersona),
		conversation.WithExplainDelay(cfg.PlanExplainDelay))

	return &App{
		Store:      st,
		Scorer:     scorer,
		Aggregator: agg,
		Workouts:   gen,
		Plans:      builder,
		Chat:       engine,
		Model:      model,
	}
}

// Open connects the store and builds the App.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return New(st, NewModel(ctx, cfg, log), cfg, log), nil
}

// Close waits for background snapshot writes, then closes the store.
func (a *App) Close() error {
	a.Aggregator.Wait()
	return a.Store.Close()
}
