// Package config handles application configuration from environment variables
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/prompt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	Store StoreConfig
	LLM   LLMConfig

	ContextTTL         time.Duration `env:"CONTEXT_TTL" envDefault:"5m"`
	ContextCacheSize   int           `env:"CONTEXT_CACHE_SIZE" envDefault:"4096"`
	DefaultPersona     string        `env:"DEFAULT_PERSONA" envDefault:"calm"`
	PlanExplainDelay   time.Duration `env:"PLAN_EXPLAIN_DELAY" envDefault:"1500ms"`
	CoachingPromptPath string        `env:"COACHING_PROMPT_PATH"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"coach.db"`
}

// LLMConfig holds the language model settings.
type LLMConfig struct {
	APIKey      string        `env:"GEMINI_API_KEY"`
	Model       string        `env:"LLM_MODEL" envDefault:"gemini-2.0-flash"`
	MaxAttempts int           `env:"LLM_MAX_ATTEMPTS" envDefault:"3"`
	BaseDelay   time.Duration `env:"LLM_BASE_DELAY" envDefault:"500ms"`
	Timeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
}

// Load reads a .env file when present, then the environment, and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// HasLLM reports whether a model API key is configured.
func (c *Config) HasLLM() bool {
	return c.LLM.APIKey != ""
}

// Validate checks the store driver has its connection setting and that
// numeric settings are in range.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Store.Driver))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel))
	}
	if c.LLM.MaxAttempts < 1 || c.LLM.MaxAttempts > 10 {
		errs = append(errs, fmt.Errorf("LLM_MAX_ATTEMPTS must be between 1-10, got %d", c.LLM.MaxAttempts))
	}
	if c.LLM.BaseDelay < 0 || c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("LLM_BASE_DELAY must be >= 0 and LLM_TIMEOUT > 0"))
	}
	if c.ContextTTL <= 0 {
		errs = append(errs, fmt.Errorf("CONTEXT_TTL must be positive, got %s", c.ContextTTL))
	}
	if c.ContextCacheSize < 1 {
		errs = append(errs, fmt.Errorf("CONTEXT_CACHE_SIZE must be positive, got %d", c.ContextCacheSize))
	}
	if !prompt.Known(c.DefaultPersona) {
		errs = append(errs, fmt.Errorf("unknown DEFAULT_PERSONA %q", c.DefaultPersona))
	}
	if c.PlanExplainDelay < 0 {
		errs = append(errs, errors.New("PLAN_EXPLAIN_DELAY must not be negative"))
	}
	return errors.Join(errs...)
}
