// Package llm is the narrow contract to the language model service used for
// free-form coaching chat and plan JSON generation.
package llm

import (
	"context"
	"errors"
)

var (
	ErrTimeout        = errors.New("llm: request timed out")
	ErrRetryExhausted = errors.New("llm: retries exhausted")
	ErrInvalidOutput  = errors.New("llm: invalid model output")
	ErrUnavailable    = errors.New("llm: service unavailable")
)

// Roles of a conversation turn.
const (
	RoleUser  = "user"
	RoleCoach = "coach"
)

// Tasks label what a request is for, mostly for logging.
const (
	TaskChat     = "chat"
	TaskPlanJSON = "plan_json"
)

// Message is one prior turn sent as conversation history.
type Message struct {
	Role string
	Text string
}

// Request is a single model call.
type Request struct {
	Task    string
	System  string
	History []Message
	Prompt  string
	// JSON asks the model for a JSON response body.
	JSON bool
}

// Client generates a text response for a request.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Unavailable is the client used when no model is configured. Every call
// fails with ErrUnavailable so callers fall back to scripted replies.
type Unavailable struct{}

func (Unavailable) Name() string { return "unavailable" }

func (Unavailable) Generate(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}
