package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/coachengine/internal/conversation"
	"github.com/briangreenhill/coachengine/internal/domain"
	appmw "github.com/briangreenhill/coachengine/internal/http/middleware"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/store"
	"github.com/briangreenhill/coachengine/internal/workout"
)

// Version is reported by /healthz. Set at build time with -ldflags.
var Version = "dev"

type Contexts interface {
	GetContext(ctx context.Context, userID string, force bool) (domain.CompleteContext, error)
	Invalidate(userID string)
}

type Readiness interface {
	Score(ctx context.Context, userID string, date time.Time, force bool) (domain.ReadinessScore, error)
	Today() time.Time
}

type Workouts interface {
	Generate(ctx context.Context, cc domain.CompleteContext, ov workout.Overrides) domain.GeneratedWorkout
}

type Plans interface {
	BuildPlan(ctx context.Context, cc domain.CompleteContext, opts plan.Options) (plan.Result, error)
	Get(ctx context.Context, userID, planID string) (plan.Result, error)
	AdjustPlan(ctx context.Context, cc domain.CompleteContext, planID string, reason domain.AdjustmentReason) (plan.Result, error)
}

type Chat interface {
	Process(ctx context.Context, userID string, in conversation.Input) (conversation.Reply, error)
	Conversation(ctx context.Context, userID string) (conversation.Conversation, error)
}

// Enqueuer hands long-running work to the worker.
type Enqueuer interface {
	EnqueueBackfill(ctx context.Context, userID string, days int) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Router    *chi.Mux
	contexts  Contexts
	readiness Readiness
	workouts  Workouts
	plans     Plans
	chat      Chat
	jobs      Enqueuer
	db        Pinger
	locks     *userLocks
	log       zerolog.Logger
}

type ServerOptions struct {
	Contexts  Contexts
	Readiness Readiness
	Workouts  Workouts
	Plans     Plans
	Chat      Chat
	Jobs      Enqueuer
	DB        Pinger
	Logger    zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(chimw.RealIP)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().Str("method", r.Method).Stringer("url", r.URL).
			Int("status", status).Int("size", size).Dur("duration", d).Msg("request")
	}))
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:    r,
		contexts:  opts.Contexts,
		readiness: opts.Readiness,
		workouts:  opts.Workouts,
		plans:     opts.Plans,
		chat:      opts.Chat,
		jobs:      opts.Jobs,
		db:        opts.DB,
		locks:     newUserLocks(),
		log:       opts.Logger.With().Str("component", "http").Logger(),
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/personas", s.handlePersonas)

	r.Route("/v1/users/{userID}", func(ur chi.Router) {
		ur.Use(appmw.RequireUser)
		ur.Get("/context", s.handleContext)
		ur.Post("/context/invalidate", s.handleInvalidate)
		ur.Get("/readiness", s.handleReadiness)
		ur.Post("/readiness/backfill", s.handleBackfill)
		ur.Post("/workouts/generate", s.handleGenerateWorkout)
		ur.Post("/plans", s.handleCreatePlan)
		ur.Get("/plans/{planID}", s.handleGetPlan)
		ur.Post("/plans/{planID}/adjust", s.handleAdjustPlan)
		ur.Get("/chat", s.handleConversation)
		ur.Post("/chat", s.handleChat)
		ur.Get("/chat/ws", s.handleChatWS)
	})

	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "healthy", "service": "coach-engine", "version": Version}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
			body["status"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// fail maps err onto a status code and writes it as JSON.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, plan.ErrUnknownAdjustment), errors.Is(err, conversation.ErrEmptyInput):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, plan.ErrPlanNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	ev := hlog.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Err(err).Str("user_id", appmw.UserID(r.Context())).Int("status", status).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid body: %v", err)
	}
	return nil
}
