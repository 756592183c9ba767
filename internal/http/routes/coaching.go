package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/briangreenhill/coachengine/internal/domain"
	appmw "github.com/briangreenhill/coachengine/internal/http/middleware"
	"github.com/briangreenhill/coachengine/internal/jobs"
	"github.com/briangreenhill/coachengine/internal/plan"
	"github.com/briangreenhill/coachengine/internal/prompt"
	"github.com/briangreenhill/coachengine/internal/workout"
)

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, prompt.All())
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "refresh")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cc, err := s.contexts.GetContext(r.Context(), appmw.UserID(r.Context()), force)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cc)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.contexts.Invalidate(appmw.UserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r, "force")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	date := s.readiness.Today()
	if v := r.URL.Query().Get("date"); v != "" {
		if date, err = time.Parse(domain.DateLayout, v); err != nil {
			s.fail(w, r, badRequest("date must be YYYY-MM-DD"))
			return
		}
	}
	sc, err := s.readiness.Score(r.Context(), appmw.UserID(r.Context()), date, force)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > jobs.MaxBackfillDays {
			s.fail(w, r, badRequest("days must be between 1 and %d", jobs.MaxBackfillDays))
			return
		}
		days = n
	}
	id, err := s.jobs.EnqueueBackfill(r.Context(), appmw.UserID(r.Context()), days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"task_id": id, "days": days})
}

func (s *Server) handleGenerateWorkout(w http.ResponseWriter, r *http.Request) {
	var ov workout.Overrides
	if err := decodeBody(r, &ov); err != nil {
		s.fail(w, r, err)
		return
	}
	cc, err := s.contexts.GetContext(r.Context(), appmw.UserID(r.Context()), false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.workouts.Generate(r.Context(), cc, ov))
}

type planRequest struct {
	plan.Options
	StartDate string `json:"start_date,omitempty"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	opts := req.Options
	if req.StartDate != "" {
		d, err := time.Parse(domain.DateLayout, req.StartDate)
		if err != nil {
			s.fail(w, r, badRequest("start_date must be YYYY-MM-DD"))
			return
		}
		opts.StartDate = &d
	}
	if opts.Weeks < 0 || opts.Weeks > 52 {
		s.fail(w, r, badRequest("weeks must be between 1 and 52"))
		return
	}

	userID := appmw.UserID(r.Context())
	cc, err := s.contexts.GetContext(r.Context(), userID, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.plans.BuildPlan(r.Context(), cc, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.contexts.Invalidate(userID)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	res, err := s.plans.Get(r.Context(), appmw.UserID(r.Context()), chi.URLParam(r, "planID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAdjustPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason domain.AdjustmentReason `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if !req.Reason.Valid() {
		s.fail(w, r, badRequest("unknown reason %q", req.Reason))
		return
	}

	userID := appmw.UserID(r.Context())
	cc, err := s.contexts.GetContext(r.Context(), userID, false)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.plans.AdjustPlan(r.Context(), cc, chi.URLParam(r, "planID"), req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.contexts.Invalidate(userID)
	writeJSON(w, http.StatusOK, res)
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest("%s must be a boolean", name)
	}
	return b, nil
}
