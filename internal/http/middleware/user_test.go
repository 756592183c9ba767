package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestValidUserID(t *testing.T) {
	tests := map[string]bool{
		"4b3c9a52-6a2e-4f53-9d5f-0f6d3c1e2a10": true,
		"runner_42":                            true,
		"jo.smith":                             true,
		"":                                     false,
		"-leading":                             false,
		"has space":                            false,
		"../etc":                               false,
	}
	for id, want := range tests {
		assert.Equal(t, want, ValidUserID(id), id)
	}
}

func TestRequireUser(t *testing.T) {
	r := chi.NewRouter()
	r.With(RequireUser).Get("/users/{userID}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/runner_42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "runner_42", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/bad%20id", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid user id"}`, rec.Body.String())
}
