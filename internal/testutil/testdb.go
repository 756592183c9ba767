// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/coachengine/internal/store"
)

// NewTestStore creates a store over an in-memory SQLite database.
// The database is closed when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, _ := NewRecordingStore(t)
	return st
}

// NewRecordingStore is NewTestStore plus access to the recording backend.
func NewRecordingStore(t *testing.T) (*store.Store, *RecordingBackend) {
	t.Helper()
	b, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	rb := &RecordingBackend{Backend: b, puts: map[string]int{}, fail: map[string]error{}}
	t.Cleanup(func() { b.Close() })
	return store.New(rb), rb
}

// Logger writes through t.Log so output only shows for failing tests.
func Logger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
}

// RecordingBackend counts writes per record kind and can inject failures.
type RecordingBackend struct {
	store.Backend

	mu   sync.Mutex
	puts map[string]int
	fail map[string]error
}

// FailPuts makes every Put of a kind starting with prefix return err.
func (r *RecordingBackend) FailPuts(prefix string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[prefix] = err
}

// FailAfter lets n more Puts of prefix through, then fails the rest.
func (r *RecordingBackend) FailAfter(prefix string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[prefix] = &countdownErr{left: n}
}

// Puts returns how many successful or failed Puts hit a kind starting with prefix.
func (r *RecordingBackend) Puts(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, v := range r.puts {
		if strings.HasPrefix(k, prefix) {
			n += v
		}
	}
	return n
}

func (r *RecordingBackend) Put(ctx context.Context, rec store.Record) error {
	r.mu.Lock()
	r.puts[rec.Kind]++
	var injected error
	for prefix, err := range r.fail {
		if !strings.HasPrefix(rec.Kind, prefix) {
			continue
		}
		var cd *countdownErr
		if errors.As(err, &cd) {
			if cd.left > 0 {
				cd.left--
				continue
			}
		}
		injected = err
	}
	r.mu.Unlock()
	if injected != nil {
		return injected
	}
	return r.Backend.Put(ctx, rec)
}

type countdownErr struct{ left int }

func (c *countdownErr) Error() string { return "injected write failure" }
