// Package store is the persistence layer for coaching records.
//
// Every record is a JSON document addressed by (user id, kind, key) with a
// timestamp used for range queries. Backend implementations only need to
// provide upsert, point lookup, range listing and range deletion; the typed
// accessors in store.go are shared by all of them.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: record not found")

	// ErrUnavailable wraps failures to reach the underlying database.
	ErrUnavailable = errors.New("store: unavailable")
)

// Record is the unit of storage shared by all backends.
type Record struct {
	UserID string
	Kind   string
	Key    string
	At     time.Time
	Body   []byte
}

// Query selects records of one kind for a user within [From, To).
// A zero From or To leaves that side unbounded.
type Query struct {
	UserID string
	Kind   string
	From   time.Time
	To     time.Time
	Limit  int
	Desc   bool
}

// Backend is implemented by the Postgres and SQLite drivers.
type Backend interface {
	Put(ctx context.Context, r Record) error
	Get(ctx context.Context, userID, kind, key string) (Record, error)
	List(ctx context.Context, q Query) ([]Record, error)
	Delete(ctx context.Context, q Query) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
