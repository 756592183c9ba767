// Package cache provides the per-user context cache shared by the context
// aggregator and the generators that read from it.
package cache

import (
	"time"

	"github.com/briangreenhill/coachengine/internal/domain"
)

// Entry is a cached context snapshot with the time it was assembled.
type Entry struct {
	Context   domain.CompleteContext
	FetchedAt time.Time
}

// Reader defines the interface for reading cache entries
type Reader interface {
	// Read returns the entry for userID if present and no older than maxAge.
	// A non-positive maxAge skips the age check.
	Read(userID string, maxAge time.Duration) (*Entry, bool)
}

// Writer defines the interface for writing cache entries
type Writer interface {
	// Write replaces the entry for userID. Last write wins.
	Write(userID string, entry *Entry)
}

// Invalidator drops entries ahead of their expiry.
type Invalidator interface {
	Invalidate(userID string)
}

// ContextCache is the main interface that combines all cache operations
type ContextCache interface {
	Reader
	Writer
	Invalidator
}
