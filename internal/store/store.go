// Package store defines the session persistence contract: a key-value
// store of serialized session records with sliding TTL, a counter layer
// for rate limiting, and an expiry sweep hook for the reaper.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/vetassist/vetchat/internal/domain"
)

// ErrNotFound is returned by Get when no record exists for a key, either
// because it was never written or because its TTL elapsed.
var ErrNotFound = errors.New("session not found")

// Key identifies a session record.
type Key struct {
	UserID    string
	SessionID string
}

func (k Key) String() string {
	return "vetchat:sess:" + k.UserID + ":" + k.SessionID
}

// SessionStore is the persistence contract shared by the Redis primary
// and the in-process fallback.
//
// Get refreshes the record's TTL as a side effect (sliding expiration), so
// active sessions never expire mid-conversation while idle ones age out.
type SessionStore interface {
	Get(ctx context.Context, key Key) (*domain.SessionRecord, error)
	Put(ctx context.Context, key Key, rec *domain.SessionRecord, ttl time.Duration) error
	Delete(ctx context.Context, key Key) error

	// Incr increments a window-scoped counter, setting the window TTL on
	// the first increment. It returns the new count and the remaining
	// window duration.
	Incr(ctx context.Context, counterKey string, window time.Duration) (int64, time.Duration, error)

	// PurgeExpired removes entries whose TTL has elapsed and returns how
	// many were removed. Backends with native expiry may return 0.
	PurgeExpired(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
}
