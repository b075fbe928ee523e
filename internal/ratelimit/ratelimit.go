// Package ratelimit is a fixed-window request limiter on top of the
// session store's counter layer. It fails open: when the store is
// unavailable, requests are admitted, so a dependency outage never
// becomes a total outage of the user-facing service.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/vetassist/vetchat/internal/store"
)

// Decision carries the limiter outcome for response headers.
type Decision struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter counts requests per identifier in fixed windows.
type Limiter struct {
	store  store.SessionStore
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New creates a limiter admitting limit requests per window.
func New(s store.SessionStore, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{store: s, limit: limit, window: window, logger: logger}
}

// Allow records a request for id and reports whether it is admitted. The
// first request in a window starts the window's TTL.
func (l *Limiter) Allow(ctx context.Context, id string) (Decision, bool) {
	count, remaining, err := l.store.Incr(ctx, "vetchat:rl:"+id, l.window)
	if err != nil {
		// Fail open: a limiter backend outage must not reject traffic.
		l.logger.Warn("rate limiter store unavailable, admitting request",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return Decision{Limit: l.limit, Remaining: l.limit, Reset: time.Now().Add(l.window)}, true
	}

	d := Decision{
		Limit:     l.limit,
		Remaining: l.limit - int(count),
		Reset:     time.Now().Add(remaining),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d, count <= int64(l.limit)
}
