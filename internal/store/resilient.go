package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vetassist/vetchat/internal/domain"
)

// Status describes store connectivity for the health endpoint.
type Status string

const (
	StatusPrimary     Status = "primary"
	StatusDegraded    Status = "degraded"
	StatusUnreachable Status = "unreachable"
)

// Resilient serves session state from a primary backend and transparently
// degrades to an in-process fallback when the primary fails. Degradation
// is sticky for the process lifetime: once the fallback takes over, the
// primary is not consulted again, since reconciling state written to the
// fallback back into a recovered primary is not attempted.
//
// No method returns a transport error to the caller. Store outages
// surface as "not found" plus a fallback write path, trading consistency
// for availability: a session may silently restart from empty state
// during a primary outage.
type Resilient struct {
	primary  SessionStore
	fallback SessionStore
	degraded atomic.Bool
	logger   *slog.Logger
}

var _ SessionStore = (*Resilient)(nil)

// NewResilient wraps a primary and fallback store.
func NewResilient(primary, fallback SessionStore, logger *slog.Logger) *Resilient {
	return &Resilient{primary: primary, fallback: fallback, logger: logger}
}

func (r *Resilient) Get(ctx context.Context, key Key) (*domain.SessionRecord, error) {
	if r.degraded.Load() {
		return r.fallback.Get(ctx, key)
	}

	rec, err := r.primary.Get(ctx, key)
	if err == nil || errors.Is(err, ErrNotFound) {
		return rec, err
	}

	// Transient errors get one retry before degrading.
	rec, err = r.primary.Get(ctx, key)
	if err == nil || errors.Is(err, ErrNotFound) {
		return rec, err
	}

	r.degrade("get", err)
	return r.fallback.Get(ctx, key)
}

func (r *Resilient) Put(ctx context.Context, key Key, rec *domain.SessionRecord, ttl time.Duration) error {
	if r.degraded.Load() {
		return r.fallback.Put(ctx, key, rec, ttl)
	}

	if err := r.primary.Put(ctx, key, rec, ttl); err != nil {
		if err = r.primary.Put(ctx, key, rec, ttl); err != nil {
			r.degrade("put", err)
			return r.fallback.Put(ctx, key, rec, ttl)
		}
	}
	return nil
}

func (r *Resilient) Delete(ctx context.Context, key Key) error {
	// Always clear the fallback copy so a later degradation cannot
	// resurrect a cleared session.
	_ = r.fallback.Delete(ctx, key)

	if r.degraded.Load() {
		return nil
	}
	if err := r.primary.Delete(ctx, key); err != nil {
		r.degrade("delete", err)
	}
	return nil
}

func (r *Resilient) Incr(ctx context.Context, counterKey string, window time.Duration) (int64, time.Duration, error) {
	if r.degraded.Load() {
		return r.fallback.Incr(ctx, counterKey, window)
	}

	count, remaining, err := r.primary.Incr(ctx, counterKey, window)
	if err != nil {
		r.degrade("incr", err)
		return r.fallback.Incr(ctx, counterKey, window)
	}
	return count, remaining, nil
}

// PurgeExpired sweeps the fallback map, which has no native expiry. The
// primary's own purge runs too; its errors are logged but do not fail the
// sweep.
func (r *Resilient) PurgeExpired(ctx context.Context) (int, error) {
	purged, err := r.fallback.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}

	if !r.degraded.Load() {
		if n, err := r.primary.PurgeExpired(ctx); err != nil {
			r.logger.Warn("primary store purge failed", slog.String("error", err.Error()))
		} else {
			purged += n
		}
	}
	return purged, nil
}

func (r *Resilient) Ping(ctx context.Context) error {
	if r.degraded.Load() {
		return r.fallback.Ping(ctx)
	}
	return r.primary.Ping(ctx)
}

// Status reports connectivity: "primary" when the primary store is
// serving and reachable, "degraded" once the fallback has taken over, and
// "unreachable" when the primary fails its liveness probe but has not yet
// been degraded by a failed operation.
func (r *Resilient) Status(ctx context.Context) Status {
	if r.degraded.Load() {
		return StatusDegraded
	}
	if err := r.primary.Ping(ctx); err != nil {
		return StatusUnreachable
	}
	return StatusPrimary
}

// Degraded reports whether the fallback has taken over.
func (r *Resilient) Degraded() bool {
	return r.degraded.Load()
}

func (r *Resilient) degrade(op string, err error) {
	if r.degraded.CompareAndSwap(false, true) {
		r.logger.Error("primary session store unavailable, degrading to in-process fallback",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}
