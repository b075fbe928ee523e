// Package reaper sweeps expired sessions out of the store on a fixed
// cadence. Redis expires its own keys; the sweep exists mainly for the
// in-process fallback map, which has no native expiry.
package reaper

import (
	"context"
	"log/slog"
	"time"
)

// Purger is the slice of the store the reaper needs.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Reaper periodically purges expired session entries.
type Reaper struct {
	store    Purger
	interval time.Duration
	logger   *slog.Logger
}

// New creates a reaper sweeping every interval.
func New(store Purger, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{store: store, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once per interval. A failed
// sweep is logged and the loop continues to the next cycle.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("session reaper started", slog.Duration("interval", r.interval))

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			r.logger.Info("session reaper stopping", slog.String("reason", ctx.Err().Error()))
			return
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	purged, err := r.store.PurgeExpired(ctx)
	if err != nil {
		r.logger.Error("session sweep failed", slog.String("error", err.Error()))
		return
	}
	if purged > 0 {
		r.logger.Info("session sweep completed", slog.Int("purged", purged))
	}
}
