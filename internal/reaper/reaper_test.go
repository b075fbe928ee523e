package reaper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingPurger struct {
	sweeps atomic.Int32
	err    error
}

func (c *countingPurger) PurgeExpired(ctx context.Context) (int, error) {
	c.sweeps.Add(1)
	return 1, c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReaper_SweepsOnCadence(t *testing.T) {
	purger := &countingPurger{}
	r := New(purger, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.sweeps.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps before deadline, want >= 3", purger.sweeps.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}
}

func TestReaper_SurvivesSweepFailures(t *testing.T) {
	purger := &countingPurger{err: errors.New("store down")}
	r := New(purger, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	deadline := time.After(2 * time.Second)
	for purger.sweeps.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("loop stopped after failures: %d sweeps, want >= 3", purger.sweeps.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
