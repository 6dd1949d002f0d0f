package sched

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context)

// Runner executes a task on a fixed cadence. The sleep between runs is the
// target interval minus the observed processing time, floored at zero, so
// the cadence holds under variable load instead of drifting.
type Runner struct {
	name     string
	interval time.Duration
	task     Task

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRunner(name string, interval time.Duration, task Task) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (r *Runner) Name() string { return r.name }

// Start launches the loop. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.doneCh)
	for {
		start := time.Now()
		r.task(ctx)

		sleep := r.interval - time.Since(start)
		if sleep < 0 {
			sleep = 0
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Stop signals the loop and waits for it to exit. If the runner does not
// stop before ctx expires the failure is reported, not swallowed.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	// Signal under the lock so concurrent Stops cannot double-close.
	if !r.stopped {
		r.stopped = true
		close(r.stopCh)
	}
	r.mu.Unlock()

	select {
	case <-r.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("runner %s did not stop within timeout: %w", r.name, ctx.Err())
	}
}
