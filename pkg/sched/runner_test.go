package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerExecutesTask(t *testing.T) {
	var runs int64
	r := NewRunner("test", 5*time.Millisecond, func(context.Context) {
		atomic.AddInt64(&runs, 1)
	})
	r.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&runs) < 2 {
		select {
		case <-deadline:
			t.Fatalf("task did not run twice, runs=%d", atomic.LoadInt64(&runs))
		case <-time.After(time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestRunnerStopBeforeStart(t *testing.T) {
	r := NewRunner("idle", time.Second, func(context.Context) {})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("stopping an unstarted runner must be a no-op: %v", err)
	}
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	r := NewRunner("test", 5*time.Millisecond, func(context.Context) {})
	r.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestRunnerConcurrentStops(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := NewRunner("test", time.Millisecond, func(context.Context) {})
		r.Start(context.Background())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := r.Stop(ctx); err != nil {
					t.Errorf("concurrent stop: %v", err)
				}
			}()
		}
		wg.Wait()
		cancel()
	}
}

func TestRunnerStopTimeout(t *testing.T) {
	blocked := make(chan struct{})
	r := NewRunner("stuck", time.Millisecond, func(context.Context) {
		<-blocked
	})
	r.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Stop(ctx); err == nil {
		t.Fatalf("expected timeout error while the task blocks")
	}
	close(blocked)
}

func TestRunnerHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner("ctx", time.Hour, func(context.Context) {})
	r.Start(ctx)
	cancel()

	select {
	case <-r.doneCh:
	case <-time.After(time.Second):
		t.Fatalf("runner did not exit on context cancel")
	}
}

func TestRunnerName(t *testing.T) {
	if got := NewRunner("spread", time.Second, nil).Name(); got != "spread" {
		t.Fatalf("name = %q", got)
	}
}
