package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condenses/validator/pkg/logger"
)

// blockingRunner records cycle start times and blocks each cycle until
// released.
type blockingRunner struct {
	mu      sync.Mutex
	starts  []time.Time
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{release: make(chan struct{})}
}

func (r *blockingRunner) RunCycle(ctx context.Context) error {
	r.mu.Lock()
	r.starts = append(r.starts, time.Now())
	r.mu.Unlock()

	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return nil
}

func (r *blockingRunner) started() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts)
}

type countingRunner struct {
	count atomic.Int64
}

func (r *countingRunner) RunCycle(ctx context.Context) error {
	r.count.Add(1)
	return nil
}

func TestSchedulerRunsCyclesAtCadence(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 5*time.Millisecond, 2, 2, logger.NewLogger("scheduler-test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return runner.count.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestSchedulerBackpressure(t *testing.T) {
	runner := newBlockingRunner()
	// Two workers, minimal queue, fast cadence: with both workers
	// blocked the producer must stall instead of starting more cycles.
	s := New(runner, 5*time.Millisecond, 2, 1, logger.NewLogger("scheduler-test"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Both workers pick up a cycle.
	require.Eventually(t, func() bool {
		return runner.started() == 2
	}, 2*time.Second, time.Millisecond)

	// Plenty of ticks pass, but no third cycle starts while both
	// workers are still blocked.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, runner.started())

	// Releasing the in-flight cycles lets the queued one start.
	close(runner.release)
	require.Eventually(t, func() bool {
		return runner.started() >= 3
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestSchedulerDiscardsQueuedCyclesOnShutdown(t *testing.T) {
	runner := newBlockingRunner()
	s := New(runner, time.Millisecond, 1, 2, logger.NewLogger("scheduler-test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return runner.started() == 1
	}, 2*time.Second, time.Millisecond)

	// Let the queue fill behind the blocked worker, then cancel. The
	// queued cycles must be discarded, not started.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, 1, runner.started())
}
