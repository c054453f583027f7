// Package scheduler drives the validator's cycle cadence: a producer
// enqueues a new forward cycle at a fixed interval and a bounded worker
// pool drains the queue. The queue is the system's backpressure: when
// every worker is busy and the queue is full, the producer blocks
// instead of piling up work.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/condenses/validator/internal/metrics"
	"github.com/condenses/validator/pkg/logger"
)

// CycleRunner executes one complete forward cycle. Errors are already
// handled per cycle; the scheduler never retries.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler owns the cycle gate: a fixed worker pool consuming a FIFO
// queue of pending cycles. The narrower scoring gate lives inside the
// runner, held only around the oracle call.
type Scheduler struct {
	runner    CycleRunner
	interval  time.Duration
	workers   int
	queueSize int
	log       *logger.Logger
}

// New creates a scheduler with the given cadence and pool limits.
func New(runner CycleRunner, interval time.Duration, workers, queueSize int, log *logger.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		interval:  interval,
		workers:   workers,
		queueSize: queueSize,
		log:       log,
	}
}

// Run blocks until ctx is cancelled, then drains: the producer stops
// enqueuing, queued-but-unstarted cycles are discarded, and in-flight
// cycles run to completion.
func (s *Scheduler) Run(ctx context.Context) {
	queue := make(chan time.Time, s.queueSize)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx, queue)
		}()
	}

	s.log.Info("scheduler started", "workers", s.workers, "queue_size", s.queueSize, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

produce:
	for {
		select {
		case <-ctx.Done():
			break produce
		case <-ticker.C:
			// Blocking send: a full queue stalls the producer until a
			// worker frees up.
			select {
			case queue <- time.Now():
				metrics.QueueDepth.Inc()
			case <-ctx.Done():
				break produce
			}
		}
	}

	close(queue)
	wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) work(ctx context.Context, queue <-chan time.Time) {
	for enqueuedAt := range queue {
		metrics.QueueDepth.Dec()
		if ctx.Err() != nil {
			// Shutting down: discard queued cycles without running them.
			continue
		}
		s.log.Debug("cycle dequeued", "waited", time.Since(enqueuedAt))
		// The runner handles and logs its own failures; a failed cycle
		// must not affect siblings.
		_ = s.runner.RunCycle(ctx)
	}
}
