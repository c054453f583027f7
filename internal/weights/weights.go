// Package weights runs the periodic weight-reporting loop. It is fully
// decoupled from forward cycles: each tick pulls an aggregated snapshot
// and submits it, and a failed tick never stops the next one.
package weights

import (
	"context"
	"time"

	"github.com/condenses/validator/internal/metrics"
	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/pkg/logger"
)

// Source provides the aggregated (worker, weight) snapshot.
type Source interface {
	WeightSnapshot(ctx context.Context) ([]protocol.WorkerID, []float64, error)
}

// Submitter pushes a snapshot to the network ledger.
type Submitter interface {
	SubmitWeights(ctx context.Context, ids []protocol.WorkerID, weights []float64, networkID, version int) (bool, string, error)
}

// Aggregator periodically submits aggregated weights.
type Aggregator struct {
	source    Source
	submitter Submitter
	interval  time.Duration
	networkID int
	version   int
	log       *logger.Logger
}

// New creates a weight aggregator.
func New(source Source, submitter Submitter, interval time.Duration, networkID, version int, log *logger.Logger) *Aggregator {
	return &Aggregator{
		source:    source,
		submitter: submitter,
		interval:  interval,
		networkID: networkID,
		version:   version,
		log:       log,
	}
}

// Run loops until ctx is cancelled. Every error is contained to its
// tick.
func (a *Aggregator) Run(ctx context.Context) {
	a.log.Info("weight aggregator started", "interval", a.interval)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("weight aggregator stopped")
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Aggregator) tick(ctx context.Context) {
	ids, values, err := a.source.WeightSnapshot(ctx)
	if err != nil {
		metrics.WeightSubmissions.WithLabelValues("snapshot_error").Inc()
		a.log.Error("weight snapshot failed", "error", err)
		return
	}
	if len(ids) == 0 {
		a.log.Warn("weight snapshot empty, skipping submission")
		return
	}

	ok, message, err := a.submitter.SubmitWeights(ctx, ids, values, a.networkID, a.version)
	if err != nil {
		metrics.WeightSubmissions.WithLabelValues("error").Inc()
		a.log.Error("weight submission failed", "error", err)
		return
	}
	if !ok {
		metrics.WeightSubmissions.WithLabelValues("rejected").Inc()
		a.log.Error("weight submission rejected", "message", message)
		return
	}

	metrics.WeightSubmissions.WithLabelValues("ok").Inc()
	a.log.Info("weights submitted", "workers", len(ids), "message", message)
}
