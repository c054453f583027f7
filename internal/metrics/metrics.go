// Package metrics defines the validator's Prometheus metrics and the
// HTTP server exposing them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts finished forward cycles by outcome. Aborted
	// cycles also carry the stage that failed.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validator_cycles_total",
			Help: "Total number of forward cycles by outcome",
		},
		[]string{"outcome", "stage"},
	)

	// CycleDuration observes full forward cycle duration.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "validator_cycle_duration_seconds",
			Help:    "Forward cycle duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// StageDuration observes per-stage duration inside a cycle.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validator_stage_duration_seconds",
			Help:    "Forward cycle stage duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 180},
		},
		[]string{"stage"},
	)

	// QueueDepth tracks pending cycles waiting for a worker.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "validator_queue_depth",
			Help: "Number of forward cycles waiting in the scheduler queue",
		},
	)

	// WorkersValidated counts validated workers by partition.
	WorkersValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validator_workers_validated_total",
			Help: "Total number of validated workers by result",
		},
		[]string{"result"},
	)

	// WorkersScored counts workers actually sent to the scoring oracle.
	WorkersScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "validator_workers_scored_total",
			Help: "Total number of workers scored by the oracle",
		},
	)

	// WeightSubmissions counts weight submission attempts by status.
	WeightSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validator_weight_submissions_total",
			Help: "Total number of weight submission attempts by status",
		},
		[]string{"status"},
	)
)
