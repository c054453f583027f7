// Package forward implements the per-cycle job-dispatch pipeline: admit
// workers, fetch a task, dispatch it, validate the responses, score the
// eligible subset, and report the results. Each stage either produces
// its payload or aborts the cycle with a StageError; failures never
// leak past the cycle they belong to.
package forward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/condenses/validator/internal/metrics"
	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/internal/scoring"
	"github.com/condenses/validator/internal/validate"
	"github.com/condenses/validator/pkg/logger"
)

// Options holds the per-cycle pipeline settings.
type Options struct {
	BatchSize              int
	TopFraction            float64
	AcceptableConsumedRate float64
	AdmissionTimeout       time.Duration
	TaskTimeout            time.Duration
	DispatchTimeout        time.Duration
	ScoringTimeout         time.Duration
	MaxScoringCount        int
}

// Runner executes forward cycles. One Runner is shared by all scheduler
// workers; it holds no per-cycle state.
type Runner struct {
	opts      Options
	admission Admission
	tasks     TaskProvider
	resolver  Resolver
	transport Transport
	oracle    Oracle
	sink      Sink
	ledger    Ledger
	validator *validate.Validator

	// scoringGate bounds concurrent oracle calls. It is held only
	// around the ScoreBatch call so waiting cycles do not block others
	// from progressing through the earlier stages.
	scoringGate *semaphore.Weighted

	log *logger.Logger
}

// NewRunner wires a cycle runner. maxConcurrentScoring must be narrower
// than or equal to the scheduler's worker pool.
func NewRunner(
	opts Options,
	admission Admission,
	tasks TaskProvider,
	resolver Resolver,
	transport Transport,
	oracle Oracle,
	sink Sink,
	ledger Ledger,
	validator *validate.Validator,
	maxConcurrentScoring int,
	log *logger.Logger,
) *Runner {
	return &Runner{
		opts:        opts,
		admission:   admission,
		tasks:       tasks,
		resolver:    resolver,
		transport:   transport,
		oracle:      oracle,
		sink:        sink,
		ledger:      ledger,
		validator:   validator,
		scoringGate: semaphore.NewWeighted(int64(maxConcurrentScoring)),
		log:         log,
	}
}

// RunCycle executes one complete forward cycle under a fresh
// correlation id. The returned error is always a *StageError (or nil);
// callers log it and move on, they never retry the cycle.
func (r *Runner) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	log := r.log.With("cycle_id", cycleID)
	start := time.Now()

	err := r.run(ctx, cycleID, log)
	metrics.CycleDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		stage := Stage("unknown")
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		metrics.CyclesTotal.WithLabelValues("aborted", string(stage)).Inc()
		log.Error("forward cycle aborted", "stage", string(stage), "error", err)
		r.diag(ctx, cycleID, fmt.Sprintf("aborted at %s: %v", stage, err))
		return err
	}

	metrics.CyclesTotal.WithLabelValues("completed", "").Inc()
	log.Info("forward cycle complete", "took", time.Since(start))
	return nil
}

func (r *Runner) run(ctx context.Context, cycleID string, log *logger.Logger) error {
	r.diag(ctx, cycleID, "cycle started")

	// Stage 1: admission.
	ids, err := r.admitWorkers(ctx)
	if err != nil {
		return stageErr(StageAdmission, err)
	}
	log.Info("workers granted", "count", len(ids))
	r.diag(ctx, cycleID, fmt.Sprintf("granted %d workers", len(ids)))

	// Stage 2: synthetic task.
	task, err := r.fetchTask(ctx)
	if err != nil {
		return stageErr(StageTask, err)
	}

	// Stage 3: endpoint resolution. Resolution may drop ids; from here
	// on the cycle works with the resolved subset only.
	endpoints, err := r.resolver.ResolveEndpoints(ctx, ids)
	if err != nil {
		return stageErr(StageResolve, err)
	}
	log.Info("endpoints resolved", "requested", len(ids), "resolved", len(endpoints))
	r.diag(ctx, cycleID, fmt.Sprintf("resolved %d/%d endpoints", len(endpoints), len(ids)))

	// Stage 4: concurrent dispatch. Non-responding endpoints come back
	// as nil responses, not as errors.
	responses, err := r.dispatch(ctx, endpoints, task)
	if err != nil {
		return stageErr(StageDispatch, err)
	}

	// Stage 5: validation.
	resolvedIDs := make([]protocol.WorkerID, len(endpoints))
	for i, ep := range endpoints {
		resolvedIDs[i] = ep.WorkerID
	}
	partition := r.validator.Partition(resolvedIDs, responses, task)
	metrics.WorkersValidated.WithLabelValues("valid").Add(float64(len(partition.Valid)))
	metrics.WorkersValidated.WithLabelValues("invalid").Add(float64(len(partition.Invalid)))
	log.Info("responses validated", "valid", len(partition.Valid), "invalid", len(partition.Invalid))
	r.diag(ctx, cycleID, fmt.Sprintf("validated: %d valid, %d invalid", len(partition.Valid), len(partition.Invalid)))

	// Stage 6: scoring.
	finalUIDs, finalScores, report, err := r.score(ctx, cycleID, task, partition)
	if err != nil {
		return stageErr(StageScore, err)
	}

	// Stage 7: best-effort batch report. Failure is logged, never fatal.
	report.CycleID = cycleID
	if err := r.sink.Report(ctx, report); err != nil {
		log.Warn("scoring batch report failed", "error", err)
		r.diag(ctx, cycleID, "batch report failed")
	}

	// Stage 8: propagate final scores for every worker, invalid and
	// valid alike.
	if err := r.reportStats(ctx, finalUIDs, finalScores); err != nil {
		return stageErr(StageStats, err)
	}
	r.diag(ctx, cycleID, fmt.Sprintf("reported %d scores", len(finalScores)))

	return nil
}

func (r *Runner) admitWorkers(ctx context.Context) ([]protocol.WorkerID, error) {
	start := time.Now()
	defer observeStage(StageAdmission, start)

	ctx, cancel := context.WithTimeout(ctx, r.opts.AdmissionTimeout)
	defer cancel()

	ids, err := r.admission.GrantWorkers(ctx, r.opts.BatchSize, r.opts.TopFraction, r.opts.AcceptableConsumedRate)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoWorkers
	}
	return ids, nil
}

func (r *Runner) fetchTask(ctx context.Context) (protocol.Task, error) {
	start := time.Now()
	defer observeStage(StageTask, start)

	ctx, cancel := context.WithTimeout(ctx, r.opts.TaskTimeout)
	defer cancel()

	return r.tasks.NextTask(ctx)
}

func (r *Runner) dispatch(ctx context.Context, endpoints []protocol.Endpoint, task protocol.Task) ([]*protocol.WorkerResponse, error) {
	start := time.Now()
	defer observeStage(StageDispatch, start)

	ctx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)
	defer cancel()

	return r.transport.Dispatch(ctx, endpoints, task)
}

// score intersects valid workers with ledger eligibility, calls the
// oracle once for the eligible subset, and assembles the final
// uid/score lists. Ineligible valid workers keep score 0; they stay in
// the valid partition. The returned ordering is invalid-then-valid, not
// input order.
func (r *Runner) score(ctx context.Context, cycleID string, task protocol.Task, partition validate.Result) ([]protocol.WorkerID, []float64, BatchReport, error) {
	start := time.Now()
	defer observeStage(StageScore, start)

	report := BatchReport{
		InvalidUIDs: partition.InvalidIDs(),
		ValidUIDs:   partition.ValidIDs(),
	}

	scores := make(map[protocol.WorkerID]float64, len(partition.Valid))
	for _, v := range partition.Valid {
		scores[v.WorkerID] = 0
	}

	if len(partition.Valid) > 0 {
		counters, err := r.ledger.Counters(ctx, partition.ValidIDs())
		if err != nil {
			return nil, nil, report, err
		}

		var toScore []validate.Valid
		for _, v := range partition.Valid {
			if counters[v.WorkerID] < r.opts.MaxScoringCount {
				toScore = append(toScore, v)
			}
		}

		if len(toScore) > 0 {
			if err := r.scoreEligible(ctx, task, toScore, scores, &report); err != nil {
				return nil, nil, report, err
			}
			r.diag(ctx, cycleID, fmt.Sprintf("scored %d workers", len(toScore)))
		} else {
			r.diag(ctx, cycleID, "no workers eligible for scoring")
		}
	}

	finalUIDs := make([]protocol.WorkerID, 0, len(partition.Invalid)+len(partition.Valid))
	finalScores := make([]float64, 0, cap(finalUIDs))
	for _, inv := range partition.Invalid {
		finalUIDs = append(finalUIDs, inv.WorkerID)
		finalScores = append(finalScores, 0)
	}
	for _, v := range partition.Valid {
		finalUIDs = append(finalUIDs, v.WorkerID)
		finalScores = append(finalScores, scores[v.WorkerID])
	}
	return finalUIDs, finalScores, report, nil
}

// scoreEligible runs the oracle batch call under the scoring gate and
// fills in ensemble scores for the scored workers. The ledger is
// charged for exactly the workers that went to the oracle.
func (r *Runner) scoreEligible(ctx context.Context, task protocol.Task, toScore []validate.Valid, scores map[protocol.WorkerID]float64, report *BatchReport) error {
	candidates := make([]string, len(toScore))
	scoredIDs := make([]protocol.WorkerID, len(toScore))
	for i, v := range toScore {
		candidates[i] = v.Response.CompressedText
		scoredIDs[i] = v.WorkerID
	}

	rawScores, err := r.scoreBatch(ctx, task.Text, candidates)
	if err != nil {
		return err
	}
	if len(rawScores) != len(candidates) {
		return fmt.Errorf("oracle returned %d scores for %d candidates", len(rawScores), len(candidates))
	}

	compressRates := scoring.CompressRates(task.Text, candidates)
	differentiate := scoring.DifferentiateScores(candidates)
	finalScores := scoring.EnsembleAll(rawScores, compressRates, differentiate)

	for i, id := range scoredIDs {
		scores[id] = finalScores[i]
	}

	if err := r.ledger.RecordScored(ctx, scoredIDs); err != nil {
		return err
	}
	metrics.WorkersScored.Add(float64(len(scoredIDs)))

	report.ScoredUIDs = scoredIDs
	report.CompressRates = compressRates
	report.Differentiate = differentiate
	report.RawScores = rawScores
	report.FinalScores = finalScores
	return nil
}

// scoreBatch holds the scoring gate for the duration of the oracle
// call only.
func (r *Runner) scoreBatch(ctx context.Context, reference string, candidates []string) ([]float64, error) {
	if err := r.scoringGate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("scoring gate: %w", err)
	}
	defer r.scoringGate.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.opts.ScoringTimeout)
	defer cancel()

	return r.oracle.ScoreBatch(ctx, reference, candidates)
}

// reportStats pushes every (worker, score) pair to the admission
// service concurrently.
func (r *Runner) reportStats(ctx context.Context, ids []protocol.WorkerID, scores []float64) error {
	start := time.Now()
	defer observeStage(StageStats, start)

	g, ctx := errgroup.WithContext(ctx)
	for i := range ids {
		id, score := ids[i], scores[i]
		g.Go(func() error {
			if err := r.admission.ReportStat(ctx, id, score); err != nil {
				return fmt.Errorf("worker %d: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// diag appends a best-effort diagnostic message to the cycle's TTL-bound
// log. Diagnostics never affect cycle outcome.
func (r *Runner) diag(ctx context.Context, cycleID, message string) {
	if err := r.ledger.AppendLog(ctx, cycleID, message); err != nil {
		r.log.Debug("cycle diagnostic log failed", "cycle_id", cycleID, "error", err)
	}
}

func observeStage(stage Stage, start time.Time) {
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}
