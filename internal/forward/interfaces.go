package forward

import (
	"context"

	"github.com/condenses/validator/internal/protocol"
)

// Admission grants worker ids for a cycle and receives per-worker score
// updates once the cycle completes.
type Admission interface {
	GrantWorkers(ctx context.Context, count int, topFraction, acceptableConsumedRate float64) ([]protocol.WorkerID, error)
	ReportStat(ctx context.Context, id protocol.WorkerID, score float64) error
}

// TaskProvider supplies one synthetic compression task per cycle.
type TaskProvider interface {
	NextTask(ctx context.Context) (protocol.Task, error)
}

// Resolver maps worker ids to transport endpoints. The returned set may
// be a subset of the requested ids; unresolvable workers are dropped.
type Resolver interface {
	ResolveEndpoints(ctx context.Context, ids []protocol.WorkerID) ([]protocol.Endpoint, error)
}

// Transport dispatches one task to many endpoints concurrently. The
// returned slice is parallel to endpoints; a nil entry means that
// endpoint produced no response in time. Individual endpoint failures
// are data, not errors.
type Transport interface {
	Dispatch(ctx context.Context, endpoints []protocol.Endpoint, task protocol.Task) ([]*protocol.WorkerResponse, error)
}

// Oracle scores a batch of compressed candidates against the reference
// text. This is the expensive call the scoring gate protects.
type Oracle interface {
	ScoreBatch(ctx context.Context, reference string, candidates []string) ([]float64, error)
}

// Sink receives the structured scoring-batch record for one cycle.
// Delivery is best effort; failures are logged and never abort a cycle.
type Sink interface {
	Report(ctx context.Context, report BatchReport) error
}

// Ledger gates the scoring step and stores per-cycle diagnostic logs.
type Ledger interface {
	Counters(ctx context.Context, ids []protocol.WorkerID) (map[protocol.WorkerID]int, error)
	RecordScored(ctx context.Context, ids []protocol.WorkerID) error
	AppendLog(ctx context.Context, cycleID, message string) error
}
