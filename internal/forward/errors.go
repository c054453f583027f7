package forward

import (
	"errors"
	"fmt"
)

// Stage names the pipeline stages of one forward cycle, in execution
// order. A cycle moves strictly forward through them; any stage can
// terminate the cycle with a StageError instead.
type Stage string

// StageValidate and StageReport never produce a StageError: validation
// is a pure partition and report delivery is best effort. They are
// declared so the enum names every pipeline stage for metric labels.
const (
	StageAdmission Stage = "admission"
	StageTask      Stage = "task"
	StageResolve   Stage = "resolve"
	StageDispatch  Stage = "dispatch"
	StageValidate  Stage = "validate"
	StageScore     Stage = "score"
	StageReport    Stage = "report"
	StageStats     Stage = "stats"
)

// ErrNoWorkers is returned when the admission service grants an empty
// worker set; there is nothing for the cycle to do.
var ErrNoWorkers = errors.New("no workers granted")

// StageError records which stage aborted a cycle. It terminates only
// that cycle; sibling cycles and the scheduler are unaffected.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
