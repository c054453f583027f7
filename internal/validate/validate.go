// Package validate classifies raw worker responses as usable or not
// before any scoring happens. Classification is pure: the same inputs
// always produce the same partition and nothing else is touched.
package validate

import (
	"github.com/condenses/validator/internal/protocol"
	"github.com/condenses/validator/internal/scoring"
)

// Reason explains why a response was rejected.
type Reason string

const (
	// ReasonNoResponse marks workers that never answered.
	ReasonNoResponse Reason = "no_response"
	// ReasonNotSuccessful marks workers that answered with a failure flag.
	ReasonNotSuccessful Reason = "not_successful"
	// ReasonVerificationFailed marks responses that failed structural
	// verification: empty compressed text or a compressed/reference token
	// ratio above the configured maximum.
	ReasonVerificationFailed Reason = "verification_failed"
)

// Valid is a worker whose response passed every check.
type Valid struct {
	WorkerID protocol.WorkerID
	Response *protocol.WorkerResponse
}

// Invalid is a worker whose response was rejected. Response is nil when
// the rejection reason is ReasonNoResponse.
type Invalid struct {
	WorkerID protocol.WorkerID
	Response *protocol.WorkerResponse
	Reason   Reason
}

// Result partitions one cycle's worker set. Every input worker id lands
// in exactly one of the two slices, preserving input order within each.
type Result struct {
	Valid   []Valid
	Invalid []Invalid
}

// ValidIDs returns the ids of all valid workers in partition order.
func (r Result) ValidIDs() []protocol.WorkerID {
	ids := make([]protocol.WorkerID, len(r.Valid))
	for i, v := range r.Valid {
		ids[i] = v.WorkerID
	}
	return ids
}

// InvalidIDs returns the ids of all invalid workers in partition order.
func (r Result) InvalidIDs() []protocol.WorkerID {
	ids := make([]protocol.WorkerID, len(r.Invalid))
	for i, inv := range r.Invalid {
		ids[i] = inv.WorkerID
	}
	return ids
}

// Validator checks worker responses against the reference task.
type Validator struct {
	maxCompressRate float64
}

// New creates a validator. maxCompressRate caps the allowed ratio of
// candidate tokens to reference tokens; above it the response fails
// verification.
func New(maxCompressRate float64) *Validator {
	return &Validator{maxCompressRate: maxCompressRate}
}

// Partition classifies responses against the reference task. ids and
// responses are parallel slices; a nil response entry means the worker
// never answered. Checks run in order: missing response, failure flag,
// structural verification.
func (v *Validator) Partition(ids []protocol.WorkerID, responses []*protocol.WorkerResponse, task protocol.Task) Result {
	result := Result{}
	refTokens := scoring.TokenCount(task.Text)

	for i, id := range ids {
		var response *protocol.WorkerResponse
		if i < len(responses) {
			response = responses[i]
		}

		switch {
		case response == nil:
			result.Invalid = append(result.Invalid, Invalid{WorkerID: id, Reason: ReasonNoResponse})
		case !response.Succeeded:
			result.Invalid = append(result.Invalid, Invalid{WorkerID: id, Response: response, Reason: ReasonNotSuccessful})
		case !v.verify(response, refTokens):
			result.Invalid = append(result.Invalid, Invalid{WorkerID: id, Response: response, Reason: ReasonVerificationFailed})
		default:
			result.Valid = append(result.Valid, Valid{WorkerID: id, Response: response})
		}
	}
	return result
}

// verify performs the structural checks on a successful response. The
// token ratio uses the same tokenizer as the reference measurement so
// the two counts are comparable.
func (v *Validator) verify(response *protocol.WorkerResponse, refTokens int) bool {
	if response.CompressedText == "" {
		return false
	}
	if refTokens == 0 {
		return false
	}
	ratio := float64(scoring.TokenCount(response.CompressedText)) / float64(refTokens)
	return ratio <= v.maxCompressRate
}
