package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condenses/validator/internal/protocol"
)

var refTask = protocol.Task{
	Text: "the quick brown fox jumps over the lazy sleeping dog",
}

func TestPartitionClassification(t *testing.T) {
	v := New(0.8)

	ids := []protocol.WorkerID{1, 2, 3}
	responses := []*protocol.WorkerResponse{
		nil,
		{WorkerID: 2, Succeeded: true, CompressedText: "quick fox jumps dog"},
		{WorkerID: 3, Succeeded: true, CompressedText: ""},
	}

	result := v.Partition(ids, responses, refTask)

	require.Len(t, result.Valid, 1)
	assert.Equal(t, protocol.WorkerID(2), result.Valid[0].WorkerID)

	require.Len(t, result.Invalid, 2)
	assert.Equal(t, protocol.WorkerID(1), result.Invalid[0].WorkerID)
	assert.Equal(t, ReasonNoResponse, result.Invalid[0].Reason)
	assert.Nil(t, result.Invalid[0].Response)
	assert.Equal(t, protocol.WorkerID(3), result.Invalid[1].WorkerID)
	assert.Equal(t, ReasonVerificationFailed, result.Invalid[1].Reason)
}

func TestPartitionNotSuccessful(t *testing.T) {
	v := New(0.8)

	result := v.Partition(
		[]protocol.WorkerID{7},
		[]*protocol.WorkerResponse{{WorkerID: 7, Succeeded: false, CompressedText: "fine text"}},
		refTask,
	)

	require.Len(t, result.Invalid, 1)
	assert.Equal(t, ReasonNotSuccessful, result.Invalid[0].Reason)
	assert.Empty(t, result.Valid)
}

func TestPartitionCompressRateTooHigh(t *testing.T) {
	v := New(0.5)

	// Candidate has as many tokens as the reference: ratio 1.0 > 0.5.
	result := v.Partition(
		[]protocol.WorkerID{4},
		[]*protocol.WorkerResponse{{WorkerID: 4, Succeeded: true, CompressedText: refTask.Text}},
		refTask,
	)

	require.Len(t, result.Invalid, 1)
	assert.Equal(t, ReasonVerificationFailed, result.Invalid[0].Reason)
}

func TestPartitionCoversEveryWorkerExactlyOnce(t *testing.T) {
	v := New(0.8)

	ids := []protocol.WorkerID{10, 11, 12, 13, 14}
	responses := []*protocol.WorkerResponse{
		{WorkerID: 10, Succeeded: true, CompressedText: "quick fox"},
		nil,
		{WorkerID: 12, Succeeded: false},
		{WorkerID: 13, Succeeded: true, CompressedText: "lazy dog sleeping"},
		{WorkerID: 14, Succeeded: true, CompressedText: ""},
	}

	result := v.Partition(ids, responses, refTask)

	seen := map[protocol.WorkerID]int{}
	for _, id := range result.ValidIDs() {
		seen[id]++
	}
	for _, id := range result.InvalidIDs() {
		seen[id]++
	}

	require.Len(t, seen, len(ids))
	for _, id := range ids {
		assert.Equal(t, 1, seen[id], "worker %d must appear in exactly one partition", id)
	}
}

func TestPartitionMissingResponsesTreatedAsAbsent(t *testing.T) {
	v := New(0.8)

	// Shorter response slice than id slice: trailing workers count as
	// non-responders rather than panicking.
	result := v.Partition([]protocol.WorkerID{1, 2}, []*protocol.WorkerResponse{nil}, refTask)

	require.Len(t, result.Invalid, 2)
	for _, inv := range result.Invalid {
		assert.Equal(t, ReasonNoResponse, inv.Reason)
	}
}

func TestPartitionEmptyReferenceFailsVerification(t *testing.T) {
	v := New(0.8)

	result := v.Partition(
		[]protocol.WorkerID{5},
		[]*protocol.WorkerResponse{{WorkerID: 5, Succeeded: true, CompressedText: "something"}},
		protocol.Task{Text: ""},
	)

	require.Len(t, result.Invalid, 1)
	assert.Equal(t, ReasonVerificationFailed, result.Invalid[0].Reason)
}
