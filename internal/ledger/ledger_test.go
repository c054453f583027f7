package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condenses/validator/internal/protocol"
)

const testInterval = 2 * time.Minute

func setupLedger(t *testing.T) (*Ledger, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, testInterval), srv
}

func TestCountersMissingKeysAreZero(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	counters, err := l.Counters(ctx, []protocol.WorkerID{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, map[protocol.WorkerID]int{1: 0, 2: 0, 3: 0}, counters)
}

func TestCountersEmptyInput(t *testing.T) {
	l, _ := setupLedger(t)

	counters, err := l.Counters(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counters)
}

func TestRecordScoredIncrementsByOne(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{42}))

	counters, err := l.Counters(ctx, []protocol.WorkerID{42})
	require.NoError(t, err)
	assert.Equal(t, 1, counters[42])

	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{42}))

	counters, err = l.Counters(ctx, []protocol.WorkerID{42})
	require.NoError(t, err)
	assert.Equal(t, 2, counters[42])
}

func TestRecordScoredSetsTTLToInterval(t *testing.T) {
	l, srv := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{7}))
	assert.Equal(t, testInterval, srv.TTL("scored:7"))
}

func TestRecordScoredResetsTTLOnEveryIncrement(t *testing.T) {
	l, srv := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{7}))
	srv.FastForward(testInterval / 2)
	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{7}))

	// Second increment restores the full interval: a continuously-scored
	// worker's window never lapses.
	assert.Equal(t, testInterval, srv.TTL("scored:7"))
}

func TestCountersExpireAfterInterval(t *testing.T) {
	l, srv := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{9}))
	srv.FastForward(testInterval + time.Second)

	counters, err := l.Counters(ctx, []protocol.WorkerID{9})
	require.NoError(t, err)
	assert.Equal(t, 0, counters[9])
}

func TestRecordScoredBatch(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{1, 2, 3}))
	counters, err := l.Counters(ctx, []protocol.WorkerID{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, map[protocol.WorkerID]int{1: 1, 2: 1, 3: 1, 4: 0}, counters)
}

func TestReset(t *testing.T) {
	l, srv := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordScored(ctx, []protocol.WorkerID{1, 2}))
	require.NoError(t, l.AppendLog(ctx, "cycle-1", "started"))
	require.NoError(t, l.Reset(ctx))

	counters, err := l.Counters(ctx, []protocol.WorkerID{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[protocol.WorkerID]int{1: 0, 2: 0}, counters)

	assert.False(t, srv.Exists("log:cycle-1"))
}

func TestCycleLogsRoundTrip(t *testing.T) {
	l, _ := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.AppendLog(ctx, "abc", "stage one"))
	require.NoError(t, l.AppendLog(ctx, "abc", "stage two"))

	messages, err := l.CycleLogs(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "stage one")
	assert.Contains(t, messages[1], "stage two")

	ids, err := l.RecentCycleIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, ids)
}

func TestCycleLogsMissingCycle(t *testing.T) {
	l, _ := setupLedger(t)

	messages, err := l.CycleLogs(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
