package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const logKeyPrefix = "log:"

// logTTL bounds how long per-cycle diagnostic logs stay readable. These
// logs are peripheral; losing them never affects correctness.
const logTTL = 10 * time.Minute

// AppendLog appends a time-ordered diagnostic message under the cycle's
// correlation id and refreshes the key's TTL.
func (l *Ledger) AppendLog(ctx context.Context, cycleID, message string) error {
	key := logKeyPrefix + cycleID

	pipe := l.client.TxPipeline()
	pipe.RPush(ctx, key, fmt.Sprintf("%s %s", time.Now().UTC().Format(time.RFC3339), message))
	pipe.Expire(ctx, key, logTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cycle log append error: %w", err)
	}
	return nil
}

// CycleLogs returns all diagnostic messages recorded for one cycle, in
// append order. A missing cycle yields an empty slice.
func (l *Ledger) CycleLogs(ctx context.Context, cycleID string) ([]string, error) {
	messages, err := l.client.LRange(ctx, logKeyPrefix+cycleID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cycle log read error: %w", err)
	}
	return messages, nil
}

// RecentCycleIDs lists correlation ids that still have live diagnostic
// logs. Ordering is unspecified; callers sort as needed.
func (l *Ledger) RecentCycleIDs(ctx context.Context) ([]string, error) {
	iter := l.client.Scan(ctx, 0, logKeyPrefix+"*", 0).Iterator()

	var ids []string
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), logKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("cycle log scan error: %w", err)
	}
	return ids, nil
}
