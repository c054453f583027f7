// Package ledger tracks how many times each worker was scored inside
// the rolling scoring interval. The counters live in Redis so they
// survive restarts and stay consistent across overlapping cycles; all
// mutation goes through a single atomic INCR+EXPIRE pipeline.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/condenses/validator/internal/protocol"
)

const scoredKeyPrefix = "scored:"

// Ledger is the rate-limiting counter store gating the expensive
// scoring step.
type Ledger struct {
	client   *redis.Client
	interval time.Duration
}

// Config holds Redis connection settings for the ledger.
type Config struct {
	Address  string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// New creates a ledger over an existing Redis client. interval is the
// scoring window: every increment resets the counter's TTL to it.
func New(client *redis.Client, interval time.Duration) *Ledger {
	return &Ledger{client: client, interval: interval}
}

// Counters reads the current scoring count for each worker in one
// batched MGET. Workers without a live counter map to 0.
func (l *Ledger) Counters(ctx context.Context, ids []protocol.WorkerID) (map[protocol.WorkerID]int, error) {
	counters := make(map[protocol.WorkerID]int, len(ids))
	if len(ids) == 0 {
		return counters, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = scoredKey(id)
	}

	vals, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger read error: %w", err)
	}

	for i, val := range vals {
		if val == nil {
			counters[ids[i]] = 0
			continue
		}
		str, ok := val.(string)
		if !ok {
			counters[ids[i]] = 0
			continue
		}
		count, err := strconv.Atoi(str)
		if err != nil {
			return nil, fmt.Errorf("ledger counter %s is not an integer: %w", keys[i], err)
		}
		counters[ids[i]] = count
	}
	return counters, nil
}

// RecordScored charges one scoring event to each worker: INCR plus an
// EXPIRE back to the full interval, batched in one pipeline. Only
// workers that were actually sent to the oracle may be passed here.
//
// The TTL reset on every increment means a continuously-scored worker's
// window never lapses; the cap behaves as a hard per-interval limit.
func (l *Ledger) RecordScored(ctx context.Context, ids []protocol.WorkerID) error {
	if len(ids) == 0 {
		return nil
	}

	pipe := l.client.TxPipeline()
	for _, id := range ids {
		key := scoredKey(id)
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.interval)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ledger update error: %w", err)
	}
	return nil
}

// Reset deletes all scoring counters and cycle logs. Called once at
// startup when the node is configured to start from a clean window.
func (l *Ledger) Reset(ctx context.Context) error {
	for _, pattern := range []string{scoredKeyPrefix + "*", logKeyPrefix + "*"} {
		iter := l.client.Scan(ctx, 0, pattern, 0).Iterator()

		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("ledger scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := l.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("ledger reset error: %w", err)
			}
		}
	}
	return nil
}

// Close releases the underlying Redis connection.
func (l *Ledger) Close() error {
	return l.client.Close()
}

func scoredKey(id protocol.WorkerID) string {
	return fmt.Sprintf("%s%d", scoredKeyPrefix, id)
}
