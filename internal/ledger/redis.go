package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "algosvc:batch"
	recentRuns = 100
)

// Redis stores run and file records in Redis with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis ledger connected to the specified address.
// If addr is empty, defaults to localhost:6379
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func runKey(runID string) string   { return fmt.Sprintf("%s:run:%s", keyPrefix, runID) }
func filesKey(runID string) string { return fmt.Sprintf("%s:run:%s:files", keyPrefix, runID) }
func recentKey() string            { return keyPrefix + ":runs" }

// RecordFile appends a file record to the run's file list
func (r *Redis) RecordFile(ctx context.Context, rec FileRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal file record: %w", err)
	}

	key := filesKey(rec.RunID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record file %s for run %s: %w", rec.File, rec.RunID, err)
	}
	return nil
}

// RecordRun stores the run summary and pushes the run id on the recent-runs list
func (r *Redis) RecordRun(ctx context.Context, rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKey(rec.RunID), data, r.ttl)
		pipe.LPush(ctx, recentKey(), rec.RunID)
		pipe.LTrim(ctx, recentKey(), 0, recentRuns-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", rec.RunID, err)
	}
	return nil
}

// Run retrieves a run summary
func (r *Redis) Run(ctx context.Context, runID string) (RunRecord, error) {
	data, err := r.client.Get(ctx, runKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return RunRecord{}, ErrRunNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to get run %s: %w", runID, err)
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, fmt.Errorf("corrupt run record %s: %w", runID, err)
	}
	return rec, nil
}

// Files retrieves the file records of a run in processing order
func (r *Redis) Files(ctx context.Context, runID string) ([]FileRecord, error) {
	items, err := r.client.LRange(ctx, filesKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list files for run %s: %w", runID, err)
	}

	recs := make([]FileRecord, 0, len(items))
	for _, item := range items {
		var rec FileRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("corrupt file record in run %s: %w", runID, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Recent returns the most recent run ids, newest first
func (r *Redis) Recent(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 || n > recentRuns {
		n = recentRuns
	}
	ids, err := r.client.LRange(ctx, recentKey(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}
	return ids, nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
