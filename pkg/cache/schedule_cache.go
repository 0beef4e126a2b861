package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/limaJavier/examscheduling/pkg/model"
)

const keyPrefix = "examscheduling:schedule:"

// Client is the subset of the redis client used by ScheduleCache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Entry is a cached scheduling result keyed by input fingerprint. The scheduler is deterministic, so an entry
// stays valid for as long as the input doesn't change
type Entry struct {
	RunID      string              `json:"run_id"`
	Nodes      uint64              `json:"nodes"`
	Backtracks uint64              `json:"backtracks"`
	Timetable  []model.ExamSession `json:"timetable"`
}

type ScheduleCache struct {
	client Client
	ttl    time.Duration
}

func NewScheduleCache(client Client, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{client: client, ttl: ttl}
}

// Get returns the cached entry for the fingerprint and whether it was found.
func (c *ScheduleCache) Get(ctx context.Context, fingerprint string) (*Entry, bool, error) {
	payload, err := c.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("get cached schedule: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cached schedule: %w", err)
	}
	return &entry, true, nil
}

func (c *ScheduleCache) Set(ctx context.Context, fingerprint string, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cached schedule: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+fingerprint, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached schedule: %w", err)
	}
	return nil
}
