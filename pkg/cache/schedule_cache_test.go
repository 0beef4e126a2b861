package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/examscheduling/pkg/model"
)

type memoryClient struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newMemoryClient() *memoryClient {
	return &memoryClient{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryClient) Get(_ context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	value, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *memoryClient) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.values[key] = string(value.([]byte))
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestScheduleCacheRoundTrip(t *testing.T) {
	client := newMemoryClient()
	cache := NewScheduleCache(client, time.Minute)
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	entry := Entry{
		RunID: "run-1",
		Nodes: 4,
		Timetable: []model.ExamSession{
			{Id: "group_0001", Class: "C1", Room: "R1", Slot: model.Interval{Start: start, End: start.Add(time.Hour)}, Students: []string{"s1"}},
		},
	}

	_, found, err := cache.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(context.Background(), "abc", entry))
	cached, found, err := cache.Get(context.Background(), "abc")

	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "run-1", cached.RunID)
	assert.Equal(t, entry.Timetable[0].Students, cached.Timetable[0].Students)
	assert.True(t, cached.Timetable[0].Slot.End.Equal(entry.Timetable[0].Slot.End))
	assert.Equal(t, time.Minute, client.ttls[keyPrefix+"abc"])
}

func TestScheduleCacheErrors(t *testing.T) {
	client := newMemoryClient()
	client.err = errors.New("connection refused")
	cache := NewScheduleCache(client, time.Minute)

	_, found, err := cache.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, cache.Set(context.Background(), "abc", Entry{}))

	client.err = nil
	client.values[keyPrefix+"broken"] = "{not json"
	_, _, err = cache.Get(context.Background(), "broken")
	assert.Error(t, err)
}
