package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/expressflow/pkg/api"
)

// RedisEventStore is an EventStore backed by Redis lists.
// Key structure:
//
//	<prefix>exec:<id>:events  => LIST of JSON-encoded api.TransitionEvent
//
// When ttl is positive every append refreshes the key's expiry, so a
// finished execution's log disappears ttl after its last transition.
type RedisEventStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ EventStore = (*RedisEventStore)(nil)

// NewRedisEventStore creates a RedisEventStore.
// prefix is optional but recommended (e.g. "expressflow:").
func NewRedisEventStore(client *redis.Client, prefix string, ttl time.Duration) *RedisEventStore {
	if prefix == "" {
		prefix = "expressflow:"
	}
	return &RedisEventStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisEventStore) keyEvents(executionID string) string {
	return s.prefix + "exec:" + executionID + ":events"
}

func (s *RedisEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode transition event: %w", err)
	}

	key := s.keyEvents(ev.ExecutionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisEventStore) ListEvents(ctx context.Context, executionID string) ([]api.TransitionEvent, error) {
	raw, err := s.client.LRange(ctx, s.keyEvents(executionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	out := make([]api.TransitionEvent, 0, len(raw))
	for _, item := range raw {
		var ev api.TransitionEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("decode transition event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}
