package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

// RedisStore keeps one JSON document per client under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed store. A zero ttl never expires.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, clientID string) (*callconfig.CallSettings, error) {
	val, err := s.client.Get(ctx, s.key(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: redis get: %w", err)
	}

	var cs callconfig.CallSettings
	if err := json.Unmarshal(val, &cs); err != nil {
		return nil, fmt.Errorf("settings: decode %s: %w", s.key(clientID), err)
	}
	return &cs, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, clientID string, cs *callconfig.CallSettings) error {
	if cs == nil {
		return ErrNilSettings
	}
	val, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(clientID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("settings: redis set: %w", err)
	}
	return nil
}

// Close implements Store. The client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) key(clientID string) string {
	return s.prefix + keyFor(clientID)
}
