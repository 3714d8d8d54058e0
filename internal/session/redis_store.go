package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis under "session:<token>" with a
// store-enforced TTL. Expiry is Redis's job: an expired key simply stops
// existing, and Get reports it as absent.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(token string) string {
	return keyPrefix + token
}

func (s *RedisStore) Create(ctx context.Context, token string, payload Payload, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal session payload: %w", err)
	}
	return s.client.Set(ctx, s.key(token), data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (Payload, error) {
	val, err := s.client.Get(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal([]byte(val), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal session payload: %w", err)
	}
	return payload, nil
}

func (s *RedisStore) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	// Read-then-rewrite; concurrent extends race harmlessly, last TTL
	// reset wins.
	val, err := s.client.Get(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.client.Set(ctx, s.key(token), val, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}
