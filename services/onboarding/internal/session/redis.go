package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "linkwise:session:"

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps session keys in Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(sid, key string) string {
	return keyPrefix + sid + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, sid, key string) (string, error) {
	v, err := s.client.Get(ctx, redisKey(sid, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMissing
	}
	if err != nil {
		return "", fmt.Errorf("get session key %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKey(sid, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("set session key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sid, key string) error {
	if err := s.client.Del(ctx, redisKey(sid, key)).Err(); err != nil {
		return fmt.Errorf("delete session key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) CompareAndDelete(ctx context.Context, sid, key, expected string) (bool, error) {
	n, err := compareAndDelete.Run(ctx, s.client, []string{redisKey(sid, key)}, expected).Int()
	if err != nil {
		return false, fmt.Errorf("compare-and-delete session key %s: %w", key, err)
	}
	return n == 1, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
