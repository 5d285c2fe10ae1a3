package mapping

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"anonymizer/internal/anonymize"
)

// RedisStore keeps the mapping in a single Redis hash (original → token).
type RedisStore struct {
	client *redis.Client
	key    string
	addr   string
}

// OpenRedis connects to the server described by url and verifies it with PING.
func OpenRedis(url, key string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(client, key, opt.Addr), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key, addr string) *RedisStore {
	return &RedisStore{client: client, key: key, addr: addr}
}

// Location returns the server address and hash key.
func (s *RedisStore) Location() string {
	return fmt.Sprintf("redis:%s/%s", s.addr, s.key)
}

// Load reads the whole hash.
func (s *RedisStore) Load(ctx context.Context) (anonymize.Mapping, error) {
	forward, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return anonymize.Mapping{}, fmt.Errorf("redis hgetall: %w", err)
	}
	return anonymize.NewMapping(forward), nil
}

// Save writes all pairs with HSET in one pipeline.
func (s *RedisStore) Save(ctx context.Context, forward map[string]string) error {
	if len(forward) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(forward)*2)
	for _, original := range sortedOriginals(forward) {
		values = append(values, original, forward[original])
	}
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Reset deletes the hash.
func (s *RedisStore) Reset(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
