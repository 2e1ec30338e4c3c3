package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shopnotify/backend/internal/domain/device"
)

// RedisStore keeps the registry as a JSON array under a single key
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore uses a caller-owned client
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load implements device.Store
func (s *RedisStore) Load(ctx context.Context) ([]device.Token, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []device.Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeTokens(data)
}

// Save implements device.Store
func (s *RedisStore) Save(ctx context.Context, tokens []device.Token) error {
	data, err := encodeTokens(tokens)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Close is a no-op; the client is shared
func (s *RedisStore) Close() error { return nil }

var _ device.Store = (*RedisStore)(nil)
