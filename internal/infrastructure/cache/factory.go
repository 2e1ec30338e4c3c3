package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopnotify/backend/internal/domain/shared"
	"github.com/shopnotify/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RedisConnector opens the shared Redis client on first use
type RedisConnector func(ctx context.Context) (*redis.Client, error)

// NewIdempotencyStore builds the webhook dedup store selected by cfg.
// It returns a nil store when dedup is disabled.
func NewIdempotencyStore(ctx context.Context, cfg config.IdempotencyConfig, connect RedisConnector, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		logger.Info("webhook dedup disabled")
		return nil, nil
	}

	if cfg.Backend != config.IdempotencyBackendRedis {
		logger.Info("using in-memory idempotency store")
		return NewMemoryIdempotencyStore(0), nil
	}

	client, err := connect(ctx)
	if err == nil {
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix), nil
	}

	if !cfg.AllowFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"Replicas will not share dedup state.",
		zap.Error(err),
	)
	return NewMemoryIdempotencyStore(0), nil
}
