package tokenstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopnotify/backend/internal/domain/device"
	"github.com/shopnotify/backend/internal/infrastructure/cache"
	"github.com/shopnotify/backend/internal/infrastructure/config"
)

// Deps are the shared resources a backend may need
type Deps struct {
	Redis    cache.RedisConnector
	Logger   *zap.Logger
	LogLevel string
}

// New opens the backend selected by cfg.Backend
func New(ctx context.Context, cfg config.RegistryConfig, deps Deps) (device.Store, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Backend {
	case config.RegistryBackendFile, "":
		return NewFileStore(cfg.File.Path), nil

	case config.RegistryBackendRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis registry backend needs a redis connection")
		}
		client, err := deps.Redis(ctx)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.Redis.Key), nil

	case config.RegistryBackendS3:
		return NewS3Store(ctx, cfg.S3, log)

	case config.RegistryBackendDatabase:
		db, err := OpenDatabase(cfg.Database, log, deps.LogLevel)
		if err != nil {
			return nil, err
		}
		store := NewDatabaseStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	case config.RegistryBackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)

	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
	}
}
