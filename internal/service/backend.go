package service

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"health-insights/internal/config"
	"health-insights/internal/store"
	"health-insights/internal/store/cache"
)

// Backend is the repository stack described by the config: the SQLite
// database, optionally behind the Redis cache
type Backend struct {
	DB    *store.DB
	Cache *cache.Repository // nil when caching is off or Redis is unreachable
	redis *redis.Client
}

// OpenBackend opens the database and, when enabled, connects the cache.
// An unreachable Redis is logged and the backend runs uncached.
func OpenBackend(cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	b := &Backend{DB: db}

	if !cfg.Cache.Enabled {
		return b, nil
	}

	ttl, err := cfg.CacheTTL()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: cache.ttl: %v", config.ErrInvalidConfig, err)
	}

	rdb, err := cache.NewRedisClient(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache",
			zap.String("addr", cfg.Cache.Addr), zap.Error(err))
		return b, nil
	}

	b.redis = rdb
	b.Cache = cache.NewRepository(db, rdb, ttl, logger)
	logger.Debug("report cache enabled", zap.String("addr", cfg.Cache.Addr), zap.Duration("ttl", ttl))
	return b, nil
}

// Repository returns the cached repository when available, else the database
func (b *Backend) Repository() store.Repository {
	if b.Cache != nil {
		return b.Cache
	}
	return b.DB
}

// Invalidator returns the cache to clear after imports, nil without one
func (b *Backend) Invalidator() Invalidator {
	if b.Cache == nil {
		return nil
	}
	return b.Cache
}

// Close releases the database and Redis connections
func (b *Backend) Close() error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	errs = append(errs, b.DB.Close())
	return errors.Join(errs...)
}
