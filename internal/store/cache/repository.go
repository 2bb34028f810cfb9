// Package cache provides a Redis read-through decorator for store.Repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"health-insights/internal/store"
)

// DefaultTTL is used when NewRepository is given a non-positive TTL
const DefaultTTL = 30 * time.Minute

const keyPrefix = "health"

var _ store.Repository = (*Repository)(nil)

// Repository caches the reads of another repository in Redis. Cache
// failures are logged and fall through to the wrapped repository.
type Repository struct {
	next   store.Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRepository wraps next with a Redis cache
func NewRepository(next store.Repository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Key builds the cache key for an operation over a date range
func Key(op string, start, end time.Time, extra ...string) string {
	parts := []string{keyPrefix, op, store.FormatDate(start), store.FormatDate(end)}
	for _, e := range extra {
		parts = append(parts, strings.ToLower(e))
	}
	return strings.Join(parts, ":")
}

// Invalidate removes every cached read. Call it after importing new data.
func (r *Repository) Invalidate(ctx context.Context) error {
	iter := r.cache.Scan(ctx, 0, keyPrefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.cache.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting cache keys: %w", err)
	}
	return nil
}

func (r *Repository) GetSleepData(ctx context.Context, start, end time.Time) ([]store.SleepRecord, error) {
	return readThrough(ctx, r, Key("sleep", start, end), func() ([]store.SleepRecord, error) {
		return r.next.GetSleepData(ctx, start, end)
	})
}

func (r *Repository) GetHeartRateData(ctx context.Context, start, end time.Time, restingOnly bool) ([]store.HeartRateRecord, error) {
	kind := "all"
	if restingOnly {
		kind = "resting"
	}
	return readThrough(ctx, r, Key("heart_rate", start, end, kind), func() ([]store.HeartRateRecord, error) {
		return r.next.GetHeartRateData(ctx, start, end, restingOnly)
	})
}

func (r *Repository) GetStressData(ctx context.Context, start, end time.Time) ([]store.StressRecord, error) {
	return readThrough(ctx, r, Key("stress", start, end), func() ([]store.StressRecord, error) {
		return r.next.GetStressData(ctx, start, end)
	})
}

func (r *Repository) GetBodyBatteryData(ctx context.Context, start, end time.Time) ([]store.BodyBatteryRecord, error) {
	return readThrough(ctx, r, Key("body_battery", start, end), func() ([]store.BodyBatteryRecord, error) {
		return r.next.GetBodyBatteryData(ctx, start, end)
	})
}

func (r *Repository) GetActivities(ctx context.Context, start, end time.Time, sport string) ([]store.ActivityRecord, error) {
	filter := sport
	if filter == "" {
		filter = "all"
	}
	return readThrough(ctx, r, Key("activities", start, end, filter), func() ([]store.ActivityRecord, error) {
		return r.next.GetActivities(ctx, start, end, sport)
	})
}

func (r *Repository) GetDailySummaries(ctx context.Context, start, end time.Time) ([]store.DailySummaryRecord, error) {
	return readThrough(ctx, r, Key("daily", start, end), func() ([]store.DailySummaryRecord, error) {
		return r.next.GetDailySummaries(ctx, start, end)
	})
}

func readThrough[T any](ctx context.Context, r *Repository, key string, fetch func() ([]T, error)) ([]T, error) {
	val, err := r.cache.Get(ctx, key).Bytes()
	if err == nil {
		var records []T
		if err := json.Unmarshal(val, &records); err == nil {
			return records, nil
		}

		r.logger.Warn("corrupted cache entry, evicting", zap.String("key", key))
		if err := r.cache.Del(ctx, key).Err(); err != nil {
			r.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	records, err := fetch()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return records, nil
	}
	if err := r.cache.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}

	return records, nil
}
