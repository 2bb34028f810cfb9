package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"health-insights/internal/store"
)

// countingRepo counts calls that reach the underlying repository
type countingRepo struct {
	*store.Memory
	calls int
	err   error
}

func (c *countingRepo) GetStressData(ctx context.Context, start, end time.Time) ([]store.StressRecord, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Memory.GetStressData(ctx, start, end)
}

func (c *countingRepo) GetActivities(ctx context.Context, start, end time.Time, sport string) ([]store.ActivityRecord, error) {
	c.calls++
	return c.Memory.GetActivities(ctx, start, end, sport)
}

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *countingRepo, *Repository) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mem := store.NewMemory()
	mem.AddStress(
		store.StressRecord{Timestamp: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC), StressLevel: 30},
		store.StressRecord{Timestamp: time.Date(2025, 1, 15, 9, 3, 0, 0, time.UTC), StressLevel: 45},
	)
	dist := 10.0
	mem.AddActivities(
		store.ActivityRecord{ID: "1", Sport: "running", StartTime: time.Date(2025, 1, 15, 7, 0, 0, 0, time.UTC), Duration: time.Hour, Distance: &dist},
		store.ActivityRecord{ID: "2", Sport: "cycling", StartTime: time.Date(2025, 1, 15, 17, 0, 0, 0, time.UTC), Duration: time.Hour},
	)

	next := &countingRepo{Memory: mem}
	return mr, next, NewRepository(next, rdb, time.Minute, zap.NewNop())
}

func TestKey(t *testing.T) {
	start := store.Date(2025, 1, 1)
	end := store.Date(2025, 1, 7)

	assert.Equal(t, "health:sleep:2025-01-01:2025-01-07", Key("sleep", start, end))
	assert.Equal(t, "health:activities:2025-01-01:2025-01-07:running", Key("activities", start, end, "Running"))
}

func TestRepository_ReadThrough(t *testing.T) {
	mr, next, repo := setupTestCache(t)
	ctx := context.Background()
	start, end := store.Date(2025, 1, 15), store.Date(2025, 1, 15)

	first, err := repo.GetStressData(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, next.calls)
	assert.True(t, mr.Exists(Key("stress", start, end)))

	second, err := repo.GetStressData(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls, "second read is served from cache")
	assert.Equal(t, first, second)

	ttl := mr.TTL(Key("stress", start, end))
	assert.Equal(t, time.Minute, ttl)
}

func TestRepository_SportFilterIsPartOfKey(t *testing.T) {
	_, next, repo := setupTestCache(t)
	ctx := context.Background()
	day := store.Date(2025, 1, 15)

	running, err := repo.GetActivities(ctx, day, day, "running")
	require.NoError(t, err)
	require.Len(t, running, 1)

	all, err := repo.GetActivities(ctx, day, day, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2, next.calls)

	cached, err := repo.GetActivities(ctx, day, day, "running")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	require.NotNil(t, cached[0].Distance)
	assert.Equal(t, 10.0, *cached[0].Distance)
	assert.Equal(t, time.Hour, cached[0].Duration)
	assert.Equal(t, 2, next.calls)
}

func TestRepository_CorruptEntryIsEvicted(t *testing.T) {
	mr, next, repo := setupTestCache(t)
	ctx := context.Background()
	day := store.Date(2025, 1, 15)
	key := Key("stress", day, day)

	require.NoError(t, mr.Set(key, "{not json"))

	records, err := repo.GetStressData(ctx, day, day)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, next.calls)

	val, err := mr.Get(key)
	require.NoError(t, err)
	assert.NotEqual(t, "{not json", val)
}

func TestRepository_RedisDownFallsThrough(t *testing.T) {
	mr, next, repo := setupTestCache(t)
	ctx := context.Background()
	day := store.Date(2025, 1, 15)

	mr.Close()

	records, err := repo.GetStressData(ctx, day, day)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, next.calls)
}

func TestRepository_ErrorsAreNotCached(t *testing.T) {
	mr, next, repo := setupTestCache(t)
	ctx := context.Background()
	day := store.Date(2025, 1, 15)
	errBoom := errors.New("boom")
	next.err = errBoom

	_, err := repo.GetStressData(ctx, day, day)
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, mr.Exists(Key("stress", day, day)))
}

func TestRepository_Invalidate(t *testing.T) {
	mr, next, repo := setupTestCache(t)
	ctx := context.Background()
	day := store.Date(2025, 1, 15)

	_, err := repo.GetStressData(ctx, day, day)
	require.NoError(t, err)
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, repo.Invalidate(ctx))
	assert.False(t, mr.Exists(Key("stress", day, day)))
	assert.True(t, mr.Exists("unrelated"))

	_, err = repo.GetStressData(ctx, day, day)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
