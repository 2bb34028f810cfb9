package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"health-insights/internal/config"
	"health-insights/internal/store"
	"health-insights/internal/store/cache"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "health.db")
	return &cfg
}

func TestOpenBackendWithoutCache(t *testing.T) {
	b, err := OpenBackend(testConfig(t), nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Cache)
	assert.Nil(t, b.Invalidator())
	assert.Same(t, b.DB, b.Repository())
}

func TestOpenBackendWithCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = mr.Addr()

	b, err := OpenBackend(cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	require.NotNil(t, b.Cache)
	assert.IsType(t, &cache.Repository{}, b.Repository())
	assert.NotNil(t, b.Invalidator())

	// Reads go through Redis
	ctx := context.Background()
	day := store.Date(2025, 1, 6)
	_, err = b.Repository().GetSleepData(ctx, day, day)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.Key("sleep", day, day)))

	// Imports clear the cache
	svc := NewImportService(b.DB, b.Invalidator(), nil)
	_, err = svc.Import(ctx, emptyExport(), "")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.Key("sleep", day, day)))
}

func TestOpenBackendRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = addr

	core, logs := observer.New(zap.WarnLevel)
	b, err := OpenBackend(cfg, zap.New(core))
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Cache)
	assert.Same(t, b.DB, b.Repository())
	assert.Equal(t, 1, logs.FilterMessage("redis unavailable, continuing without cache").Len())
}

func TestOpenBackendBadTTL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = "soon"

	_, err := OpenBackend(cfg, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
