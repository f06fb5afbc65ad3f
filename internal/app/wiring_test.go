package app

import (
	"context"
	"distance-batch-service/internal/adapters/repositories"
	"distance-batch-service/internal/config"
	"distance-batch-service/internal/services"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:        "http://127.0.0.1:1",
		MaxRetries:     3,
		RetryDelay:     time.Second,
		RetryBackoff:   services.BackoffFixed,
		RequestTimeout: time.Second,
		CostPerRequest: 0.01,
	}
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, NewLimiter(0).Limit())

	l := NewLimiter(2.5)
	assert.Equal(t, rate.Limit(2.5), l.Limit())
	assert.Equal(t, 3, l.Burst())
}

func TestNewRunOptions(t *testing.T) {
	opts, err := NewRunOptions(testConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, opts.Policy.MaxAttempts)
	assert.Equal(t, time.Second, opts.Policy.Backoff(1))
	assert.InDelta(t, 0.01, opts.CostPerRequest, 1e-9)
}

func TestNewRunOptionsRejectsUnknownBackoff(t *testing.T) {
	cfg := testConfig()
	cfg.RetryBackoff = "linear"

	_, err := NewRunOptions(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewProviderFactory(t *testing.T) {
	factory := NewProviderFactory(testConfig(), zap.NewNop())

	p, err := factory("key")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = factory("")
	assert.Error(t, err)
}

func TestOpenArchiveWithoutDatabaseIsInMemory(t *testing.T) {
	archive, closeFn, err := OpenArchive(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	assert.IsType(t, &repositories.MemoryRunArchive{}, archive)

	_, err = archive.GetRun(context.Background(), "missing")
	assert.Error(t, err)
}

func TestOpenArchiveUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.RunTTL = time.Minute

	archive, closeFn, err := OpenArchive(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	require.IsType(t, &repositories.RedisRunArchive{}, archive)
	assert.Equal(t, time.Minute, archive.(*repositories.RedisRunArchive).TTL)
}

func TestOpenArchiveRejectsBadRedisURL(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "not-a-url"

	_, _, err := OpenArchive(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
