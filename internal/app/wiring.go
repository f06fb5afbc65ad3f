// Package app builds the adapters and run options shared by the CLI and the server.
package app

import (
	"context"
	"distance-batch-service/internal/adapters/distance"
	"distance-batch-service/internal/adapters/repositories"
	"distance-batch-service/internal/config"
	"distance-batch-service/internal/platform/db"
	"distance-batch-service/internal/ports"
	"distance-batch-service/internal/services"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewLimiter returns an unlimited limiter for rps <= 0.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), int(math.Max(1, math.Ceil(rps))))
}

// NewProviderFactory returns a factory of Google Routes providers that share
// one rate limiter, so concurrent runs together respect the configured rate.
func NewProviderFactory(cfg *config.Config, logger *zap.Logger) func(apiKey string) (ports.DistanceProvider, error) {
	limiter := NewLimiter(cfg.RequestsPerSecond)

	return func(apiKey string) (ports.DistanceProvider, error) {
		p, err := distance.NewGoogleRoutesProvider(apiKey,
			distance.WithBaseURL(cfg.BaseURL),
			distance.WithTimeout(cfg.RequestTimeout),
			distance.WithRateLimiter(limiter),
			distance.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// NewRunOptions maps configuration onto the batch runner's options.
func NewRunOptions(cfg *config.Config, logger *zap.Logger) (services.RunOptions, error) {
	policy, err := services.NewRetryPolicy(cfg.RetryBackoff, cfg.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return services.RunOptions{}, fmt.Errorf("new run options: %w", err)
	}

	return services.RunOptions{
		Policy:         policy,
		CostPerRequest: cfg.CostPerRequest,
		Logger:         logger,
	}, nil
}

// OpenArchive picks the run archive: PostgreSQL (migrated first) when a
// database URL is set, then Redis when a Redis URL is set, else in-memory.
// The returned close func is never nil.
func OpenArchive(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.RunArchive, func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}

		if err := repositories.Migrate(conn); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}

		return repositories.NewPostgresRunArchive(conn, logger), conn.Close, nil

	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open archive: parse redis url: %w", err)
		}

		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("open archive: ping redis: %w", err)
		}

		return repositories.NewRedisRunArchive(client, cfg.RunTTL, logger), client.Close, nil

	default:
		return repositories.NewMemoryRunArchive(), func() error { return nil }, nil
	}
}
