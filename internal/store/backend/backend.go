// Package backend opens the store.Directory selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/blockfile"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/kvstore"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/resilience"
)

// Open connects to the configured backend. Redis keys and Postgres rows
// are scoped by the index path, so one server can hold several indexes.
// Remote backends are dialled up to cfg.Index.ConnectAttempts times.
func Open(ctx context.Context, cfg *config.Config) (store.Directory, error) {
	logger := slog.Default().With("component", "backend")
	logger.Info("opening index", "backend", cfg.Index.Backend, "path", cfg.Index.Path)

	switch cfg.Index.Backend {
	case config.BackendFile:
		return blockfile.New(cfg.Index.Path), nil

	case config.BackendMemory:
		return kvstore.New(kvstore.NewMemoryTables()), nil

	case config.BackendRedis:
		var client *redis.Client
		err := resilience.Retry(ctx, "redis connect", retryConfig(cfg), func(ctx context.Context) error {
			var err error
			client, err = redis.NewClient(ctx, cfg.Redis)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		prefix := cfg.Redis.KeyPrefix + ":" + cfg.Index.Path
		return kvstore.New(kvstore.NewRedisTables(client, prefix)), nil

	case config.BackendPostgres:
		var client *postgres.Client
		err := resilience.Retry(ctx, "postgres connect", retryConfig(cfg), func(ctx context.Context) error {
			var err error
			client, err = postgres.New(ctx, cfg.Postgres)
			if postgres.IsAuthError(err) {
				return resilience.Permanent(err)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		tables := kvstore.NewPostgresTables(client, cfg.Index.Path)
		if err := tables.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("preparing postgres schema: %w", err)
		}
		return kvstore.New(tables), nil

	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "unknown index backend %q", cfg.Index.Backend)
	}
}

func retryConfig(cfg *config.Config) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  cfg.Index.ConnectAttempts,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}
