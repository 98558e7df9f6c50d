package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/config"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

// Module provides the detail cache. Without REDIS_URL every read misses.
var Module = fx.Provide(newDetailCache)

type cacheParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newDetailCache(p cacheParams) (repository.DetailCache, error) {
	if p.Config.RedisURL == "" {
		p.Logger.Info("no redis configured, detail cache disabled")
		return NoopDetailCache{}, nil
	}

	opts, err := redis.ParseURL(p.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := NewRedisDetailCache(redis.NewClient(opts), p.Config.DetailCacheTTL)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.Ping(ctx); err != nil {
				p.Logger.Warn("redis unreachable, detail reads fall back to storage", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
	return c, nil
}
