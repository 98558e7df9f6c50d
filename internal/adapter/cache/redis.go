package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

const detailKeyPrefix = "withdrawals:detail:"

// RedisDetailCache stores serialized withdrawal details with a fixed TTL.
type RedisDetailCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ repository.DetailCache = (*RedisDetailCache)(nil)

func NewRedisDetailCache(client redis.UniversalClient, ttl time.Duration) *RedisDetailCache {
	return &RedisDetailCache{client: client, ttl: ttl}
}

func detailKey(id string) string {
	return detailKeyPrefix + id
}

func (c *RedisDetailCache) Get(ctx context.Context, id string) (*model.WithdrawalDetail, bool, error) {
	data, err := c.client.Get(ctx, detailKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var detail model.WithdrawalDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, false, fmt.Errorf("decode cached detail %s: %w", id, err)
	}
	return &detail, true, nil
}

func (c *RedisDetailCache) Set(ctx context.Context, detail model.WithdrawalDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, detailKey(detail.Withdrawal.ID), data, c.ttl).Err()
}

func (c *RedisDetailCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, detailKey(id)).Err()
}

// Ping checks the server is reachable.
func (c *RedisDetailCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDetailCache) Close() error {
	return c.client.Close()
}

// NoopDetailCache always misses. It is used when no Redis URL is configured.
type NoopDetailCache struct{}

func (NoopDetailCache) Get(context.Context, string) (*model.WithdrawalDetail, bool, error) {
	return nil, false, nil
}

func (NoopDetailCache) Set(context.Context, model.WithdrawalDetail) error { return nil }

func (NoopDetailCache) Invalidate(context.Context, string) error { return nil }
