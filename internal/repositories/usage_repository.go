package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"koreafit/pkg/utils"
)

const (
	UsageExports = "exports_per_month"
	UsageIdeas   = "ideas_per_month"
)

// UsageRepository counts per-user monthly usage of a limited feature.
type UsageRepository interface {
	GetMonthly(ctx context.Context, userID, kind string, at time.Time) (int64, error)
	IncrementMonthly(ctx context.Context, userID, kind string, at time.Time) (int64, error)
}

// CounterStore is satisfied by the Redis adapter below and by the in-process
// fallback in pkg/memcache.
type CounterStore interface {
	Get(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string, expiresAt time.Time) (int64, error)
}

type usageRepository struct {
	store CounterStore
}

func NewUsageRepository(store CounterStore) UsageRepository {
	return &usageRepository{store: store}
}

func NewRedisUsageRepository(rdb *redis.Client) UsageRepository {
	return &usageRepository{store: &redisCounters{rdb: rdb}}
}

func UsageKey(userID, kind string, at time.Time) string {
	return fmt.Sprintf("usage:%s:%s:%s", kind, userID, utils.MonthKey(at))
}

func (r *usageRepository) GetMonthly(ctx context.Context, userID, kind string, at time.Time) (int64, error) {
	return r.store.Get(ctx, UsageKey(userID, kind, at))
}

// IncrementMonthly keeps the key a week past month end so late reads of the
// previous month still work.
func (r *usageRepository) IncrementMonthly(ctx context.Context, userID, kind string, at time.Time) (int64, error) {
	expiresAt := utils.EndOfMonthKST(at).Add(7 * 24 * time.Hour)
	return r.store.Incr(ctx, UsageKey(userID, kind, at), expiresAt)
}

type redisCounters struct {
	rdb *redis.Client
}

func (c *redisCounters) Get(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	return n, nil
}

func (c *redisCounters) Incr(ctx context.Context, key string, expiresAt time.Time) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	if n == 1 {
		if err := c.rdb.ExpireAt(ctx, key, expiresAt).Err(); err != nil {
			return n, fmt.Errorf("redis expireat %s: %w", key, err)
		}
	}
	return n, nil
}
