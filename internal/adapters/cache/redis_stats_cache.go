package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/platform/obs"
)

const redisKeyPrefix = "dispatch:stats:"

// RedisStatsCache stores analyses as JSON with a Redis-side TTL.
type RedisStatsCache struct {
	rdb *redis.Client
}

func NewRedisStatsCache(rdb *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb}
}

func (c *RedisStatsCache) Get(ctx context.Context, key string) (_ domain.PlanningAnalysis, _ bool, err error) {
	defer obs.Time(ctx, "stats.cache.Get")(&err)

	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PlanningAnalysis{}, false, nil
	}
	if err != nil {
		return domain.PlanningAnalysis{}, false, fmt.Errorf("stats cache get %q: %w", key, err)
	}

	var v domain.PlanningAnalysis
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.PlanningAnalysis{}, false, fmt.Errorf("stats cache get %q: decode: %w", key, err)
	}
	return v, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, key string, v domain.PlanningAnalysis, ttl time.Duration) (err error) {
	defer obs.Time(ctx, "stats.cache.Set")(&err)

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stats cache set %q: encode: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("stats cache set %q: %w", key, err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("stats cache invalidate %q: %w", key, err)
	}
	return nil
}
