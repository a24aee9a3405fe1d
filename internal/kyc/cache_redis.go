package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ryegate/pkg/domain"
)

// RedisCache is a read-through cache in front of a durable Store. Transfer
// gating hits the registry on every call, so lookups dominate writes by
// orders of magnitude. Writes invalidate before delegating, keeping the
// cache at worst one TTL stale after a crash between DEL and Save.
type RedisCache struct {
	inner   Store
	client  *redis.Client
	ttl     time.Duration
	metrics *Metrics
}

func NewRedisCache(inner Store, client *redis.Client, ttl time.Duration, metrics *Metrics) *RedisCache {
	return &RedisCache{inner: inner, client: client, ttl: ttl, metrics: metrics}
}

func cacheKey(addr domain.Address) string {
	return "ryegate:kyc:" + addr.String()
}

func (c *RedisCache) Save(ctx context.Context, record Record) error {
	if err := c.client.Del(ctx, cacheKey(record.Address)).Err(); err != nil {
		return fmt.Errorf("invalidate kyc cache: %w", err)
	}
	return c.inner.Save(ctx, record)
}

func (c *RedisCache) Find(ctx context.Context, addr domain.Address) (Record, error) {
	raw, err := c.client.Get(ctx, cacheKey(addr)).Bytes()
	if err == nil {
		var record Record
		if err := json.Unmarshal(raw, &record); err == nil {
			c.metrics.ObserveCacheHit()
			return record, nil
		}
		// Corrupt entry: fall through to the durable store.
	} else if !errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("read kyc cache: %w", err)
	}
	c.metrics.ObserveCacheMiss()

	record, err := c.inner.Find(ctx, addr)
	if err != nil {
		return Record{}, err
	}
	if raw, err := json.Marshal(record); err == nil {
		// Best-effort populate; a failed SET only costs the next lookup.
		_ = c.client.Set(ctx, cacheKey(addr), raw, c.ttl).Err()
	}
	return record, nil
}

var _ Store = (*RedisCache)(nil)
