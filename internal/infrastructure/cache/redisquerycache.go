package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"keymint/internal/shared/logger"
)

// RedisQueryCache is the Redis-backed QueryCache. Stamps live under their
// own keys and are advanced with INCR, so multiple processes sharing the
// database also share invalidation. Query entries carry a TTL and are
// never deleted explicitly.
type RedisQueryCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisQueryCache creates a Redis query cache. A non-positive ttl falls
// back to five minutes.
func NewRedisQueryCache(client *redis.Client, prefix string, ttl time.Duration) *RedisQueryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisQueryCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisQueryCache) stampKey(group string) string {
	return c.prefix + "stamp:" + group
}

func (c *RedisQueryCache) queryKey(group string, stamp uint64, fingerprint, kind string) string {
	return fmt.Sprintf("%squery:%s:%d:%s:%s", c.prefix, group, stamp, kind, fingerprint)
}

func (c *RedisQueryCache) Stamp(ctx context.Context, group string) (uint64, error) {
	val, err := c.client.Get(ctx, c.stampKey(group)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache stamp: %w", err)
	}

	stamp, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cache stamp %q: %w", val, err)
	}
	return stamp, nil
}

func (c *RedisQueryCache) Bump(ctx context.Context, group string) error {
	if err := c.client.Incr(ctx, c.stampKey(group)).Err(); err != nil {
		return fmt.Errorf("failed to bump cache stamp: %w", err)
	}
	return nil
}

func (c *RedisQueryCache) GetIDs(ctx context.Context, group string, stamp uint64, fingerprint string) ([]uint, bool) {
	data, err := c.client.Get(ctx, c.queryKey(group, stamp, fingerprint, "ids")).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("query cache read failed", "group", group, "error", err)
		}
		return nil, false
	}

	var ids []uint
	if err := json.Unmarshal(data, &ids); err != nil {
		logger.Warn("query cache entry corrupt", "group", group, "error", err)
		return nil, false
	}
	return ids, true
}

func (c *RedisQueryCache) SetIDs(ctx context.Context, group string, stamp uint64, fingerprint string, ids []uint) {
	data, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.queryKey(group, stamp, fingerprint, "ids"), data, c.ttl).Err(); err != nil {
		logger.Warn("query cache write failed", "group", group, "error", err)
	}
}

func (c *RedisQueryCache) GetCount(ctx context.Context, group string, stamp uint64, fingerprint string) (int64, bool) {
	val, err := c.client.Get(ctx, c.queryKey(group, stamp, fingerprint, "count")).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("query cache read failed", "group", group, "error", err)
		}
		return 0, false
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		logger.Warn("query cache entry corrupt", "group", group, "error", err)
		return 0, false
	}
	return count, true
}

func (c *RedisQueryCache) SetCount(ctx context.Context, group string, stamp uint64, fingerprint string, count int64) {
	if err := c.client.Set(ctx, c.queryKey(group, stamp, fingerprint, "count"), strconv.FormatInt(count, 10), c.ttl).Err(); err != nil {
		logger.Warn("query cache write failed", "group", group, "error", err)
	}
}
