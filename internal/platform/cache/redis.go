// Package cache holds the shared ViewCache backend for deployments running
// more than one calendar instance.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ehr/calendar/internal/domain/calendar"
)

const DefaultPrefix = "calview"

// Client is the part of redis.UniversalClient the view cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisViewCache stores packed views as JSON under "<prefix>:<view key>".
type RedisViewCache struct {
	rdb    Client
	prefix string
	ttl    time.Duration
}

func NewRedisViewCache(rdb Client, prefix string, ttl time.Duration) *RedisViewCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisViewCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// NewClient parses a redis:// URL and verifies the server answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (c *RedisViewCache) key(k calendar.ViewKey) string {
	return c.prefix + ":" + k.String()
}

// datePattern matches every cached view of one mode whose range contains d.
func (c *RedisViewCache) datePattern(mode calendar.ViewMode, d calendar.CalendarDate) string {
	return fmt.Sprintf("%s:%s:%s:*", c.prefix, mode, calendar.Anchor(mode, d))
}

func (c *RedisViewCache) Get(ctx context.Context, k calendar.ViewKey) (*calendar.PackedView, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", k, err)
	}
	var v calendar.PackedView
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode cached view %s: %w", k, err)
	}
	return &v, true, nil
}

func (c *RedisViewCache) Set(ctx context.Context, k calendar.ViewKey, v *calendar.PackedView) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode view %s: %w", k, err)
	}
	if err := c.rdb.Set(ctx, c.key(k), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

func (c *RedisViewCache) InvalidateDates(ctx context.Context, dates ...calendar.CalendarDate) error {
	seen := make(map[string]bool)
	for _, d := range dates {
		for _, mode := range []calendar.ViewMode{calendar.ViewDay, calendar.ViewWeek, calendar.ViewMonth} {
			p := c.datePattern(mode, d)
			if seen[p] {
				continue
			}
			seen[p] = true
			if err := c.deleteMatching(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *RedisViewCache) InvalidateAll(ctx context.Context) error {
	return c.deleteMatching(ctx, c.prefix+":*")
}

func (c *RedisViewCache) deleteMatching(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
