package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown enforces a minimum gap between repeated actions for the same key.
type Cooldown struct {
	rdb    redis.Cmdable
	prefix string
	window time.Duration
}

// NewCooldown creates a cooldown namespaced by prefix.
func NewCooldown(rdb redis.Cmdable, prefix string, window time.Duration) *Cooldown {
	return &Cooldown{rdb: rdb, prefix: prefix, window: window}
}

// Allow reports whether the action may run now and, when it may, starts a
// new window for the key.
func (c *Cooldown) Allow(ctx context.Context, key string) (bool, error) {
	if c.window <= 0 {
		return true, nil
	}
	return c.rdb.SetNX(ctx, c.prefix+strings.ToLower(key), 1, c.window).Result()
}
