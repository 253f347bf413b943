package cachegate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	return call(ctx, &c.base, c.pool, "exists", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		n, err := cn.Exists(ctx, key).Result()
		return n > 0, err
	})
}

// Del removes keys and returns how many existed. Several keys are allowed
// here because a single node holds them all.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return call(ctx, &c.base, c.pool, "del", keys[0], func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.Del(ctx, keys...).Result()
	})
}

// Type returns "string", "list", ... or "none".
func (c *Client) Type(ctx context.Context, key string) (string, error) {
	return call(ctx, &c.base, c.pool, "type", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.Type(ctx, key).Result()
	})
}

func (c *Client) Persist(ctx context.Context, key string) (bool, error) {
	return call(ctx, &c.base, c.pool, "persist", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.Persist(ctx, key).Result()
	})
}

// Expire sets a time to live. It reports false when the key does not exist.
// Repeating it with the same ttl only restarts the countdown.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return call(ctx, &c.base, c.pool, "expire", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.Expire(ctx, key, ttl).Result()
	})
}

func (c *Client) PExpire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return call(ctx, &c.base, c.pool, "pexpire", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.PExpire(ctx, key, ttl).Result()
	})
}

func (c *Client) ExpireAt(ctx context.Context, key string, at time.Time) (bool, error) {
	return call(ctx, &c.base, c.pool, "expireat", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.ExpireAt(ctx, key, at).Result()
	})
}

// TTL returns the remaining time to live. go-redis reports -1 (no expiry)
// and -2 (missing key) as negative durations.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	return call(ctx, &c.base, c.pool, "ttl", key, func(ctx context.Context, cn *redis.Conn) (time.Duration, error) {
		return cn.TTL(ctx, key).Result()
	})
}

func (c *Client) PTTL(ctx context.Context, key string) (time.Duration, error) {
	return call(ctx, &c.base, c.pool, "pttl", key, func(ctx context.Context, cn *redis.Conn) (time.Duration, error) {
		return cn.PTTL(ctx, key).Result()
	})
}

func (c *Client) Echo(ctx context.Context, msg string) (string, error) {
	return call(ctx, &c.base, c.pool, "echo", "", func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.Echo(ctx, msg).Result()
	})
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := call(ctx, &c.base, c.pool, "ping", "", func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.Ping(ctx).Result()
	})
	return err
}

// Scan returns one page of keys matching match and the next cursor. A zero
// cursor ends the iteration.
func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return scan(ctx, c, "scan", match, func(ctx context.Context, cn *redis.Conn) *redis.ScanCmd {
		return cn.Scan(ctx, cursor, match, count)
	})
}

type scanPage struct {
	items []string
	next  uint64
}

func scan(ctx context.Context, c *Client, name, key string, fn func(context.Context, *redis.Conn) *redis.ScanCmd) ([]string, uint64, error) {
	p, err := call(ctx, &c.base, c.pool, name, key, func(ctx context.Context, cn *redis.Conn) (scanPage, error) {
		items, next, err := fn(ctx, cn).Result()
		return scanPage{items, next}, err
	})
	return p.items, p.next, err
}
