package cachegate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func (c *Client) LPush(ctx context.Context, key string, values ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "lpush", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.LPush(ctx, key, toArgs(values)...).Result()
	})
}

func (c *Client) RPush(ctx context.Context, key string, values ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "rpush", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.RPush(ctx, key, toArgs(values)...).Result()
	})
}

// LPushX pushes only onto an existing list.
func (c *Client) LPushX(ctx context.Context, key string, values ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "lpushx", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.LPushX(ctx, key, toArgs(values)...).Result()
	})
}

func (c *Client) RPushX(ctx context.Context, key string, values ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "rpushx", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.RPushX(ctx, key, toArgs(values)...).Result()
	})
}

func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	return call(ctx, &c.base, c.pool, "llen", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.LLen(ctx, key).Result()
	})
}

// LRange returns elements start..stop inclusive; -1 is the last element.
func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return call(ctx, &c.base, c.pool, "lrange", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.LRange(ctx, key, start, stop).Result()
	})
}

// LRangeAll returns everything from start to the end of the list.
func (c *Client) LRangeAll(ctx context.Context, key string, start int64) ([]string, error) {
	return c.LRange(ctx, key, start, -1)
}

func (c *Client) LTrim(ctx context.Context, key string, start, stop int64) error {
	_, err := call(ctx, &c.base, c.pool, "ltrim", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.LTrim(ctx, key, start, stop).Result()
	})
	return err
}

func (c *Client) LIndex(ctx context.Context, key string, index int64) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "lindex", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.LIndex(ctx, key, index).Result()
	})
}

func (c *Client) LSet(ctx context.Context, key string, index int64, value string) error {
	_, err := call(ctx, &c.base, c.pool, "lset", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.LSet(ctx, key, index, value).Result()
	})
	return err
}

// LRem removes up to count occurrences of value (all when count is 0).
func (c *Client) LRem(ctx context.Context, key string, count int64, value string) (int64, error) {
	return call(ctx, &c.base, c.pool, "lrem", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.LRem(ctx, key, count, value).Result()
	})
}

// LInsert puts value before (or after) pivot. It returns -1 when pivot is
// not found.
func (c *Client) LInsert(ctx context.Context, key string, before bool, pivot, value string) (int64, error) {
	where := "AFTER"
	if before {
		where = "BEFORE"
	}
	return call(ctx, &c.base, c.pool, "linsert", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.LInsert(ctx, key, where, pivot, value).Result()
	})
}

func (c *Client) LPop(ctx context.Context, key string) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "lpop", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.LPop(ctx, key).Result()
	})
}

func (c *Client) RPop(ctx context.Context, key string) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "rpop", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.RPop(ctx, key).Result()
	})
}

// BLPop blocks up to timeout for an element on key. It holds a pool
// connection while it waits.
func (c *Client) BLPop(ctx context.Context, timeout time.Duration, key string) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "blpop", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return popped(cn.BLPop(ctx, timeout, key).Result())
	})
}

func (c *Client) BRPop(ctx context.Context, timeout time.Duration, key string) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "brpop", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return popped(cn.BRPop(ctx, timeout, key).Result())
	})
}

// popped extracts the value from a [key, value] blocking-pop reply.
func popped(kv []string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if len(kv) != 2 {
		return "", redis.Nil
	}
	return kv[1], nil
}

func toArgs(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
