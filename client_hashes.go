package cachegate

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// HSet sets one field and reports whether it was newly created.
func (c *Client) HSet(ctx context.Context, key, field string, value []byte) (bool, error) {
	return call(ctx, &c.base, c.pool, "hset", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		n, err := cn.HSet(ctx, key, field, value).Result()
		return n == 1, err
	})
}

func (c *Client) HGet(ctx context.Context, key, field string) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "hget", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.HGet(ctx, key, field).Result()
	})
}

func (c *Client) HSetNX(ctx context.Context, key, field string, value []byte) (bool, error) {
	return call(ctx, &c.base, c.pool, "hsetnx", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.HSetNX(ctx, key, field, value).Result()
	})
}

// HMSet sets several fields at once.
func (c *Client) HMSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := call(ctx, &c.base, c.pool, "hmset", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.HMSet(ctx, key, fields).Result()
	})
	return err
}

// HMGet returns one entry per field; missing fields are nil.
func (c *Client) HMGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	return call(ctx, &c.base, c.pool, "hmget", key, func(ctx context.Context, cn *redis.Conn) ([]*string, error) {
		vals, err := cn.HMGet(ctx, key, fields...).Result()
		if err != nil {
			return nil, err
		}
		out := make([]*string, len(vals))
		for i, v := range vals {
			if s, ok := v.(string); ok {
				out[i] = &s
			}
		}
		return out, nil
	})
}

func (c *Client) HIncrBy(ctx context.Context, key, field string, by int64) (int64, error) {
	return call(ctx, &c.base, c.pool, "hincrby", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.HIncrBy(ctx, key, field, by).Result()
	})
}

func (c *Client) HIncrByFloat(ctx context.Context, key, field string, by float64) (float64, error) {
	return call(ctx, &c.base, c.pool, "hincrbyfloat", key, func(ctx context.Context, cn *redis.Conn) (float64, error) {
		return cn.HIncrByFloat(ctx, key, field, by).Result()
	})
}

func (c *Client) HExists(ctx context.Context, key, field string) (bool, error) {
	return call(ctx, &c.base, c.pool, "hexists", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.HExists(ctx, key, field).Result()
	})
}

func (c *Client) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "hdel", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.HDel(ctx, key, fields...).Result()
	})
}

func (c *Client) HLen(ctx context.Context, key string) (int64, error) {
	return call(ctx, &c.base, c.pool, "hlen", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.HLen(ctx, key).Result()
	})
}

func (c *Client) HKeys(ctx context.Context, key string) ([]string, error) {
	return call(ctx, &c.base, c.pool, "hkeys", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.HKeys(ctx, key).Result()
	})
}

func (c *Client) HVals(ctx context.Context, key string) ([]string, error) {
	return call(ctx, &c.base, c.pool, "hvals", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.HVals(ctx, key).Result()
	})
}

// HGetAll returns an empty map for a missing key.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return call(ctx, &c.base, c.pool, "hgetall", key, func(ctx context.Context, cn *redis.Conn) (map[string]string, error) {
		return cn.HGetAll(ctx, key).Result()
	})
}

// HScan returns field/value pairs flattened, as Redis sends them.
func (c *Client) HScan(ctx context.Context, key string, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return scan(ctx, c, "hscan", key, func(ctx context.Context, cn *redis.Conn) *redis.ScanCmd {
		return cn.HScan(ctx, key, cursor, match, count)
	})
}
