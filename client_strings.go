package cachegate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Get returns the value at key. found is false when the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (val string, found bool, err error) {
	return find(ctx, &c.base, c.pool, "get", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.Get(ctx, key).Result()
	})
}

// GetBytes is Get without the string conversion.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	return find(ctx, &c.base, c.pool, "get", key, func(ctx context.Context, cn *redis.Conn) ([]byte, error) {
		return cn.Get(ctx, key).Bytes()
	})
}

// Set stores value with no expiry.
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.SetBytes(ctx, key, []byte(value))
}

func (c *Client) SetBytes(ctx context.Context, key string, value []byte) error {
	_, err := call(ctx, &c.base, c.pool, "set", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.Set(ctx, key, value, 0).Result()
	})
	return err
}

// SetEx stores value with a time to live.
func (c *Client) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := call(ctx, &c.base, c.pool, "setex", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.SetEx(ctx, key, value, ttl).Result()
	})
	return err
}

// SetNX stores value only if key is absent. ttl 0 means no expiry.
func (c *Client) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return call(ctx, &c.base, c.pool, "setnx", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.SetNX(ctx, key, value, ttl).Result()
	})
}

// SetXX stores value only if key exists.
func (c *Client) SetXX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return call(ctx, &c.base, c.pool, "setxx", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.SetXX(ctx, key, value, ttl).Result()
	})
}

// GetSet stores value and returns the previous one.
func (c *Client) GetSet(ctx context.Context, key string, value []byte) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "getset", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.GetSet(ctx, key, value).Result()
	})
}

func (c *Client) GetRange(ctx context.Context, key string, start, end int64) (string, error) {
	return call(ctx, &c.base, c.pool, "getrange", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.GetRange(ctx, key, start, end).Result()
	})
}

func (c *Client) SetRange(ctx context.Context, key string, offset int64, value string) (int64, error) {
	return call(ctx, &c.base, c.pool, "setrange", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.SetRange(ctx, key, offset, value).Result()
	})
}

func (c *Client) Append(ctx context.Context, key, value string) (int64, error) {
	return call(ctx, &c.base, c.pool, "append", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.Append(ctx, key, value).Result()
	})
}

func (c *Client) StrLen(ctx context.Context, key string) (int64, error) {
	return call(ctx, &c.base, c.pool, "strlen", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.StrLen(ctx, key).Result()
	})
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.IncrBy(ctx, key, 1)
}

func (c *Client) IncrBy(ctx context.Context, key string, by int64) (int64, error) {
	return call(ctx, &c.base, c.pool, "incrby", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.IncrBy(ctx, key, by).Result()
	})
}

func (c *Client) IncrByFloat(ctx context.Context, key string, by float64) (float64, error) {
	return call(ctx, &c.base, c.pool, "incrbyfloat", key, func(ctx context.Context, cn *redis.Conn) (float64, error) {
		return cn.IncrByFloat(ctx, key, by).Result()
	})
}

func (c *Client) Decr(ctx context.Context, key string) (int64, error) {
	return c.DecrBy(ctx, key, 1)
}

func (c *Client) DecrBy(ctx context.Context, key string, by int64) (int64, error) {
	return call(ctx, &c.base, c.pool, "decrby", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.DecrBy(ctx, key, by).Result()
	})
}

// SetBit sets the bit at offset and returns its previous value.
func (c *Client) SetBit(ctx context.Context, key string, offset int64, on bool) (bool, error) {
	v := 0
	if on {
		v = 1
	}
	return call(ctx, &c.base, c.pool, "setbit", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		prev, err := cn.SetBit(ctx, key, offset, v).Result()
		return prev == 1, err
	})
}

func (c *Client) GetBit(ctx context.Context, key string, offset int64) (bool, error) {
	return call(ctx, &c.base, c.pool, "getbit", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		v, err := cn.GetBit(ctx, key, offset).Result()
		return v == 1, err
	})
}

// BitCount counts set bits. A nil rng counts the whole string.
func (c *Client) BitCount(ctx context.Context, key string, rng *redis.BitCount) (int64, error) {
	return call(ctx, &c.base, c.pool, "bitcount", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.BitCount(ctx, key, rng).Result()
	})
}
