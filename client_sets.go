package cachegate

import (
	"context"

	"github.com/redis/go-redis/v9"
)

func (c *Client) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "sadd", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.SAdd(ctx, key, toArgs(members)...).Result()
	})
}

func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	return call(ctx, &c.base, c.pool, "smembers", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.SMembers(ctx, key).Result()
	})
}

func (c *Client) SRem(ctx context.Context, key string, members ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "srem", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.SRem(ctx, key, toArgs(members)...).Result()
	})
}

func (c *Client) SPop(ctx context.Context, key string) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "spop", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.SPop(ctx, key).Result()
	})
}

func (c *Client) SPopN(ctx context.Context, key string, count int64) ([]string, error) {
	return call(ctx, &c.base, c.pool, "spop", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.SPopN(ctx, key, count).Result()
	})
}

func (c *Client) SCard(ctx context.Context, key string) (int64, error) {
	return call(ctx, &c.base, c.pool, "scard", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.SCard(ctx, key).Result()
	})
}

func (c *Client) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return call(ctx, &c.base, c.pool, "sismember", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.SIsMember(ctx, key, member).Result()
	})
}

func (c *Client) SRandMember(ctx context.Context, key string) (string, bool, error) {
	return find(ctx, &c.base, c.pool, "srandmember", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.SRandMember(ctx, key).Result()
	})
}

// SRandMemberN returns up to count distinct members; a negative count
// allows repeats.
func (c *Client) SRandMemberN(ctx context.Context, key string, count int64) ([]string, error) {
	return call(ctx, &c.base, c.pool, "srandmember", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.SRandMemberN(ctx, key, count).Result()
	})
}

func (c *Client) SScan(ctx context.Context, key string, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return scan(ctx, c, "sscan", key, func(ctx context.Context, cn *redis.Conn) *redis.ScanCmd {
		return cn.SScan(ctx, key, cursor, match, count)
	})
}

// PFAdd adds elements to a HyperLogLog and reports whether its estimate
// changed.
func (c *Client) PFAdd(ctx context.Context, key string, elems ...string) (bool, error) {
	return call(ctx, &c.base, c.pool, "pfadd", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		n, err := cn.PFAdd(ctx, key, toArgs(elems)...).Result()
		return n == 1, err
	})
}

// PFCount takes one key only.
func (c *Client) PFCount(ctx context.Context, key string) (int64, error) {
	return call(ctx, &c.base, c.pool, "pfcount", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.PFCount(ctx, key).Result()
	})
}
