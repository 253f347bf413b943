package cachegate

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Member is one sorted-set entry.
type Member = redis.Z

func (c *Client) ZAdd(ctx context.Context, key string, members ...Member) (int64, error) {
	return call(ctx, &c.base, c.pool, "zadd", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZAdd(ctx, key, members...).Result()
	})
}

func (c *Client) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return call(ctx, &c.base, c.pool, "zrange", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.ZRange(ctx, key, start, stop).Result()
	})
}

func (c *Client) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return call(ctx, &c.base, c.pool, "zrevrange", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.ZRevRange(ctx, key, start, stop).Result()
	})
}

func (c *Client) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]Member, error) {
	return call(ctx, &c.base, c.pool, "zrange", key, func(ctx context.Context, cn *redis.Conn) ([]Member, error) {
		return cn.ZRangeWithScores(ctx, key, start, stop).Result()
	})
}

func (c *Client) ZRem(ctx context.Context, key string, members ...string) (int64, error) {
	return call(ctx, &c.base, c.pool, "zrem", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZRem(ctx, key, toArgs(members)...).Result()
	})
}

func (c *Client) ZIncrBy(ctx context.Context, key string, by float64, member string) (float64, error) {
	return call(ctx, &c.base, c.pool, "zincrby", key, func(ctx context.Context, cn *redis.Conn) (float64, error) {
		return cn.ZIncrBy(ctx, key, by, member).Result()
	})
}

// ZRank is zero based, lowest score first. found is false for a missing
// member.
func (c *Client) ZRank(ctx context.Context, key, member string) (int64, bool, error) {
	return find(ctx, &c.base, c.pool, "zrank", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZRank(ctx, key, member).Result()
	})
}

func (c *Client) ZRevRank(ctx context.Context, key, member string) (int64, bool, error) {
	return find(ctx, &c.base, c.pool, "zrevrank", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZRevRank(ctx, key, member).Result()
	})
}

func (c *Client) ZCard(ctx context.Context, key string) (int64, error) {
	return call(ctx, &c.base, c.pool, "zcard", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZCard(ctx, key).Result()
	})
}

func (c *Client) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	return find(ctx, &c.base, c.pool, "zscore", key, func(ctx context.Context, cn *redis.Conn) (float64, error) {
		return cn.ZScore(ctx, key, member).Result()
	})
}

// ZCount takes Redis score bounds, e.g. "-inf", "(1.5", "10".
func (c *Client) ZCount(ctx context.Context, key, lo, hi string) (int64, error) {
	return call(ctx, &c.base, c.pool, "zcount", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZCount(ctx, key, lo, hi).Result()
	})
}

func (c *Client) ZRangeByScore(ctx context.Context, key string, by *redis.ZRangeBy) ([]string, error) {
	return call(ctx, &c.base, c.pool, "zrangebyscore", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.ZRangeByScore(ctx, key, by).Result()
	})
}

func (c *Client) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) (int64, error) {
	return call(ctx, &c.base, c.pool, "zremrangebyrank", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZRemRangeByRank(ctx, key, start, stop).Result()
	})
}

func (c *Client) ZRemRangeByScore(ctx context.Context, key, lo, hi string) (int64, error) {
	return call(ctx, &c.base, c.pool, "zremrangebyscore", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.ZRemRangeByScore(ctx, key, lo, hi).Result()
	})
}

// ZScan returns member/score pairs flattened.
func (c *Client) ZScan(ctx context.Context, key string, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return scan(ctx, c, "zscan", key, func(ctx context.Context, cn *redis.Conn) *redis.ScanCmd {
		return cn.ZScan(ctx, key, cursor, match, count)
	})
}
