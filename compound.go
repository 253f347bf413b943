package cachegate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// steps runs commands in order on one connection and stops at the first
// failure. Earlier steps are not undone.
type steps struct {
	op, key string
	n       int
	failed  *StepError
}

func (s *steps) do(fn func() error) {
	if s.failed != nil {
		return
	}
	s.n++
	if err := fn(); err != nil {
		s.failed = &StepError{Op: s.op, Key: s.key, Step: s.n, Err: err}
	}
}

func (s *steps) err() error {
	if s.failed == nil {
		return nil
	}
	return s.failed
}

func incrByExpire(ctx context.Context, cn *redis.Conn, op, key string, by int64, ttl time.Duration) (int64, error) {
	var n int64
	s := steps{op: op, key: key}
	s.do(func() (err error) { n, err = cn.IncrBy(ctx, key, by).Result(); return })
	s.do(func() error { return cn.Expire(ctx, key, ttl).Err() })
	return n, s.err()
}

func hIncrByExpire(ctx context.Context, cn *redis.Conn, key, field string, by int64, ttl time.Duration) (int64, error) {
	var n int64
	s := steps{op: "hincrby+expire", key: key}
	s.do(func() (err error) { n, err = cn.HIncrBy(ctx, key, field, by).Result(); return })
	s.do(func() error { return cn.Expire(ctx, key, ttl).Err() })
	return n, s.err()
}

// hIncrByFields increments each field by by, one command per field. A ttl of
// zero leaves the expiry alone.
func hIncrByFields(ctx context.Context, cn *redis.Conn, key string, fields []string, by int64, ttl time.Duration) (bool, error) {
	op := "hincrbyfields"
	if ttl > 0 {
		op = "hincrbyfields+expire"
	}
	s := steps{op: op, key: key}
	for _, f := range fields {
		s.do(func() error { return cn.HIncrBy(ctx, key, f, by).Err() })
	}
	if ttl > 0 {
		s.do(func() error { return cn.Expire(ctx, key, ttl).Err() })
	}
	return s.failed == nil, s.err()
}

func hSetExpire(ctx context.Context, cn *redis.Conn, key, field string, value []byte, ttl time.Duration) (bool, error) {
	s := steps{op: "hset+expire", key: key}
	s.do(func() error { return cn.HSet(ctx, key, field, value).Err() })
	s.do(func() error { return cn.Expire(ctx, key, ttl).Err() })
	return s.failed == nil, s.err()
}

// IncrByExpire increments key and then refreshes its expiry. The two
// commands are not atomic; a failed expiry leaves the increment applied and
// returns a *StepError.
func (c *Client) IncrByExpire(ctx context.Context, key string, by int64, ttl time.Duration) (int64, error) {
	return call(ctx, &c.base, c.pool, "incrby+expire", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return incrByExpire(ctx, cn, "incrby+expire", key, by, ttl)
	})
}

func (c *Client) DecrByExpire(ctx context.Context, key string, by int64, ttl time.Duration) (int64, error) {
	return call(ctx, &c.base, c.pool, "decrby+expire", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return incrByExpire(ctx, cn, "decrby+expire", key, -by, ttl)
	})
}

func (c *Client) HIncrByExpire(ctx context.Context, key, field string, by int64, ttl time.Duration) (int64, error) {
	return call(ctx, &c.base, c.pool, "hincrby+expire", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return hIncrByExpire(ctx, cn, key, field, by, ttl)
	})
}

// HIncrByFields increments several fields of one hash. Fields are processed
// in order; on failure the earlier ones stay incremented.
func (c *Client) HIncrByFields(ctx context.Context, key string, fields []string, by int64) error {
	_, err := call(ctx, &c.base, c.pool, "hincrbyfields", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return hIncrByFields(ctx, cn, key, fields, by, 0)
	})
	return err
}

func (c *Client) HIncrByFieldsExpire(ctx context.Context, key string, fields []string, by int64, ttl time.Duration) error {
	_, err := call(ctx, &c.base, c.pool, "hincrbyfields+expire", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return hIncrByFields(ctx, cn, key, fields, by, ttl)
	})
	return err
}

func (c *Client) HSetExpire(ctx context.Context, key, field string, value []byte, ttl time.Duration) error {
	_, err := call(ctx, &c.base, c.pool, "hset+expire", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return hSetExpire(ctx, cn, key, field, value, ttl)
	})
	return err
}
