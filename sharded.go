package cachegate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachegate/internal/shard"
	"github.com/unkn0wn-root/cachegate/pool"
	"github.com/unkn0wn-root/cachegate/result"
	"github.com/unkn0wn-root/cachegate/trace"
)

// ShardedClient spreads keys over several nodes. Every operation touches one
// key on one shard; there are no multi-key operations because shard
// membership can change under a migration.
//
// Backend and pool failures never come back as Go errors: each call returns
// a result.Result, whether or not tracing is enabled.
type ShardedClient struct {
	base
	eps    []Endpoint
	router *shard.Router
	pools  []*pool.Pool

	closeOnce sync.Once
	closeErr  error
}

func NewSharded(opts ShardedOptions) (*ShardedClient, error) {
	t := opts.Topology
	if t.Mode != ModeSharded {
		return nil, &ConfigError{Field: "topology", Reason: "NewSharded needs a sharded topology, got " + t.Mode.String()}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cfg := coalesce(opts.Pool, pool.ShardedDefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Field: "pool", Reason: "invalid pool config", Err: err}
	}
	router, err := shard.New(t.addrs())
	if err != nil {
		return nil, &ConfigError{Field: "topology", Reason: "cannot build shard router", Err: err}
	}
	timeout := coalesce(opts.Timeout, defaultTimeout)
	name := coalesce(opts.Name, "sharded:"+strings.Join(t.addrs(), ","))

	s := &ShardedClient{
		base:   newBase(name, opts.Category, opts.Interceptor, opts.Logger, opts.Hooks, opts.SlowThreshold),
		eps:    append([]Endpoint(nil), t.Endpoints...),
		router: router,
		pools:  make([]*pool.Pool, 0, len(t.Endpoints)),
	}
	for _, ep := range t.Endpoints {
		o := &redis.Options{
			Addr:         ep.String(),
			Username:     opts.Username,
			Password:     opts.Password,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}
		cfg.Apply(o)
		rdb := redis.NewClient(o)
		p, err := pool.New(rdb, cfg)
		if err != nil {
			_ = rdb.Close()
			_ = s.Close()
			return nil, err
		}
		s.pools = append(s.pools, p)
		s.log.Info("redis shard added", Fields{"host": ep.Host, "port": ep.Port})
	}
	return s, nil
}

func (s *ShardedClient) Name() string { return s.name }

// ShardFor returns the endpoint that owns key.
func (s *ShardedClient) ShardFor(key string) Endpoint { return s.eps[s.router.Index(key)] }

func (s *ShardedClient) poolFor(key string) *pool.Pool { return s.pools[s.router.Index(key)] }

// Stats samples every shard, keyed by endpoint address.
func (s *ShardedClient) Stats() (map[string]pool.Stats, error) {
	out := make(map[string]pool.Stats, len(s.pools))
	for i, p := range s.pools {
		st, err := p.Stats()
		if err != nil {
			return nil, err
		}
		out[s.eps[i].String()] = st
	}
	return out, nil
}

// Close closes every shard pool. Safe to call more than once.
func (s *ShardedClient) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		for _, p := range s.pools {
			if err := p.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func shardCall[T any](ctx context.Context, s *ShardedClient, name, key string, fn func(context.Context, *redis.Conn) (T, error)) result.Result[T] {
	defer s.timed(name, key, time.Now())
	p := s.poolFor(key)
	return trace.Enveloped(ctx, s.in, s.op(name), func(ctx context.Context) (T, error) {
		v, err := pool.With(ctx, p, fn)
		s.partial(err)
		return v, err
	})
}

func shardFind[T any](ctx context.Context, s *ShardedClient, name, key string, fn func(context.Context, *redis.Conn) (T, error)) result.Result[T] {
	defer s.timed(name, key, time.Now())
	p := s.poolFor(key)
	return trace.EnvelopedLookup(ctx, s.in, s.op(name), func(ctx context.Context) (T, bool, error) {
		return lookupOn(ctx, p, fn)
	})
}

// Get returns Absent on a miss.
func (s *ShardedClient) Get(ctx context.Context, key string) result.Result[string] {
	return shardFind(ctx, s, "get", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.Get(ctx, key).Result()
	})
}

func (s *ShardedClient) GetBytes(ctx context.Context, key string) result.Result[[]byte] {
	return shardFind(ctx, s, "get", key, func(ctx context.Context, cn *redis.Conn) ([]byte, error) {
		return cn.Get(ctx, key).Bytes()
	})
}

func (s *ShardedClient) Exists(ctx context.Context, key string) result.Result[bool] {
	return shardCall(ctx, s, "exists", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		n, err := cn.Exists(ctx, key).Result()
		return n > 0, err
	})
}

func (s *ShardedClient) Set(ctx context.Context, key, value string) result.Result[bool] {
	return s.SetBytes(ctx, key, []byte(value))
}

func (s *ShardedClient) SetBytes(ctx context.Context, key string, value []byte) result.Result[bool] {
	return shardCall(ctx, s, "set", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return true, cn.Set(ctx, key, value, 0).Err()
	})
}

func (s *ShardedClient) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) result.Result[bool] {
	return shardCall(ctx, s, "setex", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return true, cn.SetEx(ctx, key, value, ttl).Err()
	})
}

// Del reports whether the key existed.
func (s *ShardedClient) Del(ctx context.Context, key string) result.Result[bool] {
	return shardCall(ctx, s, "del", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		n, err := cn.Del(ctx, key).Result()
		return n > 0, err
	})
}

// Expire reports whether the key existed.
func (s *ShardedClient) Expire(ctx context.Context, key string, ttl time.Duration) result.Result[bool] {
	return shardCall(ctx, s, "expire", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.Expire(ctx, key, ttl).Result()
	})
}

func (s *ShardedClient) TTL(ctx context.Context, key string) result.Result[time.Duration] {
	return shardCall(ctx, s, "ttl", key, func(ctx context.Context, cn *redis.Conn) (time.Duration, error) {
		return cn.TTL(ctx, key).Result()
	})
}

func (s *ShardedClient) IncrBy(ctx context.Context, key string, by int64) result.Result[int64] {
	return shardCall(ctx, s, "incrby", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.IncrBy(ctx, key, by).Result()
	})
}

func (s *ShardedClient) IncrByExpire(ctx context.Context, key string, by int64, ttl time.Duration) result.Result[int64] {
	return shardCall(ctx, s, "incrby+expire", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return incrByExpire(ctx, cn, "incrby+expire", key, by, ttl)
	})
}

func (s *ShardedClient) DecrBy(ctx context.Context, key string, by int64) result.Result[int64] {
	return shardCall(ctx, s, "decrby", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.DecrBy(ctx, key, by).Result()
	})
}

func (s *ShardedClient) DecrByExpire(ctx context.Context, key string, by int64, ttl time.Duration) result.Result[int64] {
	return shardCall(ctx, s, "decrby+expire", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return incrByExpire(ctx, cn, "decrby+expire", key, -by, ttl)
	})
}

func (s *ShardedClient) HSet(ctx context.Context, key, field string, value []byte) result.Result[bool] {
	return shardCall(ctx, s, "hset", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return true, cn.HSet(ctx, key, field, value).Err()
	})
}

func (s *ShardedClient) HSetExpire(ctx context.Context, key, field string, value []byte, ttl time.Duration) result.Result[bool] {
	return shardCall(ctx, s, "hset+expire", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return hSetExpire(ctx, cn, key, field, value, ttl)
	})
}

func (s *ShardedClient) HGet(ctx context.Context, key, field string) result.Result[string] {
	return shardFind(ctx, s, "hget", key, func(ctx context.Context, cn *redis.Conn) (string, error) {
		return cn.HGet(ctx, key, field).Result()
	})
}

func (s *ShardedClient) HGetAll(ctx context.Context, key string) result.Result[map[string]string] {
	return shardCall(ctx, s, "hgetall", key, func(ctx context.Context, cn *redis.Conn) (map[string]string, error) {
		return cn.HGetAll(ctx, key).Result()
	})
}

func (s *ShardedClient) HIncrBy(ctx context.Context, key, field string, by int64) result.Result[int64] {
	return shardCall(ctx, s, "hincrby", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.HIncrBy(ctx, key, field, by).Result()
	})
}

func (s *ShardedClient) HIncrByExpire(ctx context.Context, key, field string, by int64, ttl time.Duration) result.Result[int64] {
	return shardCall(ctx, s, "hincrby+expire", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return hIncrByExpire(ctx, cn, key, field, by, ttl)
	})
}

func (s *ShardedClient) HExists(ctx context.Context, key, field string) result.Result[bool] {
	return shardCall(ctx, s, "hexists", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return cn.HExists(ctx, key, field).Result()
	})
}

func (s *ShardedClient) HIncrByFields(ctx context.Context, key string, fields []string, by int64) result.Result[bool] {
	return shardCall(ctx, s, "hincrbyfields", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return hIncrByFields(ctx, cn, key, fields, by, 0)
	})
}

func (s *ShardedClient) HIncrByFieldsExpire(ctx context.Context, key string, fields []string, by int64, ttl time.Duration) result.Result[bool] {
	return shardCall(ctx, s, "hincrbyfields+expire", key, func(ctx context.Context, cn *redis.Conn) (bool, error) {
		return hIncrByFields(ctx, cn, key, fields, by, ttl)
	})
}

func (s *ShardedClient) LRange(ctx context.Context, key string, start, stop int64) result.Result[[]string] {
	return shardCall(ctx, s, "lrange", key, func(ctx context.Context, cn *redis.Conn) ([]string, error) {
		return cn.LRange(ctx, key, start, stop).Result()
	})
}

// LRangeAll returns everything from start to the end of the list.
func (s *ShardedClient) LRangeAll(ctx context.Context, key string, start int64) result.Result[[]string] {
	return s.LRange(ctx, key, start, -1)
}

func (s *ShardedClient) LPush(ctx context.Context, key string, values ...string) result.Result[int64] {
	return shardCall(ctx, s, "lpush", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.LPush(ctx, key, toArgs(values)...).Result()
	})
}

func (s *ShardedClient) RPush(ctx context.Context, key string, values ...string) result.Result[int64] {
	return shardCall(ctx, s, "rpush", key, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.RPush(ctx, key, toArgs(values)...).Result()
	})
}
