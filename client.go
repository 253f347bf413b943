package cachegate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachegate/pool"
	"github.com/unkn0wn-root/cachegate/trace"
)

// base carries what every client variant needs around a call.
type base struct {
	name     string
	category string
	in       *trace.Interceptor
	log      Logger
	hooks    Hooks
	slow     time.Duration
}

func newBase(name, category string, in *trace.Interceptor, l Logger, h Hooks, slow time.Duration) base {
	return base{
		name:     name,
		category: coalesce(category, defaultCategory),
		in:       in,
		log:      withName(l, name),
		hooks:    coalesce[Hooks](h, NopHooks{}),
		slow:     coalesce(slow, defaultSlowThreshold),
	}
}

// missCounted is the only read whose misses are counted as cache misses.
const missCounted = "get"

func (b *base) op(name string) trace.Operation {
	return trace.Operation{Category: b.category, Name: name, Lookup: name == missCounted}
}

func (b *base) timed(op, key string, start time.Time) {
	defer b.shield("slow_call")
	if b.slow < 0 {
		return
	}
	if took := time.Since(start); took > b.slow {
		b.log.Warn("redis call slow", Fields{"op": op, "key": key, "took_ms": took.Milliseconds()})
		b.hooks.SlowCall(op, key, took)
	}
}

func (b *base) partial(err error) {
	defer b.shield("compound_partial")
	var se *StepError
	if errors.As(err, &se) && se.Partial() {
		b.log.Warn("compound operation partially applied", Fields{"op": se.Op, "key": se.Key, "step": se.Step, "err": se.Err})
		b.hooks.CompoundPartial(se.Op, se.Key, se)
	}
}

// shield must be deferred. It keeps a panicking Logger or Hooks out of the
// call result; the panic is logged once, and a logger that panics again is
// ignored.
func (b *base) shield(hook string) {
	r := recover()
	if r == nil {
		return
	}
	defer func() { _ = recover() }()
	b.log.Error("redis call hook panicked", Fields{"hook": hook, "panic": fmt.Sprint(r)})
}

// call borrows from p, runs fn and releases, all inside one span.
func call[T any](ctx context.Context, b *base, p *pool.Pool, name, key string, fn func(context.Context, *redis.Conn) (T, error)) (T, error) {
	defer b.timed(name, key, time.Now())
	return trace.Call(ctx, b.in, b.op(name), func(ctx context.Context) (T, error) {
		v, err := pool.With(ctx, p, fn)
		b.partial(err)
		return v, err
	})
}

// find is call for reads; redis.Nil becomes found=false.
func find[T any](ctx context.Context, b *base, p *pool.Pool, name, key string, fn func(context.Context, *redis.Conn) (T, error)) (T, bool, error) {
	defer b.timed(name, key, time.Now())
	return trace.Lookup(ctx, b.in, b.op(name), func(ctx context.Context) (T, bool, error) {
		return lookupOn(ctx, p, fn)
	})
}

func lookupOn[T any](ctx context.Context, p *pool.Pool, fn func(context.Context, *redis.Conn) (T, error)) (T, bool, error) {
	v, err := pool.With(ctx, p, fn)
	if errors.Is(err, redis.Nil) {
		var zero T
		return zero, false, nil
	}
	return v, err == nil, err
}

// Client talks to one node, directly or through sentinels. Errors are
// returned as-is; a missing key is reported through the found flag.
type Client struct {
	base
	topo Topology
	pool *pool.Pool
	mon  *PoolMonitor

	closeOnce sync.Once
	closeErr  error
}

// New builds a Static or Sentinel client. See NewContext.
func New(opts Options) (*Client, error) {
	return NewContext(context.Background(), opts)
}

// NewContext builds a Static or Sentinel client. For Sentinel the current
// master is resolved before returning; ctx bounds that lookup.
func NewContext(ctx context.Context, opts Options) (*Client, error) {
	t := opts.Topology
	if t.Mode == ModeSharded {
		return nil, &ConfigError{Field: "topology", Reason: "sharded topology needs NewSharded"}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cfg := coalesce(opts.Pool, pool.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Field: "pool", Reason: "invalid pool config", Err: err}
	}
	timeout := coalesce(opts.Timeout, defaultTimeout)
	name := coalesce(opts.Name, defaultName(t))
	b := newBase(name, opts.Category, opts.Interceptor, opts.Logger, opts.Hooks, opts.SlowThreshold)

	var rdb *redis.Client
	switch t.Mode {
	case ModeStatic:
		o := &redis.Options{
			Addr:         t.Endpoints[0].String(),
			Username:     opts.Username,
			Password:     opts.Password,
			DB:           opts.DB,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}
		cfg.Apply(o)
		rdb = redis.NewClient(o)
	case ModeSentinel:
		sentinelPass := coalesce(opts.SentinelPassword, opts.Password)
		master, err := resolveMaster(ctx, t, sentinelPass, timeout)
		if err != nil {
			return nil, err
		}
		fo := &redis.FailoverOptions{
			MasterName:       t.MasterName,
			SentinelAddrs:    t.addrs(),
			SentinelPassword: sentinelPass,
			Username:         opts.Username,
			Password:         opts.Password,
			DB:               opts.DB,
			DialTimeout:      timeout,
			ReadTimeout:      timeout,
			WriteTimeout:     timeout,
		}
		cfg.ApplyFailover(fo)
		rdb = redis.NewFailoverClient(fo)
		b.log.Info("sentinel master resolved", Fields{"master": t.MasterName, "addr": master})
	}

	p, err := pool.New(rdb, cfg)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	c := &Client{
		base: b,
		topo: t,
		pool: p,
	}
	if t.Mode == ModeStatic && !opts.DisableMonitor {
		c.mon = NewPoolMonitor(p, MonitorOptions{
			Name:          name,
			Interval:      opts.MonitorInterval,
			WarnThreshold: coalesce(opts.WarnThreshold, cfg.MaxTotal/2),
			Logger:        c.log,
			Hooks:         c.hooks,
		})
		if err := c.mon.Start(); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	return c, nil
}

// resolveMaster asks each sentinel in turn for the master address.
func resolveMaster(ctx context.Context, t Topology, password string, timeout time.Duration) (string, error) {
	var errs []error
	for _, ep := range t.Endpoints {
		sc := redis.NewSentinelClient(&redis.Options{
			Addr:         ep.String(),
			Password:     password,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
			MaxRetries:   -1,
		})
		addr, err := sc.GetMasterAddrByName(ctx, t.MasterName).Result()
		_ = sc.Close()
		if err == nil && len(addr) == 2 {
			return strings.Join(addr, ":"), nil
		}
		if err == nil {
			err = fmt.Errorf("unexpected reply %v", addr)
		}
		errs = append(errs, fmt.Errorf("%s: %w", ep, err))
	}
	return "", fmt.Errorf("cachegate: no sentinel could resolve master %q: %w", t.MasterName, errors.Join(errs...))
}

func defaultName(t Topology) string {
	switch t.Mode {
	case ModeSentinel:
		return "sentinel:" + t.MasterName
	default:
		return strings.Join(t.addrs(), ",")
	}
}

func (c *Client) Name() string       { return c.name }
func (c *Client) Topology() Topology { return c.topo }

// Monitor is nil unless the client runs one.
func (c *Client) Monitor() *PoolMonitor { return c.mon }

// Stats never blocks; it fails once the client is closed.
func (c *Client) Stats() (pool.Stats, error) { return c.pool.Stats() }

// Close stops the monitor and closes the pool. Calls in flight finish; new
// calls fail with ErrClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.mon != nil {
			c.mon.Stop()
		}
		c.closeErr = c.pool.Close()
	})
	return c.closeErr
}

// Do runs fn on one borrowed connection inside a single span, for commands
// the client does not wrap.
func Do[T any](ctx context.Context, c *Client, name string, fn func(context.Context, *redis.Conn) (T, error)) (T, error) {
	return call(ctx, &c.base, c.pool, name, "", fn)
}
