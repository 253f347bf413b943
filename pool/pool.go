// Package pool puts explicit borrow/release semantics in front of a go-redis
// client. go-redis pools sockets internally; Pool adds a hard cap on the
// number of logical operations in flight, a bounded (or non-blocking) wait,
// and the counters the pool monitor samples.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

var (
	ErrExhausted = errors.New("pool: exhausted")
	ErrClosed    = errors.New("pool: closed")
	ErrNilClient = errors.New("pool: nil client")
)

// Stats is a point-in-time view of a pool.
type Stats struct {
	MaxTotal int
	Active   int // borrowed and not yet released
	Idle     int // idle sockets held by go-redis
	Total    int // open sockets held by go-redis
	Waiters  int // callers blocked in Borrow
	Borrows  uint64
	Timeouts uint64 // borrows that gave up waiting
}

type Pool struct {
	rdb *redis.Client
	cfg Config
	sem *semaphore.Weighted

	active   atomic.Int64
	waiters  atomic.Int64
	borrows  atomic.Uint64
	timeouts atomic.Uint64

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New takes ownership of rdb; Close closes it.
func New(rdb *redis.Client, cfg Config) (*Pool, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pool{
		rdb: rdb,
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.MaxTotal)),
	}, nil
}

func (p *Pool) Config() Config { return p.cfg }

// acquire takes one permit, honoring BlockWhenExhausted and MaxWait.
func (p *Pool) acquire(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if !p.cfg.BlockWhenExhausted {
		if !p.sem.TryAcquire(1) {
			return fmt.Errorf("%w: %d of %d in use", ErrExhausted, p.active.Load(), p.cfg.MaxTotal)
		}
		p.active.Add(1)
		return nil
	}

	wctx := ctx
	if p.cfg.MaxWait > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, p.cfg.MaxWait)
		defer cancel()
	}

	p.waiters.Add(1)
	start := time.Now()
	err := p.sem.Acquire(wctx, 1)
	p.waiters.Add(-1)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.timeouts.Add(1)
		return fmt.Errorf("%w: waited %s for one of %d connections", ErrExhausted, time.Since(start).Round(time.Millisecond), p.cfg.MaxTotal)
	}
	if p.closed.Load() {
		p.sem.Release(1)
		return ErrClosed
	}
	p.active.Add(1)
	return nil
}

func (p *Pool) release() {
	p.active.Add(-1)
	p.sem.Release(1)
}

// Borrow hands out a connection for one logical operation. The caller must
// call Release exactly once; extra calls are ignored.
func (p *Pool) Borrow(ctx context.Context) (*Conn, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	p.borrows.Add(1)

	c := &Conn{pool: p, cn: p.rdb.Conn()}
	if p.cfg.TestOnBorrow {
		if err := c.cn.Ping(ctx).Err(); err != nil {
			c.Release()
			return nil, fmt.Errorf("pool: connection failed validation: %w", err)
		}
	}
	return c, nil
}

// Stats never blocks. It fails only once the pool is closed.
func (p *Pool) Stats() (Stats, error) {
	if p.closed.Load() {
		return Stats{}, ErrClosed
	}
	ps := p.rdb.PoolStats()
	return Stats{
		MaxTotal: p.cfg.MaxTotal,
		Active:   int(p.active.Load()),
		Idle:     int(ps.IdleConns),
		Total:    int(ps.TotalConns),
		Waiters:  int(p.waiters.Load()),
		Borrows:  p.borrows.Load(),
		Timeouts: p.timeouts.Load(),
	}, nil
}

// Close refuses new borrows and closes the go-redis client. Connections still
// out are closed by go-redis when they are released.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		if err := p.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			p.closeErr = err
		}
	})
	return p.closeErr
}

// Conn is one borrowed connection. It is not safe for concurrent use.
type Conn struct {
	pool *Pool
	cn   *redis.Conn
	once sync.Once
}

// Redis exposes the command set of the borrowed connection. Do not retain it
// past Release.
func (c *Conn) Redis() *redis.Conn { return c.cn }

// Release returns the connection to the pool. Safe to call more than once.
func (c *Conn) Release() {
	c.once.Do(func() {
		_ = c.cn.Close() // returns the socket to go-redis
		c.pool.release()
	})
}

// With borrows a connection, runs fn on it and releases it on every exit
// path, including a panic in fn.
func With[T any](ctx context.Context, p *Pool, fn func(context.Context, *redis.Conn) (T, error)) (T, error) {
	var zero T
	c, err := p.Borrow(ctx)
	if err != nil {
		return zero, err
	}
	defer c.Release()
	return fn(ctx, c.cn)
}
