package pool

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config sizes one connection pool. It is copied into the pool at
// construction and never changed afterwards.
type Config struct {
	MaxTotal int // hard cap on borrowed connections
	MaxIdle  int
	MinIdle  int

	// MaxWait bounds a blocking Borrow. <= 0 waits for the caller's context only.
	MaxWait time.Duration
	// BlockWhenExhausted=false makes Borrow fail immediately when MaxTotal
	// connections are out.
	BlockWhenExhausted bool

	TestOnBorrow  bool // PING before handing a connection out
	TestWhileIdle bool // let go-redis health-check idle conns on reuse

	// EvictionInterval is the idle age after which go-redis drops a pooled
	// connection. Only applied when TestWhileIdle is set.
	EvictionInterval time.Duration
}

// DefaultConfig matches the single-node defaults of the cache client.
func DefaultConfig() Config {
	return Config{
		MaxTotal:           20,
		MaxIdle:            8,
		MinIdle:            1,
		MaxWait:            time.Second,
		BlockWhenExhausted: true,
		TestOnBorrow:       false,
		TestWhileIdle:      true,
		EvictionInterval:   90 * time.Second,
	}
}

// ShardedDefaultConfig matches the per-shard defaults of the sharded client:
// a large non-blocking pool.
func ShardedDefaultConfig() Config {
	return Config{
		MaxTotal:           1000,
		MaxIdle:            50,
		MinIdle:            0,
		MaxWait:            time.Second,
		BlockWhenExhausted: false,
		TestOnBorrow:       false,
		TestWhileIdle:      true,
		EvictionInterval:   90 * time.Second,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxTotal <= 0:
		return fmt.Errorf("pool: maxTotal must be > 0, got %d", c.MaxTotal)
	case c.MaxIdle < 0 || c.MinIdle < 0:
		return fmt.Errorf("pool: idle bounds must be >= 0 (maxIdle=%d minIdle=%d)", c.MaxIdle, c.MinIdle)
	case c.MaxIdle > c.MaxTotal:
		return fmt.Errorf("pool: maxIdle %d exceeds maxTotal %d", c.MaxIdle, c.MaxTotal)
	case c.MinIdle > c.MaxIdle:
		return fmt.Errorf("pool: minIdle %d exceeds maxIdle %d", c.MinIdle, c.MaxIdle)
	}
	return nil
}

// Apply copies the pool sizing onto go-redis options. The go-redis pool is
// sized to MaxTotal so that the semaphore in Pool is the only place a caller
// waits.
func (c Config) Apply(o *redis.Options) {
	o.PoolSize = c.MaxTotal
	o.MinIdleConns = c.MinIdle
	o.MaxIdleConns = c.MaxIdle
	if c.MaxWait > 0 {
		o.PoolTimeout = c.MaxWait
	}
	if c.TestWhileIdle && c.EvictionInterval > 0 {
		o.ConnMaxIdleTime = c.EvictionInterval
	}
}

// ApplyFailover is Apply for sentinel-managed clients.
func (c Config) ApplyFailover(o *redis.FailoverOptions) {
	o.PoolSize = c.MaxTotal
	o.MinIdleConns = c.MinIdle
	o.MaxIdleConns = c.MaxIdle
	if c.MaxWait > 0 {
		o.PoolTimeout = c.MaxWait
	}
	if c.TestWhileIdle && c.EvictionInterval > 0 {
		o.ConnMaxIdleTime = c.EvictionInterval
	}
}
