package cachegate

import (
	"time"

	"github.com/unkn0wn-root/cachegate/pool"
	"github.com/unkn0wn-root/cachegate/trace"
)

// Options configures a Static or Sentinel Client.
type Options struct {
	// Name tags logs, hooks and metrics. Defaults to the topology address.
	Name     string
	Topology Topology
	// Pool defaults to pool.DefaultConfig() when zero.
	Pool pool.Config

	Username string
	Password string
	// SentinelPassword authenticates against the sentinels. Defaults to
	// Password.
	SentinelPassword string
	DB               int

	// Timeout bounds dial, read and write. Default 1s.
	Timeout time.Duration

	Logger Logger
	Hooks  Hooks

	// Interceptor wraps every call in a span. Nil disables tracing.
	Interceptor *trace.Interceptor
	// Category is the span category. Default "Cache.redis".
	Category string

	// SlowThreshold logs and reports calls slower than this. Default 50ms;
	// negative disables.
	SlowThreshold time.Duration

	// Monitor settings. The monitor runs for Static topologies only.
	MonitorInterval time.Duration
	WarnThreshold   int // 0 means Pool.MaxTotal/2; negative warns whenever a connection is active
	DisableMonitor  bool
}

// ShardedOptions configures a ShardedClient. Topology must be ModeSharded.
type ShardedOptions struct {
	Name     string
	Topology Topology
	// Pool is applied to every shard. Defaults to pool.ShardedDefaultConfig().
	Pool pool.Config

	Username string
	Password string
	Timeout  time.Duration

	Logger        Logger
	Hooks         Hooks
	Interceptor   *trace.Interceptor
	Category      string
	SlowThreshold time.Duration
}
