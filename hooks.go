package cachegate

import (
	"time"

	"github.com/unkn0wn-root/cachegate/pool"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The client calls some of them on hot paths.
type Hooks interface {
	// A monitor tick saw active > warn threshold or more than one waiter.
	PoolSaturated(name string, s pool.Stats, warnAt int)

	// A monitor tick could not read pool stats. The loop keeps running.
	PoolSampleError(name string, err error)

	// A call took longer than Options.SlowThreshold.
	SlowCall(op, key string, took time.Duration)

	// A compound operation failed after its first step took effect.
	CompoundPartial(op, key string, err *StepError)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) PoolSaturated(string, pool.Stats, int)      {}
func (NopHooks) PoolSampleError(string, error)              {}
func (NopHooks) SlowCall(string, string, time.Duration)     {}
func (NopHooks) CompoundPartial(string, string, *StepError) {}
