package cachegate

import (
	"fmt"

	"github.com/unkn0wn-root/cachegate/pool"
)

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = pool.ErrClosed
	// ErrPoolExhausted is returned when no connection frees up within the
	// pool's wait budget (or immediately, for non-blocking pools).
	ErrPoolExhausted = pool.ErrExhausted
)

// ConfigError reports an invalid topology or pool configuration. New and
// NewSharded return it before any connection is made.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cachegate: invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("cachegate: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StepError reports a compound operation that failed part way. Steps before
// Step completed and were not rolled back.
type StepError struct {
	Op   string
	Key  string
	Step int // 1-based index of the failed step
	Err  error
}

func (e *StepError) Error() string {
	if e.Step > 1 {
		return fmt.Sprintf("%s %q: step %d failed after %d completed: %v", e.Op, e.Key, e.Step, e.Step-1, e.Err)
	}
	return fmt.Sprintf("%s %q: step 1 failed: %v", e.Op, e.Key, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Partial reports whether at least one step took effect.
func (e *StepError) Partial() bool { return e.Step > 1 }
