package cachegate

import "time"

const (
	defaultTimeout         = time.Second
	defaultSlowThreshold   = 50 * time.Millisecond
	defaultMonitorInterval = 5 * time.Second
	defaultCategory        = "Cache.redis"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
