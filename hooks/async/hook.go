// Package asynchook moves hook delivery off the calling goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SaturatedEvery: 10, // log ~every 10th saturated tick
//	    SlowCallEvery:  1,  // log every slow call
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := cachegate.New(cachegate.Options{
//	    Topology: cachegate.Static(ep),
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cachegate"
	"github.com/unkn0wn-root/cachegate/pool"
)

// Hooks queues each event for a worker. A full queue drops the event.
type Hooks struct {
	inner   cachegate.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cachegate.Hooks = (*Hooks)(nil)

func New(inner cachegate.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}
	if inner == nil {
		inner = cachegate.NopHooks{}
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				run(f)
			}
		}()
	}
	return h
}

// run keeps a panicking hook from killing its worker.
func run(f func()) {
	defer func() { _ = recover() }()
	f()
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped counts events lost to a full queue or a closed Hooks.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) PoolSaturated(name string, s pool.Stats, warnAt int) {
	h.try(func() { h.inner.PoolSaturated(name, s, warnAt) })
}
func (h *Hooks) PoolSampleError(name string, err error) {
	h.try(func() { h.inner.PoolSampleError(name, err) })
}
func (h *Hooks) SlowCall(op, key string, took time.Duration) {
	h.try(func() { h.inner.SlowCall(op, key, took) })
}
func (h *Hooks) CompoundPartial(op, key string, err *cachegate.StepError) {
	h.try(func() { h.inner.CompoundPartial(op, key, err) })
}
