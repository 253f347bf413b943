package cachegate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/cachegate/pool"
)

var ErrMonitorStopped = errors.New("cachegate: monitor already stopped")

// StatsSource is anything the monitor can sample. *pool.Pool satisfies it.
type StatsSource interface {
	Stats() (pool.Stats, error)
}

type MonitorOptions struct {
	Name     string
	Interval time.Duration // default 5s
	// WarnThreshold is the active count above which a tick warns. Zero
	// means half of the sampled MaxTotal; negative warns on any active
	// connection.
	WarnThreshold int
	Logger        Logger
	Hooks         Hooks
}

type monitorState uint8

const (
	monitorIdle monitorState = iota
	monitorRunning
	monitorStopped
)

// PoolMonitor samples a pool on a fixed interval and warns when it looks
// saturated. It never acts on the pool.
type PoolMonitor struct {
	src      StatsSource
	name     string
	interval time.Duration
	warnAt   int
	log      Logger
	hooks    Hooks

	mu     sync.Mutex
	state  monitorState
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewPoolMonitor(src StatsSource, o MonitorOptions) *PoolMonitor {
	return &PoolMonitor{
		src:      src,
		name:     o.Name,
		interval: coalesce(o.Interval, defaultMonitorInterval),
		warnAt:   o.WarnThreshold,
		log:      coalesce[Logger](o.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](o.Hooks, NopHooks{}),
	}
}

// Start launches the sampling loop. Starting a running monitor is a no-op;
// a stopped monitor cannot be restarted.
func (m *PoolMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case monitorRunning:
		return nil
	case monitorStopped:
		return ErrMonitorStopped
	}
	m.state = monitorRunning
	m.ticker = time.NewTicker(m.interval)
	m.stopCh = make(chan struct{})
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-m.ticker.C:
				m.tick()
			case <-m.stopCh:
				return
			}
		}
	}()
	return nil
}

// Stop ends the loop and waits for it. Safe to call more than once, and
// before Start.
func (m *PoolMonitor) Stop() {
	m.mu.Lock()
	if m.state != monitorRunning {
		m.state = monitorStopped
		m.mu.Unlock()
		return
	}
	m.state = monitorStopped
	close(m.stopCh)
	m.ticker.Stop() // stop ticker before waiting
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *PoolMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == monitorRunning
}

// tick takes one sample and reports whether it warned. Errors and panics
// from the source are logged and swallowed.
func (m *PoolMonitor) tick() (warned bool) {
	defer func() {
		if r := recover(); r != nil {
			m.sampleFailed(fmt.Errorf("stats source panic: %v", r))
			warned = false
		}
	}()

	s, err := m.src.Stats()
	if err != nil {
		m.sampleFailed(err)
		return false
	}
	warnAt := m.warnAt
	switch {
	case warnAt == 0:
		warnAt = s.MaxTotal / 2
	case warnAt < 0:
		warnAt = 0
	}
	if s.Active <= warnAt && s.Waiters <= 1 {
		return false
	}
	m.log.Warn("redis pool saturated", Fields{
		"pool":     m.name,
		"maxTotal": s.MaxTotal,
		"active":   s.Active,
		"idle":     s.Idle,
		"waiters":  s.Waiters,
		"warnAt":   warnAt,
	})
	m.hooks.PoolSaturated(m.name, s, warnAt)
	return true
}

func (m *PoolMonitor) sampleFailed(err error) {
	defer func() { _ = recover() }()
	m.log.Warn("redis pool sample failed", Fields{"pool": m.name, "err": err})
	m.hooks.PoolSampleError(m.name, err)
}
