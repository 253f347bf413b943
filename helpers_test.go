package cachegate

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/unkn0wn-root/cachegate/pool"
)

func endpointOf(t *testing.T, mr *miniredis.Miniredis) Endpoint {
	t.Helper()
	host, port, err := net.SplitHostPort(mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	p, _ := strconv.Atoi(port)
	return Endpoint{Host: host, Port: p}
}

// newTestClient starts a miniredis and a Static client over it. opts.Topology
// is filled in; the monitor is off unless the caller enables it.
func newTestClient(t *testing.T, opts Options) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	opts.Topology = Static(endpointOf(t, mr))
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

type logEntry struct {
	level, msg string
	f          Fields
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, f Fields) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level, msg, f})
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, f Fields) { l.add("debug", msg, f) }
func (l *captureLogger) Info(msg string, f Fields)  { l.add("info", msg, f) }
func (l *captureLogger) Warn(msg string, f Fields)  { l.add("warn", msg, f) }
func (l *captureLogger) Error(msg string, f Fields) { l.add("error", msg, f) }

func (l *captureLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

type recordingHooks struct {
	NopHooks
	mu         sync.Mutex
	saturated  []pool.Stats
	sampleErrs []error
	slow       []string
	partial    []*StepError
}

func (h *recordingHooks) PoolSaturated(_ string, s pool.Stats, _ int) {
	h.mu.Lock()
	h.saturated = append(h.saturated, s)
	h.mu.Unlock()
}

func (h *recordingHooks) PoolSampleError(_ string, err error) {
	h.mu.Lock()
	h.sampleErrs = append(h.sampleErrs, err)
	h.mu.Unlock()
}

func (h *recordingHooks) SlowCall(op, _ string, _ time.Duration) {
	h.mu.Lock()
	h.slow = append(h.slow, op)
	h.mu.Unlock()
}

func (h *recordingHooks) CompoundPartial(_, _ string, err *StepError) {
	h.mu.Lock()
	h.partial = append(h.partial, err)
	h.mu.Unlock()
}

func (h *recordingHooks) counts() (saturated, sampleErrs, slow, partial int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.saturated), len(h.sampleErrs), len(h.slow), len(h.partial)
}

// panicHooks stands in for a metrics backend that fails on every report.
type panicHooks struct{ NopHooks }

func (panicHooks) SlowCall(string, string, time.Duration)      { panic("metrics backend down") }
func (panicHooks) CompoundPartial(string, string, *StepError) { panic("metrics backend down") }
