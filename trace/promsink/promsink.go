// Package promsink records span latencies and event counts as Prometheus
// metrics. It has no notion of span hierarchy.
package promsink

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cachegate/trace"
)

type Sink struct {
	// CallDuration observes every completed span.
	CallDuration *prometheus.HistogramVec
	// EventsTotal counts secondary events (cache misses, SQL kinds).
	EventsTotal *prometheus.CounterVec
	// ErrorsTotal counts reported errors by error type.
	ErrorsTotal *prometheus.CounterVec

	off atomic.Bool
	now func() time.Time
}

var _ trace.Sink = (*Sink)(nil)

// New creates the sink's metrics and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer, namespace string) (*Sink, error) {
	s := &Sink{
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Latency of wrapped calls.",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"category", "name", "status"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of secondary trace events.",
			},
			[]string{"category", "name"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors raised by wrapped calls.",
			},
			[]string{"type"},
		),
		now: time.Now,
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{s.CallDuration, s.EventsTotal, s.ErrorsTotal} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// SetRuntimeEnabled toggles whether the sink accepts data.
func (s *Sink) SetRuntimeEnabled(on bool) { s.off.Store(!on) }

func (s *Sink) RuntimeEnabled() bool { return !s.off.Load() }

func (s *Sink) Open(ctx context.Context, category, name string) (context.Context, trace.Span) {
	return ctx, &span{sink: s, category: category, name: name, start: s.now(), status: trace.StatusOK}
}

func (s *Sink) Event(_ context.Context, category, name string) {
	s.EventsTotal.WithLabelValues(category, name).Inc()
}

func (s *Sink) Error(_ context.Context, err error) {
	s.ErrorsTotal.WithLabelValues(trace.ErrorStatus(err).String()).Inc()
}

type span struct {
	sink     *Sink
	category string
	name     string
	start    time.Time
	status   trace.Status
}

func (sp *span) SetStatus(st trace.Status) { sp.status = st }

func (sp *span) Complete() {
	status := "ok"
	if !sp.status.OK() {
		status = "error"
	}
	sp.sink.CallDuration.
		WithLabelValues(sp.category, sp.name, status).
		Observe(sp.sink.now().Sub(sp.start).Seconds())
}
