// Package otelsink reports spans and events to OpenTelemetry.
package otelsink

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/cachegate/trace"
)

const scope = "github.com/unkn0wn-root/cachegate"

var (
	attrCategory = attribute.Key("cachegate.category")
	attrName     = attribute.Key("cachegate.name")
	attrStatus   = attribute.Key("cachegate.status")
)

type Sink struct {
	tracer oteltrace.Tracer
	events metric.Int64Counter
	errs   metric.Int64Counter
	off    atomic.Bool
}

var _ trace.Sink = (*Sink)(nil)

// New builds a sink on the given providers. Nil providers fall back to the
// otel globals.
func New(tp oteltrace.TracerProvider, mp metric.MeterProvider) (*Sink, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(scope)
	events, err := meter.Int64Counter("cachegate.events",
		metric.WithDescription("Secondary events such as cache misses and SQL kinds"))
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter("cachegate.errors",
		metric.WithDescription("Errors raised by wrapped calls"))
	if err != nil {
		return nil, err
	}
	return &Sink{tracer: tp.Tracer(scope), events: events, errs: errs}, nil
}

// Shutdown stops the sink from accepting data. It does not shut down the
// providers; their owner does that.
func (s *Sink) Shutdown() { s.off.Store(true) }

func (s *Sink) RuntimeEnabled() bool { return !s.off.Load() }

func (s *Sink) Open(ctx context.Context, category, name string) (context.Context, trace.Span) {
	ctx, sp := s.tracer.Start(ctx, name,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attrCategory.String(category), attrName.String(name)),
	)
	return ctx, span{sp}
}

func (s *Sink) Event(ctx context.Context, category, name string) {
	s.events.Add(ctx, 1, metric.WithAttributes(attrCategory.String(category), attrName.String(name)))
	oteltrace.SpanFromContext(ctx).AddEvent(name, oteltrace.WithAttributes(attrCategory.String(category)))
}

func (s *Sink) Error(ctx context.Context, err error) {
	st := trace.ErrorStatus(err)
	s.errs.Add(ctx, 1, metric.WithAttributes(attrStatus.String(st.String())))
	oteltrace.SpanFromContext(ctx).RecordError(err)
}

type span struct{ sp oteltrace.Span }

func (s span) SetStatus(st trace.Status) {
	if st.OK() {
		s.sp.SetStatus(codes.Ok, "")
		return
	}
	s.sp.SetAttributes(attrStatus.String(st.String()))
	s.sp.SetStatus(codes.Error, st.Err().Error())
}

func (s span) Complete() { s.sp.End() }
