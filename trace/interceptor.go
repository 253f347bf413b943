package trace

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/unkn0wn-root/cachegate/result"
)

// Event is a secondary counter emitted when a span opens.
type Event struct {
	Category string
	Name     string
}

// Operation identifies one wrapped call.
type Operation struct {
	Category string // e.g. "Cache.redis", "SQL"
	Name     string // e.g. "get", "user.select"
	// Lookup marks reads whose misses are counted. When set, a miss seen by
	// Lookup or EnvelopedLookup emits a "<Name>:missed" event on Category.
	Lookup bool
	Events []Event
}

// MissedSuffix is appended to the operation name for cache-miss events.
const MissedSuffix = ":missed"

// PanicError is the span status recorded when a wrapped call panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Interceptor opens a span around each wrapped call. A nil *Interceptor is
// valid and behaves as permanently disabled.
type Interceptor struct {
	sink  Sink
	sw    *Switch
	onErr func(error)
}

type Option func(*Interceptor)

// WithSwitch injects the switch consulted on every call. Without it the
// interceptor owns a fresh switch bound to its sink.
func WithSwitch(sw *Switch) Option {
	return func(in *Interceptor) { in.sw = sw }
}

// WithErrorHandler receives failures raised by the sink itself. They are
// never propagated to the caller.
func WithErrorHandler(fn func(error)) Option {
	return func(in *Interceptor) { in.onErr = fn }
}

func New(sink Sink, opts ...Option) *Interceptor {
	if sink == nil {
		sink = Nop{}
	}
	in := &Interceptor{sink: sink}
	for _, o := range opts {
		o(in)
	}
	if in.sw == nil {
		in.sw = NewSwitch(sink)
	}
	if in.onErr == nil {
		in.onErr = func(error) {}
	}
	return in
}

func (in *Interceptor) Sink() Sink      { return in.sink }
func (in *Interceptor) Switch() *Switch { return in.sw }

func (in *Interceptor) Enabled() bool {
	return in != nil && in.sw.Enabled()
}

// Call wraps fn and returns its outcome unchanged.
func Call[T any](ctx context.Context, in *Interceptor, op Operation, fn func(context.Context) (T, error)) (T, error) {
	var v T
	_, err := in.invoke(ctx, op, func(ctx context.Context) (bool, error) {
		var err error
		v, err = fn(ctx)
		return true, err
	})
	return v, err
}

// Lookup wraps a read that reports whether it found anything. A miss is
// never an error; it is counted only when op.Lookup is set.
func Lookup[T any](ctx context.Context, in *Interceptor, op Operation, fn func(context.Context) (T, bool, error)) (T, bool, error) {
	var v T
	found, err := in.invoke(ctx, op, func(ctx context.Context) (bool, error) {
		var (
			ok  bool
			err error
		)
		v, ok, err = fn(ctx)
		return ok, err
	})
	return v, found, err
}

// Enveloped wraps fn and converts an error into a failed Result. The
// conversion happens whether or not tracing is enabled.
func Enveloped[T any](ctx context.Context, in *Interceptor, op Operation, fn func(context.Context) (T, error)) result.Result[T] {
	v, err := Call(ctx, in, op, fn)
	if err != nil {
		return result.FailureFrom[T](err)
	}
	return result.Success(v)
}

// EnvelopedLookup is Enveloped for reads; a miss yields result.Absent.
func EnvelopedLookup[T any](ctx context.Context, in *Interceptor, op Operation, fn func(context.Context) (T, bool, error)) result.Result[T] {
	v, found, err := Lookup(ctx, in, op, fn)
	switch {
	case err != nil:
		return result.FailureFrom[T](err)
	case !found:
		return result.Absent[T]()
	default:
		return result.Success(v)
	}
}

// Pending is a span opened by Start, for integrations that see the start
// and the end of a call in separate callbacks. A nil *Pending is valid.
type Pending struct {
	in   *Interceptor
	ctx  context.Context
	span Span
	done atomic.Bool
}

// Start opens a span for op. It returns a nil *Pending when tracing is
// disabled.
func (in *Interceptor) Start(ctx context.Context, op Operation) (context.Context, *Pending) {
	if !in.Enabled() {
		return ctx, nil
	}
	sctx, span := in.open(ctx, op)
	return sctx, &Pending{in: in, ctx: sctx, span: span}
}

// End records err (nil for success) and completes the span. Only the first
// call has any effect.
func (p *Pending) End(err error) {
	if p == nil || !p.done.CompareAndSwap(false, true) {
		return
	}
	if err != nil {
		p.in.reportErr(p.ctx, err)
		p.in.finish(p.span, ErrorStatus(err))
		return
	}
	p.in.finish(p.span, StatusOK)
}

func (in *Interceptor) invoke(ctx context.Context, op Operation, fn func(context.Context) (bool, error)) (found bool, err error) {
	if !in.Enabled() {
		return fn(ctx)
	}

	sctx, span := in.open(ctx, op)
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{Value: r}
			in.reportErr(sctx, perr)
			in.finish(span, ErrorStatus(perr))
			panic(r)
		}
	}()

	found, err = fn(sctx)
	if err != nil {
		in.reportErr(sctx, err)
		in.finish(span, ErrorStatus(err))
		return found, err
	}
	if op.Lookup && !found {
		in.guard(func() { in.sink.Event(sctx, op.Category, op.Name+MissedSuffix) })
	}
	in.finish(span, StatusOK)
	return found, nil
}

func (in *Interceptor) open(ctx context.Context, op Operation) (context.Context, Span) {
	sctx, span := ctx, Span(nopSpan{})
	in.guard(func() {
		c, s := in.sink.Open(ctx, op.Category, op.Name)
		if c != nil {
			sctx = c
		}
		if s != nil {
			span = s
		}
	})
	for _, ev := range op.Events {
		in.guard(func() { in.sink.Event(sctx, ev.Category, ev.Name) })
	}
	return sctx, span
}

func (in *Interceptor) reportErr(ctx context.Context, err error) {
	in.guard(func() { in.sink.Error(ctx, err) })
}

// finish sets the status and completes the span; Complete runs even when
// SetStatus panics.
func (in *Interceptor) finish(span Span, st Status) {
	defer in.guard(span.Complete)
	in.guard(func() { span.SetStatus(st) })
}

func (in *Interceptor) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			in.onErr(fmt.Errorf("trace: sink panic: %v", r))
		}
	}()
	fn()
}
