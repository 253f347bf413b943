// Package trace wraps client calls in named spans and reports them to a
// tracing sink. Wrapping is an explicit decorator: clients call Call, Lookup,
// Enveloped or EnvelopedLookup around each backend operation.
package trace

import (
	"context"
	"fmt"
)

// Sink is the tracing backend. Implementations must be safe for concurrent use.
type Sink interface {
	// Open starts a span. The returned context carries it, when the sink
	// supports propagation.
	Open(ctx context.Context, category, name string) (context.Context, Span)
	// Event counts a named occurrence.
	Event(ctx context.Context, category, name string)
	// Error reports a failure.
	Error(ctx context.Context, err error)
	// RuntimeEnabled reports whether the backend is currently accepting data.
	RuntimeEnabled() bool
}

// Span is one timed record. SetStatus is called once, Complete exactly once.
type Span interface {
	SetStatus(Status)
	Complete()
}

// Status is either OK or an error.
type Status struct {
	err error
}

// StatusOK marks a successful span.
var StatusOK = Status{}

func ErrorStatus(err error) Status {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	return Status{err: err}
}

func (s Status) OK() bool   { return s.err == nil }
func (s Status) Err() error { return s.err }

// String is "SUCCESS" or the dynamic type of the error, e.g. "*net.OpError".
func (s Status) String() string {
	if s.err == nil {
		return "SUCCESS"
	}
	return fmt.Sprintf("%T", s.err)
}

// Nop is a sink that is never enabled.
type Nop struct{}

var _ Sink = Nop{}

func (Nop) Open(ctx context.Context, _, _ string) (context.Context, Span) { return ctx, nopSpan{} }
func (Nop) Event(context.Context, string, string)                         {}
func (Nop) Error(context.Context, error)                                  {}
func (Nop) RuntimeEnabled() bool                                          { return false }

type nopSpan struct{}

func (nopSpan) SetStatus(Status) {}
func (nopSpan) Complete()        {}

// Tee fans out to several sinks. It is enabled while any member is enabled;
// disabled members are skipped. A panicking member does not stop the others:
// the remaining members still run and the first panic is raised again
// afterwards, so the interceptor reports it once.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []Sink

// Open keeps the spans that did open even when a later member panics. The
// panic surfaces from Complete, after every kept span is completed.
func (t tee) Open(ctx context.Context, category, name string) (context.Context, Span) {
	out := teeSpan{spans: make([]Span, 0, len(t))}
	for _, s := range t {
		p := capture(func() {
			if !s.RuntimeEnabled() {
				return
			}
			c, sp := s.Open(ctx, category, name)
			if c != nil {
				ctx = c
			}
			if sp != nil {
				out.spans = append(out.spans, sp)
			}
		})
		if p != nil && out.openPanic == nil {
			out.openPanic = p
		}
	}
	return ctx, out
}

func (t tee) Event(ctx context.Context, category, name string) {
	each(t, func(s Sink) {
		if s.RuntimeEnabled() {
			s.Event(ctx, category, name)
		}
	})
}

func (t tee) Error(ctx context.Context, err error) {
	each(t, func(s Sink) {
		if s.RuntimeEnabled() {
			s.Error(ctx, err)
		}
	})
}

func (t tee) RuntimeEnabled() bool {
	for _, s := range t {
		if s.RuntimeEnabled() {
			return true
		}
	}
	return false
}

type teeSpan struct {
	spans     []Span
	openPanic any
}

func (t teeSpan) SetStatus(st Status) {
	each(t.spans, func(s Span) { s.SetStatus(st) })
}

func (t teeSpan) Complete() {
	defer func() {
		if t.openPanic != nil {
			panic(t.openPanic)
		}
	}()
	each(t.spans, func(s Span) { s.Complete() })
}

// each calls fn for every member, then re-raises the first panic.
func each[M any](members []M, fn func(M)) {
	var first any
	for _, m := range members {
		if p := capture(func() { fn(m) }); p != nil && first == nil {
			first = p
		}
	}
	if first != nil {
		panic(first)
	}
}

func capture(fn func()) (p any) {
	defer func() { p = recover() }()
	fn()
	return nil
}
