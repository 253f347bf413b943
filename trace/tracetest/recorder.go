// Package tracetest provides an in-memory trace.Sink for tests.
package tracetest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cachegate/trace"
)

// SpanRecord is a snapshot of one span.
type SpanRecord struct {
	Category    string
	Name        string
	Status      trace.Status
	StatusSets  int
	Completions int
}

type EventRecord struct {
	Category string
	Name     string
}

// Recorder records everything it is given. The zero value is not usable; call
// NewRecorder.
type Recorder struct {
	runtime atomic.Bool

	// PanicOnOpen and PanicOnComplete make the sink misbehave, for exercising
	// the interceptor's isolation from sink failures.
	PanicOnOpen     atomic.Bool
	PanicOnComplete atomic.Bool

	mu     sync.Mutex
	spans  []*span
	events []EventRecord
	errs   []error
}

var _ trace.Sink = (*Recorder)(nil)

func NewRecorder() *Recorder {
	r := &Recorder{}
	r.runtime.Store(true)
	return r
}

// SetRuntimeEnabled flips the backend's own enabled signal.
func (r *Recorder) SetRuntimeEnabled(on bool) { r.runtime.Store(on) }

func (r *Recorder) RuntimeEnabled() bool { return r.runtime.Load() }

func (r *Recorder) Open(ctx context.Context, category, name string) (context.Context, trace.Span) {
	if r.PanicOnOpen.Load() {
		panic("tracetest: open")
	}
	s := &span{rec: r, category: category, name: name}
	r.mu.Lock()
	r.spans = append(r.spans, s)
	r.mu.Unlock()
	return ctx, s
}

func (r *Recorder) Event(_ context.Context, category, name string) {
	r.mu.Lock()
	r.events = append(r.events, EventRecord{Category: category, Name: name})
	r.mu.Unlock()
}

func (r *Recorder) Error(_ context.Context, err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *Recorder) Spans() []SpanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SpanRecord, 0, len(r.spans))
	for _, s := range r.spans {
		out = append(out, SpanRecord{
			Category:    s.category,
			Name:        s.name,
			Status:      s.status,
			StatusSets:  s.sets,
			Completions: s.completions,
		})
	}
	return out
}

func (r *Recorder) Events() []EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventRecord(nil), r.events...)
}

func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// CountEvents counts events with the given name.
func (r *Recorder) CountEvents(name string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.spans, r.events, r.errs = nil, nil, nil
	r.mu.Unlock()
}

type span struct {
	rec         *Recorder
	category    string
	name        string
	status      trace.Status
	sets        int
	completions int
}

func (s *span) SetStatus(st trace.Status) {
	s.rec.mu.Lock()
	s.status = st
	s.sets++
	s.rec.mu.Unlock()
}

func (s *span) Complete() {
	s.rec.mu.Lock()
	s.completions++
	s.rec.mu.Unlock()
	if s.rec.PanicOnComplete.Load() {
		panic("tracetest: complete")
	}
}
