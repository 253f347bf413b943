package trace_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/unkn0wn-root/cachegate/result"
	"github.com/unkn0wn-root/cachegate/trace"
	"github.com/unkn0wn-root/cachegate/trace/tracetest"
)

var getOp = trace.Operation{Category: "Cache.redis", Name: "get", Lookup: true}

func TestCallSuccessProducesOneCompletedSpan(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)

	v, err := trace.Call(context.Background(), in, getOp, func(context.Context) (string, error) {
		return "v", nil
	})
	if err != nil || v != "v" {
		t.Fatalf("Call = %q, %v", v, err)
	}
	spans := rec.Spans()
	if len(spans) != 1 {
		t.Fatalf("spans=%d want 1", len(spans))
	}
	s := spans[0]
	if s.Category != "Cache.redis" || s.Name != "get" {
		t.Fatalf("span tag %s/%s", s.Category, s.Name)
	}
	if !s.Status.OK() || s.StatusSets != 1 || s.Completions != 1 {
		t.Fatalf("span %+v", s)
	}
}

func TestCallErrorIsReportedAndRethrown(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)
	boom := &net.OpError{Op: "read", Err: errors.New("reset")}

	_, err := trace.Call(context.Background(), in, getOp, func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want original error, got %v", err)
	}
	s := rec.Spans()[0]
	if s.Status.OK() || s.Completions != 1 {
		t.Fatalf("span %+v", s)
	}
	if got := s.Status.String(); got != "*net.OpError" {
		t.Fatalf("status identity=%q", got)
	}
	if errs := rec.Errors(); len(errs) != 1 || errs[0] != boom {
		t.Fatalf("reported errors=%v", errs)
	}
}

func TestSpanCompletesWhenCallPanics(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)

	func() {
		defer func() {
			if r := recover(); r != "cleanup failed" {
				t.Fatalf("panic value=%v", r)
			}
		}()
		_, _ = trace.Call(context.Background(), in, getOp, func(context.Context) (int, error) {
			panic("cleanup failed")
		})
	}()

	s := rec.Spans()[0]
	if s.Completions != 1 || s.Status.OK() {
		t.Fatalf("span %+v", s)
	}
	var perr *trace.PanicError
	if !errors.As(s.Status.Err(), &perr) {
		t.Fatalf("status err=%v", s.Status.Err())
	}
}

func TestLookupMissEmitsEvent(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)

	_, found, err := trace.Lookup(context.Background(), in, getOp, func(context.Context) (string, bool, error) {
		return "", false, nil
	})
	if err != nil || found {
		t.Fatalf("Lookup found=%v err=%v", found, err)
	}
	if n := rec.CountEvents("get:missed"); n != 1 {
		t.Fatalf("miss events=%d", n)
	}

	_, _, _ = trace.Lookup(context.Background(), in, getOp, func(context.Context) (string, bool, error) {
		return "x", true, nil
	})
	if n := rec.CountEvents("get:missed"); n != 1 {
		t.Fatalf("hit emitted a miss event")
	}
	for _, s := range rec.Spans() {
		if !s.Status.OK() {
			t.Fatalf("a miss is not an error: %+v", s)
		}
	}
}

func TestLookupWithoutMissCounting(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)
	hget := trace.Operation{Category: "Cache.redis", Name: "hget"}

	_, found, err := trace.Lookup(context.Background(), in, hget, func(context.Context) (string, bool, error) {
		return "", false, nil
	})
	if err != nil || found {
		t.Fatalf("Lookup found=%v err=%v", found, err)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("events=%v", rec.Events())
	}
	if s := rec.Spans(); len(s) != 1 || !s[0].Status.OK() {
		t.Fatalf("spans=%+v", s)
	}
}

func TestOperationEventsEmittedOnOpen(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)
	op := trace.Operation{
		Category: "SQL",
		Name:     "user.select",
		Events:   []trace.Event{{Category: "SQL.Method", Name: "select"}},
	}
	_, _ = trace.Call(context.Background(), in, op, func(context.Context) (int, error) { return 1, nil })

	ev := rec.Events()
	if len(ev) != 1 || ev[0].Category != "SQL.Method" || ev[0].Name != "select" {
		t.Fatalf("events=%+v", ev)
	}
}

func TestDisabledSkipsSinkButKeepsErrorShape(t *testing.T) {
	boom := errors.New("down")
	fail := func(context.Context) (int, error) { return 0, boom }

	for _, tc := range []struct {
		name string
		in   func(*tracetest.Recorder) *trace.Interceptor
	}{
		{"manual off", func(r *tracetest.Recorder) *trace.Interceptor {
			in := trace.New(r)
			in.Switch().Disable()
			return in
		}},
		{"runtime off", func(r *tracetest.Recorder) *trace.Interceptor {
			r.SetRuntimeEnabled(false)
			return trace.New(r)
		}},
		{"nil interceptor", func(*tracetest.Recorder) *trace.Interceptor { return nil }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := tracetest.NewRecorder()
			in := tc.in(rec)

			if _, err := trace.Call(context.Background(), in, getOp, fail); !errors.Is(err, boom) {
				t.Fatalf("Call err=%v", err)
			}
			r := trace.Enveloped(context.Background(), in, getOp, fail)
			if r.Successful() {
				t.Fatal("envelope should fail")
			}
			if msg, ok := r.Message(); !ok || msg != "down" {
				t.Fatalf("message=%q ok=%v", msg, ok)
			}
			if len(rec.Spans()) != 0 || len(rec.Errors()) != 0 {
				t.Fatalf("disabled interceptor touched the sink")
			}
		})
	}
}

func TestEnvelopedConvertsWhenEnabled(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)

	ok := trace.Enveloped(context.Background(), in, getOp, func(context.Context) (int, error) { return 7, nil })
	if v, present := ok.Value(); !ok.Successful() || !present || v != 7 {
		t.Fatalf("ok=%v", ok)
	}

	miss := trace.EnvelopedLookup(context.Background(), in, getOp, func(context.Context) (int, bool, error) {
		return 0, false, nil
	})
	if !miss.Successful() {
		t.Fatalf("miss should be successful: %v", miss)
	}
	if _, present := miss.Value(); present {
		t.Fatal("miss should be absent")
	}

	bad := trace.EnvelopedLookup(context.Background(), in, getOp, func(context.Context) (int, bool, error) {
		return 0, false, context.DeadlineExceeded
	})
	if bad.Successful() || bad.Kind() != result.KindTimeout {
		t.Fatalf("bad=%v kind=%s", bad, bad.Kind())
	}
	if got := len(rec.Spans()); got != 3 {
		t.Fatalf("spans=%d", got)
	}
}

func TestSinkPanicsAreIsolated(t *testing.T) {
	rec := tracetest.NewRecorder()
	var (
		mu       sync.Mutex
		reported []error
	)
	in := trace.New(rec, trace.WithErrorHandler(func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	}))

	rec.PanicOnComplete.Store(true)
	v, err := trace.Call(context.Background(), in, getOp, func(context.Context) (int, error) { return 3, nil })
	if err != nil || v != 3 {
		t.Fatalf("sink panic leaked into result: %v %v", v, err)
	}
	if s := rec.Spans()[0]; s.Completions != 1 {
		t.Fatalf("completions=%d", s.Completions)
	}

	rec.PanicOnComplete.Store(false)
	rec.PanicOnOpen.Store(true)
	if _, err := trace.Call(context.Background(), in, getOp, func(context.Context) (int, error) { return 4, nil }); err != nil {
		t.Fatalf("open panic leaked: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 2 {
		t.Fatalf("reported=%v", reported)
	}
	for _, e := range reported {
		if !strings.Contains(e.Error(), "sink panic") {
			t.Fatalf("unexpected report %v", e)
		}
	}
}

func TestSwitchComposesManualAndRuntime(t *testing.T) {
	rec := tracetest.NewRecorder()
	sw := trace.NewSwitch(rec)
	if !sw.Enabled() {
		t.Fatal("default should be enabled")
	}
	rec.SetRuntimeEnabled(false)
	if sw.Enabled() || !sw.Manual() {
		t.Fatal("runtime off must disable without touching the manual flag")
	}
	rec.SetRuntimeEnabled(true)
	sw.Disable()
	if sw.Enabled() {
		t.Fatal("manual off must disable")
	}
	sw.Enable()
	if !sw.Enabled() {
		t.Fatal("re-enable")
	}

	if trace.NewSwitch(nil).Enabled() {
		t.Fatal("nop sink is never runtime enabled")
	}
}

func TestSharedSwitchAcrossInterceptors(t *testing.T) {
	rec := tracetest.NewRecorder()
	sw := trace.NewSwitch(rec)
	a := trace.New(rec, trace.WithSwitch(sw))
	b := trace.New(rec, trace.WithSwitch(sw))

	sw.Disable()
	if a.Enabled() || b.Enabled() {
		t.Fatal("shared switch not honored")
	}
}

func TestTeeSkipsDisabledMembers(t *testing.T) {
	on, off := tracetest.NewRecorder(), tracetest.NewRecorder()
	off.SetRuntimeEnabled(false)
	in := trace.New(trace.Tee(on, off, nil))

	_, _ = trace.Call(context.Background(), in, getOp, func(context.Context) (int, error) { return 0, nil })
	if len(on.Spans()) != 1 || len(off.Spans()) != 0 {
		t.Fatalf("on=%d off=%d", len(on.Spans()), len(off.Spans()))
	}

	on.SetRuntimeEnabled(false)
	if in.Enabled() {
		t.Fatal("tee with no enabled members should be disabled")
	}
}

func TestStatusString(t *testing.T) {
	if trace.StatusOK.String() != "SUCCESS" {
		t.Fatal(trace.StatusOK.String())
	}
	if got := trace.ErrorStatus(errors.New("x")).String(); got != "*errors.errorString" {
		t.Fatal(got)
	}
	if trace.ErrorStatus(nil).OK() {
		t.Fatal("ErrorStatus(nil) must not be OK")
	}
}

func TestStartEndCompletesOnce(t *testing.T) {
	rec := tracetest.NewRecorder()
	in := trace.New(rec)
	op := trace.Operation{Category: "SQL", Name: "user.insert", Events: []trace.Event{{Category: "SQL.Method", Name: "insert"}}}

	_, p := in.Start(context.Background(), op)
	boom := errors.New("constraint")
	p.End(boom)
	p.End(nil)

	spans := rec.Spans()
	if len(spans) != 1 || spans[0].Completions != 1 || spans[0].StatusSets != 1 {
		t.Fatalf("spans=%+v", spans)
	}
	if spans[0].Status.Err() != boom {
		t.Fatalf("status=%v", spans[0].Status)
	}
	if rec.CountEvents("insert") != 1 || len(rec.Errors()) != 1 {
		t.Fatalf("events=%v errors=%v", rec.Events(), rec.Errors())
	}

	in.Switch().Disable()
	if _, p := in.Start(context.Background(), op); p != nil {
		t.Fatal("disabled Start must return nil")
	}
	var nilPending *trace.Pending
	nilPending.End(boom)
}

type brokenSink struct {
	trace.Nop
	openPanics bool
}

func (b brokenSink) RuntimeEnabled() bool { return true }

func (b brokenSink) Open(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	if b.openPanics {
		panic("exporter gone")
	}
	return ctx, brokenSpan{}
}

type brokenSpan struct{}

func (brokenSpan) SetStatus(trace.Status) { panic("status rejected") }
func (brokenSpan) Complete()              { panic("flush failed") }

func TestTeeCompletesHealthyMembersWhenOpenPanics(t *testing.T) {
	rec := tracetest.NewRecorder()
	var sinkErrs []error
	in := trace.New(trace.Tee(rec, brokenSink{openPanics: true}),
		trace.WithErrorHandler(func(err error) { sinkErrs = append(sinkErrs, err) }))

	v, err := trace.Call(context.Background(), in, getOp, func(context.Context) (int, error) { return 3, nil })
	if err != nil || v != 3 {
		t.Fatalf("Call = %d, %v", v, err)
	}
	spans := rec.Spans()
	if len(spans) != 1 || spans[0].StatusSets != 1 || spans[0].Completions != 1 || !spans[0].Status.OK() {
		t.Fatalf("spans=%+v", spans)
	}
	if len(sinkErrs) != 1 || !strings.Contains(sinkErrs[0].Error(), "exporter gone") {
		t.Fatalf("sink errors=%v", sinkErrs)
	}
}

func TestTeeCompletesHealthyMembersWhenSpanPanics(t *testing.T) {
	rec := tracetest.NewRecorder()
	var sinkErrs []error
	in := trace.New(trace.Tee(brokenSink{}, rec),
		trace.WithErrorHandler(func(err error) { sinkErrs = append(sinkErrs, err) }))

	_, err := trace.Call(context.Background(), in, getOp, func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	if err == nil || err.Error() != "down" {
		t.Fatalf("err=%v", err)
	}
	spans := rec.Spans()
	if len(spans) != 1 || spans[0].StatusSets != 1 || spans[0].Completions != 1 || spans[0].Status.OK() {
		t.Fatalf("spans=%+v", spans)
	}
	if len(sinkErrs) != 2 {
		t.Fatalf("sink errors=%v", sinkErrs)
	}
}
