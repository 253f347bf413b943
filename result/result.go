// Package result holds the success/failure envelope returned by the sharded
// client. Backend errors never escape that client as Go errors; callers branch
// on Successful instead.
package result

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachegate/pool"
)

// Kind is a coarse failure category. Failure(msg) always yields KindUnknown;
// FailureFrom inspects the error.
type Kind uint8

const (
	KindNone Kind = iota // successful results
	KindUnknown
	KindPoolExhausted
	KindPoolClosed
	KindBackend
	KindTimeout
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPoolExhausted:
		return "pool_exhausted"
	case KindPoolClosed:
		return "pool_closed"
	case KindBackend:
		return "backend"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is immutable once built. A successful Result has no message; a
// failed Result has no value.
type Result[T any] struct {
	successful bool
	present    bool
	value      T
	msg        string
	hasMsg     bool
	kind       Kind
}

// Success wraps v as a successful result with a present value.
func Success[T any](v T) Result[T] {
	return Result[T]{successful: true, present: true, value: v}
}

// Absent is a successful lookup that found nothing (cache miss).
func Absent[T any]() Result[T] {
	return Result[T]{successful: true}
}

// Failure builds a failed result carrying msg. An empty msg is still a
// present message.
func Failure[T any](msg string) Result[T] {
	return Result[T]{msg: msg, hasMsg: true, kind: KindUnknown}
}

// FailureFrom builds a failed result from err, keeping err.Error() as the
// message and classifying it. A nil err yields a failure with an empty message.
func FailureFrom[T any](err error) Result[T] {
	if err == nil {
		return Failure[T]("")
	}
	r := Failure[T](err.Error())
	r.kind = Classify(err)
	return r
}

func (r Result[T]) Successful() bool { return r.successful }

// Value returns the value and whether one is present. Failed results and
// Absent results report false.
func (r Result[T]) Value() (T, bool) { return r.value, r.present }

// Message returns the failure message and whether one is present.
func (r Result[T]) Message() (string, bool) { return r.msg, r.hasMsg }

func (r Result[T]) Kind() Kind { return r.kind }

// Or returns the value when present, def otherwise.
func (r Result[T]) Or(def T) T {
	if r.present {
		return r.value
	}
	return def
}

func (r Result[T]) String() string {
	switch {
	case !r.successful:
		return fmt.Sprintf("failure(%s: %s)", r.kind, r.msg)
	case !r.present:
		return "success(absent)"
	default:
		return fmt.Sprintf("success(%v)", r.value)
	}
}

// Map converts a successful value with fn; failures and absent values pass
// through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	switch {
	case !r.successful:
		return Result[U]{msg: r.msg, hasMsg: r.hasMsg, kind: r.kind}
	case !r.present:
		return Absent[U]()
	default:
		return Success(fn(r.value))
	}
}

// Classify maps an error onto a Kind.
func Classify(err error) Kind {
	var (
		rerr redis.Error
		nerr net.Error
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, pool.ErrExhausted):
		return KindPoolExhausted
	case errors.Is(err, pool.ErrClosed), errors.Is(err, redis.ErrClosed):
		return KindPoolClosed
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &nerr) && nerr.Timeout():
		return KindTimeout
	case errors.As(err, &rerr):
		return KindBackend
	case errors.As(err, &nerr):
		return KindBackend
	default:
		return KindUnknown
	}
}
