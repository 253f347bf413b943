// Package sloghooks implements cachegate.Hooks on top of log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cachegate"
	"github.com/unkn0wn-root/cachegate/pool"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SaturatedEvery uint64
	SlowCallEvery  uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	saturatedCtr atomic.Uint64
	slowCtr      atomic.Uint64
}

var _ cachegate.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) PoolSaturated(name string, s pool.Stats, warnAt int) {
	if h.l == nil || !sample(h.opts.SaturatedEvery, &h.saturatedCtr) {
		return
	}
	h.l.Warn("cachegate.pool_saturated",
		"pool", name,
		"active", s.Active,
		"waiters", s.Waiters,
		"max_total", s.MaxTotal,
		"warn_at", warnAt)
}

func (h *Hooks) PoolSampleError(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachegate.pool_sample_error",
		"pool", name,
		"err", err)
}

func (h *Hooks) SlowCall(op, key string, took time.Duration) {
	if h.l == nil || !sample(h.opts.SlowCallEvery, &h.slowCtr) {
		return
	}
	h.l.Info("cachegate.slow_call",
		"op", op,
		"key", h.redact(key),
		"took", took)
}

func (h *Hooks) CompoundPartial(op, key string, err *cachegate.StepError) {
	if h.l == nil {
		return
	}
	h.l.Error("cachegate.compound_partial",
		"op", op,
		"key", h.redact(key),
		"step", err.Step,
		"err", err.Err)
}
