// Package cachegate is a pooled, traced access layer for Redis.
//
// Two client variants share one pool and tracing core:
//   - Client: one node, addressed directly (Static) or through a sentinel set
//     (Sentinel). Calls return values and Go errors.
//   - ShardedClient: keys spread over several nodes by rendezvous hashing.
//     Calls return result.Result; failures never surface as Go errors.
//
// Every call borrows one connection from a bounded pool (package pool),
// runs its command(s) on it and releases it on every exit path. Compound
// operations such as IncrByExpire run their steps on that same connection
// and are not atomic: a failed later step returns a *StepError and leaves
// earlier steps applied.
//
// Tracing is opt-in through Options.Interceptor (package trace):
//
//	sink, _ := otelsink.New(nil, nil)
//	in := trace.New(sink)
//	c, err := cachegate.New(cachegate.Options{
//	    Topology:    cachegate.Static(cachegate.Endpoint{Host: "127.0.0.1", Port: 6379}),
//	    Interceptor: in,
//	    Logger:      zaplog.ZapLogger{L: zap.L()},
//	})
//
// in.Switch().Disable() turns tracing off at runtime without changing what
// callers see.
package cachegate
