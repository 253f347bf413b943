package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func newTestPool(t *testing.T, cfg Config) (*Pool, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	o := &redis.Options{Addr: mr.Addr()}
	cfg.Apply(o)
	p, err := New(redis.NewClient(o), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", DefaultConfig(), true},
		{"sharded defaults", ShardedDefaultConfig(), true},
		{"zero total", Config{MaxTotal: 0}, false},
		{"idle above total", Config{MaxTotal: 2, MaxIdle: 3}, false},
		{"min above max idle", Config{MaxTotal: 4, MaxIdle: 1, MinIdle: 2}, false},
		{"negative idle", Config{MaxTotal: 4, MaxIdle: -1}, false},
		{"tight", Config{MaxTotal: 1, MaxIdle: 1, MinIdle: 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("Validate() err=%v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestNewRejectsNilClient(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); !errors.Is(err, ErrNilClient) {
		t.Fatalf("want ErrNilClient, got %v", err)
	}
}

func TestBorrowReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, DefaultConfig())

	c, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if err := c.Redis().Set(ctx, "k", "v", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s, _ := p.Stats(); s.Active != 1 {
		t.Fatalf("active=%d want 1", s.Active)
	}
	c.Release()
	c.Release() // second release must not free a second permit

	s, err := p.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Active != 0 || s.Borrows != 1 {
		t.Fatalf("after release: %+v", s)
	}

	// one permit total: a double release would let two borrows through
	small, _ := newTestPool(t, Config{MaxTotal: 1, MaxIdle: 1})
	c1, err := small.Borrow(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c1.Release()
	c1.Release()
	c2, err := small.Borrow(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Release()
	if _, err := small.Borrow(ctx); !errors.Is(err, ErrExhausted) {
		t.Fatalf("want ErrExhausted after double release, got %v", err)
	}
}

func TestBorrowTimesOutWhenExhausted(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, Config{
		MaxTotal:           1,
		MaxIdle:            1,
		MaxWait:            100 * time.Millisecond,
		BlockWhenExhausted: true,
	})

	held, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("first Borrow: %v", err)
	}
	defer held.Release()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		c, err := p.Borrow(ctx)
		if err == nil {
			c.Release()
		}
		done <- err
	}()

	select {
	case err := <-done:
		elapsed := time.Since(start)
		if !errors.Is(err, ErrExhausted) {
			t.Fatalf("want ErrExhausted, got %v", err)
		}
		if elapsed < 90*time.Millisecond {
			t.Fatalf("borrow failed too early: %s", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second borrow hung")
	}

	if s, _ := p.Stats(); s.Timeouts != 1 || s.Waiters != 0 {
		t.Fatalf("stats after timeout: %+v", s)
	}
}

func TestBorrowFailsFastWhenNotBlocking(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPool(t, Config{MaxTotal: 1, MaxIdle: 1, MaxWait: time.Hour})

	held, err := p.Borrow(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	start := time.Now()
	_, err = p.Borrow(ctx)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("want ErrExhausted, got %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("non-blocking borrow waited %s", time.Since(start))
	}
}

func TestBorrowHonorsCallerContext(t *testing.T) {
	p, _ := newTestPool(t, Config{MaxTotal: 1, MaxIdle: 1, BlockWhenExhausted: true})
	held, err := p.Borrow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Borrow(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestTestOnBorrowRejectsDeadBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TestOnBorrow = true
	p, mr := newTestPool(t, cfg)
	mr.Close()

	if _, err := p.Borrow(context.Background()); err == nil {
		t.Fatal("expected validation failure")
	}
	if s, _ := p.Stats(); s.Active != 0 {
		t.Fatalf("failed validation leaked a permit: %+v", s)
	}
}

func TestWithReleasesOnPanic(t *testing.T) {
	p, _ := newTestPool(t, DefaultConfig())
	func() {
		defer func() { _ = recover() }()
		_, _ = With(context.Background(), p, func(context.Context, *redis.Conn) (int, error) {
			panic("boom")
		})
	}()
	if s, _ := p.Stats(); s.Active != 0 {
		t.Fatalf("panic leaked a permit: %+v", s)
	}
}

func TestConcurrentBorrowNeverExceedsCapacity(t *testing.T) {
	const capacity = 4
	p, _ := newTestPool(t, Config{
		MaxTotal:           capacity,
		MaxIdle:            capacity,
		MaxWait:            5 * time.Second,
		BlockWhenExhausted: true,
	})

	var (
		inFlight atomic.Int64
		peak     atomic.Int64
		releases atomic.Int64
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			for j := 0; j < 10; j++ {
				c, err := p.Borrow(ctx)
				if err != nil {
					return err
				}
				n := inFlight.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				if s, _ := p.Stats(); s.Active > capacity {
					t.Errorf("active %d exceeds capacity", s.Active)
				}
				if err := c.Redis().Incr(ctx, "ctr").Err(); err != nil {
					return err
				}
				inFlight.Add(-1)
				c.Release()
				releases.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("worker: %v", err)
	}
	if peak.Load() > capacity {
		t.Fatalf("peak in-flight %d > %d", peak.Load(), capacity)
	}
	s, _ := p.Stats()
	if s.Active != 0 || s.Borrows != uint64(releases.Load()) {
		t.Fatalf("leak: stats=%+v releases=%d", s, releases.Load())
	}
}

func TestCloseRejectsBorrowAndStats(t *testing.T) {
	p, _ := newTestPool(t, DefaultConfig())
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := p.Borrow(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
	if _, err := p.Stats(); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed from Stats, got %v", err)
	}
}

func TestSubscriptionHoldsPermit(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestPool(t, Config{MaxTotal: 1, MaxIdle: 1})

	sub, err := p.Subscribe(ctx, false, "news")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if _, err := p.Borrow(ctx); !errors.Is(err, ErrExhausted) {
		t.Fatalf("subscription should hold the only permit, got %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	go func() {
		defer wg.Done()
		select {
		case m := <-sub.Channel():
			got = m.Payload
		case <-time.After(2 * time.Second):
		}
	}()
	mr.Publish("news", "hello")
	wg.Wait()
	if got != "hello" {
		t.Fatalf("payload=%q", got)
	}

	_ = sub.Close()
	_ = sub.Close()
	c, err := p.Borrow(ctx)
	if err != nil {
		t.Fatalf("Borrow after unsubscribe: %v", err)
	}
	c.Release()
}
