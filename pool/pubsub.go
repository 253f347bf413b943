package pool

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Subscription owns one pool permit for as long as it is open.
type Subscription struct {
	ps   *redis.PubSub
	pool *Pool
	once sync.Once
	err  error
}

// Subscribe opens a channel (or pattern) subscription. The subscription is
// confirmed before Subscribe returns.
func (p *Pool) Subscribe(ctx context.Context, pattern bool, channels ...string) (*Subscription, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	p.borrows.Add(1)

	var ps *redis.PubSub
	if pattern {
		ps = p.rdb.PSubscribe(ctx, channels...)
	} else {
		ps = p.rdb.Subscribe(ctx, channels...)
	}
	s := &Subscription{ps: ps, pool: p}
	if _, err := ps.Receive(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Channel delivers messages until Close.
func (s *Subscription) Channel() <-chan *redis.Message { return s.ps.Channel() }

func (s *Subscription) PubSub() *redis.PubSub { return s.ps }

// Close ends the subscription and gives the permit back. Safe to call more
// than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		s.pool.release()
	})
	return s.err
}
