package cachegate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachegate/pool"
	"github.com/unkn0wn-root/cachegate/trace"
)

// Subscription is an open channel or pattern subscription. It holds one
// pool connection until Close.
type Subscription = pool.Subscription

// Publish returns the number of subscribers that received msg.
func (c *Client) Publish(ctx context.Context, channel string, msg []byte) (int64, error) {
	return call(ctx, &c.base, c.pool, "publish", channel, func(ctx context.Context, cn *redis.Conn) (int64, error) {
		return cn.Publish(ctx, channel, msg).Result()
	})
}

// Subscribe listens on channels. The subscription is confirmed by the server
// before Subscribe returns.
func (c *Client) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
	return c.subscribe(ctx, "subscribe", false, channels)
}

// PSubscribe listens on glob patterns.
func (c *Client) PSubscribe(ctx context.Context, patterns ...string) (*Subscription, error) {
	return c.subscribe(ctx, "psubscribe", true, patterns)
}

func (c *Client) subscribe(ctx context.Context, name string, pattern bool, channels []string) (*Subscription, error) {
	first := ""
	if len(channels) > 0 {
		first = channels[0]
	}
	defer c.timed(name, first, time.Now())
	return trace.Call(ctx, c.in, c.op(name), func(ctx context.Context) (*Subscription, error) {
		return c.pool.Subscribe(ctx, pattern, channels...)
	})
}
