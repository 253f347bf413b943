package cachegate

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/cachegate/codec"
	"github.com/unkn0wn-root/cachegate/result"
)

// DecodeError is returned when a stored payload does not decode.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %q: %v", e.Key, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// GetValue reads key and decodes it with cd.
func GetValue[V any](ctx context.Context, c *Client, cd codec.Codec[V], key string) (V, bool, error) {
	var zero V
	raw, ok, err := c.GetBytes(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := cd.Decode(raw)
	if err != nil {
		return zero, false, &DecodeError{Key: key, Err: err}
	}
	return v, true, nil
}

// SetValue encodes v with cd and stores it. ttl 0 means no expiry.
func SetValue[V any](ctx context.Context, c *Client, cd codec.Codec[V], key string, v V, ttl time.Duration) error {
	b, err := cd.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if ttl > 0 {
		return c.SetEx(ctx, key, b, ttl)
	}
	return c.SetBytes(ctx, key, b)
}

// GetShardedValue is GetValue for a ShardedClient. A payload that does not
// decode is a failure, not a miss.
func GetShardedValue[V any](ctx context.Context, s *ShardedClient, cd codec.Codec[V], key string) result.Result[V] {
	r := s.GetBytes(ctx, key)
	if !r.Successful() {
		return result.Map(r, func([]byte) (zero V) { return })
	}
	raw, ok := r.Value()
	if !ok {
		return result.Absent[V]()
	}
	v, err := cd.Decode(raw)
	if err != nil {
		return result.FailureFrom[V](&DecodeError{Key: key, Err: err})
	}
	return result.Success(v)
}

func SetShardedValue[V any](ctx context.Context, s *ShardedClient, cd codec.Codec[V], key string, v V, ttl time.Duration) result.Result[bool] {
	b, err := cd.Encode(v)
	if err != nil {
		return result.FailureFrom[bool](fmt.Errorf("encode %q: %w", key, err))
	}
	if ttl > 0 {
		return s.SetEx(ctx, key, b, ttl)
	}
	return s.SetBytes(ctx, key, b)
}
