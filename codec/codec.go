// Package codec turns typed values into the byte strings stored in Redis and
// back. Typed client helpers (GetValue, SetValue and their sharded
// counterparts) take a Codec.
package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Bytes stores []byte as-is.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores a Go string as its raw bytes. No UTF-8 validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

// MaxValueSize is the largest string value a Redis server accepts with the
// default proto-max-bulk-len.
const MaxValueSize = 512 << 20

// Limit bounds payload size in both directions: Encode refuses values the
// server would reject, Decode refuses payloads before Inner sees them.
// Max 0 means MaxValueSize; a negative Max disables the check.
type Limit[V any] struct {
	Inner Codec[V]
	Max   int
}

// TooLargeError is returned by Limit.
type TooLargeError struct {
	Op        string // "encode" or "decode"
	Size, Max int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("codec: %s: payload too large: %d > %d bytes", e.Op, e.Size, e.Max)
}

func (c Limit[V]) max() int {
	if c.Max == 0 {
		return MaxValueSize
	}
	return c.Max
}

func (c Limit[V]) check(op string, b []byte) error {
	if m := c.max(); m > 0 && len(b) > m {
		return &TooLargeError{Op: op, Size: len(b), Max: m}
	}
	return nil
}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if err := c.check("encode", b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if err := c.check("decode", b); err != nil {
		var zero V
		return zero, err
	}
	return c.Inner.Decode(b)
}
