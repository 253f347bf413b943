package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack uses vmihailenco/msgpack. The zero value is ready to use; struct
// fields follow `msgpack:"..."` tags. JSONTags reads `json:"..."` tags
// instead, so one struct definition serves both codecs. Integers are
// written in their smallest form to keep stored values short.
type Msgpack[V any] struct {
	JSONTags bool
}

func (c Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if c.JSONTags {
		enc.SetCustomStructTag("json")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	if c.JSONTags {
		dec.SetCustomStructTag("json")
	}
	err := dec.Decode(&v)
	return v, err
}
