package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSON uses encoding/json. The zero value is ready to use. Strict rejects
// unknown fields and trailing data, so a value written by a newer schema
// fails to decode instead of silently losing fields.
type JSON[V any] struct {
	Strict bool
}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v V
	if !c.Strict {
		err := json.Unmarshal(b, &v)
		return v, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var zero V
		return zero, errors.New("codec: trailing data after JSON value")
	}
	return v, nil
}
