package codec

import "github.com/fxamacker/cbor/v2"

// CBOR uses fxamacker/cbor. Build it with NewCBOR; the zero value panics.
// Decoding rejects payloads with duplicate map keys, which no encoder in
// this package produces.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR builds a CBOR codec. deterministic selects RFC 8949 core
// deterministic encoding, for byte-stable values across writers. Times are
// written as RFC3339Nano strings.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano
	enc, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dec, err := cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: enc, dec: dec}, nil
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
