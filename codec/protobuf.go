package codec

import "google.golang.org/protobuf/proto"

// Protobuf stores a proto message in wire format. New allocates the
// message Decode fills, e.g. func() *pb.User { return new(pb.User) }.
type Protobuf[T proto.Message] struct {
	New func() T
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) { return proto.Marshal(v) }

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.New()
	if err := proto.Unmarshal(b, m); err != nil {
		var zero T
		return zero, err
	}
	return m, nil
}
