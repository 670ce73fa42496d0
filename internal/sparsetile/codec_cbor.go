package sparsetile

import "github.com/fxamacker/cbor/v2"

// CBORCodec is the generic Codec fallback for a DiskBacked[T] whose payload
// has no explicit byte layout of its own: it marshals/unmarshals T as-is.
// Callers needing a specific on-disk format (e.g. the persisted egress
// table's fixed layout) implement Codec directly instead.
type CBORCodec[T any] struct{}

func (CBORCodec[T]) Encode(v *T) ([]byte, error) { return cbor.Marshal(v) }

func (CBORCodec[T]) Decode(data []byte) (*T, error) {
	var v T
	if err := cbor.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
