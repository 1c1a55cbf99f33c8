package codec

import (
	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
)

// Decode limits sized for sensor snapshots: a handful of fields plus a
// metadata list. Anything larger is not a snapshot.
const (
	cborMaxNesting  = 8
	cborMaxElements = 1 << 16
)

// CBOR serializes with fxamacker/cbor. Construct with NewCBOR or MustCBOR.
// Duplicate map keys fail decoding, the same way a repeated wire tag does.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// NewCBOR builds the codec. deterministic selects RFC 8949 core deterministic
// encoding so equal snapshots produce equal bytes.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, errors.Wrap(err, "cbor enc mode")
	}
	dm, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels:  cborMaxNesting,
		MaxArrayElements: cborMaxElements,
		MaxMapPairs:      cborMaxElements,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, errors.Wrap(err, "cbor dec mode")
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR that panics.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	b, err := c.enc.Marshal(v)
	return b, errors.Wrap(err, "cbor encode")
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, errors.Wrap(err, "cbor decode")
}
