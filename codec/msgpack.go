package codec

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes with vmihailenco/msgpack/v5 using `msgpack` struct
// tags. Numbers go out in their smallest lossless form, so whole-number
// values and small sensor types take a single byte.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	enc.UseCompactFloats(true)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "msgpack encode")
	}
	return buf.Bytes(), nil
}

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)
	dec.DisallowUnknownFields(true)
	if err := dec.Decode(&v); err != nil {
		return v, errors.Wrap(err, "msgpack decode")
	}
	if r.Len() > 0 {
		return v, ErrTrailingData
	}
	return v, nil
}
