package codec

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

var ErrTrailingData = errors.New("codec: trailing data after value")

// JSON is a strict encoding/json codec: unknown fields and anything after
// the first value are rejected on decode.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) {
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "json encode")
}

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, errors.Wrap(err, "json decode")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return v, ErrTrailingData
	}
	return v, nil
}
