// Package codec converts sensor snapshots to and from interchange formats.
// Every codec round-trips a sensor.Snapshot; the generic ones also work for
// any value their library can serialize.
package codec

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/sensor"
)

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

var ErrUnknownFormat = errors.New("codec: unknown format")

var formats = map[string]func() (Codec[sensor.Snapshot], error){
	"wire":    func() (Codec[sensor.Snapshot], error) { return Wire{}, nil },
	"json":    func() (Codec[sensor.Snapshot], error) { return JSON[sensor.Snapshot]{}, nil },
	"msgpack": func() (Codec[sensor.Snapshot], error) { return Msgpack[sensor.Snapshot]{}, nil },
	"proto":   func() (Codec[sensor.Snapshot], error) { return SnapshotProto{}, nil },
	"cbor": func() (Codec[sensor.Snapshot], error) {
		c, err := NewCBOR[sensor.Snapshot](true)
		return c, err
	},
}

// ForFormat returns the snapshot codec registered under name.
func ForFormat(name string) (Codec[sensor.Snapshot], error) {
	mk, ok := formats[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFormat, "%q (have %s)", name, strings.Join(Formats(), ", "))
	}
	return mk()
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for k := range formats {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
