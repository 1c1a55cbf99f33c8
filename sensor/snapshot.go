package sensor

import (
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/arena"
)

// Pair is one metadata entry of a Snapshot.
type Pair struct {
	Key   string `json:"key" cbor:"key" msgpack:"key"`
	Value string `json:"value" cbor:"value" msgpack:"value"`
}

// Snapshot is a heap-owned copy of a Reading. It outlives the arena the
// reading came from and is the shape the text codecs serialize.
type Snapshot struct {
	Timestamp  uint64  `json:"timestamp" cbor:"timestamp" msgpack:"timestamp"`
	SensorID   string  `json:"sensor_id" cbor:"sensor_id" msgpack:"sensor_id"`
	SensorType uint16  `json:"sensor_type" cbor:"sensor_type" msgpack:"sensor_type"`
	Value      float64 `json:"value" cbor:"value" msgpack:"value"`
	Unit       string  `json:"unit" cbor:"unit" msgpack:"unit"`
	Location   string  `json:"location" cbor:"location" msgpack:"location"`
	Metadata   []Pair  `json:"metadata,omitempty" cbor:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// Snapshot copies r out of its arena.
func (r *Reading) Snapshot() Snapshot {
	s := Snapshot{
		Timestamp:  r.Timestamp,
		SensorID:   string(r.SensorID),
		SensorType: r.SensorType,
		Value:      r.Value,
		Unit:       string(r.Unit),
		Location:   string(r.Location),
	}
	if n := len(r.MetadataKeys); n > 0 && n == len(r.MetadataValues) {
		s.Metadata = make([]Pair, n)
		for i := range s.Metadata {
			s.Metadata[i] = Pair{Key: string(r.MetadataKeys[i]), Value: string(r.MetadataValues[i])}
		}
	}
	return s
}

// FromSnapshot rebuilds a Reading whose payloads live in ac.
func FromSnapshot(ac *arena.Context, s Snapshot) (Reading, error) {
	if ac == nil {
		return Reading{}, ErrNilContext
	}
	r := Reading{
		Timestamp:  s.Timestamp,
		SensorType: s.SensorType,
		Value:      s.Value,
	}
	var err error
	if r.SensorID, err = ac.Copy([]byte(s.SensorID)); err != nil {
		return Reading{}, errors.Wrap(err, "sensor_id")
	}
	if r.Unit, err = ac.Copy([]byte(s.Unit)); err != nil {
		return Reading{}, errors.Wrap(err, "unit")
	}
	if r.Location, err = ac.Copy([]byte(s.Location)); err != nil {
		return Reading{}, errors.Wrap(err, "location")
	}
	if n := len(s.Metadata); n > 0 {
		if r.MetadataKeys, err = ac.Views(n); err != nil {
			return Reading{}, errors.Wrap(err, "metadata")
		}
		if r.MetadataValues, err = ac.Views(n); err != nil {
			return Reading{}, errors.Wrap(err, "metadata")
		}
		for i, p := range s.Metadata {
			if r.MetadataKeys[i], err = ac.Copy([]byte(p.Key)); err != nil {
				return Reading{}, errors.Wrapf(err, "metadata key %d", i)
			}
			if r.MetadataValues[i], err = ac.Copy([]byte(p.Value)); err != nil {
				return Reading{}, errors.Wrapf(err, "metadata value %d", i)
			}
		}
	}
	return r, nil
}
