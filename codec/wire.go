package codec

import (
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

// Wire is the native tagged binary format. Each call uses a short-lived
// arena sized from the input, so the returned snapshot owns its memory.
type Wire struct{}

var _ Codec[sensor.Snapshot] = Wire{}

func (Wire) Encode(s sensor.Snapshot) ([]byte, error) {
	ac, err := arena.New(arena.Options{ChunkSize: snapshotSize(s)})
	if err != nil {
		return nil, err
	}
	defer ac.Destroy()
	r, err := sensor.FromSnapshot(ac, s)
	if err != nil {
		return nil, err
	}
	return sensor.Marshal(&r)
}

func (Wire) Decode(b []byte) (sensor.Snapshot, error) {
	ac, err := arena.New(arena.Options{ChunkSize: len(b) + 256})
	if err != nil {
		return sensor.Snapshot{}, err
	}
	defer ac.Destroy()
	var r sensor.Reading
	if err := sensor.Decode(ac, b, &r); err != nil {
		return sensor.Snapshot{}, err
	}
	return r.Snapshot(), nil
}

func snapshotSize(s sensor.Snapshot) int {
	n := len(s.SensorID) + len(s.Unit) + len(s.Location) + 64
	for _, p := range s.Metadata {
		n += len(p.Key) + len(p.Value)
	}
	return n
}
