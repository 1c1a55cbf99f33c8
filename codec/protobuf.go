package codec

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/bebopffi/sensor"
)

// Protobuf serializes a concrete generated message type.
type Protobuf[T proto.Message] struct {
	new func() T
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// SnapshotProto carries a snapshot as a google.protobuf.Struct so any
// protobuf runtime can read it without a generated schema. Struct numbers
// are doubles, so the timestamp travels as a decimal string.
type SnapshotProto struct{}

var _ Codec[sensor.Snapshot] = SnapshotProto{}

var ErrBadProto = errors.New("codec: malformed snapshot struct")

func (SnapshotProto) Encode(s sensor.Snapshot) ([]byte, error) {
	st, err := snapshotStruct(s)
	if err != nil {
		return nil, err
	}
	return NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} }).Encode(st)
}

func (SnapshotProto) Decode(b []byte) (sensor.Snapshot, error) {
	st, err := NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} }).Decode(b)
	if err != nil {
		return sensor.Snapshot{}, err
	}
	return structSnapshot(st)
}

func snapshotStruct(s sensor.Snapshot) (*structpb.Struct, error) {
	m := map[string]any{
		"timestamp":   strconv.FormatUint(s.Timestamp, 10),
		"sensor_id":   s.SensorID,
		"sensor_type": float64(s.SensorType),
		"value":       s.Value,
		"unit":        s.Unit,
		"location":    s.Location,
	}
	if len(s.Metadata) > 0 {
		pairs := make([]any, len(s.Metadata))
		for i, p := range s.Metadata {
			pairs[i] = map[string]any{"key": p.Key, "value": p.Value}
		}
		m["metadata"] = pairs
	}
	st, err := structpb.NewStruct(m)
	return st, errors.Wrap(err, "codec: build snapshot struct")
}

func structSnapshot(st *structpb.Struct) (sensor.Snapshot, error) {
	f := st.GetFields()
	var s sensor.Snapshot
	var err error
	if ts := f["timestamp"].GetStringValue(); ts != "" {
		if s.Timestamp, err = strconv.ParseUint(ts, 10, 64); err != nil {
			return sensor.Snapshot{}, errors.Wrapf(ErrBadProto, "timestamp %q", ts)
		}
	}
	t := f["sensor_type"].GetNumberValue()
	if t < 0 || t > 0xFFFF || t != float64(uint16(t)) {
		return sensor.Snapshot{}, errors.Wrapf(ErrBadProto, "sensor_type %v", t)
	}
	s.SensorType = uint16(t)
	s.SensorID = f["sensor_id"].GetStringValue()
	s.Value = f["value"].GetNumberValue()
	s.Unit = f["unit"].GetStringValue()
	s.Location = f["location"].GetStringValue()
	for i, v := range f["metadata"].GetListValue().GetValues() {
		pf := v.GetStructValue().GetFields()
		if pf == nil {
			return sensor.Snapshot{}, errors.Wrapf(ErrBadProto, "metadata entry %d", i)
		}
		s.Metadata = append(s.Metadata, sensor.Pair{
			Key:   pf["key"].GetStringValue(),
			Value: pf["value"].GetStringValue(),
		})
	}
	return s, nil
}
