package sensor

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

const (
	TagTimestamp  byte = 1
	TagSensorID   byte = 2
	TagSensorType byte = 3
	TagValue      byte = 4
	TagUnit       byte = 5
	TagLocation   byte = 6
	TagMetadata   byte = 7

	maxTag = TagMetadata
)

var (
	ErrDuplicateTag     = errors.Mark(errors.New("sensor: duplicate tag"), abi.ErrDecodeFailed)
	ErrUnknownTag       = errors.Mark(errors.New("sensor: unknown tag"), abi.ErrDecodeFailed)
	ErrMissingSensorID  = errors.Mark(errors.New("sensor: sensor_id is required"), abi.ErrEncodeFailed)
	ErrMetadataMismatch = errors.Mark(errors.New("sensor: metadata keys and values differ in length"), abi.ErrEncodeFailed)
	ErrPayloadTooLarge  = errors.Mark(errors.New("sensor: payload exceeds u32 length"), abi.ErrEncodeFailed)
	ErrNilContext       = errors.Mark(errors.New("sensor: nil context"), abi.ErrNullCtx)
	ErrNilRecord        = errors.Mark(errors.New("sensor: nil record"), abi.ErrNullData)
)

// Reading is the flat form of a SensorReading. Metadata is two parallel,
// index-aligned arrays rather than a map so the layout maps directly onto
// the C struct.
type Reading struct {
	Timestamp  uint64
	SensorID   arena.View
	SensorType uint16
	Value      float64
	Unit       arena.View
	Location   arena.View

	MetadataKeys   []arena.View
	MetadataValues []arena.View

	ErrCode    abi.Status
	ErrMessage arena.View
}

func (r *Reading) MetadataCount() int { return len(r.MetadataKeys) }

// Metadata returns the value for key and whether it was present. The first
// matching key wins.
func (r *Reading) Metadata(key string) (arena.View, bool) {
	for i, k := range r.MetadataKeys {
		if string(k) == key && i < len(r.MetadataValues) {
			return r.MetadataValues[i], true
		}
	}
	return nil, false
}

// Failed reports whether the record carries an embedded error.
func (r *Reading) Failed() bool { return r.ErrCode != abi.StatusOK }

// Validate checks what Encode requires before it touches an output buffer.
func Validate(r *Reading) error {
	if r == nil {
		return ErrNilRecord
	}
	if len(r.SensorID) == 0 {
		return ErrMissingSensorID
	}
	if len(r.MetadataKeys) != len(r.MetadataValues) {
		return errors.Wrapf(ErrMetadataMismatch, "%d keys, %d values", len(r.MetadataKeys), len(r.MetadataValues))
	}
	if uint64(len(r.MetadataKeys)) > math.MaxUint32 {
		return errors.Wrapf(ErrPayloadTooLarge, "metadata count %d", len(r.MetadataKeys))
	}
	if tooLong(r.SensorID) || tooLong(r.Unit) || tooLong(r.Location) {
		return errors.Wrap(ErrPayloadTooLarge, "string field")
	}
	for i := range r.MetadataKeys {
		if tooLong(r.MetadataKeys[i]) || tooLong(r.MetadataValues[i]) {
			return errors.Wrapf(ErrPayloadTooLarge, "metadata entry %d", i)
		}
	}
	return nil
}

func tooLong(v arena.View) bool { return uint64(len(v)) > math.MaxUint32 }

// Equal compares two readings field by field. Byte fields compare by content
// and Value compares bitwise so NaN payloads round-trip.
func Equal(a, b *Reading) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Timestamp != b.Timestamp ||
		a.SensorType != b.SensorType ||
		math.Float64bits(a.Value) != math.Float64bits(b.Value) ||
		a.ErrCode != b.ErrCode ||
		!a.SensorID.Equal(b.SensorID) ||
		!a.Unit.Equal(b.Unit) ||
		!a.Location.Equal(b.Location) ||
		len(a.MetadataKeys) != len(b.MetadataKeys) ||
		len(a.MetadataValues) != len(b.MetadataValues) {
		return false
	}
	for i := range a.MetadataKeys {
		if !a.MetadataKeys[i].Equal(b.MetadataKeys[i]) {
			return false
		}
	}
	for i := range a.MetadataValues {
		if !a.MetadataValues[i].Equal(b.MetadataValues[i]) {
			return false
		}
	}
	return true
}
