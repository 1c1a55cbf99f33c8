package sensor

import (
	"github.com/unkn0wn-root/bebopffi/internal/wire"
)

const (
	fixedSize = wire.TagSize + wire.U64Size + // timestamp
		wire.TagSize + wire.LenSize + // sensor_id prefix
		wire.TagSize + wire.U16Size + // sensor_type
		wire.TagSize + wire.F64Size + // value
		wire.TagSize + wire.LenSize + // unit prefix
		wire.TagSize + wire.LenSize + // location prefix
		wire.TagSize // terminator
)

// EncodedSize validates r and returns the exact number of bytes Encode
// writes for it.
func EncodedSize(r *Reading) (int, error) {
	if err := Validate(r); err != nil {
		return 0, err
	}
	n := fixedSize + len(r.SensorID) + len(r.Unit) + len(r.Location)
	if len(r.MetadataKeys) > 0 {
		n += wire.TagSize + wire.CountSize
		for i := range r.MetadataKeys {
			n += wire.BytesSize(len(r.MetadataKeys[i])) + wire.BytesSize(len(r.MetadataValues[i]))
		}
	}
	return n, nil
}

// Encode writes r into out and returns the byte count. Validation and the
// capacity check both happen before the first byte is written, so a failure
// always reports 0 bytes.
func Encode(r *Reading, out []byte) (int, error) {
	size, err := EncodedSize(r)
	if err != nil {
		return 0, err
	}
	w := wire.NewWriter(out)
	if err := w.Reserve(size); err != nil {
		return 0, err
	}
	write(w, r)
	if err := w.Err(); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// Marshal encodes r into a freshly allocated buffer of exactly the right size.
func Marshal(r *Reading) ([]byte, error) {
	size, err := EncodedSize(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	n, err := Encode(r, out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

func write(w *wire.Writer, r *Reading) {
	w.Tag(TagTimestamp)
	w.U64(r.Timestamp)
	w.Tag(TagSensorID)
	w.Bytes(r.SensorID)
	w.Tag(TagSensorType)
	w.U16(r.SensorType)
	w.Tag(TagValue)
	w.F64(r.Value)
	w.Tag(TagUnit)
	w.Bytes(r.Unit)
	w.Tag(TagLocation)
	w.Bytes(r.Location)
	if n := len(r.MetadataKeys); n > 0 {
		w.Tag(TagMetadata)
		w.U32(uint32(n))
		for i := 0; i < n; i++ {
			w.Bytes(r.MetadataKeys[i])
			w.Bytes(r.MetadataValues[i])
		}
	}
	w.End()
}
