package sensor

import (
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/internal/wire"
)

// minMetadataEntry is the smallest encoded key/value pair: two empty
// length-prefixed payloads.
const minMetadataEntry = 2 * wire.LenSize

// Decode materializes one message from data into out, allocating all byte
// payloads from ac. Bytes after the terminator are ignored.
//
// On failure out is zeroed, then ErrCode and ErrMessage are set, and the
// context's last error is updated.
func Decode(ac *arena.Context, data []byte, out *Reading) error {
	_, err := DecodeMessage(ac, data, out)
	return err
}

// DecodeMessage is Decode that also reports how many bytes the message
// occupied, terminator included.
func DecodeMessage(ac *arena.Context, data []byte, out *Reading) (int, error) {
	if out == nil {
		return 0, ErrNilRecord
	}
	if ac == nil || ac.Destroyed() {
		*out = Reading{ErrCode: abi.StatusNullCtx}
		return 0, ErrNilContext
	}
	var r wire.Reader
	r.Reset(data)
	var rec Reading
	if err := decodeFields(ac, &r, &rec); err != nil {
		fail(ac, out, err)
		return 0, err
	}
	*out = rec
	return r.Offset(), nil
}

func decodeFields(ac *arena.Context, r *wire.Reader, rec *Reading) error {
	var seen uint8
	for {
		tag, err := r.NextTag()
		if err != nil {
			return err
		}
		if tag == wire.TagEnd {
			return nil
		}
		if tag > maxTag {
			return errors.Wrapf(ErrUnknownTag, "tag %d at offset %d", tag, r.Offset()-1)
		}
		bit := uint8(1) << tag
		if seen&bit != 0 {
			return errors.Wrapf(ErrDuplicateTag, "tag %d at offset %d", tag, r.Offset()-1)
		}
		seen |= bit

		switch tag {
		case TagTimestamp:
			rec.Timestamp, err = r.U64()
		case TagSensorID:
			rec.SensorID, err = copyBytes(ac, r)
		case TagSensorType:
			rec.SensorType, err = r.U16()
		case TagValue:
			rec.Value, err = r.F64()
		case TagUnit:
			rec.Unit, err = copyBytes(ac, r)
		case TagLocation:
			rec.Location, err = copyBytes(ac, r)
		case TagMetadata:
			rec.MetadataKeys, rec.MetadataValues, err = decodeMetadata(ac, r)
		}
		if err != nil {
			return errors.Wrapf(err, "field %d", tag)
		}
		r.EndField()
	}
}

func copyBytes(ac *arena.Context, r *wire.Reader) (arena.View, error) {
	b, err := r.Bytes()
	if err != nil {
		return nil, err
	}
	return ac.Copy(b)
}

func decodeMetadata(ac *arena.Context, r *wire.Reader) (keys, values []arena.View, err error) {
	n, err := r.Count(minMetadataEntry)
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, nil
	}
	if keys, err = ac.Views(n); err != nil {
		return nil, nil, err
	}
	if values, err = ac.Views(n); err != nil {
		return nil, nil, err
	}
	for i := 0; i < n; i++ {
		if keys[i], err = copyBytes(ac, r); err != nil {
			return nil, nil, errors.Wrapf(err, "metadata key %d", i)
		}
		if values[i], err = copyBytes(ac, r); err != nil {
			return nil, nil, errors.Wrapf(err, "metadata value %d", i)
		}
	}
	return keys, values, nil
}

// fail zeroes out and embeds the error. The message is allocated from the
// context when it fits; an exhausted arena leaves ErrMessage empty and the
// caller falls back to the static status text.
func fail(ac *arena.Context, out *Reading, err error) {
	st := abi.FromError(err)
	*out = Reading{ErrCode: st}
	msg := err.Error()
	ac.Fail(st, msg)
	if v, aerr := ac.CString(msg); aerr == nil {
		out.ErrMessage = v
	}
}
