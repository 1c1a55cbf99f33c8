// Package batch encodes and decodes runs of sensor readings laid out
// back-to-back, each a complete message with its own terminator.
package batch

import (
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/internal/wire"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

var ErrCanceled = errors.Mark(errors.New("batch: canceled by progress callback"), abi.ErrCanceled)

// Progress is told how many input bytes have been consumed out of total.
// Returning false stops the operation at the next record boundary.
type Progress func(current, total uint64) bool

// EncodedSize returns the bytes Encode needs for rs, validating every record.
func EncodedSize(rs []sensor.Reading) (int, error) {
	total := 0
	for i := range rs {
		n, err := sensor.EncodedSize(&rs[i])
		if err != nil {
			return 0, errors.Wrapf(err, "record %d", i)
		}
		total += n
	}
	return total, nil
}

// Encode concatenates the encodings of rs into out. The batch is
// all-or-nothing: if any record is invalid or the total does not fit,
// nothing is written and 0 is returned.
func Encode(rs []sensor.Reading, out []byte) (int, error) {
	total, err := EncodedSize(rs)
	if err != nil {
		return 0, err
	}
	if total > len(out) {
		return 0, errors.Wrapf(wire.ErrShortBuffer, "batch of %d needs %d bytes, have %d", len(rs), total, len(out))
	}
	off := 0
	for i := range rs {
		n, err := sensor.Encode(&rs[i], out[off:total])
		if err != nil {
			clear(out[:off])
			return 0, errors.Wrapf(err, "record %d", i)
		}
		off += n
	}
	return off, nil
}

// Marshal encodes rs into a new buffer of exactly the right size.
func Marshal(rs []sensor.Reading) ([]byte, error) {
	total, err := EncodedSize(rs)
	if err != nil {
		return nil, err
	}
	out := make([]byte, total)
	n, err := Encode(rs, out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// DecodeStream decodes messages from data until it is exhausted, reporting
// progress after every record. It returns the records decoded so far and the
// bytes they consumed, including on error or cancellation.
func DecodeStream(ac *arena.Context, data []byte, progress Progress) ([]sensor.Reading, int, error) {
	var out []sensor.Reading
	total := uint64(len(data))
	off := 0
	for off < len(data) {
		var r sensor.Reading
		n, err := sensor.DecodeMessage(ac, data[off:], &r)
		if err != nil {
			return out, off, errors.Wrapf(err, "record %d at offset %d", len(out), off)
		}
		out = append(out, r)
		off += n
		if progress != nil && !progress(uint64(off), total) {
			return out, off, errors.Wrapf(ErrCanceled, "after %d records", len(out))
		}
	}
	return out, off, nil
}
