package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	entryVersion byte = 1
	kindSingle   byte = 1
	kindBatch    byte = 2
)

var (
	ErrCorrupt = errors.New("bebop: corrupt journal entry")
	magic4     = [...]byte{'B', 'B', 'P', 'J'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Single: magic(4) | ver(1) | kind(1=single) | gen(u64 be) | mlen(u32 be) | message(mlen)
func EncodeEntry(gen uint64, msg []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 8 + 4 + len(msg))

	buf.Write(magic4[:])
	buf.WriteByte(entryVersion)
	buf.WriteByte(kindSingle)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(msg)))
	buf.Write(u4[:])

	buf.Write(msg)
	return buf.Bytes()
}

// DecodeEntry returns the generation and message of a single entry. The
// message aliases b. Trailing bytes are rejected.
func DecodeEntry(b []byte) (gen uint64, msg []byte, err error) {
	const hdr = 4 + 1 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != entryVersion || b[5] != kindSingle {
		return 0, nil, ErrCorrupt
	}

	off := 6
	gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	mlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if mlen < 0 || mlen != len(b)-off {
		return 0, nil, ErrCorrupt
	}
	return gen, b[off : off+mlen], nil
}

// Batch:
//
//	magic(4) | ver(1) | kind(2=batch) | n(u32 be)
//	idLen(u16 be) | id(idLen) | gen(u64 be) | mlen(u32 be) | message(mlen) * n
type Item struct {
	SensorID string
	Gen      uint64
	Message  []byte
}

func EncodeEntries(items []Item) ([]byte, error) {
	total := 4 + 1 + 1 + 4
	for _, it := range items {
		if l := len(it.SensorID); l == 0 || l > 0xFFFF {
			return nil, errors.Newf("bebop: invalid sensor id length %d in batch entry", l)
		}
		total += 2 + len(it.SensorID) + 8 + 4 + len(it.Message)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(entryVersion)
	buf.WriteByte(kindBatch)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		binary.BigEndian.PutUint16(u2[:], uint16(len(it.SensorID)))
		buf.Write(u2[:])
		buf.WriteString(it.SensorID)

		binary.BigEndian.PutUint64(u8[:], it.Gen)
		buf.Write(u8[:])

		binary.BigEndian.PutUint32(u4[:], uint32(len(it.Message)))
		buf.Write(u4[:])
		buf.Write(it.Message)
	}
	return buf.Bytes(), nil
}

func DecodeEntries(b []byte) ([]Item, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != entryVersion || b[5] != kindBatch {
		return nil, ErrCorrupt
	}

	off := 6
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	// every item needs at least 2+1+8+4 bytes
	if n < 0 || n > (len(b)-off)/15 {
		return nil, ErrCorrupt
	}

	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(b) {
			return nil, ErrCorrupt
		}
		idLen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if idLen <= 0 || idLen > len(b)-off {
			return nil, ErrCorrupt
		}
		id := b[off : off+idLen]
		off += idLen

		if off+8 > len(b) {
			return nil, ErrCorrupt
		}
		gen := binary.BigEndian.Uint64(b[off : off+8])
		off += 8

		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		mlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if mlen < 0 || mlen > len(b)-off {
			return nil, ErrCorrupt
		}
		msg := b[off : off+mlen]
		off += mlen

		items = append(items, Item{SensorID: string(id), Gen: gen, Message: msg})
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
