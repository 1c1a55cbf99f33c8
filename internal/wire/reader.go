package wire

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
)

const (
	TagEnd    byte = 0
	TagSize        = 1
	LenSize        = 4
	U16Size        = 2
	U64Size        = 8
	F64Size        = 8
	CountSize      = 4
)

var (
	ErrTruncated     = errors.Mark(errors.New("wire: truncated message"), abi.ErrDecodeFailed)
	ErrInvalidLength = errors.Mark(errors.New("wire: length prefix exceeds remaining input"), abi.ErrInvalidLength)
	ErrFieldState    = errors.New("wire: read outside of a field")
)

// State is the reader's position in the message grammar.
type State uint8

const (
	StateStart State = iota
	StateReadingTag
	StateReadingField
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateReadingTag:
		return "reading_tag"
	case StateReadingField:
		return "reading_field"
	case StateDone:
		return "done"
	default:
		return "invalid"
	}
}

// Reader is a cursor over one immutable input buffer. It never reads past
// the end of buf; every short read is reported as an error.
type Reader struct {
	buf   []byte
	off   int
	state State
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Reset points the reader at a new buffer.
func (r *Reader) Reset(b []byte) {
	r.buf = b
	r.off = 0
	r.state = StateStart
}

func (r *Reader) State() State { return r.state }

// Offset is the number of bytes consumed so far. After the terminator it is
// the encoded size of the message; trailing bytes are not consumed.
func (r *Reader) Offset() int { return r.off }

func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// NextTag reads the next field tag. Tag 0 ends the message and moves the
// reader to StateDone; later calls keep returning 0.
func (r *Reader) NextTag() (byte, error) {
	if r.state == StateDone {
		return TagEnd, nil
	}
	if r.off >= len(r.buf) {
		return 0, errors.Wrapf(ErrTruncated, "missing tag at offset %d", r.off)
	}
	tag := r.buf[r.off]
	r.off++
	if tag == TagEnd {
		r.state = StateDone
		return TagEnd, nil
	}
	r.state = StateReadingField
	return tag, nil
}

func (r *Reader) take(n int, what string) ([]byte, error) {
	if r.state != StateReadingField {
		return nil, errors.Wrapf(ErrFieldState, "%s in state %s", what, r.state)
	}
	if n > len(r.buf)-r.off {
		return nil, errors.Wrapf(ErrTruncated, "%s needs %d bytes at offset %d, have %d", what, n, r.off, len(r.buf)-r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// EndField returns the reader to tag position once a field is fully read.
func (r *Reader) EndField() {
	if r.state == StateReadingField {
		r.state = StateReadingTag
	}
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(U16Size, "u16")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(LenSize, "u32")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(U64Size, "u64")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) F64() (float64, error) {
	u, err := r.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// Bytes reads a length-prefixed payload. The result aliases the input; the
// caller copies it if it must outlive the input buffer.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(len(r.buf)-r.off) { // overflow-safe bound check
		return nil, errors.Wrapf(ErrInvalidLength, "length %d at offset %d, have %d", n, r.off-LenSize, len(r.buf)-r.off)
	}
	return r.take(int(n), "bytes")
}

// Count reads an element count and rejects counts that cannot possibly fit
// in the remaining input given minEntry bytes per element.
func (r *Reader) Count(minEntry int) (int, error) {
	n, err := r.U32()
	if err != nil {
		return 0, err
	}
	if minEntry > 0 && uint64(n)*uint64(minEntry) > uint64(len(r.buf)-r.off) {
		return 0, errors.Wrapf(ErrInvalidLength, "count %d at offset %d cannot fit in %d bytes", n, r.off-CountSize, len(r.buf)-r.off)
	}
	return int(n), nil
}
