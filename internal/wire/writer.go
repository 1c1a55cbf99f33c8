package wire

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi/abi"
)

var (
	ErrShortBuffer = errors.Mark(errors.New("wire: output buffer too small"), abi.ErrBufferTooSmall)
	ErrOversized   = errors.Mark(errors.New("wire: payload exceeds u32 length prefix"), abi.ErrEncodeFailed)
)

// Writer appends encoded bytes to a caller-supplied buffer. It never grows
// the buffer. Callers Reserve the full encoded size first; any later
// overflow is sticky and reported by Err.
type Writer struct {
	buf []byte
	off int
	err error
}

func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Reserve fails when fewer than n bytes remain.
func (w *Writer) Reserve(n int) error {
	if w.err != nil {
		return w.err
	}
	if n < 0 || n > len(w.buf)-w.off {
		return errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", n, len(w.buf)-w.off)
	}
	return nil
}

func (w *Writer) Len() int { return w.off }

func (w *Writer) Err() error { return w.err }

// Written returns what has been written so far.
func (w *Writer) Written() []byte { return w.buf[:w.off] }

// Truncate rolls the writer back to n bytes and clears any sticky error.
func (w *Writer) Truncate(n int) {
	if n < 0 || n > w.off {
		return
	}
	w.off = n
	w.err = nil
}

func (w *Writer) grab(n int) []byte {
	if w.err != nil {
		return nil
	}
	if n > len(w.buf)-w.off {
		w.err = errors.Wrapf(ErrShortBuffer, "write of %d bytes at offset %d", n, w.off)
		return nil
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

func (w *Writer) Tag(t byte) {
	if b := w.grab(TagSize); b != nil {
		b[0] = t
	}
}

func (w *Writer) End() { w.Tag(TagEnd) }

func (w *Writer) U16(v uint16) {
	if b := w.grab(U16Size); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

func (w *Writer) U32(v uint32) {
	if b := w.grab(LenSize); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (w *Writer) U64(v uint64) {
	if b := w.grab(U64Size); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// Bytes writes a u32 length prefix followed by p. A zero-length p is still
// written as a zero prefix.
func (w *Writer) Bytes(p []byte) {
	if uint64(len(p)) > math.MaxUint32 {
		if w.err == nil {
			w.err = errors.Wrapf(ErrOversized, "%d bytes", len(p))
		}
		return
	}
	w.U32(uint32(len(p)))
	if len(p) == 0 {
		return
	}
	if b := w.grab(len(p)); b != nil {
		copy(b, p)
	}
}

// BytesSize is the encoded size of a length-prefixed payload of n bytes.
func BytesSize(n int) int { return LenSize + n }
