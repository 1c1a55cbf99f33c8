package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/bebopffi/abi"
)

func TestWriterLayout(t *testing.T) {
	buf := make([]byte, 64)
	w := NewWriter(buf)
	require.NoError(t, w.Reserve(1+2+1+BytesSize(2)+1+BytesSize(0)+1))

	w.Tag(3)
	w.U16(1)
	w.Tag(5)
	w.Bytes([]byte("ok"))
	w.Tag(6)
	w.Bytes(nil)
	w.End()
	require.NoError(t, w.Err())

	want := []byte{
		0x03, 0x01, 0x00,
		0x05, 0x02, 0x00, 0x00, 0x00, 'o', 'k',
		0x06, 0x00, 0x00, 0x00, 0x00,
		0x00,
	}
	assert.Equal(t, want, w.Written())
	assert.Equal(t, len(want), w.Len())
}

func TestWriterReserveRejectsShortBuffer(t *testing.T) {
	w := NewWriter(make([]byte, 4))
	err := w.Reserve(5)
	require.ErrorIs(t, err, ErrShortBuffer)
	assert.Equal(t, abi.StatusBufferTooSmall, abi.FromError(err))
	assert.Zero(t, w.Len())
}

func TestWriterOverflowIsSticky(t *testing.T) {
	w := NewWriter(make([]byte, 3))
	w.U16(7)
	w.U16(8)
	require.ErrorIs(t, w.Err(), ErrShortBuffer)
	w.Tag(1)
	assert.Equal(t, 2, w.Len())

	w.Truncate(0)
	assert.NoError(t, w.Err())
	assert.Zero(t, w.Len())
}

func TestWriterZeroCapacity(t *testing.T) {
	w := NewWriter(nil)
	assert.ErrorIs(t, w.Reserve(1), ErrShortBuffer)
	assert.NoError(t, w.Reserve(0))
}
