package batch

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

func newArena(t *testing.T) *arena.Context {
	t.Helper()
	ac, err := arena.New(arena.Options{})
	require.NoError(t, err)
	t.Cleanup(ac.Destroy)
	return ac
}

func readings(t *testing.T, ac *arena.Context, n int) []sensor.Reading {
	t.Helper()
	out := make([]sensor.Reading, n)
	for i := range out {
		r, err := sensor.FromSnapshot(ac, sensor.Snapshot{
			Timestamp:  uint64(1_700_000_000_000 + i),
			SensorID:   fmt.Sprintf("hum-%02d", i),
			SensorType: abi.SensorHumidity,
			Value:      40 + float64(i)/2,
			Unit:       "%",
			Location:   "greenhouse",
			Metadata:   []sensor.Pair{{Key: "seq", Value: fmt.Sprint(i)}},
		})
		require.NoError(t, err)
		out[i] = r
	}
	return out
}

func TestEncodeConcatenates(t *testing.T) {
	ac := newArena(t)
	rs := readings(t, ac, 3)

	var want []byte
	for i := range rs {
		b, err := sensor.Marshal(&rs[i])
		require.NoError(t, err)
		want = append(want, b...)
	}

	out := make([]byte, 1024)
	n, err := Encode(rs, out)
	require.NoError(t, err)
	assert.Equal(t, want, out[:n])
}

func TestEncodeAllOrNothing(t *testing.T) {
	ac := newArena(t)
	rs := readings(t, ac, 4)
	size, err := EncodedSize(rs)
	require.NoError(t, err)

	out := bytes.Repeat([]byte{0xEE}, size-1)
	n, err := Encode(rs, out)
	require.Error(t, err)
	assert.Equal(t, abi.StatusBufferTooSmall, abi.FromError(err))
	assert.Zero(t, n)
	assert.Equal(t, bytes.Repeat([]byte{0xEE}, size-1), out)

	rs[2].SensorID = nil
	out = bytes.Repeat([]byte{0xEE}, 2*size)
	n, err = Encode(rs, out)
	require.ErrorIs(t, err, sensor.ErrMissingSensorID)
	assert.Zero(t, n)
	assert.Equal(t, bytes.Repeat([]byte{0xEE}, 2*size), out)
}

func TestEncodeEmpty(t *testing.T) {
	n, err := Encode(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecodeStream(t *testing.T) {
	ac := newArena(t)
	rs := readings(t, ac, 5)
	data, err := Marshal(rs)
	require.NoError(t, err)

	var seen [][2]uint64
	got, consumed, err := DecodeStream(ac, data, func(cur, total uint64) bool {
		seen = append(seen, [2]uint64{cur, total})
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, len(data), consumed)
	require.Len(t, got, 5)
	for i := range rs {
		assert.True(t, sensor.Equal(&rs[i], &got[i]), "record %d", i)
	}

	require.Len(t, seen, 5)
	for i, p := range seen {
		assert.Equal(t, uint64(len(data)), p[1])
		if i > 0 {
			assert.Greater(t, p[0], seen[i-1][0])
		}
	}
	assert.Equal(t, uint64(len(data)), seen[4][0])
}

func TestDecodeStreamCanceled(t *testing.T) {
	ac := newArena(t)
	data, err := Marshal(readings(t, ac, 5))
	require.NoError(t, err)

	calls := 0
	got, consumed, err := DecodeStream(ac, data, func(_, _ uint64) bool {
		calls++
		return calls < 2
	})
	require.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, abi.StatusCanceled, abi.FromError(err))
	assert.Len(t, got, 2)
	assert.Equal(t, 2, calls)
	assert.Less(t, consumed, len(data))
}

func TestDecodeStreamStopsAtBadRecord(t *testing.T) {
	ac := newArena(t)
	data, err := Marshal(readings(t, ac, 2))
	require.NoError(t, err)
	data = append(data, 0x01, 0x02)

	got, consumed, err := DecodeStream(ac, data, nil)
	require.Error(t, err)
	assert.Equal(t, abi.StatusDecodeFailed, abi.FromError(err))
	assert.Len(t, got, 2)
	assert.Equal(t, len(data)-2, consumed)
}
