package sensor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

// floorReading is temp-001 on floor-1 reading 23.5 C with status=ok.
var floorReading = []byte{
	0x01, 0x00, 0x94, 0x35, 0x77, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x08, 0x00, 0x00, 0x00, 't', 'e', 'm', 'p', '-', '0', '0', '1',
	0x03, 0x01, 0x00,
	0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x37, 0x40,
	0x05, 0x01, 0x00, 0x00, 0x00, 'C',
	0x06, 0x07, 0x00, 0x00, 0x00, 'f', 'l', 'o', 'o', 'r', '-', '1',
	0x07, 0x01, 0x00, 0x00, 0x00,
	0x06, 0x00, 0x00, 0x00, 's', 't', 'a', 't', 'u', 's',
	0x02, 0x00, 0x00, 0x00, 'o', 'k',
	0x00,
}

func newArena(t *testing.T) *arena.Context {
	t.Helper()
	ac, err := arena.New(arena.Options{})
	require.NoError(t, err)
	t.Cleanup(ac.Destroy)
	return ac
}

func sample(t *testing.T, ac *arena.Context) Reading {
	t.Helper()
	r, err := FromSnapshot(ac, Snapshot{
		Timestamp:  2_000_000_000,
		SensorID:   "temp-001",
		SensorType: abi.SensorTemperature,
		Value:      23.5,
		Unit:       "C",
		Location:   "floor-1",
		Metadata:   []Pair{{Key: "status", Value: "ok"}},
	})
	require.NoError(t, err)
	return r
}

func TestDecodeKnownMessage(t *testing.T) {
	ac := newArena(t)
	var r Reading
	n, err := DecodeMessage(ac, floorReading, &r)
	require.NoError(t, err)
	assert.Equal(t, len(floorReading), n)

	assert.Equal(t, uint64(2_000_000_000), r.Timestamp)
	assert.Equal(t, "temp-001", r.SensorID.String())
	assert.Equal(t, abi.SensorTemperature, r.SensorType)
	assert.Equal(t, 23.5, r.Value)
	assert.Equal(t, "C", r.Unit.String())
	assert.Equal(t, "floor-1", r.Location.String())
	require.Equal(t, 1, r.MetadataCount())
	v, ok := r.Metadata("status")
	assert.True(t, ok)
	assert.Equal(t, "ok", v.String())
	assert.Equal(t, abi.StatusOK, r.ErrCode)
	assert.Empty(t, r.ErrMessage)
}

func TestDecodeCopiesOutOfInput(t *testing.T) {
	ac := newArena(t)
	in := bytes.Clone(floorReading)
	var r Reading
	require.NoError(t, Decode(ac, in, &r))
	for i := range in {
		in[i] = 0xFF
	}
	assert.Equal(t, "temp-001", r.SensorID.String())
	assert.Equal(t, "status", r.MetadataKeys[0].String())
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	ac := newArena(t)
	in := append(bytes.Clone(floorReading), 0xAB, 0xCD, 0x07)
	var r Reading
	n, err := DecodeMessage(ac, in, &r)
	require.NoError(t, err)
	assert.Equal(t, len(floorReading), n)
}

func TestDecodeTruncatedAtEveryOffset(t *testing.T) {
	ac := newArena(t)
	for cut := 0; cut < len(floorReading); cut++ {
		var r Reading
		err := Decode(ac, floorReading[:cut], &r)
		require.Error(t, err, "cut at %d", cut)
		st := abi.FromError(err)
		assert.Contains(t, []abi.Status{abi.StatusDecodeFailed, abi.StatusInvalidLength}, st, "cut at %d", cut)
		assert.Equal(t, st, r.ErrCode)
		assert.NotEmpty(t, r.ErrMessage)
		assert.Empty(t, r.SensorID)
		assert.Zero(t, r.Timestamp)
		assert.Equal(t, st, ac.LastStatus())
		ac.Reset()
	}
}

func TestDecodeLengthBeyondInput(t *testing.T) {
	ac := newArena(t)
	in := []byte{0x02, 0xFF, 0xFF, 0x00, 0x00, 'x', 0x00}
	var r Reading
	err := Decode(ac, in, &r)
	require.Error(t, err)
	assert.Equal(t, abi.StatusInvalidLength, abi.FromError(err))
	assert.Equal(t, abi.StatusInvalidLength, r.ErrCode)
}

func TestDecodeRejectsDuplicateTag(t *testing.T) {
	ac := newArena(t)
	in := []byte{
		0x03, 0x01, 0x00,
		0x03, 0x02, 0x00,
		0x00,
	}
	var r Reading
	err := Decode(ac, in, &r)
	require.ErrorIs(t, err, ErrDuplicateTag)
	assert.Equal(t, abi.StatusDecodeFailed, r.ErrCode)
	assert.Zero(t, r.SensorType)
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	ac := newArena(t)
	in := []byte{0x03, 0x01, 0x00, 0x09, 0x00}
	var r Reading
	err := Decode(ac, in, &r)
	require.ErrorIs(t, err, ErrUnknownTag)
	assert.Equal(t, abi.StatusDecodeFailed, abi.FromError(err))
}

func TestDecodeMissingFieldsDefault(t *testing.T) {
	ac := newArena(t)
	var r Reading
	require.NoError(t, Decode(ac, []byte{0x04, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F, 0x00}, &r))
	assert.Equal(t, 1.0, r.Value)
	assert.Empty(t, r.SensorID)
	assert.Zero(t, r.MetadataCount())
}

func TestDecodeEmptyMessage(t *testing.T) {
	ac := newArena(t)
	var r Reading
	require.NoError(t, Decode(ac, []byte{0x00}, &r))
	assert.True(t, Equal(&Reading{}, &r))
}

func TestDecodeHugeMetadataCount(t *testing.T) {
	ac := newArena(t)
	in := []byte{0x07, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
	var r Reading
	err := Decode(ac, in, &r)
	require.Error(t, err)
	assert.Equal(t, abi.StatusInvalidLength, abi.FromError(err))
	assert.Less(t, ac.Stats().InUse, int64(4096))
}

func TestDecodeNilContext(t *testing.T) {
	var r Reading
	err := Decode(nil, floorReading, &r)
	require.ErrorIs(t, err, ErrNilContext)
	assert.Equal(t, abi.StatusNullCtx, r.ErrCode)

	require.ErrorIs(t, Decode(newArena(t), floorReading, nil), ErrNilRecord)
}

func TestDecodeArenaExhausted(t *testing.T) {
	ac, err := arena.New(arena.Options{ChunkSize: 8, Limit: 8})
	require.NoError(t, err)
	defer ac.Destroy()

	var r Reading
	err = Decode(ac, floorReading, &r)
	require.Error(t, err)
	assert.Equal(t, abi.StatusAllocFailed, r.ErrCode)
	assert.Equal(t, abi.StatusAllocFailed, ac.LastStatus())
}

func TestDecodeFailureClearsPreviousRecord(t *testing.T) {
	ac := newArena(t)
	var r Reading
	require.NoError(t, Decode(ac, floorReading, &r))
	require.Error(t, Decode(ac, floorReading[:10], &r))
	assert.Empty(t, r.SensorID)
	assert.Nil(t, r.MetadataKeys)
	assert.Zero(t, r.Value)
}

func TestDecodeIsDeterministic(t *testing.T) {
	ac := newArena(t)
	var a, b Reading
	require.NoError(t, Decode(ac, floorReading, &a))
	require.NoError(t, Decode(newArena(t), floorReading, &b))
	assert.True(t, Equal(&a, &b))
	assert.Equal(t, a.Snapshot(), b.Snapshot())

	var c Reading
	require.NoError(t, Decode(ac, floorReading, &c))
	assert.True(t, Equal(&a, &c))
	assert.NotSame(t, &a.SensorID[0], &c.SensorID[0])
}

func TestDecodeAfterResetOnPoisonedArena(t *testing.T) {
	ac, err := arena.New(arena.Options{ChunkSize: 256, Poison: true})
	require.NoError(t, err)
	t.Cleanup(ac.Destroy)

	var first Reading
	require.NoError(t, Decode(ac, floorReading, &first))
	want := first.Snapshot()

	big := sample(t, ac)
	big.Location = arena.ViewString(string(bytes.Repeat([]byte{'x'}, 1<<10)))
	wire, err := Marshal(&big)
	require.NoError(t, err)
	var spill Reading
	require.NoError(t, Decode(ac, wire, &spill))

	ac.Reset()
	assert.Equal(t, byte(0xDD), first.SensorID[0])

	var again Reading
	require.NoError(t, Decode(ac, floorReading, &again))
	assert.Equal(t, want, again.Snapshot())
	assert.Equal(t, abi.StatusOK, again.ErrCode)
}
