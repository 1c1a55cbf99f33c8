package sensor

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

func TestEncodeKnownMessage(t *testing.T) {
	ac := newArena(t)
	r := sample(t, ac)

	size, err := EncodedSize(&r)
	require.NoError(t, err)
	assert.Equal(t, len(floorReading), size)

	out := make([]byte, 256)
	n, err := Encode(&r, out)
	require.NoError(t, err)
	assert.Equal(t, floorReading, out[:n])
}

func TestEncodeDeterministic(t *testing.T) {
	ac := newArena(t)
	r := sample(t, ac)
	a, err := Marshal(&r)
	require.NoError(t, err)
	b, err := Marshal(&r)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeOmitsEmptyMetadata(t *testing.T) {
	r := Reading{SensorID: arena.ViewString("h-1"), SensorType: abi.SensorHumidity}
	b, err := Marshal(&r)
	require.NoError(t, err)
	assert.NotContains(t, tagsOf(t, b), TagMetadata)
	// empty unit and location are still written as zero-length payloads
	assert.Contains(t, tagsOf(t, b), TagUnit)
	assert.Contains(t, tagsOf(t, b), TagLocation)
}

func TestEncodeBufferTooSmall(t *testing.T) {
	ac := newArena(t)
	r := sample(t, ac)

	out := make([]byte, len(floorReading)-1)
	for i := range out {
		out[i] = 0xEE
	}
	n, err := Encode(&r, out)
	require.Error(t, err)
	assert.Equal(t, abi.StatusBufferTooSmall, abi.FromError(err))
	assert.Zero(t, n)
	for _, b := range out {
		require.Equal(t, byte(0xEE), b)
	}

	n, err = Encode(&r, make([]byte, len(floorReading)))
	require.NoError(t, err)
	assert.Equal(t, len(floorReading), n)
}

func TestEncodeValidation(t *testing.T) {
	cases := []struct {
		name string
		r    *Reading
		want error
	}{
		{"nil", nil, ErrNilRecord},
		{"no sensor id", &Reading{Unit: arena.ViewString("C")}, ErrMissingSensorID},
		{"metadata mismatch", &Reading{
			SensorID:       arena.ViewString("x"),
			MetadataKeys:   []arena.View{arena.ViewString("a"), arena.ViewString("b")},
			MetadataValues: []arena.View{arena.ViewString("1")},
		}, ErrMetadataMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := make([]byte, 128)
			n, err := Encode(tc.r, out)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, n)
			assert.Equal(t, make([]byte, 128), out)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	corpus := []Snapshot{
		{SensorID: "a"},
		{Timestamp: math.MaxUint64, SensorID: "max", SensorType: math.MaxUint16, Value: math.MaxFloat64},
		{SensorID: "neg", Value: -273.15, Unit: "K", Location: "lab"},
		{SensorID: "inf", Value: math.Inf(-1)},
		{SensorID: "nan", Value: math.NaN()},
		{SensorID: "vib-9", SensorType: abi.SensorVibration, Value: 0.003, Unit: "g", Location: "pump/3",
			Metadata: []Pair{{"rpm", "1450"}, {"phase", "B"}, {"", ""}, {"rpm", "dup"}}},
		{SensorID: "bin\x00\xff", Unit: "\x00", Location: "\xde\xad\xbe\xef"},
	}
	ac := newArena(t)
	for _, s := range corpus {
		in, err := FromSnapshot(ac, s)
		require.NoError(t, err)

		b, err := Marshal(&in)
		require.NoError(t, err, s.SensorID)

		var out Reading
		n, err := DecodeMessage(ac, b, &out)
		require.NoError(t, err, s.SensorID)
		assert.Equal(t, len(b), n)
		assert.True(t, Equal(&in, &out), s.SensorID)

		again, err := Marshal(&out)
		require.NoError(t, err)
		assert.Equal(t, b, again, s.SensorID)
	}
}

func TestRoundTripPayloadsLargerThanChunk(t *testing.T) {
	ac, err := arena.New(arena.Options{ChunkSize: 1 << 10, Poison: true})
	require.NoError(t, err)
	t.Cleanup(ac.Destroy)

	big := strings.Repeat("u", 1<<20)
	in, err := FromSnapshot(ac, Snapshot{
		SensorID: "wide",
		Unit:     big,
		Location: strings.Repeat("l", 3<<10),
		Metadata: []Pair{{Key: big[:1<<12], Value: big}, {Key: "", Value: ""}},
	})
	require.NoError(t, err)

	b, err := Marshal(&in)
	require.NoError(t, err)
	assert.Greater(t, len(b), 2<<20)

	var out Reading
	n, err := DecodeMessage(ac, b, &out)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.True(t, Equal(&in, &out))
	assert.Greater(t, ac.Stats().Chunks, 1)
}

func TestEqual(t *testing.T) {
	ac := newArena(t)
	a := sample(t, ac)
	b := sample(t, ac)
	assert.True(t, Equal(&a, &b))

	b.MetadataValues[0] = arena.ViewString("degraded")
	assert.False(t, Equal(&a, &b))

	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(&a, nil))
}

// tagsOf walks an encoded message and returns its field tags in order.
func tagsOf(t *testing.T, b []byte) []byte {
	t.Helper()
	ac := newArena(t)
	var r Reading
	require.NoError(t, Decode(ac, b, &r))
	var tags []byte
	for off := 0; off < len(b); {
		tag := b[off]
		if tag == 0 {
			break
		}
		tags = append(tags, tag)
		off++
		switch tag {
		case TagTimestamp, TagValue:
			off += 8
		case TagSensorType:
			off += 2
		case TagSensorID, TagUnit, TagLocation:
			off += 4 + int(le32(b[off:]))
		case TagMetadata:
			n := int(le32(b[off:]))
			off += 4
			for i := 0; i < 2*n; i++ {
				off += 4 + int(le32(b[off:]))
			}
		}
	}
	return tags
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
