package quantization

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/pqhash/distance"
	"github.com/hupe1980/pqhash/internal/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawArtifact builds an uncompressed artifact from explicit group shapes.
func rawArtifact(shapes [][2]int) []byte {
	payload := []byte{byte(distance.MetricL2)}
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(shapes)))
	for i, s := range shapes {
		payload = binary.LittleEndian.AppendUint32(payload, uint32(i))
		payload = binary.LittleEndian.AppendUint32(payload, uint32(s[0]))
		payload = binary.LittleEndian.AppendUint32(payload, uint32(s[1]))
		for j := 0; j < s[0]*s[1]; j++ {
			payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(float32(j)))
		}
	}
	return wrapPayload(payload)
}

func wrapPayload(payload []byte) []byte {
	out := make([]byte, artifactHeaderSize, artifactHeaderSize+len(payload))
	copy(out, artifactMagic)
	binary.LittleEndian.PutUint16(out[4:], artifactVersion)
	out[6] = byte(CompressionNone)
	binary.LittleEndian.PutUint32(out[8:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[12:], hash.CRC32C(payload))
	return append(out, payload...)
}

func TestFromArtifactHandBuilt(t *testing.T) {
	m, err := FromArtifact(rawArtifact([][2]int{{3, 2}, {3, 2}}))
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumGroups())
	assert.Equal(t, 3, m.NumClusters())
	assert.Equal(t, 4, m.Dimension())

	// Centroids per group are (0,1), (2,3), (4,5).
	h, err := m.Predict([]float32{2, 3, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, HashCode{"0-1", "1-2"}, h)
}

func TestFromArtifactCorrupt(t *testing.T) {
	m, err := NewUntrained(2, 2, WithSeed(1), WithCompression(CompressionZstd))
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background(), randomVectors(20, 4, 1)))
	valid, err := m.MarshalBinary()
	require.NoError(t, err)

	flip := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] ^= 0xFF
		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", flip(valid, 0)},
		{"bad version", flip(valid, 4)},
		{"bad compression", flip(valid, 6)},
		{"bad checksum", flip(valid, 12)},
		{"truncated body", valid[:len(valid)-3]},
		{"trailing bytes", wrapPayload(append(rawArtifact([][2]int{{1, 1}})[artifactHeaderSize:], 0))},
		{"no groups", rawArtifact(nil)},
		{"zero clusters", rawArtifact([][2]int{{0, 2}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromArtifact(tt.data)
			assert.ErrorIs(t, err, ErrCorruptArtifact)
		})
	}
}

func TestFromArtifactInconsistentGroups(t *testing.T) {
	for name, shapes := range map[string][][2]int{
		"cluster count": {{2, 2}, {3, 2}},
		"width":         {{2, 2}, {2, 3}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := FromArtifact(rawArtifact(shapes))
			require.ErrorIs(t, err, ErrCorruptArtifact)
			require.ErrorIs(t, err, ErrShape)

			var se *ShapeError
			assert.True(t, errors.As(err, &se))
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCompression("brotli")
	assert.Error(t, err)
	assert.Equal(t, "unknown(9)", Compression(9).String())
}
