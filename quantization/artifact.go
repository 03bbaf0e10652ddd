package quantization

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/hupe1980/pqhash/distance"
	"github.com/hupe1980/pqhash/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	artifactMagic      = "PQHM"
	artifactVersion    = 1
	artifactHeaderSize = 16
	groupHeaderSize    = 12
)

// Compression selects how the artifact payload is stored.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd (default).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Model) MarshalBinary() ([]byte, error) {
	if !m.IsFitted() {
		return nil, ErrNotFitted
	}

	payload := m.encodePayload()
	compression := m.opts.compression

	body, err := compress(compression, payload)
	if err != nil {
		return nil, err
	}
	if body == nil {
		// Incompressible
		compression = CompressionNone
		body = payload
	}

	out := make([]byte, artifactHeaderSize+len(body))
	copy(out[0:4], artifactMagic)
	binary.LittleEndian.PutUint16(out[4:6], artifactVersion)
	out[6] = byte(compression)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[12:16], hash.CRC32C(payload))
	copy(out[artifactHeaderSize:], body)
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// The number of groups and clusters is derived from the artifact. All groups
// must report the same cluster count and width.
func (m *Model) UnmarshalBinary(data []byte) error {
	if len(data) < artifactHeaderSize || string(data[0:4]) != artifactMagic {
		return fmt.Errorf("%w: missing header", ErrCorruptArtifact)
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != artifactVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrCorruptArtifact, v, artifactVersion)
	}
	compression := Compression(data[6])
	rawLen := binary.LittleEndian.Uint32(data[8:12])
	checksum := binary.LittleEndian.Uint32(data[12:16])

	payload, err := decompress(compression, data[artifactHeaderSize:], rawLen)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}
	if err := hash.Verify(payload, checksum); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}

	metric, groups, err := decodePayload(payload)
	if err != nil {
		return err
	}

	m.opts.metric = metric
	m.groups = groups
	m.numGroups = len(groups)
	m.numClusters = groups[0].k
	m.dimension = len(groups) * groups[0].dim
	return nil
}

func (m *Model) encodePayload() []byte {
	size := 1 + 4
	for _, g := range m.groups {
		size += groupHeaderSize + 4*len(g.centroids)
	}

	buf := make([]byte, size)
	buf[0] = byte(m.opts.metric)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(m.groups)))

	off := 5
	for _, g := range m.groups {
		binary.LittleEndian.PutUint32(buf[off:], uint32(g.index))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(g.k))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(g.dim))
		off += groupHeaderSize
		for _, v := range g.centroids {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
			off += 4
		}
	}
	return buf
}

func decodePayload(buf []byte) (distance.Metric, []*GroupQuantizer, error) {
	if len(buf) < 5 {
		return 0, nil, fmt.Errorf("%w: truncated payload", ErrCorruptArtifact)
	}
	metric := distance.Metric(buf[0])
	if _, err := distance.Provider(metric); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, err)
	}

	numGroups := int(binary.LittleEndian.Uint32(buf[1:5]))
	if numGroups == 0 {
		return 0, nil, fmt.Errorf("%w: artifact has no groups", ErrCorruptArtifact)
	}

	groups := make([]*GroupQuantizer, 0, numGroups)
	off := 5
	for i := 0; i < numGroups; i++ {
		if len(buf)-off < groupHeaderSize {
			return 0, nil, fmt.Errorf("%w: truncated group %d", ErrCorruptArtifact, i)
		}
		index := int(binary.LittleEndian.Uint32(buf[off:]))
		k := int(binary.LittleEndian.Uint32(buf[off+4:]))
		dim := int(binary.LittleEndian.Uint32(buf[off+8:]))
		off += groupHeaderSize

		if index != i {
			return 0, nil, fmt.Errorf("%w: group %d stored at position %d", ErrCorruptArtifact, index, i)
		}
		if k <= 0 || dim <= 0 {
			return 0, nil, fmt.Errorf("%w: group %d has %d clusters of width %d", ErrCorruptArtifact, i, k, dim)
		}
		if i > 0 && k != groups[0].k {
			return 0, nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, &ShapeError{
				Reason: fmt.Sprintf("group %d has %d clusters, group 0 has %d", i, k, groups[0].k),
			})
		}
		if i > 0 && dim != groups[0].dim {
			return 0, nil, fmt.Errorf("%w: %w", ErrCorruptArtifact, &ShapeError{
				Reason: fmt.Sprintf("group %d has width %d, group 0 has %d", i, dim, groups[0].dim),
			})
		}

		n := k * dim
		if (len(buf)-off)/4 < n {
			return 0, nil, fmt.Errorf("%w: truncated centroids in group %d", ErrCorruptArtifact, i)
		}
		centroids := make([]float32, n)
		for j := range centroids {
			centroids[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			off += 4
		}

		g, err := newGroupQuantizer(index, k, dim, metric, centroids)
		if err != nil {
			return 0, nil, err
		}
		groups = append(groups, g)
	}

	if off != len(buf) {
		return 0, nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptArtifact, len(buf)-off)
	}
	return metric, groups, nil
}

// compress returns nil when the payload does not compress.
func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		return dst[:n], nil
	case CompressionZstd:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrConfiguration, c)
	}
}

func decompress(c Compression, data []byte, rawLen uint32) ([]byte, error) {
	switch c {
	case CompressionNone:
		if uint32(len(data)) != rawLen {
			return nil, fmt.Errorf("payload length %d, header says %d", len(data), rawLen)
		}
		return data, nil
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != rawLen {
			return nil, fmt.Errorf("decompressed size %d, header says %d", n, rawLen)
		}
		return out, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if uint32(len(out)) != rawLen {
			return nil, fmt.Errorf("decompressed size %d, header says %d", len(out), rawLen)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}
