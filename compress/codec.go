// Package compress provides compression codecs for the dataset blob's
// message payload.
//
// The bit-packed message payload is already dense, but repeated structure
// (flag patterns, day indexes, small dictionary indexes) still compresses
// well with general-purpose algorithms. Compression is applied to the whole
// payload at Finish time and reversed once at decode time; the decoded
// payload is then bit-addressed in memory, so random access cost is
// unaffected by the choice of codec.
//
// Available codecs:
//   - None: no compression (fastest, largest)
//   - Zstd: best ratio; cgo (gozstd) when available, pure Go otherwise
//   - S2: balanced ratio and speed
//   - LZ4: fastest decompression
package compress

import (
	"fmt"

	"github.com/chatpack/chatpack/format"
)

// Compressor compresses a complete message payload.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	// The returned slice is newly allocated and owned by the caller (except
	// for the no-op codec, which returns the input unchanged); the input is
	// never modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same type.
type Decompressor interface {
	// Decompress decompresses data previously produced by the matching
	// Compressor. Returns an error if the data is corrupted or was
	// compressed with an incompatible algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
