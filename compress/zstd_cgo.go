//go:build cgo

package compress

import (
	"github.com/valyala/gozstd"
)

// Compress compresses data using libzstd with the default compression level.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.Compress(nil, data), nil
}

// Decompress decompresses zstd frames produced by Compress.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return gozstd.Decompress(nil, data)
}
