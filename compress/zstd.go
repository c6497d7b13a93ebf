package compress

// ZstdCompressor compresses payloads with Zstandard, trading some speed for
// the best ratio of the built-in codecs. A good default for archived report
// files that are decoded once per viewer session.
//
// The implementation is selected at build time: the cgo build uses gozstd
// (bindings to libzstd), the pure-Go build uses klauspost/compress/zstd.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
