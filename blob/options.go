package blob

import (
	"fmt"

	"github.com/chatpack/chatpack/compress"
	"github.com/chatpack/chatpack/format"
	"github.com/chatpack/chatpack/internal/options"
)

// Option configures a DatasetEncoder at construction time.
type Option = options.Option[*DatasetEncoder]

// WithCompression selects the payload compression codec.
//
// Returns an error at construction time if the compression type has no
// registered codec.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(e *DatasetEncoder) error {
		if _, err := compress.GetCodec(c); err != nil {
			return fmt.Errorf("invalid encoder option: %w", err)
		}

		e.header.Flag.SetCompression(c)

		return nil
	})
}

// WithPlatform records the chat platform the dataset came from.
func WithPlatform(p format.Platform) Option {
	return options.NoError(func(e *DatasetEncoder) {
		e.header.Flag.SetPlatform(p)
	})
}

// WithBigEndian stores multi-byte header and index fields in big-endian
// order. The default is little-endian.
func WithBigEndian() Option {
	return options.NoError(func(e *DatasetEncoder) {
		e.header.Flag.WithBigEndian()
	})
}

// WithLittleEndian stores multi-byte header and index fields in
// little-endian order. This is the default.
func WithLittleEndian() Option {
	return options.NoError(func(e *DatasetEncoder) {
		e.header.Flag.WithLittleEndian()
	})
}
