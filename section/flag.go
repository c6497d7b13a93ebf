package section

import (
	"github.com/chatpack/chatpack/endian"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/format"
)

// DatasetFlag is the packed flag field of the dataset header.
type DatasetFlag struct {
	// Options packs the endianness bit and the magic number; see const.go.
	Options uint16
	// CompressionType is the compression applied to the message payload.
	CompressionType uint8
	// Platform records which chat platform the dataset came from.
	Platform uint8
}

var validCompressions = map[uint8]struct{}{
	uint8(format.CompressionNone): {},
	uint8(format.CompressionZstd): {},
	uint8(format.CompressionS2):   {},
	uint8(format.CompressionLZ4):  {},
}

// NewDatasetFlag creates a DatasetFlag with default settings: little-endian,
// no compression.
func NewDatasetFlag() DatasetFlag {
	return DatasetFlag{
		Options:         MagicDatasetV1Opt,
		CompressionType: uint8(format.CompressionNone),
	}
}

// IsBigEndian returns whether the blob's multi-byte header fields are
// big-endian.
func (f DatasetFlag) IsBigEndian() bool {
	return f.Options&EndiannessMask != 0
}

// WithBigEndian sets the endianness bit.
func (f *DatasetFlag) WithBigEndian() {
	f.Options |= EndiannessMask
}

// WithLittleEndian clears the endianness bit.
func (f *DatasetFlag) WithLittleEndian() {
	f.Options &^= EndiannessMask
}

// GetEndianEngine returns the engine matching the endianness bit.
func (f DatasetFlag) GetEndianEngine() endian.EndianEngine {
	if f.IsBigEndian() {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// GetCompression returns the payload compression type.
func (f DatasetFlag) GetCompression() format.CompressionType {
	return format.CompressionType(f.CompressionType)
}

// SetCompression sets the payload compression type.
func (f *DatasetFlag) SetCompression(c format.CompressionType) {
	f.CompressionType = uint8(c)
}

// GetPlatform returns the platform tag.
func (f DatasetFlag) GetPlatform() format.Platform {
	return format.Platform(f.Platform)
}

// SetPlatform sets the platform tag.
func (f *DatasetFlag) SetPlatform(p format.Platform) {
	f.Platform = uint8(p)
}

// Validate checks the magic number, reserved bits and compression type.
func (f DatasetFlag) Validate() error {
	if f.Options&MagicNumberMask != MagicDatasetV1Opt {
		return errs.ErrInvalidMagicNumber
	}

	if f.Options&ReservedBitsMask != 0 {
		return errs.ErrInvalidHeaderFlags
	}

	if _, ok := validCompressions[f.CompressionType]; !ok {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}
