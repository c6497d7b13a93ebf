package section

import (
	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/errs"
)

// DatasetHeader is the fixed-size header at the start of a dataset blob.
//
// Byte layout (multi-byte fields use the endianness declared in Flag, which
// itself is always little-endian):
//
//	 0-1   Options (magic + flags)
//	 2     CompressionType
//	 3     Platform
//	 4-10  packed schema widths
//	11     reserved (zero)
//	12-19  SchemaFingerprint
//	20-27  PayloadChecksum
//	28-31  ChannelCount
//	32-35  MessageCount
//	36-39  PayloadOffset
//	40-43  PayloadLength
//	44-47  PayloadBits
type DatasetHeader struct {
	Flag DatasetFlag

	// Schema holds the bit widths every message in the payload was encoded
	// with.
	Schema codec.Schema

	// SchemaFingerprint is the xxHash64 of the packed schema; decoders
	// compare it against the schema they derive from the header to detect
	// header corruption, and callers can compare it against an expected
	// fingerprint to detect producer/consumer disagreement.
	SchemaFingerprint uint64

	// PayloadChecksum is the xxHash64 of the uncompressed payload bytes.
	PayloadChecksum uint64

	// ChannelCount is the number of channel index entries.
	ChannelCount uint32

	// MessageCount is the total number of messages across all channels.
	MessageCount uint32

	// PayloadOffset is the byte offset of the (possibly compressed) message
	// payload.
	PayloadOffset uint32

	// PayloadLength is the stored payload length in bytes (after
	// compression).
	PayloadLength uint32

	// PayloadBits is the number of meaningful bits in the uncompressed
	// payload.
	PayloadBits uint32
}

// NewDatasetHeader creates a header with default flags for the given schema.
// Counts and offsets are filled in when the encoder finishes.
func NewDatasetHeader(schema codec.Schema) *DatasetHeader {
	return &DatasetHeader{
		Flag:              NewDatasetFlag(),
		Schema:            schema,
		SchemaFingerprint: schema.Fingerprint(),
	}
}

// Bytes serializes the header into HeaderSize bytes.
func (h *DatasetHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)
	engine := h.Flag.GetEndianEngine()

	// The Options field is always little-endian so decoders can read the
	// endianness bit before choosing an engine.
	b[0] = byte(h.Flag.Options)
	b[1] = byte(h.Flag.Options >> 8)
	b[2] = h.Flag.CompressionType
	b[3] = h.Flag.Platform

	packed := h.Schema.Pack()
	copy(b[4:11], packed[:])
	b[11] = 0

	engine.PutUint64(b[12:20], h.SchemaFingerprint)
	engine.PutUint64(b[20:28], h.PayloadChecksum)
	engine.PutUint32(b[28:32], h.ChannelCount)
	engine.PutUint32(b[32:36], h.MessageCount)
	engine.PutUint32(b[36:40], h.PayloadOffset)
	engine.PutUint32(b[40:44], h.PayloadLength)
	engine.PutUint32(b[44:48], h.PayloadBits)

	return b
}

// Parse parses a header from a byte slice of exactly HeaderSize bytes and
// validates flags, schema widths and the schema fingerprint.
func (h *DatasetHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag.Options = uint16(data[0]) | uint16(data[1])<<8
	h.Flag.CompressionType = data[2]
	h.Flag.Platform = data[3]

	if err := h.Flag.Validate(); err != nil {
		return err
	}

	var packed [codec.PackedSchemaSize]byte
	copy(packed[:], data[4:11])
	h.Schema = codec.UnpackSchema(packed)

	engine := h.Flag.GetEndianEngine()
	h.SchemaFingerprint = engine.Uint64(data[12:20])
	h.PayloadChecksum = engine.Uint64(data[20:28])
	h.ChannelCount = engine.Uint32(data[28:32])
	h.MessageCount = engine.Uint32(data[32:36])
	h.PayloadOffset = engine.Uint32(data[36:40])
	h.PayloadLength = engine.Uint32(data[40:44])
	h.PayloadBits = engine.Uint32(data[44:48])

	if !h.Schema.Valid() {
		return errs.ErrInvalidHeaderFlags
	}

	if h.SchemaFingerprint != h.Schema.Fingerprint() {
		return errs.ErrSchemaMismatch
	}

	if h.ChannelCount > MaxChannelCount {
		return errs.ErrInvalidChannelIndex
	}

	return nil
}
