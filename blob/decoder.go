package blob

import (
	"fmt"

	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/compress"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/internal/hash"
	"github.com/chatpack/chatpack/section"
)

// Decode parses and validates a blob produced by DatasetEncoder and returns
// a Dataset for reading.
//
// Validation order: header size, magic number and flags, schema widths and
// fingerprint, channel index bounds, payload bounds, then the payload
// checksum after decompression. Any failure returns a sentinel error from
// the errs package (possibly wrapped) and no Dataset.
//
// The input slice is not retained; the payload is copied into the Dataset's
// own word buffer.
func Decode(data []byte) (*Dataset, error) {
	if len(data) < section.HeaderSize {
		return nil, errs.ErrInvalidHeaderSize
	}

	var header section.DatasetHeader
	if err := header.Parse(data[:section.HeaderSize]); err != nil {
		return nil, err
	}

	engine := header.Flag.GetEndianEngine()

	indexEnd := section.IndexOffset + int(header.ChannelCount)*section.ChannelIndexEntrySize
	if indexEnd > len(data) {
		return nil, errs.ErrInvalidChannelIndex
	}

	index := make([]section.ChannelIndexEntry, header.ChannelCount)
	for i := range index {
		offset := section.IndexOffset + i*section.ChannelIndexEntrySize
		entry, err := section.ParseChannelIndexEntry(data[offset:indexEnd], engine)
		if err != nil {
			return nil, err
		}
		index[i] = entry
	}

	payloadEnd := uint64(header.PayloadOffset) + uint64(header.PayloadLength)
	if uint64(header.PayloadOffset) < uint64(indexEnd) || payloadEnd > uint64(len(data)) {
		return nil, errs.ErrInvalidPayload
	}

	c, err := compress.GetCodec(header.Flag.GetCompression())
	if err != nil {
		return nil, err
	}

	payload, err := c.Decompress(data[header.PayloadOffset:payloadEnd])
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}

	if hash.Checksum(payload) != header.PayloadChecksum {
		return nil, errs.ErrChecksumMismatch
	}

	if uint64(header.PayloadBits) > uint64(len(payload))*8 {
		return nil, errs.ErrInvalidPayload
	}

	// Channel start bits must land inside the payload.
	for _, entry := range index {
		if entry.StartBit > uint64(header.PayloadBits) {
			return nil, errs.ErrInvalidChannelIndex
		}
	}

	return &Dataset{
		header: header,
		index:  index,
		stream: bitstream.FromBytes(payload),
	}, nil
}
