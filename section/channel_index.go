package section

import (
	"github.com/chatpack/chatpack/endian"
	"github.com/chatpack/chatpack/errs"
)

// ChannelIndexEntry records where one channel's messages live inside the
// payload. Each channel owns a disjoint sub-range of the bit-addressable
// payload; messages within it are stored in original chronological order.
type ChannelIndexEntry struct {
	// StartBit is the bit offset of the channel's first message within the
	// uncompressed payload.
	StartBit uint64
	// MessageCount is the number of messages encoded for this channel.
	MessageCount uint32
	// Reserved pads the entry to ChannelIndexEntrySize bytes.
	Reserved uint32
}

// AppendBytes serializes the entry and appends it to buf.
func (e ChannelIndexEntry) AppendBytes(buf []byte, engine endian.EndianEngine) []byte {
	buf = engine.AppendUint64(buf, e.StartBit)
	buf = engine.AppendUint32(buf, e.MessageCount)
	buf = engine.AppendUint32(buf, 0)

	return buf
}

// ParseChannelIndexEntry parses one entry from data.
func ParseChannelIndexEntry(data []byte, engine endian.EndianEngine) (ChannelIndexEntry, error) {
	if len(data) < ChannelIndexEntrySize {
		return ChannelIndexEntry{}, errs.ErrInvalidChannelIndex
	}

	return ChannelIndexEntry{
		StartBit:     engine.Uint64(data[0:8]),
		MessageCount: engine.Uint32(data[8:12]),
	}, nil
}
