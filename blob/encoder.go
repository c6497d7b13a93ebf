package blob

import (
	"fmt"

	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/compress"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/internal/hash"
	"github.com/chatpack/chatpack/internal/options"
	"github.com/chatpack/chatpack/internal/pool"
	"github.com/chatpack/chatpack/section"
)

// DatasetEncoder encodes messages into the dataset blob format.
//
// Usage: create the encoder with the schema the messages were indexed
// against, call StartChannel before the first message of each channel, append
// that channel's messages in chronological order with AddMessage, and call
// Finish once to assemble the blob.
//
// AddMessage returns the bit address where the message was written; callers
// use it to build reply back-references for later messages via
// (*codec.Message).SetReply.
//
// Note: The DatasetEncoder is NOT thread-safe, and is not reusable after
// Finish.
type DatasetEncoder struct {
	header   *section.DatasetHeader
	schema   codec.Schema
	stream   *bitstream.Stream
	channels []section.ChannelIndexEntry

	messageCount uint32
	finished     bool
}

// NewDatasetEncoder creates a DatasetEncoder for the given schema.
//
// Parameters:
//   - schema: bit widths for every message field; must satisfy schema.Valid
//   - opts: optional configuration (compression, platform, endianness)
//
// Returns an error if the schema is invalid or an option is rejected.
func NewDatasetEncoder(schema codec.Schema, opts ...Option) (*DatasetEncoder, error) {
	if !schema.Valid() {
		return nil, fmt.Errorf("%w: schema has out-of-range bit widths", errs.ErrValueOverflow)
	}

	enc := &DatasetEncoder{
		header: section.NewDatasetHeader(schema),
		schema: schema,
		stream: bitstream.New(),
	}

	if err := options.Apply(enc, opts...); err != nil {
		return nil, err
	}

	return enc, nil
}

// Schema returns the schema the encoder was created with.
func (e *DatasetEncoder) Schema() codec.Schema {
	return e.schema
}

// StartChannel begins a new channel at the current payload position and
// returns its index. All messages appended until the next StartChannel
// belong to this channel.
func (e *DatasetEncoder) StartChannel() (int, error) {
	if e.finished {
		return 0, errs.ErrEncoderFinished
	}

	e.channels = append(e.channels, section.ChannelIndexEntry{
		StartBit: e.stream.Offset(),
	})

	return len(e.channels) - 1, nil
}

// AddMessage encodes m into the current channel and returns the bit address
// where the message starts.
//
// Returns errs.ErrNoChannelStarted if StartChannel has not been called, and
// errs.ErrValueOverflow (wrapped) if a field of m does not fit its schema
// width.
func (e *DatasetEncoder) AddMessage(m *codec.Message) (uint64, error) {
	if e.finished {
		return 0, errs.ErrEncoderFinished
	}

	if len(e.channels) == 0 {
		return 0, errs.ErrNoChannelStarted
	}

	start := e.stream.Offset()
	if err := codec.WriteMessage(e.stream, m, e.schema); err != nil {
		// Rewind so a failed message leaves no partial bits behind.
		e.stream.SetOffset(start)
		return 0, err
	}

	e.channels[len(e.channels)-1].MessageCount++
	e.messageCount++

	return start, nil
}

// Finish assembles and returns the complete blob.
//
// The payload checksum is computed over the uncompressed payload bytes, then
// the configured compression codec is applied. The encoder cannot be used
// afterwards.
func (e *DatasetEncoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errs.ErrEncoderFinished
	}
	e.finished = true

	payload := e.stream.Bytes()

	c, err := compress.GetCodec(e.header.Flag.GetCompression())
	if err != nil {
		return nil, err
	}

	compressed, err := c.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}

	header := *e.header // final fields go into a copy, the original stays pristine
	header.ChannelCount = uint32(len(e.channels))
	header.MessageCount = e.messageCount
	header.PayloadOffset = uint32(section.IndexOffset + len(e.channels)*section.ChannelIndexEntrySize)
	header.PayloadLength = uint32(len(compressed))
	header.PayloadBits = uint32(e.stream.Len())
	header.PayloadChecksum = hash.Checksum(payload)

	engine := header.Flag.GetEndianEngine()

	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	buf.MustWrite(header.Bytes())
	for _, entry := range e.channels {
		buf.B = entry.AppendBytes(buf.B, engine)
	}
	buf.MustWrite(compressed)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}
