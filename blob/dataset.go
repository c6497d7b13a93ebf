package blob

import (
	"iter"

	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/format"
	"github.com/chatpack/chatpack/section"
)

// Dataset is a decoded blob ready for reading.
//
// A Dataset is not safe for concurrent use because iteration moves the read
// cursor; use Clone to hand an independent cursor to each goroutine. Clones
// share the immutable payload words, so cloning is cheap.
type Dataset struct {
	header section.DatasetHeader
	index  []section.ChannelIndexEntry
	stream *bitstream.Stream
}

// Schema returns the bit widths the payload was encoded with.
func (d *Dataset) Schema() codec.Schema {
	return d.header.Schema
}

// SchemaFingerprint returns the xxHash64 of the packed schema.
func (d *Dataset) SchemaFingerprint() uint64 {
	return d.header.SchemaFingerprint
}

// Platform returns the chat platform tag recorded by the encoder.
func (d *Dataset) Platform() format.Platform {
	return d.header.Flag.GetPlatform()
}

// ChannelCount returns the number of channels in the dataset.
func (d *Dataset) ChannelCount() int {
	return len(d.index)
}

// MessageCount returns the total number of messages across all channels.
func (d *Dataset) MessageCount() uint32 {
	return d.header.MessageCount
}

// ChannelMessageCount returns the number of messages in channel ch.
func (d *Dataset) ChannelMessageCount(ch int) (uint32, error) {
	if ch < 0 || ch >= len(d.index) {
		return 0, errs.ErrChannelOutOfRange
	}

	return d.index[ch].MessageCount, nil
}

// Clone returns a Dataset with an independent read cursor over the shared
// payload.
func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		header: d.header,
		index:  d.index,
		stream: d.stream.Clone(),
	}
}

// Messages returns an iterator that eagerly decodes every message of channel
// ch in chronological order.
//
// The sequence yields (message, nil) per message; on a decode error or an
// out-of-range channel it yields (nil, err) once and stops. Breaking out of
// the loop early is allowed.
func (d *Dataset) Messages(ch int) iter.Seq2[*codec.Message, error] {
	return func(yield func(*codec.Message, error) bool) {
		if ch < 0 || ch >= len(d.index) {
			yield(nil, errs.ErrChannelOutOfRange)
			return
		}

		entry := d.index[ch]
		d.stream.SetOffset(entry.StartBit)

		for i := uint32(0); i < entry.MessageCount; i++ {
			m, err := codec.ReadMessage(d.stream, d.header.Schema)
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(m, nil) {
				return
			}
		}
	}
}

// Views returns an iterator that lazily decodes channel ch: each yielded
// MessageView has only its fixed fields decoded, group payloads are decoded
// on access.
//
// Views share the dataset's cursor; a view's accessors reposition it, and
// the iterator resumes from the previous view's recorded end. Error handling
// matches Messages.
func (d *Dataset) Views(ch int) iter.Seq2[*codec.MessageView, error] {
	return func(yield func(*codec.MessageView, error) bool) {
		if ch < 0 || ch >= len(d.index) {
			yield(nil, errs.ErrChannelOutOfRange)
			return
		}

		entry := d.index[ch]
		offset := entry.StartBit

		for i := uint32(0); i < entry.MessageCount; i++ {
			d.stream.SetOffset(offset)

			v, err := codec.NewMessageView(d.stream, d.header.Schema)
			if err != nil {
				yield(nil, err)
				return
			}
			offset = v.End()

			if !yield(v, nil) {
				return
			}
		}
	}
}

// ViewAt returns a lazy view of the message starting at the given bit
// address. Callers normally obtain addresses from DatasetEncoder.AddMessage
// or from a view's Reply back-reference; an address that does not start a
// message yields undefined field values or a decode error.
func (d *Dataset) ViewAt(bitAddr uint64) (*codec.MessageView, error) {
	d.stream.SetOffset(bitAddr)

	return codec.NewMessageView(d.stream, d.header.Schema)
}
