// Package bitstream provides a randomly addressable bit-level reader/writer
// over an in-memory buffer.
//
// A Stream maintains a cursor expressed as a bit offset. Reads and writes
// advance the cursor, and the cursor can be repositioned freely with
// SetOffset, which is what makes lazy field decoding possible: a reader can
// jump to a remembered bit offset, read exactly the bits for one field, and
// jump elsewhere.
//
// Bits are packed MSB-first into 64-bit words, so the serialized byte form
// is big-endian and independent of host byte order.
//
// A Stream is NOT safe for concurrent use: the cursor is shared mutable
// state. Concurrent readers must either sequence their accesses or operate
// on separate streams obtained via Clone.
package bitstream

import (
	"encoding/binary"

	"github.com/chatpack/chatpack/errs"
)

// MaxBitsPerOp is the maximum number of bits a single GetBits or PutBits
// call may transfer.
const MaxBitsPerOp = 32

const initialWords = 16

// Stream is a bit-level cursor over a growable buffer of 64-bit words.
//
// The zero value is not usable; create streams with New or FromBytes.
type Stream struct {
	words  []uint64
	offset uint64 // cursor, in bits
	length uint64 // high-water mark, in bits
}

// New creates an empty Stream ready for writing.
func New() *Stream {
	return &Stream{words: make([]uint64, initialWords)}
}

// FromBytes creates a Stream positioned at bit 0 over the given serialized
// data. The data layout must match the output of Bytes.
//
// The byte slice is copied into the stream's word buffer; the caller may
// reuse data afterwards.
func FromBytes(data []byte) *Stream {
	numWords := (len(data) + 7) / 8
	s := &Stream{
		words:  make([]uint64, numWords),
		length: uint64(len(data)) * 8,
	}

	i := 0
	for ; i+8 <= len(data); i += 8 {
		s.words[i/8] = binary.BigEndian.Uint64(data[i : i+8])
	}
	if i < len(data) {
		var last uint64
		for _, b := range data[i:] {
			last = last<<8 | uint64(b)
		}
		// Left-align the partial word so bit addressing stays uniform.
		last <<= uint(8 * (8 - (len(data) - i))) //nolint:gosec // remainder is in [1,7]
		s.words[i/8] = last
	}

	return s
}

// Offset returns the cursor position in bits.
func (s *Stream) Offset() uint64 {
	return s.offset
}

// SetOffset repositions the cursor to the given bit offset.
//
// Offsets past the current length are legal for writers (the buffer grows on
// the next PutBits) but any read from there fails with ErrOutOfBounds.
func (s *Stream) SetOffset(offset uint64) {
	s.offset = offset
}

// Len returns the number of bits written to the stream.
func (s *Stream) Len() uint64 {
	return s.length
}

// GetBits reads the next n bits (1-32) as an unsigned integer, MSB first,
// and advances the cursor.
//
// Returns errs.ErrOutOfBounds if the read extends past the end of the
// buffer. Passing n outside [1, 32] is a caller error and panics.
func (s *Stream) GetBits(n int) (uint32, error) {
	if n < 1 || n > MaxBitsPerOp {
		panic("bitstream: GetBits width must be in [1, 32]")
	}

	end := s.offset + uint64(n)
	if end > s.length {
		return 0, errs.ErrOutOfBounds
	}

	word := s.offset >> 6
	avail := 64 - uint(s.offset&63)

	var v uint64
	if uint(n) <= avail {
		v = (s.words[word] >> (avail - uint(n))) & mask(n)
	} else {
		// Value spans a word boundary: high bits from the current word,
		// low bits from the next.
		lo := uint(n) - avail
		v = (s.words[word] & mask(int(avail))) << lo
		v |= s.words[word+1] >> (64 - lo)
		v &= mask(n)
	}

	s.offset = end

	return uint32(v), nil
}

// PutBits writes the low n bits (1-32) of v at the cursor, MSB first, and
// advances the cursor. Writing past the end of the buffer grows it; writing
// over previously written bits replaces them.
//
// Passing n outside [1, 32] is a caller error and panics.
func (s *Stream) PutBits(n int, v uint32) {
	if n < 1 || n > MaxBitsPerOp {
		panic("bitstream: PutBits width must be in [1, 32]")
	}

	end := s.offset + uint64(n)
	s.grow(end)

	val := uint64(v) & mask(n)
	word := s.offset >> 6
	avail := 64 - uint(s.offset&63)

	if uint(n) <= avail {
		shift := avail - uint(n)
		m := mask(n) << shift
		s.words[word] = (s.words[word] &^ m) | (val << shift)
	} else {
		lo := uint(n) - avail
		mHi := mask(int(avail))
		s.words[word] = (s.words[word] &^ mHi) | (val >> lo)
		mLo := mask(int(lo)) << (64 - lo)
		s.words[word+1] = (s.words[word+1] &^ mLo) | (val << (64 - lo))
	}

	s.offset = end
	if end > s.length {
		s.length = end
	}
}

// Clone returns a new Stream sharing this stream's buffer with an
// independent cursor positioned at bit 0.
//
// Clones are intended for concurrent readers; writing through a clone while
// other clones read is a data race.
func (s *Stream) Clone() *Stream {
	return &Stream{words: s.words, length: s.length}
}

// Bytes serializes the written bits into a big-endian byte slice of
// ceil(Len()/8) bytes. Trailing padding bits in the last byte are zero.
func (s *Stream) Bytes() []byte {
	numBytes := int((s.length + 7) / 8)
	numWords := (numBytes + 7) / 8

	buf := make([]byte, numWords*8)
	for i := range numWords {
		binary.BigEndian.PutUint64(buf[i*8:], s.words[i])
	}

	return buf[:numBytes]
}

func (s *Stream) grow(bits uint64) {
	need := int((bits + 63) >> 6)
	if need <= len(s.words) {
		return
	}

	capWords := len(s.words)
	if capWords < 2 {
		capWords = 2
	}
	for capWords < need {
		capWords += capWords / 2
	}

	words := make([]uint64, capWords)
	copy(words, s.words)
	s.words = words
}

func mask(n int) uint64 {
	return (1 << uint(n)) - 1
}
