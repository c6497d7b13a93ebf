package codec

import (
	"math/bits"

	"github.com/chatpack/chatpack/internal/hash"
)

// Fixed field widths that do not depend on dataset cardinalities.
const (
	// SecondOfDayBits covers the range [0, 86399].
	SecondOfDayBits = 17
	// AttachmentIndexBits addresses the fixed attachment-kind vocabulary.
	AttachmentIndexBits = 3
	// LangIndexBits addresses the language registry.
	LangIndexBits = 8
	// SentimentBits stores sentiment as value+128, giving [-128, 127].
	SentimentBits = 8

	// DefaultReplyBits is the width of reply back-references. A reply stores
	// the absolute bit address of an earlier message, so its width tracks
	// buffer capacity rather than a dictionary size: 30 bits address 2^30
	// bits (128 MiB) of encoded messages.
	DefaultReplyBits = 30
)

// Cardinalities holds the finalized dictionary and dimension sizes of a
// dataset. All dictionaries must have received every entry before a Schema
// is derived from them; adding an entry afterwards can increase the required
// bit width and corrupts previously encoded offsets.
type Cardinalities struct {
	Days     int
	Authors  int
	Words    int
	Emojis   int
	Mentions int
	Domains  int
}

// Schema fixes the bit width of every variable-width message field for one
// dataset. It is derived once per dataset and is immutable.
type Schema struct {
	DayBits     uint8
	AuthorBits  uint8
	ReplyBits   uint8
	WordBits    uint8
	EmojiBits   uint8
	MentionBits uint8
	DomainBits  uint8
}

// PackedSchemaSize is the serialized size of a Schema in bytes.
const PackedSchemaSize = 7

// BitsForCount returns the minimum number of bits required to address every
// value in [0, c-1], with a floor of 1 bit.
func BitsForCount(c int) int {
	if c <= 1 {
		return 1
	}

	return bits.Len(uint(c - 1))
}

// NewSchema derives a Schema from finalized dataset cardinalities.
func NewSchema(card Cardinalities) Schema {
	return Schema{
		DayBits:     uint8(BitsForCount(card.Days)),    //nolint:gosec // BitsForCount <= 64
		AuthorBits:  uint8(BitsForCount(card.Authors)), //nolint:gosec
		ReplyBits:   DefaultReplyBits,
		WordBits:    uint8(BitsForCount(card.Words)),    //nolint:gosec
		EmojiBits:   uint8(BitsForCount(card.Emojis)),   //nolint:gosec
		MentionBits: uint8(BitsForCount(card.Mentions)), //nolint:gosec
		DomainBits:  uint8(BitsForCount(card.Domains)),  //nolint:gosec
	}
}

// Pack serializes the schema widths into PackedSchemaSize bytes for
// embedding in a blob header.
func (s Schema) Pack() [PackedSchemaSize]byte {
	return [PackedSchemaSize]byte{
		s.DayBits, s.AuthorBits, s.ReplyBits,
		s.WordBits, s.EmojiBits, s.MentionBits, s.DomainBits,
	}
}

// UnpackSchema reconstructs a Schema from its packed form.
func UnpackSchema(b [PackedSchemaSize]byte) Schema {
	return Schema{
		DayBits:     b[0],
		AuthorBits:  b[1],
		ReplyBits:   b[2],
		WordBits:    b[3],
		EmojiBits:   b[4],
		MentionBits: b[5],
		DomainBits:  b[6],
	}
}

// Fingerprint returns a stable hash of the schema widths. Producer and
// consumer compare fingerprints to detect schema disagreement before any
// bits are decoded.
func (s Schema) Fingerprint() uint64 {
	packed := s.Pack()
	return hash.Checksum(packed[:])
}

// Valid reports whether every width is inside the range the bit stream can
// transfer in one operation.
func (s Schema) Valid() bool {
	for _, w := range s.Pack() {
		if w < 1 || w > 32 {
			return false
		}
	}

	return true
}
