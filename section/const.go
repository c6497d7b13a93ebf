package section

const (
	// Bit masks for the packed Options field.
	EndiannessMask   = 0x0001 // bit 0: 0=little-endian, 1=big-endian
	ReservedBitsMask = 0x000E // bits 1-3: reserved, must be zero
	MagicNumberMask  = 0xFFF0 // bits 4-15: magic number

	// MagicDatasetV1Opt identifies version 1 of the dataset blob format.
	MagicDatasetV1Opt = 0xCA10
)

// Offsets and section sizes in the blob file.
const (
	HeaderSize            = 48         // fixed header size in bytes
	ChannelIndexEntrySize = 16         // fixed channel index entry size in bytes
	IndexOffset           = HeaderSize // byte offset where the channel index starts
	MaxChannelCount       = 1 << 20    // sanity bound on the channel count field
)
