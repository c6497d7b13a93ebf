package format

type (
	Platform        uint8
	CompressionType uint8
	AttachmentType  uint8
	MessageFlag     uint16
)

const (
	PlatformDiscord   Platform = 0x1 // PlatformDiscord represents Discord chat exports.
	PlatformTelegram  Platform = 0x2 // PlatformTelegram represents Telegram chat exports.
	PlatformWhatsApp  Platform = 0x3 // PlatformWhatsApp represents WhatsApp chat exports.
	PlatformMessenger Platform = 0x4 // PlatformMessenger represents Facebook Messenger chat exports.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// AttachmentType is the fixed 3-bit attachment-kind vocabulary. Attachment
// tallies are encoded with a constant 3-bit dictionary index, so new kinds
// must fit in [0, 7].
const (
	AttachmentImage AttachmentType = iota
	AttachmentImageAnimated
	AttachmentVideo
	AttachmentSticker
	AttachmentAudio
	AttachmentDocument
	AttachmentOther
)

// MessageFlag marks which optional groups are present in an encoded message.
// The flags field is 9 bits wide; FlagEdited is presence-only and carries no
// payload.
const (
	FlagReply MessageFlag = 1 << iota
	FlagEdited
	FlagText
	FlagWords
	FlagEmojis
	FlagAttachments
	FlagReactions
	FlagMentions
	FlagDomains
)

// FlagBits is the encoded width of the message flags bitmask.
const FlagBits = 9

func (p Platform) String() string {
	switch p {
	case PlatformDiscord:
		return "Discord"
	case PlatformTelegram:
		return "Telegram"
	case PlatformWhatsApp:
		return "WhatsApp"
	case PlatformMessenger:
		return "Messenger"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (a AttachmentType) String() string {
	switch a {
	case AttachmentImage:
		return "Image"
	case AttachmentImageAnimated:
		return "ImageAnimated"
	case AttachmentVideo:
		return "Video"
	case AttachmentSticker:
		return "Sticker"
	case AttachmentAudio:
		return "Audio"
	case AttachmentDocument:
		return "Document"
	case AttachmentOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// Has reports whether all bits in mask are set in f.
func (f MessageFlag) Has(mask MessageFlag) bool {
	return f&mask == mask
}
