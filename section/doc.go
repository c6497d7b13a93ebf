// Package section defines the fixed-size sections of the dataset blob
// format: the header and the channel index.
//
// Blob layout:
//
//	+-------------------+ offset 0
//	| Header (48 bytes) |
//	+-------------------+ offset 48
//	| Channel index     | ChannelCount * 16 bytes
//	+-------------------+ PayloadOffset
//	| Message payload   | bit-packed, optionally compressed
//	+-------------------+
//
// The header embeds the schema widths, a schema fingerprint, and a payload
// checksum so a consumer can detect producer/consumer schema disagreement
// and corruption before decoding a single message.
package section
