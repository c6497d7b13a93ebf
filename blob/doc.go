// Package blob implements the dataset container format: a fixed header,
// a channel index, and a bit-packed message payload.
//
// Blob layout:
//
//	┌──────────────────────────────┐
//	│ DatasetHeader (48 bytes)     │  magic, flags, schema, fingerprint,
//	│                              │  checksum, counts, payload location
//	├──────────────────────────────┤
//	│ Channel index                │  ChannelCount × 16-byte entries
//	│ (start bit, message count)   │
//	├──────────────────────────────┤
//	│ Message payload              │  bit-packed messages, optionally
//	│ (optionally compressed)      │  compressed as one unit
//	└──────────────────────────────┘
//
// DatasetEncoder builds a blob channel by channel; messages within a channel
// must be appended in chronological order. Decode parses and validates a
// blob and returns a Dataset for random-access reading.
//
// A Dataset is safe for concurrent reads through per-goroutine clones: the
// payload words are shared and immutable, only the read cursor is
// per-clone. Iteration is exposed as iter.Seq2 sequences in both eager
// (Messages) and lazy (Views) form.
package blob
