// Package errs defines sentinel errors shared across chatpack packages.
//
// Callers should use errors.Is to match these errors, since packages wrap
// them with additional context via fmt.Errorf and the %w verb.
package errs

import "errors"

// Bit stream and codec errors.
var (
	// ErrOutOfBounds is returned when a bit read extends past the end of the
	// underlying buffer. During message decoding this indicates a corrupted or
	// truncated blob, or a schema mismatch between producer and consumer.
	ErrOutOfBounds = errors.New("bit read out of bounds")

	// ErrCorruptMessage is returned when an encoded message is internally
	// inconsistent, e.g. a flags bit claims a group that has no data.
	ErrCorruptMessage = errors.New("corrupt encoded message")

	// ErrReplyOffsetOverflow is returned when a reply back-reference address
	// does not fit in the schema's reply bit width.
	ErrReplyOffsetOverflow = errors.New("reply bit address exceeds reply bit width")

	// ErrValueOverflow is returned when a field value does not fit in the bit
	// width assigned to it by the schema.
	ErrValueOverflow = errors.New("value exceeds field bit width")
)

// Blob container errors.
var (
	ErrInvalidHeaderSize   = errors.New("invalid header size")
	ErrInvalidMagicNumber  = errors.New("invalid magic number")
	ErrInvalidHeaderFlags  = errors.New("invalid header flags")
	ErrSchemaMismatch      = errors.New("schema fingerprint mismatch")
	ErrChecksumMismatch    = errors.New("payload checksum mismatch")
	ErrInvalidChannelIndex = errors.New("invalid channel index entry")
	ErrChannelOutOfRange   = errors.New("channel index out of range")

	// ErrEncoderFinished is returned when a dataset encoder is used after
	// Finish has been called.
	ErrEncoderFinished = errors.New("encoder already finished")

	// ErrNoChannelStarted is returned when AddMessage is called before the
	// first StartChannel.
	ErrNoChannelStarted = errors.New("no channel started")

	// ErrInvalidPayload is returned when the payload section described by the
	// header does not fit inside the blob.
	ErrInvalidPayload = errors.New("invalid payload section")
)

// Pipeline errors.
var (
	ErrEmptyDatabase   = errors.New("database has no channels")
	ErrInvalidDayRange = errors.New("invalid day range")
	ErrUnknownAuthor   = errors.New("message references unknown author")

	// ErrProcessAborted is returned by Processor.Result when the consumer
	// stopped iterating the progress sequence before the run finished.
	ErrProcessAborted = errors.New("process run aborted by consumer")

	// ErrProcessIncomplete is returned by Processor.Result when the progress
	// sequence has not been iterated to completion yet.
	ErrProcessIncomplete = errors.New("process run not completed")
)

// Aggregation errors.
var (
	ErrUnknownBlock = errors.New("unknown block key")

	// ErrWorkerClosed is returned by Worker.Request after Close.
	ErrWorkerClosed = errors.New("aggregation worker is closed")

	// ErrWorkerNotReady is returned by Worker.Request when startup failed
	// and the worker will never serve requests.
	ErrWorkerNotReady = errors.New("aggregation worker is not ready")
)
