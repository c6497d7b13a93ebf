// Package pool provides pooled byte buffers for blob assembly.
package pool

import "sync"

const (
	// BlobBufferDefaultSize is the initial capacity of pooled buffers.
	BlobBufferDefaultSize = 1024 * 16 // 16KiB
	// BlobBufferMaxThreshold is the largest buffer the pool retains; bigger
	// buffers are dropped to avoid memory bloat.
	BlobBufferMaxThreshold = 1024 * 1024 // 1MiB
)

// ByteBuffer is a growable byte slice used to assemble blob sections
// (header, channel index, payload) before the final copy to the caller.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer while retaining the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// MustWrite appends data to the buffer, growing it as needed.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

var blobPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(BlobBufferDefaultSize)
	},
}

// GetBlobBuffer retrieves a ByteBuffer from the pool.
func GetBlobBuffer() *ByteBuffer {
	bb, _ := blobPool.Get().(*ByteBuffer)
	return bb
}

// PutBlobBuffer resets bb and returns it to the pool. Oversized buffers are
// discarded.
func PutBlobBuffer(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if cap(bb.B) > BlobBufferMaxThreshold {
		return
	}

	bb.Reset()
	blobPool.Put(bb)
}
