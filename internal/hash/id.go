// Package hash provides xxHash64 helpers for identifiers and integrity
// fingerprints embedded in encoded blobs.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Checksum computes the xxHash64 of the given byte slice. It is used for
// payload integrity checks and schema fingerprints in blob headers.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
