package codec

import (
	"fmt"

	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/errs"
)

const (
	pairCountBits = 16
	countBits     = 4

	// MaxIndexCountPairs is the maximum number of pairs one group can hold.
	MaxIndexCountPairs = 1<<pairCountBits - 1
	// MaxStoredCount is the largest per-index count the 4-bit count field can
	// represent. Larger counts are clamped on write; this loses precision for
	// pathological messages (the same word repeated 17+ times) but keeps the
	// group layout fixed-width and skippable.
	MaxStoredCount = 1 << countBits
)

// IndexCount is one (dictionary index, occurrence count) pair.
type IndexCount struct {
	Index uint32
	Count uint32
}

// IndexCounts is an ordered sequence of (index, count) pairs. Order is part
// of the encoding contract: decoding reproduces the exact sequence that was
// encoded.
type IndexCounts []IndexCount

// Total returns the sum of all counts.
func (ic IndexCounts) Total() uint32 {
	var total uint32
	for _, p := range ic {
		total += p.Count
	}

	return total
}

// WriteIndexCounts encodes the pair sequence at the stream cursor. Each
// index is written with indexBits bits; counts are clamped to
// [1, MaxStoredCount].
//
// Returns errs.ErrValueOverflow if an index does not fit in indexBits or the
// sequence exceeds MaxIndexCountPairs pairs.
func WriteIndexCounts(s *bitstream.Stream, counts IndexCounts, indexBits int) error {
	if len(counts) > MaxIndexCountPairs {
		return fmt.Errorf("%w: %d pairs exceed %d", errs.ErrValueOverflow, len(counts), MaxIndexCountPairs)
	}

	s.PutBits(pairCountBits, uint32(len(counts))) //nolint:gosec // bounded above

	maxIndex := uint32(1)<<uint(indexBits) - 1
	for _, p := range counts {
		if p.Index > maxIndex {
			return fmt.Errorf("%w: index %d exceeds %d-bit width", errs.ErrValueOverflow, p.Index, indexBits)
		}

		count := p.Count
		if count < 1 {
			count = 1
		} else if count > MaxStoredCount {
			count = MaxStoredCount
		}

		s.PutBits(indexBits, p.Index)
		s.PutBits(countBits, count-1)
	}

	return nil
}

// ReadIndexCounts decodes a pair sequence from the stream cursor, reversing
// WriteIndexCounts exactly.
func ReadIndexCounts(s *bitstream.Stream, indexBits int) (IndexCounts, error) {
	numPairs, err := s.GetBits(pairCountBits)
	if err != nil {
		return nil, err
	}

	if numPairs == 0 {
		return IndexCounts{}, nil
	}

	counts := make(IndexCounts, 0, numPairs)
	for range numPairs {
		idx, err := s.GetBits(indexBits)
		if err != nil {
			return nil, err
		}

		count, err := s.GetBits(countBits)
		if err != nil {
			return nil, err
		}

		counts = append(counts, IndexCount{Index: idx, Count: count + 1})
	}

	return counts, nil
}

// SkipIndexCounts advances the cursor past an encoded pair sequence without
// decoding it. The lazy reader uses it to record a group's start offset
// cheaply, paying full decode cost only if the field is actually requested.
//
// Returns errs.ErrOutOfBounds if the declared group extends past the end of
// the stream, which indicates corruption.
func SkipIndexCounts(s *bitstream.Stream, indexBits int) error {
	numPairs, err := s.GetBits(pairCountBits)
	if err != nil {
		return err
	}

	end := s.Offset() + uint64(numPairs)*uint64(indexBits+countBits)
	if end > s.Len() {
		return errs.ErrOutOfBounds
	}

	s.SetOffset(end)

	return nil
}
