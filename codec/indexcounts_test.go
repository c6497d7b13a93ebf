package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/errs"
)

func TestIndexCounts_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		counts    IndexCounts
		indexBits int
	}{
		{"empty", IndexCounts{}, 8},
		{"single pair", IndexCounts{{Index: 3, Count: 1}}, 8},
		{"order preserved", IndexCounts{{Index: 9, Count: 2}, {Index: 1, Count: 5}, {Index: 7, Count: 1}}, 4},
		{"max count", IndexCounts{{Index: 0, Count: MaxStoredCount}}, 1},
		{"wide index", IndexCounts{{Index: 1<<20 - 1, Count: 3}}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := bitstream.New()
			require.NoError(t, WriteIndexCounts(s, tt.counts, tt.indexBits))

			s.SetOffset(0)
			got, err := ReadIndexCounts(s, tt.indexBits)
			require.NoError(t, err)
			require.Equal(t, tt.counts, got)
		})
	}
}

func TestIndexCounts_CountClamping(t *testing.T) {
	s := bitstream.New()
	counts := IndexCounts{{Index: 2, Count: 500}, {Index: 5, Count: 0}}
	require.NoError(t, WriteIndexCounts(s, counts, 8))

	s.SetOffset(0)
	got, err := ReadIndexCounts(s, 8)
	require.NoError(t, err)
	require.Equal(t, IndexCounts{{Index: 2, Count: MaxStoredCount}, {Index: 5, Count: 1}}, got)
}

func TestIndexCounts_IndexOverflow(t *testing.T) {
	s := bitstream.New()
	err := WriteIndexCounts(s, IndexCounts{{Index: 16, Count: 1}}, 4)
	require.ErrorIs(t, err, errs.ErrValueOverflow)
}

func TestIndexCounts_Skip(t *testing.T) {
	s := bitstream.New()
	counts := IndexCounts{{Index: 1, Count: 2}, {Index: 3, Count: 4}}
	require.NoError(t, WriteIndexCounts(s, counts, 6))
	endOfGroup := s.Offset()
	s.PutBits(13, 0x1234&0x1FFF)

	s.SetOffset(0)
	require.NoError(t, SkipIndexCounts(s, 6))
	require.Equal(t, endOfGroup, s.Offset())

	// The stream is positioned exactly past the group.
	v, err := s.GetBits(13)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1234&0x1FFF), v)
}

func TestIndexCounts_SkipCorrupt(t *testing.T) {
	// A pair count larger than the remaining data must be rejected.
	s := bitstream.New()
	s.PutBits(16, 1000)
	s.PutBits(10, 0)

	s.SetOffset(0)
	err := SkipIndexCounts(s, 8)
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestIndexCounts_Total(t *testing.T) {
	counts := IndexCounts{{Index: 1, Count: 2}, {Index: 3, Count: 4}}
	require.Equal(t, uint32(6), counts.Total())
	require.Equal(t, uint32(0), IndexCounts{}.Total())
}
