package blob

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/format"
	"github.com/chatpack/chatpack/section"
)

// buildBlob encodes two channels of test messages, the second containing a
// reply back-reference to its first message.
func buildBlob(t *testing.T, opts ...Option) []byte {
	t.Helper()

	enc, err := NewDatasetEncoder(testSchema(), opts...)
	require.NoError(t, err)

	_, err = enc.StartChannel()
	require.NoError(t, err)
	for day := uint32(0); day < 3; day++ {
		_, err = enc.AddMessage(testMessage(day, day%2))
		require.NoError(t, err)
	}

	_, err = enc.StartChannel()
	require.NoError(t, err)
	root, err := enc.AddMessage(testMessage(5, 3))
	require.NoError(t, err)

	reply := testMessage(5, 4)
	reply.SetReply(root)
	_, err = enc.AddMessage(reply)
	require.NoError(t, err)

	blob, err := enc.Finish()
	require.NoError(t, err)

	return blob
}

func TestDataset_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"default", nil},
		{"zstd", []Option{WithCompression(format.CompressionZstd)}},
		{"s2", []Option{WithCompression(format.CompressionS2)}},
		{"lz4", []Option{WithCompression(format.CompressionLZ4)}},
		{"big_endian", []Option{WithBigEndian()}},
		{"platform", []Option{WithPlatform(format.PlatformTelegram)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Decode(buildBlob(t, tt.opts...))
			require.NoError(t, err)

			require.Equal(t, 2, ds.ChannelCount())
			require.Equal(t, uint32(5), ds.MessageCount())
			require.Equal(t, testSchema(), ds.Schema())
			require.Equal(t, testSchema().Fingerprint(), ds.SchemaFingerprint())

			count, err := ds.ChannelMessageCount(0)
			require.NoError(t, err)
			require.Equal(t, uint32(3), count)

			day := uint32(0)
			for m, err := range ds.Messages(0) {
				require.NoError(t, err)
				require.Equal(t, day, m.DayIndex)
				require.Equal(t, day%2, m.AuthorIndex)
				day++
			}
			require.Equal(t, uint32(3), day)
		})
	}
}

func TestDataset_Platform(t *testing.T) {
	ds, err := Decode(buildBlob(t, WithPlatform(format.PlatformWhatsApp)))
	require.NoError(t, err)
	require.Equal(t, format.PlatformWhatsApp, ds.Platform())
}

func TestDataset_ViewsAgreeWithMessages(t *testing.T) {
	ds, err := Decode(buildBlob(t))
	require.NoError(t, err)

	for ch := 0; ch < ds.ChannelCount(); ch++ {
		var eager []*codec.Message
		for m, err := range ds.Messages(ch) {
			require.NoError(t, err)
			eager = append(eager, m)
		}

		i := 0
		for v, err := range ds.Views(ch) {
			require.NoError(t, err)

			full, err := v.Full()
			require.NoError(t, err)
			require.Equal(t, eager[i], full)
			i++
		}
		require.Equal(t, len(eager), i)
	}
}

func TestDataset_ReplyTraversal(t *testing.T) {
	ds, err := Decode(buildBlob(t))
	require.NoError(t, err)

	var views []*codec.MessageView
	for v, err := range ds.Views(1) {
		require.NoError(t, err)
		views = append(views, v)
	}
	require.Len(t, views, 2)

	require.False(t, views[0].HasReply())
	require.True(t, views[1].HasReply())

	parent, err := views[1].Reply()
	require.NoError(t, err)
	require.Equal(t, uint32(5), parent.DayIndex())
	require.Equal(t, uint32(3), parent.AuthorIndex())
}

func TestDataset_EarlyBreak(t *testing.T) {
	ds, err := Decode(buildBlob(t))
	require.NoError(t, err)

	seen := 0
	for _, err := range ds.Messages(0) {
		require.NoError(t, err)
		seen++
		if seen == 2 {
			break
		}
	}
	require.Equal(t, 2, seen)
}

func TestDataset_ChannelOutOfRange(t *testing.T) {
	ds, err := Decode(buildBlob(t))
	require.NoError(t, err)

	for _, err := range ds.Messages(7) {
		require.ErrorIs(t, err, errs.ErrChannelOutOfRange)
	}
	for _, err := range ds.Views(-1) {
		require.ErrorIs(t, err, errs.ErrChannelOutOfRange)
	}

	_, err = ds.ChannelMessageCount(7)
	require.ErrorIs(t, err, errs.ErrChannelOutOfRange)
}

func TestDataset_CloneConcurrentReads(t *testing.T) {
	ds, err := Decode(buildBlob(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			reader := ds.Clone()
			for i := 0; i < 50; i++ {
				day := uint32(0)
				for m, err := range reader.Messages(0) {
					if err != nil {
						t.Error(err)
						return
					}
					if m.DayIndex != day {
						t.Errorf("day %d, want %d", m.DayIndex, day)
						return
					}
					day++
				}
			}
		}()
	}
	wg.Wait()
}

func TestDecode_Corruption(t *testing.T) {
	blob := buildBlob(t)

	t.Run("truncated header", func(t *testing.T) {
		_, err := Decode(blob[:section.HeaderSize-1])
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("bad magic", func(t *testing.T) {
		corrupted := append([]byte(nil), blob...)
		corrupted[1] ^= 0xFF
		_, err := Decode(corrupted)
		require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
	})

	t.Run("schema fingerprint mismatch", func(t *testing.T) {
		corrupted := append([]byte(nil), blob...)
		corrupted[4]++ // first packed schema width
		_, err := Decode(corrupted)
		require.ErrorIs(t, err, errs.ErrSchemaMismatch)
	})

	t.Run("payload checksum mismatch", func(t *testing.T) {
		corrupted := append([]byte(nil), blob...)
		corrupted[len(corrupted)-1] ^= 0xFF
		_, err := Decode(corrupted)
		require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, err := Decode(blob[:len(blob)-4])
		require.ErrorIs(t, err, errs.ErrInvalidPayload)
	})
}
