package chatpack_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatpack/chatpack"
	"github.com/chatpack/chatpack/aggregate"
	"github.com/chatpack/chatpack/blob"
	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/format"
	"github.com/chatpack/chatpack/pipeline"
)

func exampleDatabase() *pipeline.Database {
	words := pipeline.NewDictionary()
	words.Add("gopher")
	emojis := pipeline.NewDictionary()
	emojis.Add("🎉")
	mentions := pipeline.NewDictionary()
	domains := pipeline.NewDictionary()
	for _, d := range []*pipeline.Dictionary{words, emojis, mentions, domains} {
		d.Seal()
	}

	msg := func(author uint32, hour int) pipeline.RawMessage {
		return pipeline.RawMessage{
			Timestamp: time.Date(2024, time.March, 10, hour, 0, 0, 0, time.UTC),
			AuthorID:  author,
			ReplyTo:   pipeline.NoReply,
			Words:     codec.IndexCounts{{Index: 0, Count: 1}},
		}
	}

	return &pipeline.Database{
		Platform: format.PlatformTelegram,
		Title:    "example",
		MinDate:  pipeline.Day{Year: 2024, Month: time.March, Day: 10},
		MaxDate:  pipeline.Day{Year: 2024, Month: time.March, Day: 11},
		Authors:  []pipeline.RawAuthor{{Name: "Ana"}, {Name: "Ben"}},
		Channels: []pipeline.RawChannel{{Name: "main"}},
		Messages: [][]pipeline.RawMessage{{msg(0, 9), msg(1, 10), msg(0, 11)}},
		Words:    words,
		Emojis:   emojis,
		Mentions: mentions,
		Domains:  domains,
	}
}

func TestProcessAndDecode(t *testing.T) {
	result, err := chatpack.Process(exampleDatabase(), blob.WithCompression(format.CompressionZstd))
	require.NoError(t, err)
	require.Equal(t, "example", result.Report.Title)

	ds, err := chatpack.Decode(result.Blob)
	require.NoError(t, err)
	require.Equal(t, format.PlatformTelegram, ds.Platform())
	require.Equal(t, uint32(3), ds.MessageCount())
}

func TestProcessWithProgress(t *testing.T) {
	var starts int
	_, err := chatpack.ProcessWithProgress(exampleDatabase(), func(ev pipeline.Event) {
		if ev.Type == pipeline.EventStageStart {
			starts++
		}
	})
	require.NoError(t, err)
	require.Equal(t, 4, starts)
}

func TestNewProvider(t *testing.T) {
	result, err := chatpack.Process(exampleDatabase())
	require.NoError(t, err)

	provider, err := chatpack.NewProvider(result.Blob, result.Report)
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	done := make(chan *aggregate.MessagesPerDay, 1)
	provider.OnBlock(aggregate.BlockMessagesPerDay, func(info aggregate.BlockInfo) {
		if info.State == aggregate.BlockReady {
			done <- info.Data.(*aggregate.MessagesPerDay)
		}
	})

	provider.UpdateChannels([]uint32{0})
	provider.UpdateAuthors([]uint32{0, 1})
	provider.ToggleBlock(aggregate.BlockMessagesPerDay, 1, true)

	select {
	case perDay := <-done:
		require.Equal(t, []uint32{3, 0}, perDay.DayCounts)
	case <-time.After(time.Second):
		t.Fatal("aggregate never completed")
	}
}
