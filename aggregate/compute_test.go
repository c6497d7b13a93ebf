package aggregate

import (
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/require"

	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/blob"
	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/format"
	"github.com/chatpack/chatpack/pipeline"
)

// testData builds a two-channel dataset over 2023-01-30 .. 2023-02-02:
//
//	channel 0: day 0 author 0 (2×"hello", 1×"🔥"),
//	           day 1 author 1 (1×"world", 3×"👍" reactions),
//	           day 2 author 0 (1×"hello", 1×"world")
//	channel 1: day 2 author 2 (4×"hello"),
//	           day 3 author 0 (no groups)
func testData(t *testing.T) ([]byte, *pipeline.Report) {
	t.Helper()

	words := pipeline.NewDictionary()
	words.Add("hello") // 0
	words.Add("world") // 1
	emojis := pipeline.NewDictionary()
	emojis.Add("🔥") // 0
	emojis.Add("👍") // 1
	mentions := pipeline.NewDictionary()
	domains := pipeline.NewDictionary()
	for _, d := range []*pipeline.Dictionary{words, emojis, mentions, domains} {
		d.Seal()
	}

	at := func(day, hour int) time.Time {
		return time.Date(2023, time.January, 30+day, hour, 0, 0, 0, time.UTC)
	}

	db := &pipeline.Database{
		Platform: format.PlatformDiscord,
		Title:    "aggregate test",
		MinDate:  pipeline.Day{Year: 2023, Month: time.January, Day: 30},
		MaxDate:  pipeline.Day{Year: 2023, Month: time.February, Day: 2},
		Authors: []pipeline.RawAuthor{
			{Name: "Alice"},
			{Name: "Bob"},
			{Name: "Carol"},
		},
		Channels: []pipeline.RawChannel{{Name: "general"}, {Name: "random"}},
		Messages: [][]pipeline.RawMessage{
			{
				{
					Timestamp: at(0, 10), AuthorID: 0, ReplyTo: pipeline.NoReply,
					Words:  codec.IndexCounts{{Index: 0, Count: 2}},
					Emojis: codec.IndexCounts{{Index: 0, Count: 1}},
				},
				{
					Timestamp: at(1, 11), AuthorID: 1, ReplyTo: pipeline.NoReply,
					Words:     codec.IndexCounts{{Index: 1, Count: 1}},
					Reactions: codec.IndexCounts{{Index: 1, Count: 3}},
				},
				{
					Timestamp: at(2, 12), AuthorID: 0, ReplyTo: pipeline.NoReply,
					Words: codec.IndexCounts{{Index: 0, Count: 1}, {Index: 1, Count: 1}},
				},
			},
			{
				{
					Timestamp: at(2, 13), AuthorID: 2, ReplyTo: pipeline.NoReply,
					Words: codec.IndexCounts{{Index: 0, Count: 4}},
				},
				{Timestamp: at(3, 23), AuthorID: 0, ReplyTo: pipeline.NoReply},
			},
		},
		Words:    words,
		Emojis:   emojis,
		Mentions: mentions,
		Domains:  domains,
	}

	p := pipeline.NewProcessor(db)
	for range p.Run() {
	}
	result, err := p.Result()
	require.NoError(t, err)

	return result.Blob, result.Report
}

func testContext(t *testing.T) *computeContext {
	t.Helper()

	data, report := testData(t)
	ds, err := blob.Decode(data)
	require.NoError(t, err)

	ctx, err := newComputeContext(ds, report)
	require.NoError(t, err)

	// Select everything by default; tests narrow from here.
	ctx.filters.Channels = roaring.BitmapOf(0, 1)
	ctx.filters.Authors = roaring.BitmapOf(0, 1, 2)

	return ctx
}

func TestComputeMessagesPerDay(t *testing.T) {
	ctx := testContext(t)

	raw, err := ctx.compute(BlockMessagesPerDay)
	require.NoError(t, err)
	res := raw.(*MessagesPerDay)

	require.Equal(t, []string{"2023-01-30", "2023-01-31", "2023-02-01", "2023-02-02"}, res.Days)
	require.Equal(t, []uint32{1, 1, 2, 1}, res.DayCounts)
	require.Equal(t, []string{"2023-01", "2023-02"}, res.Months)
	require.Equal(t, []uint32{2, 3}, res.MonthCounts)
}

func TestComputeMessagesPerDay_ChannelFilter(t *testing.T) {
	ctx := testContext(t)
	ctx.filters.Channels = roaring.BitmapOf(1)

	raw, err := ctx.compute(BlockMessagesPerDay)
	require.NoError(t, err)
	res := raw.(*MessagesPerDay)

	require.Equal(t, []uint32{0, 0, 1, 1}, res.DayCounts)
}

func TestComputeMessagesPerDay_AuthorFilter(t *testing.T) {
	ctx := testContext(t)
	ctx.filters.Authors = roaring.BitmapOf(0)

	raw, err := ctx.compute(BlockMessagesPerDay)
	require.NoError(t, err)
	res := raw.(*MessagesPerDay)

	require.Equal(t, []uint32{1, 0, 1, 1}, res.DayCounts)
}

func TestComputeWordStats(t *testing.T) {
	ctx := testContext(t)

	raw, err := ctx.compute(BlockWordStats)
	require.NoError(t, err)
	res := raw.(*WordStats)

	require.Equal(t, []uint64{7, 2}, res.Counts) // hello: 2+1+4, world: 1+1
	require.Equal(t, uint64(9), res.Total)
}

func TestComputeWordStats_TimeFilter(t *testing.T) {
	ctx := testContext(t)
	// Only 2023-02-01 (day index 2).
	ctx.filters.Start = pipeline.Day{Year: 2023, Month: time.February, Day: 1}
	ctx.filters.End = pipeline.Day{Year: 2023, Month: time.February, Day: 1}

	raw, err := ctx.compute(BlockWordStats)
	require.NoError(t, err)
	res := raw.(*WordStats)

	require.Equal(t, []uint64{5, 1}, res.Counts) // hello: 1+4, world: 1
	require.Equal(t, uint64(6), res.Total)
}

func TestComputeEmojiStats(t *testing.T) {
	ctx := testContext(t)

	raw, err := ctx.compute(BlockEmojiStats)
	require.NoError(t, err)
	res := raw.(*EmojiStats)

	require.Equal(t, []uint64{1, 3}, res.Counts)
	require.Equal(t, uint64(1), res.InText)
	require.Equal(t, uint64(3), res.InReactions)
}

func TestComputeAuthorActivity(t *testing.T) {
	ctx := testContext(t)
	// Author filter must not apply to this block.
	ctx.filters.Authors = roaring.New()

	raw, err := ctx.compute(BlockAuthorActivity)
	require.NoError(t, err)
	res := raw.(*AuthorActivity)

	require.Equal(t, []uint64{3, 1, 1}, res.ByAuthor)
	require.Equal(t, uint64(1), res.ByHour[10])
	require.Equal(t, uint64(1), res.ByHour[23])
	require.Equal(t, uint64(0), res.ByHour[0])
}

func TestAuthorActivity_CorruptSecondOfDay(t *testing.T) {
	schema := codec.NewSchema(codec.Cardinalities{Days: 4, Authors: 3})

	// The encoder rejects seconds past 86399, so a value like this can only
	// come from a corrupted payload; build the raw bits directly.
	s := bitstream.New()
	s.PutBits(int(schema.DayBits), 0)
	s.PutBits(codec.SecondOfDayBits, 90000)
	s.PutBits(int(schema.AuthorBits), 0)
	s.PutBits(format.FlagBits, 0)
	s.SetOffset(0)

	v, err := codec.NewMessageView(s, schema)
	require.NoError(t, err)

	res := &AuthorActivity{ByAuthor: make([]uint64, 3)}
	require.ErrorIs(t, res.tally(v), errs.ErrCorruptMessage)
	require.Equal(t, []uint64{0, 0, 0}, res.ByAuthor)
}

func TestComputeUnknownBlock(t *testing.T) {
	ctx := testContext(t)

	_, err := ctx.compute(BlockKey("nope"))
	require.ErrorIs(t, err, errs.ErrUnknownBlock)
}

func TestFilters_DayIndexRange(t *testing.T) {
	ctx := testContext(t)

	lo, hi := ctx.filters.dayIndexRange(ctx.days)
	require.Equal(t, 0, lo)
	require.Equal(t, 3, hi)

	ctx.filters.Start = pipeline.Day{Year: 2023, Month: time.January, Day: 31}
	ctx.filters.End = pipeline.Day{Year: 2023, Month: time.February, Day: 1}
	lo, hi = ctx.filters.dayIndexRange(ctx.days)
	require.Equal(t, 1, lo)
	require.Equal(t, 2, hi)

	// Disjoint range: lo ends up past hi.
	ctx.filters.Start = pipeline.Day{Year: 2024, Month: time.January, Day: 1}
	ctx.filters.End = pipeline.Day{Year: 2024, Month: time.January, Day: 2}
	lo, hi = ctx.filters.dayIndexRange(ctx.days)
	require.Greater(t, lo, hi)
}
