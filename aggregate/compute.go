package aggregate

import (
	"fmt"

	"github.com/chatpack/chatpack/blob"
	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/pipeline"
)

// computeContext is everything a block computation can see: the decoded
// dataset, the report, the rebuilt day/month key lists, and the filter state
// at the time of the request.
type computeContext struct {
	dataset *blob.Dataset
	report  *pipeline.Report
	filters *Filters

	days       []pipeline.Day
	months     []string
	dayToMonth []int
}

type computeFunc func(ctx *computeContext) (any, error)

func newComputeContext(dataset *blob.Dataset, report *pipeline.Report) (*computeContext, error) {
	days, months, err := pipeline.DayRange(report.MinDate, report.MaxDate)
	if err != nil {
		return nil, err
	}

	dayToMonth := make([]int, len(days))
	monthIdx := 0
	for i, d := range days {
		if months[monthIdx] != d.MonthKey() {
			monthIdx++
		}
		dayToMonth[i] = monthIdx
	}

	return &computeContext{
		dataset:    dataset,
		report:     report,
		filters:    newFilters(report),
		days:       days,
		months:     months,
		dayToMonth: dayToMonth,
	}, nil
}

func (ctx *computeContext) compute(key BlockKey) (any, error) {
	fn, ok := blockComputes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownBlock, key)
	}

	return fn(ctx)
}

// eachFilteredView walks the lazy views of every channel passing the channel
// filter, in encoding order. The callback decides what to decode; returning
// an error aborts the walk.
func (ctx *computeContext) eachFilteredView(fn func(ch uint32, v *codec.MessageView) error) error {
	for ch := 0; ch < ctx.dataset.ChannelCount(); ch++ {
		if !ctx.filters.HasChannel(uint32(ch)) {
			continue
		}

		for v, err := range ctx.dataset.Views(ch) {
			if err != nil {
				return err
			}
			if err := fn(uint32(ch), v); err != nil {
				return err
			}
		}
	}

	return nil
}

// MessagesPerDay is the result of BlockMessagesPerDay: message counts per
// day key and per month key over the report's whole range, for the selected
// channels and authors. The time filter deliberately does not apply — the
// timeline itself is how the user picks a time range.
type MessagesPerDay struct {
	Days        []string `json:"days"`
	DayCounts   []uint32 `json:"day_counts"`
	Months      []string `json:"months"`
	MonthCounts []uint32 `json:"month_counts"`
}

func computeMessagesPerDay(ctx *computeContext) (any, error) {
	res := &MessagesPerDay{
		Days:        make([]string, len(ctx.days)),
		DayCounts:   make([]uint32, len(ctx.days)),
		Months:      ctx.months,
		MonthCounts: make([]uint32, len(ctx.months)),
	}
	for i, d := range ctx.days {
		res.Days[i] = d.Key()
	}

	err := ctx.eachFilteredView(func(_ uint32, v *codec.MessageView) error {
		if !ctx.filters.HasAuthor(v.AuthorIndex()) {
			return nil
		}

		day := v.DayIndex()
		if int(day) >= len(ctx.days) {
			return errs.ErrCorruptMessage
		}
		res.DayCounts[day]++
		res.MonthCounts[ctx.dayToMonth[day]]++

		return nil
	})

	return res, err
}

// WordStats is the result of BlockWordStats: per-word usage counts within
// the active channel, author and time filters. Counts is indexed by word
// dictionary index.
type WordStats struct {
	Counts []uint64 `json:"counts"`
	Total  uint64   `json:"total"`
}

func computeWordStats(ctx *computeContext) (any, error) {
	lo, hi := ctx.filters.dayIndexRange(ctx.days)
	res := &WordStats{Counts: make([]uint64, len(ctx.report.Words))}

	err := ctx.eachFilteredView(func(_ uint32, v *codec.MessageView) error {
		if !ctx.filters.HasAuthor(v.AuthorIndex()) {
			return nil
		}
		if day := int(v.DayIndex()); day < lo || day > hi {
			return nil
		}
		if !v.HasWords() {
			return nil
		}

		words, err := v.Words()
		if err != nil {
			return err
		}
		for _, wc := range words {
			if int(wc.Index) >= len(res.Counts) {
				return errs.ErrCorruptMessage
			}
			res.Counts[wc.Index] += uint64(wc.Count)
			res.Total += uint64(wc.Count)
		}

		return nil
	})

	return res, err
}

// EmojiStats is the result of BlockEmojiStats: per-emoji usage within the
// active filters, split into inline occurrences and reaction occurrences.
// Counts is indexed by emoji dictionary index and sums both kinds.
type EmojiStats struct {
	Counts      []uint64 `json:"counts"`
	InText      uint64   `json:"in_text"`
	InReactions uint64   `json:"in_reactions"`
}

func computeEmojiStats(ctx *computeContext) (any, error) {
	lo, hi := ctx.filters.dayIndexRange(ctx.days)
	res := &EmojiStats{Counts: make([]uint64, len(ctx.report.Emojis))}

	tally := func(counts codec.IndexCounts, total *uint64) error {
		for _, ec := range counts {
			if int(ec.Index) >= len(res.Counts) {
				return errs.ErrCorruptMessage
			}
			res.Counts[ec.Index] += uint64(ec.Count)
			*total += uint64(ec.Count)
		}

		return nil
	}

	err := ctx.eachFilteredView(func(_ uint32, v *codec.MessageView) error {
		if !ctx.filters.HasAuthor(v.AuthorIndex()) {
			return nil
		}
		if day := int(v.DayIndex()); day < lo || day > hi {
			return nil
		}

		if v.HasEmojis() {
			emojis, err := v.Emojis()
			if err != nil {
				return err
			}
			if err := tally(emojis, &res.InText); err != nil {
				return err
			}
		}

		if v.HasReactions() {
			reactions, err := v.Reactions()
			if err != nil {
				return err
			}
			if err := tally(reactions, &res.InReactions); err != nil {
				return err
			}
		}

		return nil
	})

	return res, err
}

// AuthorActivity is the result of BlockAuthorActivity: message counts per
// author and per hour of day within the active channel and time filters.
// The author filter does not apply, so the result can drive the author
// selector itself.
type AuthorActivity struct {
	ByAuthor []uint64   `json:"by_author"`
	ByHour   [24]uint64 `json:"by_hour"`
}

func computeAuthorActivity(ctx *computeContext) (any, error) {
	lo, hi := ctx.filters.dayIndexRange(ctx.days)
	res := &AuthorActivity{ByAuthor: make([]uint64, len(ctx.report.Authors))}

	err := ctx.eachFilteredView(func(_ uint32, v *codec.MessageView) error {
		if day := int(v.DayIndex()); day < lo || day > hi {
			return nil
		}

		return res.tally(v)
	})

	return res, err
}

func (res *AuthorActivity) tally(v *codec.MessageView) error {
	author := v.AuthorIndex()
	if int(author) >= len(res.ByAuthor) {
		return errs.ErrCorruptMessage
	}

	// The 17-bit field can hold values past 86399.
	hour := v.SecondOfDay() / 3600
	if hour >= uint32(len(res.ByHour)) {
		return errs.ErrCorruptMessage
	}

	res.ByAuthor[author]++
	res.ByHour[hour]++

	return nil
}
