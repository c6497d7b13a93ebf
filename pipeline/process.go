package pipeline

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/chatpack/chatpack/blob"
	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/errs"
)

// Stage titles, in emission order.
const (
	StageChannels = "Processing channels"
	StageAuthors  = "Processing authors"
	StageMessages = "Processing messages"
	StageSorting  = "Sorting authors"
)

// Result is the output of a completed Process run.
type Result struct {
	// Report is the summary structure consumers persist next to the blob.
	Report *Report

	// Blob is the encoded dataset, ready for blob.Decode.
	Blob []byte
}

// Processor transforms a raw record set into a Report plus an encoded
// dataset blob, reporting progress along the way.
//
// A Processor is single-use: Run returns a lazy event sequence whose
// iteration performs the whole transformation, and iterating it a second
// time panics. Call Result after the sequence is drained.
type Processor struct {
	db      *Database
	encOpts []blob.Option

	started bool
	result  *Result
	err     error
}

// NewProcessor creates a Processor for db. Encoder options (compression,
// endianness) are passed through to the dataset encoder; the platform tag is
// taken from db and must not be set through opts.
func NewProcessor(db *Database, opts ...blob.Option) *Processor {
	encOpts := make([]blob.Option, 0, len(opts)+1)
	encOpts = append(encOpts, blob.WithPlatform(db.Platform))
	encOpts = append(encOpts, opts...)

	return &Processor{db: db, encOpts: encOpts}
}

// Run returns the progress event sequence. Stages run in fixed order:
// channels, authors, messages, author sorting; each opens with
// EventStageStart and closes with exactly one EventStageDone. Progress
// events for the authors and messages stages are rate-limited; the channel
// stage is small and reports every item.
//
// Breaking out of the loop abandons the run; Result then returns
// errs.ErrProcessAborted. Processing errors stop the sequence early and
// surface through Result as well.
func (p *Processor) Run() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if p.started {
			panic("pipeline: Processor is single-use, create a new one per run")
		}
		p.started = true

		p.result, p.err = p.process(yield)
	}
}

// Result returns the outcome of the run: the report and blob on success, or
// the error that stopped it.
func (p *Processor) Result() (*Result, error) {
	if !p.started {
		return nil, errs.ErrProcessIncomplete
	}

	return p.result, p.err
}

func (p *Processor) process(yield func(Event) bool) (*Result, error) {
	db := p.db
	if err := db.Validate(); err != nil {
		return nil, err
	}

	days, months, err := DayRange(db.MinDate, db.MaxDate)
	if err != nil {
		return nil, err
	}

	dayIndex := make(map[Day]uint32, len(days))
	for i, d := range days {
		dayIndex[d] = uint32(i)
	}

	enc, err := blob.NewDatasetEncoder(db.Schema(), p.encOpts...)
	if err != nil {
		return nil, err
	}

	// Channels: summaries plus the grand total used to proportion message
	// progress. Channel counts are small, no throttling.
	if !yield(Event{Type: EventStageStart, Stage: StageChannels}) {
		return nil, errs.ErrProcessAborted
	}

	channels := make([]ChannelSummary, len(db.Channels))
	totalMessages := 0
	for i, ch := range db.Channels {
		channels[i] = ChannelSummary{
			Name:         ch.Name,
			SearchName:   SearchNormalize(ch.Name),
			MessageCount: uint32(len(db.Messages[i])),
		}
		totalMessages += len(db.Messages[i])

		if !yield(Event{Type: EventProgress, Current: i + 1, Total: len(db.Channels)}) {
			return nil, errs.ErrProcessAborted
		}
	}
	if !yield(Event{Type: EventStageDone}) {
		return nil, errs.ErrProcessAborted
	}

	// Authors: identity fields now, message counters after the message pass.
	if !yield(Event{Type: EventStageStart, Stage: StageAuthors}) {
		return nil, errs.ErrProcessAborted
	}

	authors := make([]AuthorSummary, len(db.Authors))
	th := newThrottler(len(db.Authors))
	for i, a := range db.Authors {
		authors[i] = AuthorSummary{
			Name:       a.Name,
			SearchName: SearchNormalize(a.Name),
			Bot:        a.Bot,
		}

		if th.ok(i) {
			if !yield(Event{Type: EventProgress, Current: i + 1, Total: len(db.Authors)}) {
				return nil, errs.ErrProcessAborted
			}
		}
	}
	if !yield(Event{Type: EventStageDone}) {
		return nil, errs.ErrProcessAborted
	}

	// Messages: bucket into days, count per author, encode.
	if !yield(Event{Type: EventStageStart, Stage: StageMessages}) {
		return nil, errs.ErrProcessAborted
	}

	th = newThrottler(totalMessages)
	processed := 0
	var addrs []uint64

	for chID := range db.Channels {
		if _, err := enc.StartChannel(); err != nil {
			return nil, err
		}

		msgs := db.Messages[chID]
		addrs = addrs[:0]

		for i := range msgs {
			raw := &msgs[i]

			day := DayOf(raw.Timestamp)
			di, ok := dayIndex[day]
			if !ok {
				return nil, fmt.Errorf("%w: message day %s outside [%s, %s]",
					errs.ErrInvalidDayRange, day.Key(), db.MinDate.Key(), db.MaxDate.Key())
			}

			m := &codec.Message{
				DayIndex:    di,
				SecondOfDay: secondOfDay(raw.Timestamp),
				AuthorIndex: raw.AuthorID,
			}
			if raw.HasText {
				m.SetText(raw.Lang, raw.Sentiment)
			}
			if raw.Edited {
				m.SetEdited()
			}
			m.SetWords(raw.Words)
			m.SetEmojis(raw.Emojis)
			m.SetAttachments(raw.Attachments)
			m.SetReactions(raw.Reactions)
			m.SetMentions(raw.Mentions)
			m.SetDomains(raw.Domains)

			if raw.ReplyTo != NoReply {
				if raw.ReplyTo < 0 || raw.ReplyTo >= i {
					return nil, fmt.Errorf("channel %d message %d: reply target %d is not an earlier message",
						chID, i, raw.ReplyTo)
				}
				m.SetReply(addrs[raw.ReplyTo])
			}

			addr, err := enc.AddMessage(m)
			if err != nil {
				return nil, fmt.Errorf("channel %d message %d: %w", chID, i, err)
			}
			addrs = append(addrs, addr)
			authors[raw.AuthorID].MessageCount++

			processed++
			if th.ok(processed) {
				if !yield(Event{Type: EventProgress, Current: processed, Total: totalMessages}) {
					return nil, errs.ErrProcessAborted
				}
			}
		}
	}
	if !yield(Event{Type: EventStageDone}) {
		return nil, errs.ErrProcessAborted
	}

	// Author ranking: non-bots before bots, descending message count within
	// the same bot status, stable for ties.
	if !yield(Event{Type: EventStageStart, Stage: StageSorting}) {
		return nil, errs.ErrProcessAborted
	}

	order := make([]uint32, len(authors))
	for i := range order {
		order[i] = uint32(i)
	}
	slices.SortStableFunc(order, func(a, b uint32) int {
		if authors[a].Bot != authors[b].Bot {
			if authors[a].Bot {
				return 1
			}
			return -1
		}

		return int(authors[b].MessageCount) - int(authors[a].MessageCount)
	})

	botCutoff := -1
	for pos, idx := range order {
		if authors[idx].Bot {
			botCutoff = pos
			break
		}
	}
	if !yield(Event{Type: EventStageDone}) {
		return nil, errs.ErrProcessAborted
	}

	encoded, err := enc.Finish()
	if err != nil {
		return nil, err
	}

	return &Result{
		Report: &Report{
			Platform:         db.Platform,
			Title:            db.Title,
			MinDate:          db.MinDate,
			MaxDate:          db.MaxDate,
			DayCount:         len(days),
			MonthCount:       len(months),
			Channels:         channels,
			Authors:          authors,
			Words:            db.Words.Tokens(),
			Emojis:           db.Emojis.Tokens(),
			Mentions:         db.Mentions.Tokens(),
			Domains:          db.Domains.Tokens(),
			AuthorsOrder:     order,
			AuthorsBotCutoff: botCutoff,
		},
		Blob: encoded,
	}, nil
}

func secondOfDay(t time.Time) uint32 {
	t = t.UTC()
	return uint32(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
