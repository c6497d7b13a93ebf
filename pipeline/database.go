package pipeline

import (
	"time"

	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/format"
)

// RawAuthor is one author of the raw record set.
type RawAuthor struct {
	Name string
	Bot  bool
}

// RawChannel is one channel of the raw record set.
type RawChannel struct {
	Name string
}

// NoReply marks a message without a reply target.
const NoReply = -1

// RawMessage is one message of the raw record set. Index groups reference
// the database's dictionaries; parsers build them via Dictionary.Add while
// tokenizing.
type RawMessage struct {
	Timestamp time.Time

	// AuthorID is the dense author index produced by an IDMapper.
	AuthorID uint32

	// ReplyTo is the index of the replied-to message within the same
	// channel, or NoReply. Only earlier messages can be reply targets.
	ReplyTo int

	Edited bool

	// HasText marks messages with analyzable text; Lang and Sentiment are
	// meaningful only when set.
	HasText   bool
	Lang      uint8
	Sentiment int16

	Words       codec.IndexCounts
	Emojis      codec.IndexCounts
	Attachments codec.IndexCounts
	Reactions   codec.IndexCounts
	Mentions    codec.IndexCounts
	Domains     codec.IndexCounts
}

// Database is the raw record set produced by a format-specific parser and
// consumed by Process. Channels[i]'s messages live in Messages[i], in
// chronological order.
type Database struct {
	Platform format.Platform
	Title    string

	// MinDate and MaxDate bound the dataset's day range, inclusive.
	MinDate Day
	MaxDate Day

	Authors  []RawAuthor
	Channels []RawChannel
	Messages [][]RawMessage

	// Dictionaries must be sealed before Schema or Process are called.
	Words    *Dictionary
	Emojis   *Dictionary
	Mentions *Dictionary
	Domains  *Dictionary
}

// Validate checks the structural invariants Process relies on.
func (db *Database) Validate() error {
	if len(db.Channels) == 0 {
		return errs.ErrEmptyDatabase
	}

	if len(db.Messages) != len(db.Channels) {
		return errs.ErrInvalidChannelIndex
	}

	if db.MaxDate.Before(db.MinDate) {
		return errs.ErrInvalidDayRange
	}

	for _, msgs := range db.Messages {
		for i := range msgs {
			if msgs[i].AuthorID >= uint32(len(db.Authors)) {
				return errs.ErrUnknownAuthor
			}
		}
	}

	return nil
}

// Schema derives the message bit widths for this dataset.
//
// All four dictionaries must be sealed first; Schema panics otherwise, since
// a schema derived from a still-growing dictionary yields silently corrupt
// encodings.
func (db *Database) Schema() codec.Schema {
	for _, d := range []*Dictionary{db.Words, db.Emojis, db.Mentions, db.Domains} {
		if d == nil || !d.Sealed() {
			panic("pipeline: Schema requires sealed dictionaries")
		}
	}

	days, _, err := DayRange(db.MinDate, db.MaxDate)
	if err != nil {
		panic("pipeline: Schema requires a valid day range")
	}

	return codec.NewSchema(codec.Cardinalities{
		Days:     len(days),
		Authors:  len(db.Authors),
		Words:    db.Words.Len(),
		Emojis:   db.Emojis.Len(),
		Mentions: db.Mentions.Len(),
		Domains:  db.Domains.Len(),
	})
}
