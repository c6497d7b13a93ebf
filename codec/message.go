package codec

import (
	"fmt"

	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/errs"
	"github.com/chatpack/chatpack/format"
)

// Message is one fully-materialized chat message record.
//
// Flags is the source of truth for which optional groups are present; the
// Set* helpers keep it consistent with the group fields. Group slices are
// nil when the corresponding flag is unset.
type Message struct {
	DayIndex    uint32
	SecondOfDay uint32
	AuthorIndex uint32
	Flags       format.MessageFlag

	// ReplyOffset is the absolute bit address of the replied-to message
	// within the same encoded buffer. Only meaningful when FlagReply is set,
	// and only valid for the buffer the message was encoded into.
	ReplyOffset uint64

	LangIndex uint8
	Sentiment int16

	Words       IndexCounts
	Emojis      IndexCounts
	Attachments IndexCounts
	Reactions   IndexCounts
	Mentions    IndexCounts
	Domains     IndexCounts
}

// SetReply marks the message as a reply to the message encoded at the given
// bit address.
func (m *Message) SetReply(bitAddr uint64) {
	m.Flags |= format.FlagReply
	m.ReplyOffset = bitAddr
}

// SetText attaches language and sentiment information.
func (m *Message) SetText(langIndex uint8, sentiment int16) {
	m.Flags |= format.FlagText
	m.LangIndex = langIndex
	m.Sentiment = sentiment
}

// SetEdited marks the message as edited. The flag carries no payload.
func (m *Message) SetEdited() {
	m.Flags |= format.FlagEdited
}

// SetWords attaches a word tally; nil or empty tallies are ignored.
func (m *Message) SetWords(counts IndexCounts) {
	if len(counts) > 0 {
		m.Flags |= format.FlagWords
		m.Words = counts
	}
}

// SetEmojis attaches an emoji tally; nil or empty tallies are ignored.
func (m *Message) SetEmojis(counts IndexCounts) {
	if len(counts) > 0 {
		m.Flags |= format.FlagEmojis
		m.Emojis = counts
	}
}

// SetAttachments attaches an attachment-kind tally; nil or empty tallies are
// ignored.
func (m *Message) SetAttachments(counts IndexCounts) {
	if len(counts) > 0 {
		m.Flags |= format.FlagAttachments
		m.Attachments = counts
	}
}

// SetReactions attaches a reaction tally keyed by the emoji dictionary; nil
// or empty tallies are ignored.
func (m *Message) SetReactions(counts IndexCounts) {
	if len(counts) > 0 {
		m.Flags |= format.FlagReactions
		m.Reactions = counts
	}
}

// SetMentions attaches a mention tally; nil or empty tallies are ignored.
func (m *Message) SetMentions(counts IndexCounts) {
	if len(counts) > 0 {
		m.Flags |= format.FlagMentions
		m.Mentions = counts
	}
}

// SetDomains attaches a domain tally; nil or empty tallies are ignored.
func (m *Message) SetDomains(counts IndexCounts) {
	if len(counts) > 0 {
		m.Flags |= format.FlagDomains
		m.Domains = counts
	}
}

// WriteMessage encodes m at the stream cursor using the dataset schema.
//
// Field order is fixed: day index, second-of-day, author index, flags, then
// per set flag bit: reply address, language+sentiment, words, emojis,
// attachments, reactions, mentions, domains.
//
// Returns errs.ErrValueOverflow when a field does not fit its schema width
// and errs.ErrReplyOffsetOverflow when a reply address does not fit
// ReplyBits; either error is a producer bug or a schema derived before the
// dictionaries were finalized.
func WriteMessage(s *bitstream.Stream, m *Message, schema Schema) error {
	if err := checkWidth("day index", uint64(m.DayIndex), int(schema.DayBits)); err != nil {
		return err
	}
	if m.SecondOfDay > 86399 {
		return fmt.Errorf("%w: second-of-day %d", errs.ErrValueOverflow, m.SecondOfDay)
	}
	if err := checkWidth("author index", uint64(m.AuthorIndex), int(schema.AuthorBits)); err != nil {
		return err
	}

	s.PutBits(int(schema.DayBits), m.DayIndex)
	s.PutBits(SecondOfDayBits, m.SecondOfDay)
	s.PutBits(int(schema.AuthorBits), m.AuthorIndex)
	s.PutBits(format.FlagBits, uint32(m.Flags))

	if m.Flags.Has(format.FlagReply) {
		if m.ReplyOffset >= uint64(1)<<schema.ReplyBits {
			return fmt.Errorf("%w: bit address %d", errs.ErrReplyOffsetOverflow, m.ReplyOffset)
		}
		s.PutBits(int(schema.ReplyBits), uint32(m.ReplyOffset)) //nolint:gosec // bounded above
	}

	if m.Flags.Has(format.FlagText) {
		s.PutBits(LangIndexBits, uint32(m.LangIndex))
		s.PutBits(SentimentBits, uint32(int32(m.Sentiment)+128)) //nolint:gosec // range checked by width
	}

	groups := []struct {
		flag   format.MessageFlag
		counts IndexCounts
		bits   int
	}{
		{format.FlagWords, m.Words, int(schema.WordBits)},
		{format.FlagEmojis, m.Emojis, int(schema.EmojiBits)},
		{format.FlagAttachments, m.Attachments, AttachmentIndexBits},
		{format.FlagReactions, m.Reactions, int(schema.EmojiBits)},
		{format.FlagMentions, m.Mentions, int(schema.MentionBits)},
		{format.FlagDomains, m.Domains, int(schema.DomainBits)},
	}
	for _, g := range groups {
		if !m.Flags.Has(g.flag) {
			continue
		}
		if err := WriteIndexCounts(s, g.counts, g.bits); err != nil {
			return err
		}
	}

	return nil
}

// ReadMessage eagerly decodes one message at the stream cursor, reading
// every present group in encoding order. The cursor is left just past the
// message.
//
// A read past the end of the buffer returns errs.ErrOutOfBounds and
// indicates a corrupted blob or a schema mismatch.
func ReadMessage(s *bitstream.Stream, schema Schema) (*Message, error) {
	m := &Message{}

	var err error
	if m.DayIndex, err = s.GetBits(int(schema.DayBits)); err != nil {
		return nil, err
	}
	if m.SecondOfDay, err = s.GetBits(SecondOfDayBits); err != nil {
		return nil, err
	}
	if m.AuthorIndex, err = s.GetBits(int(schema.AuthorBits)); err != nil {
		return nil, err
	}

	rawFlags, err := s.GetBits(format.FlagBits)
	if err != nil {
		return nil, err
	}
	m.Flags = format.MessageFlag(rawFlags)

	if m.Flags.Has(format.FlagReply) {
		addr, err := s.GetBits(int(schema.ReplyBits))
		if err != nil {
			return nil, err
		}
		m.ReplyOffset = uint64(addr)
	}

	if m.Flags.Has(format.FlagText) {
		lang, err := s.GetBits(LangIndexBits)
		if err != nil {
			return nil, err
		}
		sentiment, err := s.GetBits(SentimentBits)
		if err != nil {
			return nil, err
		}
		m.LangIndex = uint8(lang)                   //nolint:gosec // 8-bit read
		m.Sentiment = int16(int32(sentiment) - 128) //nolint:gosec // 8-bit read
	}

	groups := []struct {
		flag format.MessageFlag
		dst  *IndexCounts
		bits int
	}{
		{format.FlagWords, &m.Words, int(schema.WordBits)},
		{format.FlagEmojis, &m.Emojis, int(schema.EmojiBits)},
		{format.FlagAttachments, &m.Attachments, AttachmentIndexBits},
		{format.FlagReactions, &m.Reactions, int(schema.EmojiBits)},
		{format.FlagMentions, &m.Mentions, int(schema.MentionBits)},
		{format.FlagDomains, &m.Domains, int(schema.DomainBits)},
	}
	for _, g := range groups {
		if !m.Flags.Has(g.flag) {
			continue
		}
		counts, err := ReadIndexCounts(s, g.bits)
		if err != nil {
			return nil, err
		}
		*g.dst = counts
	}

	return m, nil
}

func checkWidth(field string, v uint64, width int) error {
	if v >= uint64(1)<<uint(width) {
		return fmt.Errorf("%w: %s %d exceeds %d-bit width", errs.ErrValueOverflow, field, v, width)
	}

	return nil
}
