package codec

import (
	"github.com/chatpack/chatpack/bitstream"
	"github.com/chatpack/chatpack/format"
)

// MessageView is the lazy decode mode: it reads only the always-present
// header fields and records, for each present optional group, the bit offset
// where the group begins. Field accessors re-seek the stream and decode just
// that field on demand.
//
// A view borrows the stream it was constructed over. Accessors move the
// stream cursor, so views sharing one stream must not be used from multiple
// goroutines; give each concurrent reader its own stream via Clone.
type MessageView struct {
	stream *bitstream.Stream
	schema Schema

	dayIndex    uint32
	secondOfDay uint32
	authorIndex uint32
	flags       format.MessageFlag

	replyOffset uint64
	langIndex   uint8
	sentiment   int16

	wordsOffset       uint64
	emojisOffset      uint64
	attachmentsOffset uint64
	reactionsOffset   uint64
	mentionsOffset    uint64
	domainsOffset     uint64

	endOffset uint64
}

// NewMessageView decodes the header fields of the message at the stream
// cursor and skips over every present optional group, remembering where each
// one begins. The stream cursor is left just past the message; End returns
// that position for sequential iteration.
func NewMessageView(s *bitstream.Stream, schema Schema) (*MessageView, error) {
	v := &MessageView{stream: s, schema: schema}

	var err error
	if v.dayIndex, err = s.GetBits(int(schema.DayBits)); err != nil {
		return nil, err
	}
	if v.secondOfDay, err = s.GetBits(SecondOfDayBits); err != nil {
		return nil, err
	}
	if v.authorIndex, err = s.GetBits(int(schema.AuthorBits)); err != nil {
		return nil, err
	}

	rawFlags, err := s.GetBits(format.FlagBits)
	if err != nil {
		return nil, err
	}
	v.flags = format.MessageFlag(rawFlags)

	if v.flags.Has(format.FlagReply) {
		addr, err := s.GetBits(int(schema.ReplyBits))
		if err != nil {
			return nil, err
		}
		v.replyOffset = uint64(addr)
	}

	if v.flags.Has(format.FlagText) {
		lang, err := s.GetBits(LangIndexBits)
		if err != nil {
			return nil, err
		}
		sentiment, err := s.GetBits(SentimentBits)
		if err != nil {
			return nil, err
		}
		v.langIndex = uint8(lang)                   //nolint:gosec // 8-bit read
		v.sentiment = int16(int32(sentiment) - 128) //nolint:gosec // 8-bit read
	}

	groups := []struct {
		flag format.MessageFlag
		dst  *uint64
		bits int
	}{
		{format.FlagWords, &v.wordsOffset, int(schema.WordBits)},
		{format.FlagEmojis, &v.emojisOffset, int(schema.EmojiBits)},
		{format.FlagAttachments, &v.attachmentsOffset, AttachmentIndexBits},
		{format.FlagReactions, &v.reactionsOffset, int(schema.EmojiBits)},
		{format.FlagMentions, &v.mentionsOffset, int(schema.MentionBits)},
		{format.FlagDomains, &v.domainsOffset, int(schema.DomainBits)},
	}
	for _, g := range groups {
		if !v.flags.Has(g.flag) {
			continue
		}
		*g.dst = s.Offset()
		if err := SkipIndexCounts(s, g.bits); err != nil {
			return nil, err
		}
	}

	v.endOffset = s.Offset()

	return v, nil
}

// DayIndex returns the message's day index.
func (v *MessageView) DayIndex() uint32 { return v.dayIndex }

// SecondOfDay returns the message's second within its UTC day.
func (v *MessageView) SecondOfDay() uint32 { return v.secondOfDay }

// AuthorIndex returns the message's author index.
func (v *MessageView) AuthorIndex() uint32 { return v.authorIndex }

// Flags returns the message's presence bitmask.
func (v *MessageView) Flags() format.MessageFlag { return v.flags }

// End returns the bit offset just past this message, the position of the
// next message in the channel.
func (v *MessageView) End() uint64 { return v.endOffset }

func (v *MessageView) HasReply() bool       { return v.flags.Has(format.FlagReply) }
func (v *MessageView) HasEdited() bool      { return v.flags.Has(format.FlagEdited) }
func (v *MessageView) HasText() bool        { return v.flags.Has(format.FlagText) }
func (v *MessageView) HasWords() bool       { return v.flags.Has(format.FlagWords) }
func (v *MessageView) HasEmojis() bool      { return v.flags.Has(format.FlagEmojis) }
func (v *MessageView) HasAttachments() bool { return v.flags.Has(format.FlagAttachments) }
func (v *MessageView) HasReactions() bool   { return v.flags.Has(format.FlagReactions) }
func (v *MessageView) HasMentions() bool    { return v.flags.Has(format.FlagMentions) }
func (v *MessageView) HasDomains() bool     { return v.flags.Has(format.FlagDomains) }

// Lang returns the language index and sentiment, valid only when HasText.
func (v *MessageView) Lang() (uint8, int16) { return v.langIndex, v.sentiment }

// Words decodes and returns the word tally, or nil if the message has none.
func (v *MessageView) Words() (IndexCounts, error) {
	return v.group(format.FlagWords, v.wordsOffset, int(v.schema.WordBits))
}

// Emojis decodes and returns the emoji tally, or nil if the message has none.
func (v *MessageView) Emojis() (IndexCounts, error) {
	return v.group(format.FlagEmojis, v.emojisOffset, int(v.schema.EmojiBits))
}

// Attachments decodes and returns the attachment-kind tally, or nil if the
// message has none.
func (v *MessageView) Attachments() (IndexCounts, error) {
	return v.group(format.FlagAttachments, v.attachmentsOffset, AttachmentIndexBits)
}

// Reactions decodes and returns the reaction tally, or nil if the message
// has none.
func (v *MessageView) Reactions() (IndexCounts, error) {
	return v.group(format.FlagReactions, v.reactionsOffset, int(v.schema.EmojiBits))
}

// Mentions decodes and returns the mention tally, or nil if the message has
// none.
func (v *MessageView) Mentions() (IndexCounts, error) {
	return v.group(format.FlagMentions, v.mentionsOffset, int(v.schema.MentionBits))
}

// Domains decodes and returns the domain tally, or nil if the message has
// none.
func (v *MessageView) Domains() (IndexCounts, error) {
	return v.group(format.FlagDomains, v.domainsOffset, int(v.schema.DomainBits))
}

// Reply returns a new lazy view positioned at the back-referenced message's
// bit address, enabling one-hop traversal of reply chains without decoding
// intervening messages. Returns nil if the message is not a reply.
func (v *MessageView) Reply() (*MessageView, error) {
	if !v.HasReply() {
		return nil, nil
	}

	v.stream.SetOffset(v.replyOffset)

	return NewMessageView(v.stream, v.schema)
}

// Full materializes the complete message, decoding every present group. The
// result is field-for-field equal to what ReadMessage produces for the same
// encoded bytes.
func (v *MessageView) Full() (*Message, error) {
	m := &Message{
		DayIndex:    v.dayIndex,
		SecondOfDay: v.secondOfDay,
		AuthorIndex: v.authorIndex,
		Flags:       v.flags,
		ReplyOffset: v.replyOffset,
		LangIndex:   v.langIndex,
		Sentiment:   v.sentiment,
	}

	loads := []struct {
		load func() (IndexCounts, error)
		dst  *IndexCounts
	}{
		{v.Words, &m.Words},
		{v.Emojis, &m.Emojis},
		{v.Attachments, &m.Attachments},
		{v.Reactions, &m.Reactions},
		{v.Mentions, &m.Mentions},
		{v.Domains, &m.Domains},
	}
	for _, l := range loads {
		counts, err := l.load()
		if err != nil {
			return nil, err
		}
		if counts != nil {
			*l.dst = counts
		}
	}

	return m, nil
}

func (v *MessageView) group(flag format.MessageFlag, offset uint64, bits int) (IndexCounts, error) {
	if !v.flags.Has(flag) {
		return nil, nil
	}

	v.stream.SetOffset(offset)

	return ReadIndexCounts(v.stream, bits)
}
