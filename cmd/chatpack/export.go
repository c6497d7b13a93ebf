package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/chatpack/chatpack/codec"
	"github.com/chatpack/chatpack/format"
	"github.com/chatpack/chatpack/pipeline"
)

// exportFile is the normalized JSON shape format-specific parsers emit:
// string-keyed authors and channels, per-channel messages referencing them
// by raw ID, and token tallies as plain token→count maps.
type exportFile struct {
	Platform string                     `json:"platform"`
	Title    string                     `json:"title"`
	MinDate  string                     `json:"min_date"`
	MaxDate  string                     `json:"max_date"`
	Authors  []exportAuthor             `json:"authors"`
	Channels []exportChannel            `json:"channels"`
	Messages map[string][]exportMessage `json:"messages"`
}

type exportAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot,omitempty"`
}

type exportChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type exportMessage struct {
	Timestamp string `json:"timestamp"` // RFC 3339
	Author    string `json:"author"`    // raw author ID

	ReplyTo   *int   `json:"reply_to,omitempty"` // index within the channel
	Edited    bool   `json:"edited,omitempty"`
	Lang      *uint8 `json:"lang,omitempty"`
	Sentiment int16  `json:"sentiment,omitempty"`

	Words       map[string]uint32 `json:"words,omitempty"`
	Emojis      map[string]uint32 `json:"emojis,omitempty"`
	Attachments map[string]uint32 `json:"attachments,omitempty"`
	Reactions   map[string]uint32 `json:"reactions,omitempty"`
	Mentions    map[string]uint32 `json:"mentions,omitempty"`
	Domains     map[string]uint32 `json:"domains,omitempty"`
}

var platformNames = map[string]format.Platform{
	"discord":   format.PlatformDiscord,
	"telegram":  format.PlatformTelegram,
	"whatsapp":  format.PlatformWhatsApp,
	"messenger": format.PlatformMessenger,
}

var attachmentKinds = map[string]format.AttachmentType{
	"image":          format.AttachmentImage,
	"image_animated": format.AttachmentImageAnimated,
	"video":          format.AttachmentVideo,
	"sticker":        format.AttachmentSticker,
	"audio":          format.AttachmentAudio,
	"document":       format.AttachmentDocument,
	"other":          format.AttachmentOther,
}

// loadExport reads and parses a normalized JSON export into a Database
// ready for processing, with sealed dictionaries.
func loadExport(path string) (*pipeline.Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	var ex exportFile
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}

	return buildDatabase(&ex)
}

func buildDatabase(ex *exportFile) (*pipeline.Database, error) {
	platform, ok := platformNames[ex.Platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", ex.Platform)
	}

	minDate, err := pipeline.DayFromKey(ex.MinDate)
	if err != nil {
		return nil, err
	}
	maxDate, err := pipeline.DayFromKey(ex.MaxDate)
	if err != nil {
		return nil, err
	}

	authorIDs := pipeline.NewIDMapper()
	authors := make([]pipeline.RawAuthor, 0, len(ex.Authors))
	for _, a := range ex.Authors {
		authorIDs.Get(a.ID)
		authors = append(authors, pipeline.RawAuthor{Name: a.Name, Bot: a.Bot})
	}

	words := pipeline.NewDictionary()
	emojis := pipeline.NewDictionary()
	mentions := pipeline.NewDictionary()
	domains := pipeline.NewDictionary()

	channels := make([]pipeline.RawChannel, 0, len(ex.Channels))
	messages := make([][]pipeline.RawMessage, 0, len(ex.Channels))

	for _, ch := range ex.Channels {
		channels = append(channels, pipeline.RawChannel{Name: ch.Name})

		raw := make([]pipeline.RawMessage, 0, len(ex.Messages[ch.ID]))
		for i, em := range ex.Messages[ch.ID] {
			msg, err := buildMessage(&em, authorIDs, words, emojis, mentions, domains)
			if err != nil {
				return nil, fmt.Errorf("channel %q message %d: %w", ch.ID, i, err)
			}
			raw = append(raw, msg)
		}
		messages = append(messages, raw)
	}

	for _, d := range []*pipeline.Dictionary{words, emojis, mentions, domains} {
		d.Seal()
	}

	return &pipeline.Database{
		Platform: platform,
		Title:    ex.Title,
		MinDate:  minDate,
		MaxDate:  maxDate,
		Authors:  authors,
		Channels: channels,
		Messages: messages,
		Words:    words,
		Emojis:   emojis,
		Mentions: mentions,
		Domains:  domains,
	}, nil
}

func buildMessage(
	em *exportMessage,
	authorIDs *pipeline.IDMapper,
	words, emojis, mentions, domains *pipeline.Dictionary,
) (pipeline.RawMessage, error) {
	ts, err := time.Parse(time.RFC3339, em.Timestamp)
	if err != nil {
		return pipeline.RawMessage{}, fmt.Errorf("timestamp: %w", err)
	}

	if !authorIDs.Has(em.Author) {
		return pipeline.RawMessage{}, fmt.Errorf("unknown author %q", em.Author)
	}

	msg := pipeline.RawMessage{
		Timestamp:   ts,
		AuthorID:    authorIDs.Get(em.Author),
		ReplyTo:     pipeline.NoReply,
		Edited:      em.Edited,
		Sentiment:   em.Sentiment,
		Words:       tallyCounts(words, em.Words),
		Emojis:      tallyCounts(emojis, em.Emojis),
		Reactions:   tallyCounts(emojis, em.Reactions),
		Mentions:    tallyCounts(mentions, em.Mentions),
		Domains:     tallyCounts(domains, em.Domains),
		Attachments: attachmentCounts(em.Attachments),
	}

	if em.ReplyTo != nil {
		msg.ReplyTo = *em.ReplyTo
	}
	if em.Lang != nil {
		msg.HasText = true
		msg.Lang = *em.Lang
	}

	return msg, nil
}

// tallyCounts converts a token→count map into IndexCounts against dict.
// Tokens are processed in sorted order so dictionary indices and pair order
// are deterministic across runs.
func tallyCounts(dict *pipeline.Dictionary, tally map[string]uint32) codec.IndexCounts {
	if len(tally) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(tally))
	for token := range tally {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	counts := make(codec.IndexCounts, 0, len(tokens))
	for _, token := range tokens {
		counts = append(counts, codec.IndexCount{Index: dict.Add(token), Count: tally[token]})
	}

	return counts
}

func attachmentCounts(tally map[string]uint32) codec.IndexCounts {
	if len(tally) == 0 {
		return nil
	}

	kinds := make([]string, 0, len(tally))
	for kind := range tally {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	counts := make(codec.IndexCounts, 0, len(kinds))
	for _, kind := range kinds {
		at, ok := attachmentKinds[kind]
		if !ok {
			at = format.AttachmentOther
		}
		counts = append(counts, codec.IndexCount{Index: uint32(at), Count: tally[kind]})
	}

	return counts
}
