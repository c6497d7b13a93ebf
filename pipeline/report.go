package pipeline

import "github.com/chatpack/chatpack/format"

// ChannelSummary is one channel's entry in the report.
type ChannelSummary struct {
	Name         string `json:"name"`
	SearchName   string `json:"name_searchable"`
	MessageCount uint32 `json:"message_count"`
}

// AuthorSummary is one author's entry in the report.
type AuthorSummary struct {
	Name         string `json:"name"`
	SearchName   string `json:"name_searchable"`
	Bot          bool   `json:"bot"`
	MessageCount uint32 `json:"message_count"`
}

// Report is the summary side of a Process run; the encoded blob is the data
// side. Consumers persist both.
type Report struct {
	Platform format.Platform `json:"platform"`
	Title    string          `json:"title"`

	// MinDate and MaxDate bound the report's day range, inclusive. Day and
	// month key lists are rebuilt from them with DayRange.
	MinDate Day `json:"min_date"`
	MaxDate Day `json:"max_date"`

	DayCount   int `json:"day_count"`
	MonthCount int `json:"month_count"`

	Channels []ChannelSummary `json:"channels"`
	Authors  []AuthorSummary  `json:"authors"`

	// Dictionary tokens in index order, matching the indices encoded in the
	// blob's message groups.
	Words    []string `json:"words"`
	Emojis   []string `json:"emojis"`
	Mentions []string `json:"mentions"`
	Domains  []string `json:"domains"`

	// AuthorsOrder ranks author indices: non-bots before bots, then by
	// descending message count, ties in original order.
	AuthorsOrder []uint32 `json:"authors_order"`

	// AuthorsBotCutoff is the first position in AuthorsOrder holding a bot,
	// or -1 when the dataset has no bot authors.
	AuthorsBotCutoff int `json:"authors_bot_cutoff"`
}
