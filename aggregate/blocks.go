package aggregate

// BlockKey identifies one aggregate block kind.
type BlockKey string

const (
	// BlockMessagesPerDay counts messages per day and per month over the
	// whole report range.
	BlockMessagesPerDay BlockKey = "messages-per-day"

	// BlockWordStats tallies word usage within the active filters.
	BlockWordStats BlockKey = "word-stats"

	// BlockEmojiStats tallies emoji usage (inline and reactions) within the
	// active filters.
	BlockEmojiStats BlockKey = "emoji-stats"

	// BlockAuthorActivity breaks message activity down by author and by
	// hour of day. It ignores the author filter so the author selector
	// itself can be driven by it.
	BlockAuthorActivity BlockKey = "author-activity"
)

// Trigger names one filter category a block can depend on.
type Trigger string

const (
	TriggerChannels Trigger = "channels"
	TriggerAuthors  Trigger = "authors"
	TriggerTime     Trigger = "time"
)

// BlockState is the lifecycle state a subscriber observes for a block.
type BlockState uint8

const (
	// BlockUnknown means the block has never been computed.
	BlockUnknown BlockState = iota
	// BlockLoading means a computation for the block is in flight.
	BlockLoading
	// BlockReady means a result is available in BlockInfo.Data.
	BlockReady
	// BlockStale means the last result was invalidated by a filter change.
	BlockStale
)

func (s BlockState) String() string {
	switch s {
	case BlockLoading:
		return "loading"
	case BlockReady:
		return "ready"
	case BlockStale:
		return "stale"
	default:
		return "unknown"
	}
}

// BlockInfo is the payload of block notifications and cache queries. Data is
// non-nil only in the BlockReady state and holds the block's result type
// (see compute.go).
type BlockInfo struct {
	Key   BlockKey
	State BlockState
	Data  any
}

// BlockDescription declares a block's invalidation triggers.
type BlockDescription struct {
	Triggers []Trigger
}

// DependsOn reports whether the block's trigger set includes trigger.
func (d BlockDescription) DependsOn(trigger Trigger) bool {
	for _, t := range d.Triggers {
		if t == trigger {
			return true
		}
	}

	return false
}

var blockDescriptions = map[BlockKey]BlockDescription{
	BlockMessagesPerDay: {Triggers: []Trigger{TriggerChannels, TriggerAuthors}},
	BlockWordStats:      {Triggers: []Trigger{TriggerChannels, TriggerAuthors, TriggerTime}},
	BlockEmojiStats:     {Triggers: []Trigger{TriggerChannels, TriggerAuthors, TriggerTime}},
	BlockAuthorActivity: {Triggers: []Trigger{TriggerChannels, TriggerTime}},
}

var blockComputes = map[BlockKey]computeFunc{
	BlockMessagesPerDay: computeMessagesPerDay,
	BlockWordStats:      computeWordStats,
	BlockEmojiStats:     computeEmojiStats,
	BlockAuthorActivity: computeAuthorActivity,
}

// Describe returns the registered description for key.
func Describe(key BlockKey) (BlockDescription, bool) {
	desc, ok := blockDescriptions[key]
	return desc, ok
}

// Keys returns all registered block keys.
func Keys() []BlockKey {
	keys := make([]BlockKey, 0, len(blockDescriptions))
	for k := range blockDescriptions {
		keys = append(keys, k)
	}

	return keys
}
