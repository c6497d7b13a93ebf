package pipeline

// Dictionary assigns dense, first-seen indices to tokens (words, emojis,
// mention targets, domains). Index 0 goes to the first token ever added, and
// an already-known token always returns its original index.
//
// A dictionary has two phases: a mutable building phase, and a sealed phase
// entered by Seal. The message codec's bit widths are derived from sealed
// sizes, so adding a token after Seal would silently corrupt every encoded
// index; Add panics on a sealed dictionary to turn that bug into a loud one.
type Dictionary struct {
	indices map[string]uint32
	tokens  []string
	sealed  bool
}

// NewDictionary creates an empty dictionary in the building phase.
func NewDictionary() *Dictionary {
	return &Dictionary{indices: make(map[string]uint32)}
}

// Add returns the dense index for token, assigning the next free index on
// first sight. Panics if the dictionary is sealed.
func (d *Dictionary) Add(token string) uint32 {
	if d.sealed {
		panic("pipeline: Add on sealed dictionary")
	}

	if idx, ok := d.indices[token]; ok {
		return idx
	}

	idx := uint32(len(d.tokens))
	d.indices[token] = idx
	d.tokens = append(d.tokens, token)

	return idx
}

// Index returns the dense index for token, or false if it was never added.
func (d *Dictionary) Index(token string) (uint32, bool) {
	idx, ok := d.indices[token]
	return idx, ok
}

// Token returns the token for a dense index. Panics if idx is out of range.
func (d *Dictionary) Token(idx uint32) string {
	return d.tokens[idx]
}

// Tokens returns all tokens in index order. The returned slice is the
// dictionary's backing store and must not be modified.
func (d *Dictionary) Tokens() []string {
	return d.tokens
}

// Len returns the number of distinct tokens.
func (d *Dictionary) Len() int {
	return len(d.tokens)
}

// Seal freezes the dictionary. Sealing twice is a no-op.
func (d *Dictionary) Seal() {
	d.sealed = true
}

// Sealed reports whether the dictionary has been sealed.
func (d *Dictionary) Sealed() bool {
	return d.sealed
}

// IDMapper assigns dense sequential IDs to raw external identifiers
// (platform-specific author and channel IDs) in first-seen order. The same
// raw identifier always maps to the same dense ID within one run.
type IDMapper struct {
	ids map[string]uint32
}

// NewIDMapper creates an empty mapper.
func NewIDMapper() *IDMapper {
	return &IDMapper{ids: make(map[string]uint32)}
}

// Get returns the dense ID for rawID, assigning the next sequential ID on
// first sight.
func (m *IDMapper) Get(rawID string) uint32 {
	if id, ok := m.ids[rawID]; ok {
		return id
	}

	id := uint32(len(m.ids))
	m.ids[rawID] = id

	return id
}

// Has reports whether rawID has been assigned a dense ID.
func (m *IDMapper) Has(rawID string) bool {
	_, ok := m.ids[rawID]
	return ok
}

// Len returns the number of assigned IDs.
func (m *IDMapper) Len() int {
	return len(m.ids)
}
