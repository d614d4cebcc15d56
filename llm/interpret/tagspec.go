package interpret

// Kind is the semantic meaning of a recognized marker region.
type Kind int

const (
	// KindReasoning marks hidden internal narration.
	KindReasoning Kind = iota
	// KindInlineCall marks a tool invocation expressed as JSON in content text.
	KindInlineCall
)

// Marker keywords recognized by default. Both reasoning keywords alias to the
// same kind; some model families emit one, some the other.
const (
	KeywordToolCall        = "tool_call"
	KeywordInternalThought = "internal_thought"
	KeywordThinking        = "thinking"
)

// TagSpec describes one recognized inline control marker. The begin and end
// marker strings are derived from the keyword. Priority breaks ties when the
// same buffered text could exactly match several begin markers: lower wins.
type TagSpec struct {
	Keyword  string
	Kind     Kind
	Priority int
}

// Begin returns the opening marker, e.g. "<tool_call>".
func (t TagSpec) Begin() string { return "<" + t.Keyword + ">" }

// End returns the closing marker, e.g. "</tool_call>".
func (t TagSpec) End() string { return "</" + t.Keyword + ">" }

// DefaultTags returns the marker set the assistant recognizes: the inline
// tool-call region, checked ahead of the two reasoning aliases.
func DefaultTags() []TagSpec {
	return []TagSpec{
		{Keyword: KeywordToolCall, Kind: KindInlineCall, Priority: 0},
		{Keyword: KeywordInternalThought, Kind: KindReasoning, Priority: 1},
		{Keyword: KeywordThinking, Kind: KindReasoning, Priority: 1},
	}
}
