package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scan feeds the chunks through a fresh scanner, flushes, and collapses
// adjacent same-kind text events the way Collect does.
func scan(chunks ...string) []Event {
	s := NewScanner(DefaultTags())
	var out []Event
	for _, c := range chunks {
		out = append(out, s.FeedString(c)...)
	}
	out = append(out, s.Flush()...)
	return Collapse(out)
}

// explode splits a string into single-character chunks.
func explode(s string) []string {
	var out []string
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func TestScannerCompleteTagInSingleChunk(t *testing.T) {
	assert.Equal(t, []Event{
		Reasoning{Text: "This is a thought"},
		Reply{Text: "Some normal text"},
	}, scan("<internal_thought>This is a thought</internal_thought>Some normal text"))
}

func TestScannerTagSplitAcrossChunks(t *testing.T) {
	assert.Equal(t, []Event{
		Reasoning{Text: "This is a thought"},
		Reply{Text: "Some normal text."},
	}, scan("<internal_th", "ought>This is a thought</inte", "rnal_thought>Some normal text."))
}

func TestScannerSingleCharChunks(t *testing.T) {
	assert.Equal(t, []Event{
		Reasoning{Text: "This is a thought"},
		Reply{Text: "Some normal text."},
	}, scan(explode("<internal_thought>This is a thought</internal_thought>Some normal text.")...))
}

func TestScannerChunkBoundaryInvariance(t *testing.T) {
	input := "<internal_thought>This is a thought</internal_thought>Some normal text"
	whole := scan(input)
	// Any contiguous partition must collect to the same sequence.
	for split := 1; split < len(input); split++ {
		got := scan(input[:split], input[split:])
		require.Equal(t, whole, got, "split at %d", split)
	}
	assert.Equal(t, whole, scan(explode(input)...))
}

func TestScannerNoTags(t *testing.T) {
	assert.Equal(t, []Event{Reply{Text: "Just some normal text with no special tags."}},
		scan(explode("Just some normal text with no special tags.")...))
}

func TestScannerLeadingWhitespaceTrimmed(t *testing.T) {
	assert.Equal(t, []Event{
		Reasoning{Text: "This is a thought"},
		Reply{Text: "This is the message"},
	}, scan("<internal_thought>\n\n  This is a thought\n\n  </internal_thought>This is the message"))
}

func TestScannerThinkingAlias(t *testing.T) {
	assert.Equal(t, []Event{
		Reasoning{Text: "pondering"},
		Reply{Text: "answer"},
	}, scan("<thinking>pondering</thinking>answer"))
}

func TestScannerHangingTagDegradesToLiteral(t *testing.T) {
	assert.Equal(t, []Event{Reply{Text: "<internal_thou>This is a thought"}},
		scan(explode("<internal_thou>This is a thought")...))
}

func TestScannerTrickyTags(t *testing.T) {
	assert.Equal(t, []Event{
		Reply{Text: "<"},
		Reasoning{Text: ">This is a thought"},
		Reply{Text: "<Some normal text."},
	}, scan(explode("<<internal_thought>>This is a thought</internal_thought><Some normal text.")...))
}

func TestScannerUnknownTagsPassThrough(t *testing.T) {
	assert.Equal(t, []Event{Reply{Text: "<unknown_tag>Should be treated as normal text</unknown_tag>"}},
		scan("<unknown_tag>", "Should be treated as normal text", "</unknown_tag>"))
}

func TestScannerInterleavedTagsAndText(t *testing.T) {
	assert.Equal(t, []Event{
		Reasoning{Text: "Thought 1"},
		Reply{Text: "Normal text "},
		Reasoning{Text: "Thought 2"},
		Reply{Text: "More text"},
	}, scan(
		"<internal_thought>Tho",
		"ught 1</i",
		"nternal_thought>",
		"Normal text ",
		"<internal_thought>Thought 2</internal_thought>",
		"More text",
	))
}

func TestScannerUnterminatedTagKeepsStreaming(t *testing.T) {
	assert.Equal(t, []Event{Reasoning{Text: "This is a thought and it continues"}},
		scan("<internal_thought>This is a thought", " and it continues"))
}

func TestScannerMisnestedTagsTreatedAsLiteral(t *testing.T) {
	assert.Equal(t, []Event{Reasoning{Text: "<internal_thought>Some text</another_tag>"}},
		scan("<internal_thought><internal_thought>Some text</another_tag></internal_thought>"))
}

func TestScannerInlineToolCall(t *testing.T) {
	body := `{"name": "create_memory", "arguments": {"title": "t", "text": "x"}}`
	events := scan("<tool_call>" + body + "</tool_call>done")
	require.Len(t, events, 2)
	call, ok := events[0].(ToolInvocation)
	require.True(t, ok, "expected a tool invocation, got %#v", events[0])
	assert.Equal(t, "create_memory", call.Name)
	assert.NotEmpty(t, call.ID)
	assert.JSONEq(t, `{"title": "t", "text": "x"}`, call.Arguments)
	assert.Equal(t, Reply{Text: "done"}, events[1])
}

func TestScannerInlineToolCallSingleCharChunks(t *testing.T) {
	input := `<tool_call>{"name": "get_weather", "arguments": {"city": "Oslo"}}</tool_call>`
	whole := scan(input)
	chars := scan(explode(input)...)
	require.Len(t, whole, 1)
	require.Len(t, chars, 1)
	wc := whole[0].(ToolInvocation)
	cc := chars[0].(ToolInvocation)
	assert.Equal(t, wc.Name, cc.Name)
	assert.Equal(t, wc.Arguments, cc.Arguments)
	assert.Equal(t, "get_weather", cc.Name)
	assert.JSONEq(t, `{"city": "Oslo"}`, cc.Arguments)
}

func TestScannerInlineToolCallStringArguments(t *testing.T) {
	events := scan(`<tool_call>{"name": "echo", "arguments": "{\"text\": \"hi\"}"}</tool_call>`)
	require.Len(t, events, 1)
	call := events[0].(ToolInvocation)
	assert.JSONEq(t, `{"text": "hi"}`, call.Arguments)
}

func TestScannerMalformedInlineCallDroppedSilently(t *testing.T) {
	for _, body := range []string{
		`{"name": "broken"`,           // never closes
		`{"name": "no_args"}`,         // missing arguments field
		`{"arguments": {}}`,           // missing name field
		`[1, 2, 3]`,                   // not an object
		`this is not json in any way`, // garbage
	} {
		events := scan("<tool_call>" + body + "</tool_call>after")
		for _, ev := range events {
			_, isCall := ev.(ToolInvocation)
			assert.False(t, isCall, "body %q should not produce an invocation", body)
		}
		assert.Equal(t, Reply{Text: "after"}, events[len(events)-1], "body %q", body)
	}
}

func TestScannerToolCallPriorityBeforeReasoning(t *testing.T) {
	s := NewScanner([]TagSpec{
		{Keyword: "tool_call", Kind: KindReasoning, Priority: 1},
		{Keyword: "tool_call", Kind: KindInlineCall, Priority: 0},
	})
	var out []Event
	out = append(out, s.FeedString(`<tool_call>{"name": "n", "arguments": {}}</tool_call>`)...)
	out = append(out, s.Flush()...)
	require.Len(t, out, 1)
	_, isCall := out[0].(ToolInvocation)
	assert.True(t, isCall, "lower priority spec must win the exact-match tie")
}

func TestScannerFlushEmitsOpenMarkerPrefix(t *testing.T) {
	// Stream ends while a possible closing marker is still being buffered.
	assert.Equal(t, []Event{Reasoning{Text: "thought</inte"}},
		scan("<internal_thought>thought</inte"))
}
