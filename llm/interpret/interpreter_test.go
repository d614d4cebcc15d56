package interpret

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elroy-bot/elroy-sub001/llm"
)

type fakeStream struct {
	idx    int
	closed bool
	deltas []llm.Delta
}

func (s *fakeStream) Recv(ctx context.Context) (llm.Delta, error) {
	if s.closed {
		return llm.Delta{}, llm.ErrStreamClosed
	}
	if s.idx >= len(s.deltas) {
		return llm.Delta{}, io.EOF
	}
	d := s.deltas[s.idx]
	s.idx++
	return d, nil
}

func (s *fakeStream) Close() error { s.closed = true; return nil }

func TestInterpreterMergesContentAndToolDeltas(t *testing.T) {
	stream := &fakeStream{deltas: []llm.Delta{
		{Content: "<internal_thought>planning</internal_thought>"},
		{Content: "Here is the forecast."},
		{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "call_0", Function: llm.FunctionDelta{Name: "get_weather", Arguments: `{"city":`}}}},
		{ToolCalls: []llm.ToolCallDelta{{Index: 0, Function: llm.FunctionDelta{Arguments: ` "Oslo"}`}}}},
	}}
	events, err := NewInterpreter(stream).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, Reasoning{Text: "planning"}, events[0])
	assert.Equal(t, Reply{Text: "Here is the forecast."}, events[1])
	call := events[2].(ToolInvocation)
	assert.Equal(t, "call_0", call.ID)
	assert.Equal(t, "get_weather", call.Name)
	assert.JSONEq(t, `{"city": "Oslo"}`, call.Arguments)
}

func TestInterpreterAccumulatedCallsDrainAfterContentFlush(t *testing.T) {
	stream := &fakeStream{deltas: []llm.Delta{
		{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "c0", Function: llm.FunctionDelta{Name: "noop", Arguments: `{}`}}}},
		{Content: "text after the call delta"},
	}}
	events, err := NewInterpreter(stream).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Accumulated calls complete at turn end, so text precedes the invocation.
	assert.Equal(t, Reply{Text: "text after the call delta"}, events[0])
	assert.IsType(t, ToolInvocation{}, events[1])
}

func TestInterpreterNextReturnsEOFAfterFinalFlush(t *testing.T) {
	stream := &fakeStream{deltas: []llm.Delta{{Content: "hi"}}}
	it := NewInterpreter(stream)
	ctx := context.Background()
	var events []Event
	for {
		ev, err := it.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
	assert.Equal(t, []Event{Reply{Text: "h"}, Reply{Text: "i"}}, events)
	// EOF is sticky.
	_, err := it.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "hi", it.FullText())
}

func TestInterpreterPropagatesStreamErrors(t *testing.T) {
	stream := &fakeStream{}
	stream.closed = true
	_, err := NewInterpreter(stream).Collect(context.Background())
	assert.ErrorIs(t, err, llm.ErrStreamClosed)
}

func TestCollapseKeepsInvocationPositions(t *testing.T) {
	events := Collapse([]Event{
		Reply{Text: "a"},
		Reply{Text: "b"},
		ToolInvocation{ID: "1", Name: "n", Arguments: "{}"},
		Reply{Text: "c"},
		Reasoning{Text: "x"},
		Reasoning{Text: "y"},
	})
	assert.Equal(t, []Event{
		Reply{Text: "ab"},
		ToolInvocation{ID: "1", Name: "n", Arguments: "{}"},
		Reply{Text: "c"},
		Reasoning{Text: "xy"},
	}, events)
}
