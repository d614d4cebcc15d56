package llm

import (
	"context"
	"errors"
)

// Delta is one provider-neutral increment of a streamed model response. A
// delta may carry content text, structured tool-call fragments, or both.
type Delta struct {
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
	// Provider/model are optional hints for observability.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ToolCallDelta is an incremental fragment of one tool call, identified
// positionally by Index. Name and Arguments fragments accumulate across
// deltas with the same index.
type ToolCallDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Function FunctionDelta `json:"function"`
}

// FunctionDelta carries the name and argument fragments of a tool call.
type FunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"` // chunked JSON string
}

// Stream provides a pull-based API over provider event streams.
// Recv returns io.EOF once the stream is exhausted.
type Stream interface {
	Recv(ctx context.Context) (Delta, error)
	Close() error
}

// ErrStreamClosed indicates Recv was called after Close.
var ErrStreamClosed = errors.New("stream closed")
