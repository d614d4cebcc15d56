package server

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/elroy-bot/elroy-sub001/llm/interpret"
)

// wireEvent is the JSON shape of one interpreted event on the SSE stream.
type wireEvent struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// writeSSEEvent renders one interpreted event as a named SSE event.
func writeSSEEvent(w io.Writer, ev interpret.Event) {
	var wire wireEvent
	switch e := ev.(type) {
	case interpret.Reply:
		wire = wireEvent{Type: "reply", Text: e.Text}
	case interpret.Reasoning:
		wire = wireEvent{Type: "reasoning", Text: e.Text}
	case interpret.ToolInvocation:
		wire = wireEvent{Type: "tool_call", ID: e.ID, Name: e.Name, Arguments: e.Arguments}
	default:
		return
	}
	data, _ := json.Marshal(wire)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", wire.Type, data)
}
