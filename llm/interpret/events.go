// Package interpret converts the arbitrarily-chunked delta stream of a model
// turn into an ordered sequence of typed events: user-visible reply text,
// hidden reasoning narration, and tool invocations. The scanner is
// boundary-agnostic: feeding a turn one rune at a time or in any other
// contiguous partition yields the same collected event sequence.
package interpret

// Event is one typed output of an interpreted model turn.
type Event interface {
	event()
}

// Reply is user-visible assistant text.
type Reply struct {
	Text string
}

// Reasoning is internal narration delimited by reasoning markers. Display is
// the consumer's choice.
type Reasoning struct {
	Text string
}

// ToolInvocation is a completed tool call, produced either from an inline
// marker region or from accumulated structured deltas. It is atomic and never
// merged with surrounding events.
type ToolInvocation struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

func (Reply) event()          {}
func (Reasoning) event()      {}
func (ToolInvocation) event() {}

// Collapse folds adjacent Reply and Reasoning events of the same kind into
// one by content concatenation. ToolInvocation events are kept as-is in their
// original positions.
func Collapse(events []Event) []Event {
	var out []Event
	for _, ev := range events {
		if len(out) > 0 {
			switch cur := ev.(type) {
			case Reply:
				if prev, ok := out[len(out)-1].(Reply); ok {
					out[len(out)-1] = Reply{Text: prev.Text + cur.Text}
					continue
				}
			case Reasoning:
				if prev, ok := out[len(out)-1].(Reasoning); ok {
					out[len(out)-1] = Reasoning{Text: prev.Text + cur.Text}
					continue
				}
			}
		}
		out = append(out, ev)
	}
	return out
}
