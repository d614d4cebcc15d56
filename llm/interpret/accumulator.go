package interpret

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/elroy-bot/elroy-sub001/llm"
)

// partialCall is one tool call under positional accumulation.
type partialCall struct {
	id   string
	name strings.Builder
	args strings.Builder
}

// Accumulator merges positionally-indexed tool-call deltas, delivered
// out-of-band from the content stream, into completed invocations. Unlike
// inline calls there is no in-stream completion signal: entries complete only
// when the owning turn ends and Drain is called. Scope is one turn.
type Accumulator struct {
	calls map[int]*partialCall
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{calls: make(map[int]*partialCall)}
}

// Update folds a batch of tool-call deltas into the accumulator. Name and
// argument fragments append in arrival order to the entry at each index.
func (a *Accumulator) Update(deltas []llm.ToolCallDelta) {
	for _, d := range deltas {
		entry, ok := a.calls[d.Index]
		if !ok {
			entry = &partialCall{}
			a.calls[d.Index] = entry
		}
		if d.ID != "" && entry.id == "" {
			entry.id = d.ID
		}
		entry.name.WriteString(d.Function.Name)
		entry.args.WriteString(d.Function.Arguments)
	}
}

// Drain emits every accumulated entry as one ToolInvocation in ascending
// index order, regardless of how deliveries interleaved, and resets the
// accumulator.
func (a *Accumulator) Drain() []Event {
	if len(a.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.calls))
	for i := range a.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	out := make([]Event, 0, len(indexes))
	for _, i := range indexes {
		entry := a.calls[i]
		id := entry.id
		if id == "" {
			// Providers may never send an ID; mint one so tool results can
			// still reference the call.
			id = uuid.NewString()
		}
		out = append(out, ToolInvocation{
			ID:        id,
			Name:      entry.name.String(),
			Arguments: entry.args.String(),
		})
	}
	a.calls = make(map[int]*partialCall)
	return out
}
