package interpret

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/elroy-bot/elroy-sub001/llm"
)

// Interpreter orchestrates one model turn: content text is fed rune-by-rune
// to the Scanner, structured tool-call deltas go to the Accumulator, and both
// merge into one ordered event sequence. After the underlying stream is
// exhausted the scanner is flushed and then the accumulator drained.
//
// An Interpreter owns its scanner and accumulator exclusively and is not safe
// for concurrent use; every turn gets a fresh instance.
type Interpreter struct {
	stream  llm.Stream
	scanner *Scanner
	acc     *Accumulator
	queue   []Event
	done    bool
	raw     strings.Builder
}

// NewInterpreter builds an interpreter over stream using the default tag set.
func NewInterpreter(stream llm.Stream) *Interpreter {
	return NewInterpreterWithTags(stream, DefaultTags())
}

// NewInterpreterWithTags builds an interpreter with a custom tag set.
func NewInterpreterWithTags(stream llm.Stream, tags []TagSpec) *Interpreter {
	return &Interpreter{stream: stream, scanner: NewScanner(tags), acc: NewAccumulator()}
}

// Next returns the next event of the turn, pulling provider deltas as needed.
// It returns io.EOF after the final flush has been delivered.
func (it *Interpreter) Next(ctx context.Context) (Event, error) {
	for len(it.queue) == 0 {
		if it.done {
			return nil, io.EOF
		}
		delta, err := it.stream.Recv(ctx)
		if errors.Is(err, io.EOF) {
			it.done = true
			it.queue = append(it.queue, it.scanner.Flush()...)
			it.queue = append(it.queue, it.acc.Drain()...)
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(delta.ToolCalls) > 0 {
			it.acc.Update(delta.ToolCalls)
		}
		if delta.Content != "" {
			it.raw.WriteString(delta.Content)
			it.queue = append(it.queue, it.scanner.FeedString(delta.Content)...)
		}
	}
	ev := it.queue[0]
	it.queue = it.queue[1:]
	return ev, nil
}

// Collect drains the turn and returns the final event sequence with adjacent
// same-kind text events folded together.
func (it *Interpreter) Collect(ctx context.Context) ([]Event, error) {
	var events []Event
	for {
		ev, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return Collapse(events), nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
}

// FullText returns the raw content text seen so far, markers included.
func (it *Interpreter) FullText() string { return it.raw.String() }
