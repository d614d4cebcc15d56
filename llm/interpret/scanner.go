package interpret

import (
	"sort"
	"strings"
)

// Scanner is the top-level character dispatcher of a model turn's content
// stream. It buffers at most one unmatched begin-marker prefix, holds at most
// one active tag processor, and emits everything else as Reply text. State is
// scoped to one turn; construct a fresh Scanner per turn.
type Scanner struct {
	tags   []TagSpec
	buf    string
	active tagProcessor
}

// NewScanner builds a scanner over the given tag set, evaluated in ascending
// Priority order (stable for equal priorities).
func NewScanner(tags []TagSpec) *Scanner {
	ordered := make([]TagSpec, len(tags))
	copy(ordered, tags)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	return &Scanner{tags: ordered}
}

// Feed advances the scanner by one rune and returns any events that became
// safe to emit.
func (s *Scanner) Feed(r rune) []Event {
	if s.active != nil {
		events, done := s.active.feed(r)
		if done {
			s.active = nil
		}
		return events
	}
	s.buf += string(r)
	return s.rescan()
}

// FeedString feeds every rune of text in order.
func (s *Scanner) FeedString(text string) []Event {
	var out []Event
	for _, r := range text {
		out = append(out, s.Feed(r)...)
	}
	return out
}

// rescan re-evaluates the plain-text buffer until it is empty, still a viable
// marker prefix, or a processor was activated. Emitting one leading rune at a
// time handles inputs like "<<tag>" where a literal "<" precedes a real
// marker.
func (s *Scanner) rescan() []Event {
	var out []Event
	for s.buf != "" && s.active == nil {
		exact := false
		partial := false
		for _, t := range s.tags {
			begin := t.Begin()
			if s.buf == begin {
				s.active = newProcessor(t)
				s.buf = ""
				exact = true
				break
			}
			if strings.HasPrefix(begin, s.buf) {
				partial = true
			}
		}
		if exact {
			break
		}
		if partial {
			// Could still become a marker; wait for more input.
			break
		}
		runes := []rune(s.buf)
		out = append(out, Reply{Text: string(runes[0])})
		s.buf = string(runes[1:])
	}
	return out
}

// Flush drains residual state at stream end. An open marker region delegates
// to its processor; otherwise leftover buffered text is emitted verbatim.
// Unterminated markers therefore degrade to their literal or partial content
// instead of erroring.
func (s *Scanner) Flush() []Event {
	if s.active != nil {
		events := s.active.flush()
		s.active = nil
		return events
	}
	if s.buf == "" {
		return nil
	}
	text := s.buf
	s.buf = ""
	return []Event{Reply{Text: text}}
}
