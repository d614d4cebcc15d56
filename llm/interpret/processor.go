package interpret

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// tagProcessor owns the character buffer of one open marker region. feed
// returns any events that became safe to emit plus done=true once the region
// closed; the scanner then discards the processor. flush handles stream end
// while the region is still open.
//
// The set of processors is closed: one per Kind, constructed by newProcessor.
type tagProcessor interface {
	feed(r rune) (events []Event, done bool)
	flush() []Event
}

func newProcessor(spec TagSpec) tagProcessor {
	if spec.Kind == KindInlineCall {
		return &inlineCallProc{end: spec.End()}
	}
	return &reasoningProc{end: spec.End()}
}

func trimSpaceLeft(s string) string  { return strings.TrimLeftFunc(s, unicode.IsSpace) }
func trimSpaceRight(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }

// feedTag implements the shared buffering algorithm of both processor kinds.
// Whitespace is held without acting so a marker preceded by whitespace is not
// split prematurely. consume is called when the buffer can no longer be (the
// start of) the end marker; finish when the end marker completed.
func feedTag(buf *string, end string, r rune, consume func() []Event, finish func(content string) []Event) ([]Event, bool) {
	*buf += string(r)
	if unicode.IsSpace(r) {
		return nil, false
	}
	if strings.HasSuffix(*buf, end) {
		content := strings.TrimSuffix(*buf, end)
		*buf = ""
		return finish(content), true
	}
	// A marker candidate can start after held whitespace.
	if rest := trimSpaceLeft(*buf); strings.HasPrefix(end, rest) {
		return nil, false
	}
	return consume(), false
}

// reasoningProc produces Reasoning events. Leading whitespace is suppressed
// until the first non-whitespace content, which is left-trimmed exactly once;
// everything after flows through verbatim.
type reasoningProc struct {
	end             string
	buf             string
	emittedNonspace bool
}

func (p *reasoningProc) feed(r rune) ([]Event, bool) {
	return feedTag(&p.buf, p.end, r, p.consume, p.finish)
}

func (p *reasoningProc) consume() []Event {
	text := p.buf
	p.buf = ""
	if !p.emittedNonspace {
		text = trimSpaceLeft(text)
		if text == "" {
			return nil
		}
		p.emittedNonspace = true
	}
	return []Event{Reasoning{Text: text}}
}

func (p *reasoningProc) finish(content string) []Event {
	content = trimSpaceRight(content)
	if !p.emittedNonspace {
		content = trimSpaceLeft(content)
	}
	if content == "" {
		return nil
	}
	p.emittedNonspace = true
	return []Event{Reasoning{Text: content}}
}

func (p *reasoningProc) flush() []Event {
	if p.buf == "" {
		return nil
	}
	text := p.buf
	p.buf = ""
	if !p.emittedNonspace {
		text = trimSpaceLeft(text)
		if text == "" {
			return nil
		}
	}
	return []Event{Reasoning{Text: text}}
}

// inlineCallProc accumulates the body of one inline tool-call region. Nothing
// is emitted until the body decodes to a JSON object carrying both a name and
// an arguments field; a body that never does is dropped with a log line
// rather than aborting the turn.
type inlineCallProc struct {
	end string
	buf string
}

func (p *inlineCallProc) feed(r rune) ([]Event, bool) {
	return feedTag(&p.buf, p.end, r, p.consume, p.finish)
}

func (p *inlineCallProc) consume() []Event {
	if ev, ok := decodeInlineCall(p.buf); ok {
		p.buf = ""
		return []Event{ev}
	}
	// Not parseable yet; keep accumulating silently.
	return nil
}

func (p *inlineCallProc) finish(content string) []Event {
	p.buf = content
	return p.flush()
}

func (p *inlineCallProc) flush() []Event {
	body := strings.TrimSpace(p.buf)
	p.buf = ""
	if body == "" {
		return nil
	}
	if ev, ok := decodeInlineCall(body); ok {
		return []Event{ev}
	}
	logrus.WithField("body", body).Warn("dropping malformed inline tool call")
	return nil
}

// decodeInlineCall parses an inline call body. It succeeds only for a
// complete JSON object containing both a name and an arguments field.
func decodeInlineCall(body string) (Event, bool) {
	body = strings.TrimSpace(body)
	if body == "" || !gjson.Valid(body) {
		return nil, false
	}
	parsed := gjson.Parse(body)
	if !parsed.IsObject() {
		return nil, false
	}
	name := parsed.Get("name")
	args := parsed.Get("arguments")
	if !name.Exists() || !args.Exists() {
		return nil, false
	}
	argJSON := args.Raw
	if args.Type == gjson.String {
		argJSON = args.String()
	}
	return ToolInvocation{ID: uuid.NewString(), Name: name.String(), Arguments: argJSON}, true
}
