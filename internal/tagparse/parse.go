// Package tagparse recovers tool calls embedded as pseudo-tags in free text.
//
// Parsing is total: malformed or truncated tags degrade to narrative text,
// nothing is returned as an error and every loop iteration consumes at least
// the matched open marker, so work is bounded by the input length.
package tagparse

import (
	"strings"
	"unicode"
)

// Call is a tool call found in text. Arguments is never nil.
type Call struct {
	Name      string
	Arguments map[string]any
}

// Parse splits text into narrative and the tool calls it embeds. Narrative
// fragments are joined with a newline in encounter order.
func Parse(text string) (string, []Call) {
	var (
		narrative []string
		calls     []Call
	)
	keep := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			narrative = append(narrative, s)
		}
	}

	rest := text
	for rest != "" {
		m, start, ok := match(rest)
		if !ok {
			keep(rest)
			break
		}
		keep(rest[:start])

		afterOpen := start + len(m.Open())
		var next int
		switch {
		case m.Family == FamilySpeech && m.Form == FormPrefix:
			var call Call
			call, next = speechPrefix(m, rest, afterOpen)
			calls = append(calls, call)
		default:
			var inner string
			inner, next = enclosed(rest, afterOpen, m.Close())
			switch m.Family {
			case FamilyTool:
				if call, ok := toolCall(m, inner); ok {
					calls = append(calls, call)
				} else {
					keep(inner)
				}
			case FamilySpeech:
				calls = append(calls, speechCall("", inner))
			default:
				keep(inner)
			}
		}
		rest = rest[next:]
	}

	return strings.Join(narrative, "\n"), calls
}

// match returns the first marker of the table whose open pattern occurs
// anywhere in text, with the position of that occurrence. Table order wins
// over position.
func match(text string) (Marker, int, bool) {
	for _, m := range dialects {
		if i := find(text, m); i >= 0 {
			return m, i, true
		}
	}
	return Marker{}, -1, false
}

// find locates the open pattern of m. Prefix markers must end at a tag-name
// boundary so "<say" does not match "<saying>".
func find(text string, m Marker) int {
	open := m.Open()
	if m.Form == FormLiteral {
		return strings.Index(text, open)
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], open)
		if i < 0 {
			return -1
		}
		i += offset
		end := i + len(open)
		if end == len(text) || isBoundary(rune(text[end])) {
			return i
		}
		offset = end
	}
}

func isBoundary(r rune) bool {
	return r == '>' || r == '/' || unicode.IsSpace(r)
}

// enclosed returns the content between afterOpen and the close marker and the
// offset just past the close marker. A missing close marker takes the rest of
// the text.
func enclosed(text string, afterOpen int, closeTag string) (string, int) {
	if end := strings.Index(text[afterOpen:], closeTag); end >= 0 {
		return text[afterOpen : afterOpen+end], afterOpen + end + len(closeTag)
	}
	return text[afterOpen:], len(text)
}
