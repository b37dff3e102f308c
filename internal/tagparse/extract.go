package tagparse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.:\-]*$`)

// toolCall runs the extraction cascade on the content of a tool-family tag:
// a JSON document, then the line form, then (prefix markers only) the tag's
// own attribute record.
func toolCall(m Marker, inner string) (Call, bool) {
	content := strings.TrimSpace(inner)
	if content == "" && m.Form == FormLiteral {
		return Call{}, false
	}
	if c, ok := fromDocument(content); ok {
		return c, true
	}
	if c, ok := fromLines(content, m.Form == FormLiteral); ok {
		return c, true
	}
	if m.Form == FormPrefix && !strings.Contains(inner, "\n") {
		return fromRecord(m.Name + inner)
	}
	return Call{}, false
}

// fromDocument accepts {"name": "...", "arguments": {...}}. "parameters" is
// read when "arguments" is absent.
func fromDocument(content string) (Call, bool) {
	if !gjson.Valid(content) {
		return Call{}, false
	}
	doc := gjson.Parse(content)
	if !doc.IsObject() {
		return Call{}, false
	}
	name := doc.Get("name")
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return Call{}, false
	}
	args := doc.Get("arguments")
	if !args.Exists() {
		args = doc.Get("parameters")
	}
	return Call{Name: strings.TrimSpace(name.Str), Arguments: normalize(args)}, true
}

// normalize turns any argument value into an object. A string holding a JSON
// object is decoded, other non-object values are wrapped as {"input": v}.
func normalize(r gjson.Result) map[string]any {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return map[string]any{}
	case r.IsObject():
		return objectOf(r)
	case r.Type == gjson.String:
		if s := strings.TrimSpace(r.Str); gjson.Valid(s) {
			if inner := gjson.Parse(s); inner.IsObject() {
				return objectOf(inner)
			}
		}
		if strings.TrimSpace(r.Str) == "" {
			return map[string]any{}
		}
		return map[string]any{"input": r.Str}
	default:
		return map[string]any{"input": r.Value()}
	}
}

func objectOf(r gjson.Result) map[string]any {
	if m, ok := r.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// fromLines accepts a bare tool name on the first line followed by either a
// JSON object or key=value lines. A lone name is a call without arguments
// when allowBare is set.
func fromLines(content string, allowBare bool) (Call, bool) {
	first, remainder, multiline := strings.Cut(content, "\n")
	name := strings.TrimSpace(first)
	if !identifier.MatchString(name) {
		return Call{}, false
	}
	remainder = strings.TrimSpace(remainder)
	if !multiline || remainder == "" {
		if !allowBare {
			return Call{}, false
		}
		return Call{Name: name, Arguments: map[string]any{}}, true
	}

	if gjson.Valid(remainder) {
		if doc := gjson.Parse(remainder); doc.IsObject() {
			return Call{Name: name, Arguments: objectOf(doc)}, true
		}
	}
	args, ok := keyValueLines(remainder)
	if !ok {
		return Call{}, false
	}
	return Call{Name: name, Arguments: args}, true
}

// keyValueLines requires every non-blank line to be key=value.
func keyValueLines(s string) (map[string]any, bool) {
	args := map[string]any{}
	for line := range strings.Lines(s) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || !identifier.MatchString(key) {
			return nil, false
		}
		args[key] = unquote(strings.TrimSpace(value))
	}
	if len(args) == 0 {
		return nil, false
	}
	return args, true
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// fromRecord reads <tool_x name=foo a=1>. The tag name must look like a tool
// tag and every other token must be an attribute. The "name" attribute, when
// present, names the call; otherwise the tag name does.
func fromRecord(tag string) (Call, bool) {
	tag = strings.TrimSuffix(strings.TrimSpace(tag), "/")
	tagName, rest := tag, ""
	if i := strings.IndexFunc(tag, unicode.IsSpace); i >= 0 {
		tagName, rest = tag[:i], tag[i:]
	}
	if !strings.HasPrefix(tagName, "tool") && tagName != "invoke" {
		return Call{}, false
	}
	attrs, stray := Attributes(rest)
	if len(stray) > 0 {
		return Call{}, false
	}
	name := tagName
	if n, ok := attrs["name"]; ok && strings.TrimSpace(n) != "" {
		name = strings.TrimSpace(n)
		delete(attrs, "name")
	}
	args := make(map[string]any, len(attrs))
	for k, v := range attrs {
		args[k] = v
	}
	return Call{Name: name, Arguments: args}, true
}

// speechPrefix handles <alias attr=v ...> with an optional body closed by
// </alias>. A self-closing tag has no body. Returns the call and the offset
// just past what the tag consumed.
func speechPrefix(m Marker, text string, afterOpen int) (Call, int) {
	attrText, next := enclosed(text, afterOpen, m.Close())
	trimmed := strings.TrimSpace(attrText)
	if strings.HasSuffix(trimmed, "/") {
		return speechCall(strings.TrimSuffix(trimmed, "/"), ""), next
	}
	if next < len(text) {
		closeTag := "</" + m.Name + ">"
		if end := strings.Index(text[next:], closeTag); end >= 0 {
			body := text[next : next+end]
			return speechCall(attrText, body), next + end + len(closeTag)
		}
	}
	return speechCall(attrText, ""), next
}

// speechCall builds the canonical speech call. Attributes come first; the
// body fills "text" only when no text attribute was given.
func speechCall(attrText, body string) Call {
	args := map[string]any{}
	attrs, _ := Attributes(attrText)
	for k, v := range attrs {
		args[k] = v
	}
	if _, ok := args["text"]; !ok {
		if b := strings.TrimSpace(body); b != "" {
			args["text"] = b
		}
	}
	return Call{Name: SpeechTool, Arguments: args}
}
