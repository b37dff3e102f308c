package tagparse

import "unicode"

// Attributes scans key=value pairs out of an opening tag's attribute text.
// Values may be double-quoted, single-quoted or bare; quoted values keep
// their inner whitespace and an unterminated quote runs to the end. Tokens
// that are not key=value are returned in stray. Keys keep their case and
// values are not entity-decoded.
func Attributes(s string) (attrs map[string]string, stray []string) {
	attrs = map[string]string{}
	i, n := 0, len(s)
	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}

		start := i
		for i < n && s[i] != '=' && !isSpace(s[i]) {
			i++
		}
		key := s[start:i]
		if i >= n || s[i] != '=' || key == "" {
			// A bare token, or "=value" without a key.
			for i < n && !isSpace(s[i]) {
				i++
			}
			stray = append(stray, s[start:i])
			continue
		}
		i++ // '='

		if i < n && (s[i] == '"' || s[i] == '\'') {
			quote := s[i]
			i++
			vstart := i
			for i < n && s[i] != quote {
				i++
			}
			attrs[key] = s[vstart:i]
			if i < n {
				i++
			}
			continue
		}
		vstart := i
		for i < n && !isSpace(s[i]) {
			i++
		}
		attrs[key] = s[vstart:i]
	}
	return attrs, stray
}

func isSpace(b byte) bool {
	return b < 0x80 && unicode.IsSpace(rune(b))
}
