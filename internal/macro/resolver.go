package macro

import (
	"strings"
)

// Marker introduces a macro call.
const Marker = '&'

var (
	marker        = string(Marker)
	escapedMarker = marker + marker
)

// Translator expands one macro call into dialect SQL.
//
// args are the raw, unresolved top-level arguments with surrounding
// whitespace trimmed. ok is false when the name is not recognized; the
// call is then left in the text as written.
type Translator interface {
	Translate(name string, args []string) (sql string, ok bool)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(name string, args []string) (string, bool)

// Translate calls f(name, args).
func (f TranslatorFunc) Translate(name string, args []string) (string, bool) {
	return f(name, args)
}

// Resolve expands every marker in text using t.
//
// The scan is purely textual. Parentheses are matched by depth and quotes
// are not interpreted, so string data must be passed through Escape before
// it is embedded.
func Resolve(text string, t Translator) string {
	out, _ := resolve(text, t)
	return out
}

// Remaining resolves text with t and returns the names of the markers t
// did not recognize, in scan order. Escaped markers are never reported.
func Remaining(text string, t Translator) []string {
	_, unknown := resolve(text, t)
	return unknown
}

func resolve(text string, t Translator) (string, []string) {
	if !strings.ContainsRune(text, Marker) {
		return text, nil
	}

	var unknown []string
	pos := 0
	for pos < len(text) {
		i := strings.IndexByte(text[pos:], Marker)
		if i < 0 {
			break
		}
		i += pos

		if i+1 < len(text) && text[i+1] == Marker {
			pos = i + 2
			continue
		}

		c, ok := scanCall(text, i)
		if !ok {
			pos = i + 1
			continue
		}

		if out, ok := t.Translate(c.name, c.args); ok {
			text = text[:i] + out + text[c.end:]
		} else {
			unknown = append(unknown, c.name)
		}
		pos = i + 1
	}

	return strings.ReplaceAll(text, escapedMarker, marker), unknown
}

// call is one marker occurrence located by scanCall.
type call struct {
	name string
	args []string
	// end is the offset just past the call in the scanned text.
	end int
}

// scanCall reads the marker call starting at text[start]. ok is false when
// no identifier follows the marker.
func scanCall(text string, start int) (call, bool) {
	nameEnd := start + 1
	for nameEnd < len(text) && isIdentByte(text[nameEnd]) {
		nameEnd++
	}
	if nameEnd == start+1 {
		return call{}, false
	}

	c := call{name: text[start+1 : nameEnd], end: nameEnd}
	if nameEnd >= len(text) || text[nameEnd] != '(' {
		return c, true
	}

	closeAt := matchParen(text, nameEnd)
	if closeAt < 0 {
		// Unbalanced: not a call.
		return call{}, false
	}
	c.args = splitArgs(text[nameEnd+1 : closeAt])
	c.end = closeAt + 1
	return c, true
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1.
func matchParen(text string, open int) int {
	depth := 0
	for j := open; j < len(text); j++ {
		switch text[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// splitArgs splits s on commas at paren depth zero. An empty or blank s
// yields no arguments.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var args []string
	depth, from := 0, 0
	for j := 0; j < len(s); j++ {
		switch s[j] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[from:j]))
				from = j + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[from:]))
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

// Escape doubles every marker in s so Resolve emits it literally.
func Escape(s string) string {
	return strings.ReplaceAll(s, marker, escapedMarker)
}

// Call formats a macro call. With no args the parentheses are omitted.
func Call(name string, args ...string) string {
	if len(args) == 0 {
		return marker + name
	}
	return marker + name + "(" + strings.Join(args, ", ") + ")"
}
