// Package syntax performs heuristic, regex-driven analysis of C# sources.
// It is not a parser: declarations spanning unusual layouts may be missed.
package syntax

import (
	"strings"
)

// StripCommentsAndStrings blanks comments and the contents of string and
// character literals. Block comments keep their newlines so line numbers
// stay valid; line comments are dropped. Literal delimiters are kept so
// call shapes like Foo("") survive.
func StripCommentsAndStrings(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	n := len(text)
	for i := 0; i < n; {
		c := text[i]
		switch {
		case c == '/' && i+1 < n && text[i+1] == '/':
			for i < n && text[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && text[i+1] == '*':
			i += 2
			sb.WriteString("  ")
			for i < n && !(text[i] == '*' && i+1 < n && text[i+1] == '/') {
				sb.WriteByte(blank(text[i]))
				i++
			}
			if i < n {
				sb.WriteString("  ")
				i += 2
			}

		case c == '"' || isStringPrefix(text, i):
			i = stripString(text, i, &sb)

		case c == '\'':
			sb.WriteByte('\'')
			i++
			for i < n && text[i] != '\'' && text[i] != '\n' {
				if text[i] == '\\' && i+1 < n {
					sb.WriteByte(' ')
					i++
				}
				sb.WriteByte(' ')
				i++
			}
			if i < n && text[i] == '\'' {
				sb.WriteByte('\'')
				i++
			}

		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// isStringPrefix reports whether a verbatim or interpolated string starts at i
func isStringPrefix(text string, i int) bool {
	if text[i] != '@' && text[i] != '$' {
		return false
	}
	j := i
	for j < len(text) && j < i+2 && (text[j] == '@' || text[j] == '$') {
		j++
	}
	return j < len(text) && text[j] == '"'
}

// stripString copies a string literal starting at i with its contents blanked
// and returns the index after it.
func stripString(text string, i int, sb *strings.Builder) int {
	n := len(text)
	verbatim := false
	for i < n && text[i] != '"' {
		if text[i] == '@' {
			verbatim = true
		}
		sb.WriteByte(text[i])
		i++
	}
	sb.WriteByte('"')
	i++

	for i < n {
		c := text[i]
		switch {
		case verbatim && c == '"' && i+1 < n && text[i+1] == '"':
			sb.WriteString("  ")
			i += 2
		case c == '"':
			sb.WriteByte('"')
			return i + 1
		case !verbatim && c == '\\' && i+1 < n:
			sb.WriteString("  ")
			i += 2
		case !verbatim && c == '\n':
			// Unterminated regular string
			return i
		default:
			sb.WriteByte(blank(c))
			i++
		}
	}
	return i
}

func blank(c byte) byte {
	if c == '\n' {
		return '\n'
	}
	return ' '
}
