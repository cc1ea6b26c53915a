package scan

import "strings"

// StripComments removes comments (and python docstrings) from src on a
// best-effort lexical basis. String literals are left alone. Lines that only
// held a comment are dropped; line structure is otherwise kept.
func StripComments(src, lang string) string {
	var stripped string
	switch {
	case lang == "python":
		stripped = stripPython(src)
	case cLike(lang):
		stripped = stripCLike(src, lang == "go" || lang == "javascript")
	default:
		return src
	}
	return dropEmptied(src, stripped)
}

func stripCLike(src string, backtick bool) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				if src[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i += 2
		case c == '"' || c == '\'' || (backtick && c == '`'):
			end := skipString(src, i, c, c != '`')
			b.WriteString(src[i:end])
			i = end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func stripPython(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	lineStart := true
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case (c == '"' || c == '\'') && strings.HasPrefix(src[i:], strings.Repeat(string(c), 3)):
			q := strings.Repeat(string(c), 3)
			end := strings.Index(src[i+3:], q)
			if end < 0 {
				end = len(src)
			} else {
				end = i + 3 + end + 3
			}
			if lineStart {
				// docstring: keep the newlines so line structure survives
				b.WriteString(strings.Repeat("\n", strings.Count(src[i:end], "\n")))
			} else {
				b.WriteString(src[i:end])
			}
			i = end
			lineStart = false
			continue
		case c == '"' || c == '\'':
			end := skipString(src, i, c, true)
			b.WriteString(src[i:end])
			i = end
		default:
			b.WriteByte(c)
			i++
		}
		if c == '\n' {
			lineStart = true
		} else if c != ' ' && c != '\t' {
			lineStart = false
		}
	}
	return b.String()
}

// skipString returns the index just past the literal opened at src[start].
func skipString(src string, start int, quote byte, stopAtNewline bool) int {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			if stopAtNewline {
				return i
			}
		}
		i++
	}
	return len(src)
}

func dropEmptied(orig, stripped string) string {
	ol := strings.Split(orig, "\n")
	sl := strings.Split(stripped, "\n")
	if len(ol) != len(sl) {
		return stripped
	}
	out := make([]string, 0, len(sl))
	for i, line := range sl {
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "" && strings.TrimSpace(ol[i]) != "" {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
