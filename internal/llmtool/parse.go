package llmtool

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("llmtool: no JSON object in response")

// ExtractJSON returns the JSON object in a model reply, tolerating markdown
// fences and prose around it. The outermost balanced {...} wins.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:] // language tag
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return json.RawMessage(s), nil
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				cand := s[start : i+1]
				if !json.Valid([]byte(cand)) {
					return nil, ErrNoJSON
				}
				return json.RawMessage(cand), nil
			}
		}
	}
	return nil, ErrNoJSON
}

// DecodeJSON extracts the JSON object from text and unmarshals it into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
