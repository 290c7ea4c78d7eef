package extract

import (
	"encoding/json"
	"fmt"
)

// ParseExtraction parses model output into an Extraction. Models sometimes
// wrap the JSON in prose or markdown fences, so the first balanced {...}
// substring is extracted before unmarshaling.
func ParseExtraction(raw string) (*Extraction, error) {
	obj, err := firstJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("no JSON object in model output: %w", err)
	}
	var out Extraction
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		snippet := raw
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return nil, fmt.Errorf("parse model output (%q): %w", snippet, err)
	}
	return &out, nil
}

// firstJSONObject returns the first balanced top-level {...} substring of s.
// Braces inside JSON strings are ignored.
func firstJSONObject(s string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
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
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	if start < 0 {
		return "", fmt.Errorf("no opening brace")
	}
	return "", fmt.Errorf("unbalanced braces")
}
