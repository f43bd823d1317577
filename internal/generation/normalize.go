package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Shape tags what a raw provider payload turned out to be once decoded.
type Shape int

const (
	// ShapeMalformed marks payloads that were not valid JSON after fence
	// stripping, or arrays that cannot be unwrapped to a single object.
	ShapeMalformed Shape = iota
	// ShapeObject marks a JSON object, the canonical case.
	ShapeObject
	// ShapeObjectArray marks a one-element array wrapping a single object, a
	// common model quirk that Decode unwraps transparently.
	ShapeObjectArray
)

// Decode converts a raw provider response into a canonical Result. Markdown
// code fences are stripped, and a single-element array containing one object
// unwraps to that object. Multi-element arrays and arrays of non-objects are
// malformed: the caller treats that like any other candidate failure.
//
// Decode is idempotent on clean JSON object text.
func Decode(raw string) (Result, Shape, error) {
	trimmed := strings.TrimSpace(stripCodeFence(raw))
	if trimmed == "" {
		return nil, ShapeMalformed, errors.New("normalize: empty payload")
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return nil, ShapeMalformed, fmt.Errorf("normalize: parse payload: %w (snippet: %s)", err, snippet(trimmed))
	}

	switch v := value.(type) {
	case map[string]any:
		return Result(v), ShapeObject, nil
	case []any:
		if len(v) == 1 {
			if obj, ok := v[0].(map[string]any); ok {
				return Result(obj), ShapeObjectArray, nil
			}
		}
		return nil, ShapeMalformed, fmt.Errorf("normalize: array payload with %d elements cannot be unwrapped", len(v))
	default:
		return nil, ShapeMalformed, fmt.Errorf("normalize: payload is %T, expected object", value)
	}
}

// EnsureMarker guarantees marker appears in the named text field of a
// metadata-shaped result, truncating the existing text first so that the
// field never exceeds maxLen runes after the marker is appended. Missing or
// non-string fields are left alone.
func EnsureMarker(doc Result, field, marker string, maxLen int) {
	if doc == nil || marker == "" {
		return
	}
	text, ok := doc[field].(string)
	if !ok {
		return
	}
	if strings.Contains(text, marker) {
		return
	}
	text = strings.TrimSpace(text)
	budget := maxLen - len([]rune(marker)) - 1
	if budget < 0 {
		budget = 0
	}
	if runes := []rune(text); len(runes) > budget {
		text = strings.TrimSpace(string(runes[:budget]))
	}
	if text == "" {
		doc[field] = marker
		return
	}
	doc[field] = text + " " + marker
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
