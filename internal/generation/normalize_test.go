package generation

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeCleanObjectRoundTrip(t *testing.T) {
	original := Result{
		"hook":         "x",
		"love":         "y",
		"lucky_number": float64(7),
		"scenes":       map[string]any{"hook": "torii gate"},
	}
	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, shape, err := Decode(string(encoded))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if shape != ShapeObject {
		t.Fatalf("expected ShapeObject, got %v", shape)
	}
	if !reflect.DeepEqual(decoded, original) {
		t.Fatalf("round trip mismatch: got %#v want %#v", decoded, original)
	}
}

func TestDecodeStripsCodeFences(t *testing.T) {
	for _, raw := range []string{
		"```json\n{\"hook\":\"x\",\"love\":\"y\"}\n```",
		"```\n{\"hook\":\"x\",\"love\":\"y\"}\n```",
		"  {\"hook\":\"x\",\"love\":\"y\"}  ",
	} {
		doc, _, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%q) returned error: %v", raw, err)
		}
		if doc["hook"] != "x" || doc["love"] != "y" {
			t.Fatalf("Decode(%q) = %#v", raw, doc)
		}
	}
}

func TestDecodeUnwrapsSingleElementArray(t *testing.T) {
	doc, shape, err := Decode(`[{"hook":"x"}]`)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if shape != ShapeObjectArray {
		t.Fatalf("expected ShapeObjectArray, got %v", shape)
	}
	if doc["hook"] != "x" {
		t.Fatalf("unexpected document: %#v", doc)
	}
}

func TestDecodeRejectsOtherArrays(t *testing.T) {
	for _, raw := range []string{
		`[{"a":1},{"b":2}]`,
		`["just","strings"]`,
		`[]`,
		`"a bare string"`,
		`not json at all`,
		"",
	} {
		if _, shape, err := Decode(raw); err == nil || shape != ShapeMalformed {
			t.Fatalf("Decode(%q): expected malformed failure, got shape=%v err=%v", raw, shape, err)
		}
	}
}

func TestEnsureMarkerAppendsAndTruncates(t *testing.T) {
	title := strings.Repeat("a", 75)
	doc := Result{"title": title}
	EnsureMarker(doc, "title", "#shorts", 80)

	got := doc["title"].(string)
	if !strings.HasSuffix(got, "#shorts") {
		t.Fatalf("expected marker suffix, got %q", got)
	}
	if n := len([]rune(got)); n > 80 {
		t.Fatalf("expected length <= 80, got %d (%q)", n, got)
	}
}

func TestEnsureMarkerLeavesExistingMarker(t *testing.T) {
	doc := Result{"title": "Today's fortune #shorts"}
	EnsureMarker(doc, "title", "#shorts", 80)
	if doc["title"] != "Today's fortune #shorts" {
		t.Fatalf("title changed unexpectedly: %q", doc["title"])
	}
}

func TestEnsureMarkerIgnoresMissingField(t *testing.T) {
	doc := Result{"description": "no title here"}
	EnsureMarker(doc, "title", "#shorts", 80)
	if _, ok := doc["title"]; ok {
		t.Fatal("marker hook should not invent fields")
	}
}
