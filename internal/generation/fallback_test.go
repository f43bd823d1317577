package generation

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSafeDefaultIsPure(t *testing.T) {
	date := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	for _, label := range []string{TaskDaily, TaskMonthly, TaskYearly, TaskRemedy, TaskScreenplay, TaskMetadata, "Unknown"} {
		first := SafeDefault(label, "Aries", date)
		second := SafeDefault(label, "Aries", date)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("SafeDefault(%q) is not deterministic", label)
		}
	}
}

func TestSafeDefaultDailyShape(t *testing.T) {
	doc := SafeDefault(TaskDaily, "Taurus", time.Now())
	for _, field := range []string{"hook", "intro", "love", "career", "money", "health", "remedy", "lucky_color", "lucky_number"} {
		if _, ok := doc[field].(string); !ok {
			t.Fatalf("daily default missing string field %q: %#v", field, doc)
		}
	}
	if doc["lucky_color"] != "White" || doc["lucky_number"] != "7" {
		t.Fatalf("unexpected lucky fields: %#v", doc)
	}
	if !strings.Contains(doc["hook"].(string), "Taurus") {
		t.Fatalf("hook should name the sign: %q", doc["hook"])
	}
}

func TestSafeDefaultScreenplayShape(t *testing.T) {
	doc := SafeDefault(TaskScreenplay, "Gemini", time.Now())
	scenes, ok := doc["scenes"].(map[string]any)
	if !ok {
		t.Fatalf("screenplay default has no scenes map: %#v", doc)
	}
	for _, section := range []string{"hook", "intro", "love", "career", "money", "health", "remedy", "lucky_item"} {
		if _, ok := scenes[section].(string); !ok {
			t.Fatalf("screenplay default missing scene %q", section)
		}
	}
	if doc["mood"] != "zen" {
		t.Fatalf("unexpected mood: %v", doc["mood"])
	}
}

func TestSafeDefaultMetadataShape(t *testing.T) {
	date := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	doc := SafeDefault(TaskMetadata, "Leo", date)

	title, _ := doc["title"].(string)
	if !strings.Contains(title, "#shorts") || !strings.Contains(title, "Leo") {
		t.Fatalf("unexpected title: %q", title)
	}
	if doc["categoryId"] != "24" {
		t.Fatalf("unexpected categoryId: %v", doc["categoryId"])
	}
	tags, ok := doc["tags"].([]any)
	if !ok || len(tags) == 0 {
		t.Fatalf("unexpected tags: %#v", doc["tags"])
	}
}

func TestSafeDefaultBlankNameFallsBack(t *testing.T) {
	doc := SafeDefault(TaskDaily, "  ", time.Now())
	if !strings.Contains(doc["hook"].(string), "friend") {
		t.Fatalf("blank display name should fall back to a generic subject: %q", doc["hook"])
	}
}
