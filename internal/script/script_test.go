package script

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"fortuna/internal/generation"
	"fortuna/internal/logging"
	"fortuna/internal/services"
	"fortuna/internal/zodiac"
)

type stubGenerator struct {
	doc  generation.Result
	err  error
	last generation.Request
}

func (s *stubGenerator) Generate(_ context.Context, req generation.Request) (generation.Result, error) {
	s.last = req
	return s.doc, s.err
}

func fullDaily() generation.Result {
	return generation.Result{
		"hook":         "Money warning for Aries today!",
		"intro":        "The Moon moves through your second house.",
		"love":         "An honest talk clears old tension.",
		"career":       "A senior colleague notices your work.",
		"money":        "Hold off on large purchases.",
		"health":       "Hydrate and rest early.",
		"remedy":       "Offer water to the rising sun.",
		"lucky_color":  "Red",
		"lucky_number": float64(7),
	}
}

func TestActiveSectionsFollowPriorityOrder(t *testing.T) {
	doc := fullDaily()
	doc["lucky_months"] = "March and September"
	got := ActiveSections(doc)
	want := []string{"hook", "intro", "love", "career", "money", "health", "remedy", "lucky_color", "lucky_number", "lucky_months"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ActiveSections = %v, want %v", got, want)
	}
}

func TestActiveSectionsSkipsNoise(t *testing.T) {
	doc := generation.Result{
		"hook":   "A powerful shift arrives today.",
		"intro":  "  ",
		"love":   "N/A",
		"career": "Bold steps pay off this afternoon.",
	}
	got := ActiveSections(doc)
	want := []string{"hook", "career"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ActiveSections = %v, want %v", got, want)
	}
}

func TestActiveSectionsKeepsShortLuckyValues(t *testing.T) {
	doc := generation.Result{
		"hook":         "A powerful shift arrives today.",
		"love":         "Red", // short prose is noise
		"lucky_color":  "Red", // short lucky values are real
		"lucky_number": float64(7),
		"lucky_dates":  "  ",
	}
	got := ActiveSections(doc)
	want := []string{"hook", "lucky_color", "lucky_number"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ActiveSections = %v, want %v", got, want)
	}
}

func TestSectionTextHandlesNumbers(t *testing.T) {
	doc := generation.Result{"lucky_number": float64(7)}
	if got := SectionText(doc, "lucky_number"); got != "7" {
		t.Fatalf("SectionText = %q, want 7", got)
	}
	if got := SectionText(doc, "missing"); got != "" {
		t.Fatalf("SectionText(missing) = %q", got)
	}
}

func TestSmartTrimDropsInOrder(t *testing.T) {
	sections := []string{"hook", "intro", "love", "career", "money", "health", "remedy", "lucky_color", "lucky_number"}
	durations := map[string]float64{
		"hook": 4, "intro": 10, "love": 9, "career": 9, "money": 8,
		"health": 6, "remedy": 8, "lucky_color": 4, "lucky_number": 4,
	}
	// Total 62s against a 58s target: dropping intro alone suffices.
	kept, dropped := SmartTrim(sections, durations, TargetDailySeconds)
	if !reflect.DeepEqual(dropped, []string{"intro"}) {
		t.Fatalf("dropped = %v, want [intro]", dropped)
	}
	wantKept := []string{"hook", "love", "career", "money", "health", "remedy", "lucky_color", "lucky_number"}
	if !reflect.DeepEqual(kept, wantKept) {
		t.Fatalf("kept = %v, want %v", kept, wantKept)
	}
}

func TestSmartTrimNeverDropsCoreSections(t *testing.T) {
	sections := []string{"hook", "love", "career", "remedy"}
	durations := map[string]float64{"hook": 30, "love": 30, "career": 30, "remedy": 30}
	kept, dropped := SmartTrim(sections, durations, TargetDailySeconds)
	if len(dropped) != 0 {
		t.Fatalf("core sections were dropped: %v", dropped)
	}
	if !reflect.DeepEqual(kept, sections) {
		t.Fatalf("kept = %v, want %v", kept, sections)
	}
}

func TestSmartTrimNoopWhenUnderTarget(t *testing.T) {
	sections := []string{"hook", "love"}
	durations := map[string]float64{"hook": 5, "love": 10}
	kept, dropped := SmartTrim(sections, durations, TargetDailySeconds)
	if dropped != nil {
		t.Fatalf("unexpected drops: %v", dropped)
	}
	if !reflect.DeepEqual(kept, sections) {
		t.Fatalf("kept = %v", kept)
	}
}

func TestSpeechTextFramesLuckySections(t *testing.T) {
	if got := SpeechText("lucky_color", "Red"); got != "Your lucky color today is Red." {
		t.Fatalf("lucky_color speech = %q", got)
	}
	if got := SpeechText("lucky_number", "7."); got != "Your lucky number is 7." {
		t.Fatalf("lucky_number speech = %q", got)
	}
	if got := SpeechText("love", "Warmth grows today."); got != "Warmth grows today." {
		t.Fatalf("love speech = %q", got)
	}
}

func TestWriterDailyBuildsRequest(t *testing.T) {
	stub := &stubGenerator{doc: fullDaily()}
	w := NewWriter(stub, logging.NewNop())
	sign, _ := zodiac.Lookup("aries")
	date := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	doc, err := w.Daily(t.Context(), sign, date)
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if doc["hook"] == "" {
		t.Fatal("expected generated script back")
	}
	if stub.last.TaskLabel != generation.TaskDaily {
		t.Fatalf("task label = %q", stub.last.TaskLabel)
	}
	if !strings.Contains(stub.last.User, "Aries") || !strings.Contains(stub.last.User, "5 March 2026") {
		t.Fatalf("user prompt missing sign or date: %s", stub.last.User)
	}
	if !strings.Contains(stub.last.User, `"lucky_number"`) {
		t.Fatal("daily prompt must request lucky_number")
	}
	if !strings.Contains(stub.last.System, "astrologer") {
		t.Fatal("system prompt missing persona")
	}
}

func TestWriterTaskPromptShapes(t *testing.T) {
	stub := &stubGenerator{doc: fullDaily()}
	w := NewWriter(stub, logging.NewNop())
	sign, _ := zodiac.Lookup("leo")
	date := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	if _, err := w.Monthly(t.Context(), sign, date); err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if stub.last.TaskLabel != generation.TaskMonthly || !strings.Contains(stub.last.User, `"lucky_dates"`) {
		t.Fatalf("monthly prompt wrong: label=%s", stub.last.TaskLabel)
	}
	if !strings.Contains(stub.last.User, "January 2026") {
		t.Fatal("monthly prompt missing month")
	}

	if _, err := w.Yearly(t.Context(), sign, date); err != nil {
		t.Fatalf("Yearly: %v", err)
	}
	if stub.last.TaskLabel != generation.TaskYearly || !strings.Contains(stub.last.User, `"lucky_months"`) {
		t.Fatalf("yearly prompt wrong: label=%s", stub.last.TaskLabel)
	}

	if _, err := w.Remedy(t.Context(), sign, date); err != nil {
		t.Fatalf("Remedy: %v", err)
	}
	if stub.last.TaskLabel != generation.TaskRemedy || !strings.Contains(stub.last.User, "remedy deep-dive") {
		t.Fatalf("remedy prompt wrong: label=%s", stub.last.TaskLabel)
	}
}

func TestWriterRejectsThinScripts(t *testing.T) {
	stub := &stubGenerator{doc: generation.Result{"hook": "Something big!"}}
	w := NewWriter(stub, logging.NewNop())
	sign, _ := zodiac.Lookup("virgo")

	_, err := w.Daily(t.Context(), sign, time.Now())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	stub.doc = generation.Result{"love": "Plenty of warmth today, truly."}
	if _, err := w.Daily(t.Context(), sign, time.Now()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing hook, got %v", err)
	}
}

func TestWriterPropagatesGenerationFailure(t *testing.T) {
	wantErr := errors.New("exhausted")
	w := NewWriter(&stubGenerator{err: wantErr}, logging.NewNop())
	sign, _ := zodiac.Lookup("pisces")
	if _, err := w.Daily(t.Context(), sign, time.Now()); !errors.Is(err, wantErr) {
		t.Fatalf("expected generation error passthrough, got %v", err)
	}
}
