// Package script turns a zodiac sign and a date into a validated fortune
// script: it builds the generation prompts, runs them through the resilient
// generation layer, and decides which sections make the final cut when the
// narrated runtime overshoots the shorts limit.
package script

import (
	"strconv"
	"strings"

	"fortuna/internal/generation"
)

// TargetDailySeconds is the pre-render duration ceiling for a daily short.
// The hard container limit is 59s; trimming to 58s leaves headroom for scene
// transitions.
const TargetDailySeconds = 58.0

// priorityOrder fixes both narration order and scene order. Sections absent
// from a generated script are simply skipped.
var priorityOrder = []string{
	"hook", "intro", "love", "career", "money", "health",
	"remedy", "lucky_color", "lucky_number", "lucky_dates", "lucky_months",
}

// dropOrder lists the sections smart trimming sacrifices first. Hook, love,
// career, and remedy are never dropped: they are the reason anyone watches.
var dropOrder = []string{"intro", "health", "lucky_number", "lucky_color", "money"}

// SectionOrder returns the canonical section ordering.
func SectionOrder() []string {
	out := make([]string, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// ActiveSections filters a generated script down to the sections worth
// narrating, in canonical order. Prose sections shorter than five characters
// are noise (empty strings, "N/A", stray punctuation) and are skipped. The
// lucky_* sections carry bare values like "Red" or "7" that SpeechText frames
// into sentences, so for those only empty text disqualifies.
func ActiveSections(doc generation.Result) []string {
	var active []string
	for _, section := range priorityOrder {
		text := strings.TrimSpace(SectionText(doc, section))
		if text == "" {
			continue
		}
		if !strings.HasPrefix(section, "lucky_") && len(text) < 5 {
			continue
		}
		active = append(active, section)
	}
	return active
}

// SectionText extracts a section's text, tolerating numeric leaf values the
// way models sometimes emit lucky_number.
func SectionText(doc generation.Result, section string) string {
	switch v := doc[section].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}

// SmartTrim drops low-impact sections until the summed duration fits target.
// sections must already be in narration order; durations is seconds per
// section. The kept slice preserves order. Trimming stops as soon as the
// total fits, and never touches sections outside dropOrder, so a script that
// still overshoots after all candidates are gone is returned as-is.
func SmartTrim(sections []string, durations map[string]float64, target float64) (kept, dropped []string) {
	total := 0.0
	for _, s := range sections {
		total += durations[s]
	}
	if total <= target {
		return sections, nil
	}

	removed := make(map[string]bool)
	for _, candidate := range dropOrder {
		if total <= target {
			break
		}
		if d, ok := durations[candidate]; ok && containsSection(sections, candidate) {
			removed[candidate] = true
			dropped = append(dropped, candidate)
			total -= d
		}
	}

	for _, s := range sections {
		if !removed[s] {
			kept = append(kept, s)
		}
	}
	return kept, dropped
}

func containsSection(sections []string, name string) bool {
	for _, s := range sections {
		if s == name {
			return true
		}
	}
	return false
}

// SpeechText renders a section's spoken line. The lucky_* sections carry bare
// values ("Red", "7") that need sentence framing before synthesis; everything
// else is narrated verbatim.
func SpeechText(section, text string) string {
	text = strings.TrimSpace(text)
	switch section {
	case "lucky_color":
		return "Your lucky color today is " + strings.TrimSuffix(text, ".") + "."
	case "lucky_number":
		return "Your lucky number is " + strings.TrimSuffix(text, ".") + "."
	case "lucky_dates":
		return "Your lucky dates this month: " + strings.TrimSuffix(text, ".") + "."
	case "lucky_months":
		return "Your lucky months this year: " + strings.TrimSuffix(text, ".") + "."
	default:
		return text
	}
}
