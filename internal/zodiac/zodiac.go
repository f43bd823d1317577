// Package zodiac is the sign catalog for the production pipeline: the twelve
// signs with their display names, ordering, elements, and date ranges, plus
// the visual themes the renderer keys off a sign or a lucky color.
package zodiac

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Element groups signs for theme selection.
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// Sign is one catalog entry. Index follows the traditional ordering starting
// at Aries = 1.
type Sign struct {
	Key     string
	Name    string
	Index   int
	Element Element
	Dates   string
}

var catalog = []Sign{
	{Key: "aries", Name: "Aries", Index: 1, Element: Fire, Dates: "Mar 21 - Apr 19"},
	{Key: "taurus", Name: "Taurus", Index: 2, Element: Earth, Dates: "Apr 20 - May 20"},
	{Key: "gemini", Name: "Gemini", Index: 3, Element: Air, Dates: "May 21 - Jun 20"},
	{Key: "cancer", Name: "Cancer", Index: 4, Element: Water, Dates: "Jun 21 - Jul 22"},
	{Key: "leo", Name: "Leo", Index: 5, Element: Fire, Dates: "Jul 23 - Aug 22"},
	{Key: "virgo", Name: "Virgo", Index: 6, Element: Earth, Dates: "Aug 23 - Sep 22"},
	{Key: "libra", Name: "Libra", Index: 7, Element: Air, Dates: "Sep 23 - Oct 22"},
	{Key: "scorpio", Name: "Scorpio", Index: 8, Element: Water, Dates: "Oct 23 - Nov 21"},
	{Key: "sagittarius", Name: "Sagittarius", Index: 9, Element: Fire, Dates: "Nov 22 - Dec 21"},
	{Key: "capricorn", Name: "Capricorn", Index: 10, Element: Earth, Dates: "Dec 22 - Jan 19"},
	{Key: "aquarius", Name: "Aquarius", Index: 11, Element: Air, Dates: "Jan 20 - Feb 18"},
	{Key: "pisces", Name: "Pisces", Index: 12, Element: Water, Dates: "Feb 19 - Mar 20"},
}

// All returns the full catalog in traditional order. The slice is a copy;
// callers may reorder it.
func All() []Sign {
	out := make([]Sign, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup resolves a sign from loose user input. It tolerates surrounding
// whitespace, mixed case, and decorated forms like "Aries (Mar 21)" by
// keeping only the text before the first parenthesis.
func Lookup(input string) (Sign, bool) {
	key := NormalizeKey(input)
	for _, s := range catalog {
		if s.Key == key {
			return s, true
		}
	}
	return Sign{}, false
}

// NormalizeKey reduces loose sign input to the catalog key form.
func NormalizeKey(input string) string {
	key := strings.ToLower(strings.TrimSpace(input))
	if idx := strings.IndexByte(key, '('); idx >= 0 {
		key = key[:idx]
	}
	return strings.TrimSpace(key)
}

// DisplayName title-cases arbitrary sign input for headers and titles. Known
// signs use their catalog name so casing stays consistent.
func DisplayName(input string) string {
	if s, ok := Lookup(input); ok {
		return s.Name
	}
	return cases.Title(language.Und).String(NormalizeKey(input))
}
