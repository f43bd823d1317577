package zodiac

import "strings"

// Theme is the gradient palette a rendered scene is painted with. Gradient
// runs dark to light; Glow is the accent used for text halos and particle
// effects.
type Theme struct {
	Gradient [3]string
	Glow     string
	Element  Element
}

// Element base palettes. Air shares the metallic moonlight palette since the
// scene template has no dedicated air treatment.
var elementThemes = map[Element]Theme{
	Water: {Gradient: [3]string{"#0a1628", "#1e4066", "#5c9dc9"}, Glow: "#4fb3d9", Element: Water},
	Fire:  {Gradient: [3]string{"#2b0a14", "#8a1e3d", "#ff6b8a"}, Glow: "#ff4081", Element: Fire},
	Earth: {Gradient: [3]string{"#1a1409", "#4a3728", "#c9a66b"}, Glow: "#d4a574", Element: Earth},
	Air:   {Gradient: [3]string{"#1a1a2e", "#3d3d5c", "#b0b0c9"}, Glow: "#c9c9e0", Element: Air},
}

// Lucky-color override palettes. A fortune that names one of these colors
// repaints the whole video in it instead of the sign's element palette.
var colorThemes = map[string]Theme{
	"red":    {Gradient: [3]string{"#2b0505", "#8a0a0a", "#ff5252"}, Glow: "#ff0000", Element: Fire},
	"blue":   {Gradient: [3]string{"#050a2b", "#0a2a8a", "#52b6ff"}, Glow: "#00bfff", Element: Water},
	"green":  {Gradient: [3]string{"#052b0a", "#0a8a1a", "#52ff70"}, Glow: "#00ff00", Element: Earth},
	"yellow": {Gradient: [3]string{"#2b2005", "#8a6a0a", "#ffeb3b"}, Glow: "#ffd700", Element: Earth},
	"white":  {Gradient: [3]string{"#202020", "#606060", "#ffffff"}, Glow: "#ffffff", Element: Air},
	"black":  {Gradient: [3]string{"#000000", "#151515", "#303030"}, Glow: "#606060", Element: Water},
	"pink":   {Gradient: [3]string{"#2b0515", "#8a0a4a", "#ff52a2"}, Glow: "#ff69b4", Element: Fire},
	"orange": {Gradient: [3]string{"#2b1505", "#8a450a", "#ff9552"}, Glow: "#ffa500", Element: Fire},
	"purple": {Gradient: [3]string{"#15052b", "#4a0a8a", "#a252ff"}, Glow: "#800080", Element: Air},
	"gold":   {Gradient: [3]string{"#2b2005", "#8a6a0a", "#ffd700"}, Glow: "#ffd700", Element: Earth},
	"silver": {Gradient: [3]string{"#101520", "#546e7a", "#cfd8dc"}, Glow: "#b0bec5", Element: Air},
}

// luckyColors is the recognition vocabulary for ExtractLuckyColor. It is a
// superset of colorThemes: "brown" is recognized as a lucky color but has no
// dedicated palette, so themed rendering falls back to the sign's element.
var luckyColors = []string{
	"red", "blue", "green", "yellow", "white", "black",
	"pink", "orange", "purple", "brown", "gold", "silver",
}

// Theme returns the sign's element palette.
func (s Sign) Theme() Theme {
	if t, ok := elementThemes[s.Element]; ok {
		return t
	}
	return elementThemes[Water]
}

// ThemeForColor returns the override palette for a lucky color, if one
// exists.
func ThemeForColor(color string) (Theme, bool) {
	t, ok := colorThemes[strings.ToLower(strings.TrimSpace(color))]
	return t, ok
}

// ExtractLuckyColor scans free-form fortune text for the first recognized
// color word. Matching is substring-based so "Deep Red" and "golden" both
// resolve.
func ExtractLuckyColor(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, c := range luckyColors {
		if strings.Contains(lowered, c) {
			return c, true
		}
	}
	return "", false
}
