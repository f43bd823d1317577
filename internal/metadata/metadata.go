// Package metadata produces YouTube upload metadata for a finished video.
// Metadata embedded in the generated script is preferred (it costs no extra
// API call); a deterministic local generator covers scripts without one.
package metadata

import (
	"fmt"
	"hash/fnv"
	"strings"

	"fortuna/internal/generation"
	"fortuna/internal/zodiac"
)

const (
	// markerTag must appear in every title for the platform to index the
	// video as a short.
	markerTag = "#shorts"
	// maxTitleRunes is the platform title limit with headroom.
	maxTitleRunes = 80
	// categoryEntertainment is the platform category for fortune content.
	categoryEntertainment = "24"
)

// Video is the upload metadata for one video.
type Video struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
}

// FromScript extracts metadata the script generator embedded under the
// "metadata" key. The title marker and length rules are enforced on the way
// out. Returns false when the script carries no usable metadata.
func FromScript(doc generation.Result) (Video, bool) {
	raw, ok := doc["metadata"].(map[string]any)
	if !ok {
		return Video{}, false
	}
	meta := generation.Result(raw)
	title, _ := meta["title"].(string)
	if strings.TrimSpace(title) == "" {
		return Video{}, false
	}
	generation.EnsureMarker(meta, "title", markerTag, maxTitleRunes)

	v := Video{
		Title:      meta["title"].(string),
		CategoryID: categoryEntertainment,
	}
	if desc, ok := meta["description"].(string); ok {
		v.Description = desc
	}
	if cat, ok := meta["categoryId"].(string); ok && strings.TrimSpace(cat) != "" {
		v.CategoryID = cat
	}
	if tags, ok := meta["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				v.Tags = append(v.Tags, s)
			}
		}
	}
	return v, true
}

// titleHooks rotate by a hash of sign and date so the channel's titles vary
// day to day yet stay reproducible for a given video.
var titleHooks = []string{
	"🔥 %s, today is your power day!",
	"💕 Love luck is surging for %s!",
	"💰 A wave of money luck reaches %s!",
	"⚠️ Heads up, %s! But don't worry",
	"✨ A miracle chance arrives for %s",
	"🌟 Congratulations %s! A fortunate day",
	"😱 %s, you'll regret missing this!",
}

// Generate builds deterministic local metadata for sign on dateLabel.
// Identical inputs always yield identical output.
func Generate(sign zodiac.Sign, dateLabel, task string) Video {
	h := fnv.New64a()
	h.Write([]byte(sign.Name + dateLabel))
	hook := fmt.Sprintf(titleHooks[h.Sum64()%uint64(len(titleHooks))], sign.Name)

	var title string
	switch task {
	case generation.TaskMonthly:
		title = fmt.Sprintf("📅 %s monthly fortune for %s, revealed! %s", sign.Name, dateLabel, markerTag)
	case generation.TaskYearly:
		title = fmt.Sprintf("🏆 %s, your %s fortune is incredible! %s", sign.Name, dateLabel, markerTag)
	case generation.TaskRemedy:
		title = fmt.Sprintf("🔮 %s remedy of the day, %s %s", sign.Name, dateLabel, markerTag)
	default:
		title = fmt.Sprintf("%s 🔮 %s", hook, markerTag)
	}
	doc := generation.Result{"title": title}
	generation.EnsureMarker(doc, "title", markerTag, maxTitleRunes)

	return Video{
		Title:       doc["title"].(string),
		Description: buildDescription(sign, dateLabel),
		Tags: []string{
			"shorts", "horoscope", "daily horoscope", "zodiac", "astrology",
			"fortune telling", strings.ToLower(sign.Name), sign.Name + " horoscope",
		},
		CategoryID: categoryEntertainment,
	}
}

// Resolve prefers script-embedded metadata and falls back to the local
// generator.
func Resolve(doc generation.Result, sign zodiac.Sign, dateLabel, task string) Video {
	if v, ok := FromScript(doc); ok {
		return v
	}
	return Generate(sign, dateLabel, task)
}

func buildDescription(sign zodiac.Sign, dateLabel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, here is your fortune for %s! 🔮\n\n", sign.Name, dateLabel)
	b.WriteString("Love, career, money and health in under a minute.\n")
	b.WriteString("Follow for daily updates!\n\n")
	b.WriteString("【Not sure of your sign? Check your birth date 👇】\n\n")
	for _, s := range zodiac.All() {
		fmt.Fprintf(&b, "%s: %s\n", s.Name, s.Dates)
	}
	return strings.TrimRight(b.String(), "\n")
}
