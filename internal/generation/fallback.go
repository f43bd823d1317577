package generation

import (
	"fmt"
	"strings"
	"time"
)

// Task labels the production pipeline passes to Generate. The orchestrator
// never branches on these; they key placeholder content and log lines only.
const (
	TaskDaily      = "Daily"
	TaskMonthly    = "Monthly"
	TaskYearly     = "Yearly"
	TaskRemedy     = "Remedy"
	TaskScreenplay = "Screenplay"
	TaskMetadata   = "Metadata"
)

// SafeDefault produces statically authored placeholder content for the given
// task label. It is a pure function of its inputs: no I/O, no randomness,
// byte-identical output for identical arguments. displayName is the subject
// the video is about (for example a zodiac sign) and date is the production
// date used for string interpolation.
func SafeDefault(taskLabel, displayName string, date time.Time) Result {
	day := date.Format("2 January 2006")
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "friend"
	}

	switch taskLabel {
	case TaskScreenplay:
		return Result{
			"mood":        "zen",
			"music_style": "Zen meditation",
			"scenes": map[string]any{
				"hook":       "Mystical torii gate sunrise fog ethereal",
				"intro":      "Ancient shrine lanterns glowing dusk",
				"love":       "Couple cherry blossoms sunset romantic temple",
				"career":     "Tokyo skyline success confidence morning",
				"money":      "Golden maneki-neko coins prosperity traditional",
				"health":     "Zen garden meditation peaceful bamboo",
				"remedy":     "Incense smoke rising quiet temple hall",
				"lucky_item": "Omamori charm shrine spiritual protection",
			},
		}
	case TaskMetadata:
		return Result{
			"title":       fmt.Sprintf("%s Fortune for %s #shorts", name, day),
			"description": fmt.Sprintf("Today's fortune reading for %s, %s. Love, career, money and health in under a minute. Follow for daily updates!", name, day),
			"tags":        []any{"shorts", "fortune", "horoscope", "daily horoscope", name},
			"categoryId":  "24",
		}
	case TaskMonthly, TaskYearly, TaskRemedy, TaskDaily:
		return Result{
			"hook":         fmt.Sprintf("A gentle day of steady fortune awaits %s.", name),
			"intro":        fmt.Sprintf("The stars hold a calm, balanced pattern for %s today. Small consistent efforts are favored over bold moves.", name),
			"love":         "Warmth grows through honest, unhurried conversation. Listen more than you speak today.",
			"career":       "Routine work moves smoothly. Finish what is already started before opening anything new.",
			"money":        "A stable day for finances. Postpone large purchases and review what you already have.",
			"health":       "Rest and hydration restore more than effort today.",
			"remedy":       "Light a candle at dusk and take three slow breaths with gratitude.",
			"lucky_color":  "White",
			"lucky_number": "7",
		}
	default:
		return Result{
			"content": fmt.Sprintf("A calm and steady fortune accompanies %s on %s.", name, day),
		}
	}
}
