// Package screenplay is the visual direction step: it reads a generated
// fortune script and produces per-section visual keywords plus an overall
// mood and music style for the renderer and the music bed.
package screenplay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fortuna/internal/generation"
	"fortuna/internal/script"
)

// contextSections are the script sections summarized into the direction
// prompt. The rest of the script adds nothing visual.
var contextSections = []string{"hook", "love", "career", "money", "health", "lucky_item"}

// maxContextRunes bounds the script excerpt embedded in the prompt.
const maxContextRunes = 500

// defaultScene is used for any section the plan does not cover.
const defaultScene = "Cherry blossoms floating softly zen garden peaceful"

// Plan is the visual direction for one video.
type Plan struct {
	Mood       string
	MusicStyle string
	Scenes     map[string]string
}

// Scene returns the visual keyword for a section, falling back to a neutral
// zen scene when the plan has no entry.
func (p Plan) Scene(section string) string {
	if kw := strings.TrimSpace(p.Scenes[section]); kw != "" {
		return kw
	}
	return defaultScene
}

// Generator resolves a prompt pair into a structured document. Satisfied by
// *generation.Orchestrator; production wiring hands the director an
// orchestrator configured with SecondaryFirst and the placeholder policy, so
// Plan degrades to the themed safe default instead of failing a run.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
}

// Director turns scripts into visual plans.
type Director struct {
	gen    Generator
	logger *slog.Logger
}

func NewDirector(gen Generator, logger *slog.Logger) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	return &Director{gen: gen, logger: logger.With("component", "screenplay")}
}

const directorSystemPrompt = `You are a Japanese visual director specializing in fortune-telling video aesthetics.
You transform fortune scripts into cinematic Japanese visuals.

Your visual vocabulary includes cherry blossoms, torii gates and shrines, zen
gardens, moonlight, Mount Fuji, onsen steam, paper lanterns, and maneki-neko
fortune cats.

Rules for keywords:
1. Use English but evoke Japanese aesthetics.
2. Cinematic, atmospheric, high quality.
3. No text descriptions, pure visual mood.
4. Match the emotion but stay authentically Japanese.`

// Plan generates the visual plan for a script.
func (d *Director) Plan(ctx context.Context, doc generation.Result) (Plan, error) {
	user := fmt.Sprintf(`Analyze this fortune script and generate visual keywords.

Script context: %s

Return ONLY JSON:
{
    "mood": "zen" | "sakura" | "mystical" | "energetic" | "serene",
    "music_style": "Koto ambient" | "Shamisen upbeat" | "Zen meditation" | "Taiko drums",
    "scenes": {
        "hook": "cinematic keyword for the opening",
        "love": "romantic visual keyword",
        "career": "success and ambition visual keyword",
        "money": "prosperity visual keyword",
        "health": "wellness visual keyword",
        "lucky_item": "fortune item visual keyword"
    }
}`, scriptContext(doc))

	result, err := d.gen.Generate(ctx, generation.Request{
		System:    directorSystemPrompt,
		User:      user,
		TaskLabel: generation.TaskScreenplay,
	})
	if err != nil {
		return Plan{}, err
	}
	plan := fromResult(result)
	d.logger.Info("visual plan ready", "mood", plan.Mood, "music_style", plan.MusicStyle, "scenes", len(plan.Scenes))
	return plan, nil
}

// scriptContext flattens the visually relevant sections into one excerpt,
// capped so oversized scripts cannot blow up the prompt.
func scriptContext(doc generation.Result) string {
	parts := make([]string, 0, len(contextSections))
	for _, section := range contextSections {
		if text := strings.TrimSpace(script.SectionText(doc, section)); text != "" {
			parts = append(parts, text)
		}
	}
	joined := strings.Join(parts, " ")
	runes := []rune(joined)
	if len(runes) > maxContextRunes {
		return string(runes[:maxContextRunes])
	}
	return joined
}

// fromResult maps a loose generated document onto a Plan, defaulting every
// missing piece to the zen baseline.
func fromResult(doc generation.Result) Plan {
	plan := Plan{
		Mood:       "zen",
		MusicStyle: "Zen meditation",
		Scenes:     map[string]string{},
	}
	if mood, ok := doc["mood"].(string); ok && strings.TrimSpace(mood) != "" {
		plan.Mood = strings.ToLower(strings.TrimSpace(mood))
	}
	if style, ok := doc["music_style"].(string); ok && strings.TrimSpace(style) != "" {
		plan.MusicStyle = strings.TrimSpace(style)
	}
	if scenes, ok := doc["scenes"].(map[string]any); ok {
		for section, v := range scenes {
			if kw, ok := v.(string); ok && strings.TrimSpace(kw) != "" {
				plan.Scenes[section] = strings.TrimSpace(kw)
			}
		}
	}
	return plan
}
