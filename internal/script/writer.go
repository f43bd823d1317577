package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fortuna/internal/generation"
	"fortuna/internal/services"
	"fortuna/internal/zodiac"
)

// Generator resolves a prompt pair into a structured document. Satisfied by
// *generation.Orchestrator.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
}

// Writer produces fortune scripts for one sign at a time.
type Writer struct {
	gen    Generator
	logger *slog.Logger
}

func NewWriter(gen Generator, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{gen: gen, logger: logger.With("component", "script")}
}

const systemPrompt = `You are an expert astrologer with 25 years of experience reading planetary transits and birth charts.
Your task is to write a fortune script for a short vertical video.
The tone is mystical and authoritative, yet caring and positive.

CRITICAL RULES:
1. Write in clear, spoken English suitable for narration.
2. Reference specific astrological events (for example "the Moon entering your house of wealth").
3. Do NOT mention calendar dates in the script text, so the video stays evergreen.
4. Return the output strictly as a single JSON object.`

// Daily generates the daily horoscope script for sign on date.
func (w *Writer) Daily(ctx context.Context, sign zodiac.Sign, date time.Time) (generation.Result, error) {
	user := fmt.Sprintf(`Generate a daily horoscope for **%s** for **%s**.

Return ONLY a raw JSON object with this exact structure:
{
    "hook": "A short, powerful opening sentence to grab attention.",
    "intro": "Greeting and astrological analysis of today's transits (2 sentences).",
    "love": "Prediction for love and relationships (2 sentences).",
    "career": "Prediction for career and business (2 sentences).",
    "money": "Prediction for finances (2 sentences).",
    "health": "Prediction for health (1 sentence).",
    "remedy": "A simple, powerful remedy for the day.",
    "lucky_color": "One color name.",
    "lucky_number": "One number."
}`, sign.Name, date.Format("2 January 2006"))
	return w.run(ctx, generation.Request{
		System:    systemPrompt,
		User:      user,
		TaskLabel: generation.TaskDaily,
	}, sign)
}

// Monthly generates the monthly forecast script.
func (w *Writer) Monthly(ctx context.Context, sign zodiac.Sign, date time.Time) (generation.Result, error) {
	user := fmt.Sprintf(`Generate a monthly horoscope for **%s** for **%s**.

Return ONLY a raw JSON object with this exact structure:
{
    "hook": "A short, powerful opening sentence about the month ahead.",
    "intro": "Overview of the month's dominant planetary movements (2 sentences).",
    "love": "Prediction for love and relationships this month (2 sentences).",
    "career": "Prediction for career and business this month (2 sentences).",
    "money": "Prediction for finances this month (2 sentences).",
    "health": "Prediction for health this month (1 sentence).",
    "remedy": "A remedy to observe through the month.",
    "lucky_dates": "Two or three favorable dates this month."
}`, sign.Name, date.Format("January 2006"))
	return w.run(ctx, generation.Request{
		System:    systemPrompt,
		User:      user,
		TaskLabel: generation.TaskMonthly,
	}, sign)
}

// Yearly generates the annual forecast script.
func (w *Writer) Yearly(ctx context.Context, sign zodiac.Sign, date time.Time) (generation.Result, error) {
	user := fmt.Sprintf(`Generate a yearly horoscope for **%s** for the year **%s**.

Return ONLY a raw JSON object with this exact structure:
{
    "hook": "A short, powerful opening sentence about the year ahead.",
    "intro": "Overview of the year's major transits (2 sentences).",
    "love": "Prediction for love and relationships this year (2 sentences).",
    "career": "Prediction for career and business this year (2 sentences).",
    "money": "Prediction for finances this year (2 sentences).",
    "health": "Prediction for health this year (1 sentence).",
    "remedy": "A remedy to carry through the year.",
    "lucky_months": "Two or three favorable months this year."
}`, sign.Name, date.Format("2006"))
	return w.run(ctx, generation.Request{
		System:    systemPrompt,
		User:      user,
		TaskLabel: generation.TaskYearly,
	}, sign)
}

// Remedy generates the evening remedy deep-dive script, the fallback program
// when neither a yearly nor a monthly video is due.
func (w *Writer) Remedy(ctx context.Context, sign zodiac.Sign, date time.Time) (generation.Result, error) {
	user := fmt.Sprintf(`Generate a remedy deep-dive for **%s** for **%s**: one powerful, practical remedy explained in depth.

Return ONLY a raw JSON object with this exact structure:
{
    "hook": "A short, intriguing opening sentence about today's remedy.",
    "intro": "Why this remedy matters today, tied to current transits (2 sentences).",
    "remedy": "The remedy itself, explained step by step (3 sentences).",
    "love": "How this remedy strengthens relationships (1 sentence).",
    "career": "How this remedy supports work and ambition (1 sentence).",
    "lucky_color": "One color name that amplifies the remedy."
}`, sign.Name, date.Format("2 January 2006"))
	return w.run(ctx, generation.Request{
		System:    systemPrompt,
		User:      user,
		TaskLabel: generation.TaskRemedy,
	}, sign)
}

func (w *Writer) run(ctx context.Context, req generation.Request, sign zodiac.Sign) (generation.Result, error) {
	w.logger.Info("generating script", "task", req.TaskLabel, "sign", sign.Key)
	doc, err := w.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// validate rejects scripts too thin to narrate. Partial compliance is fine;
// missing optional sections are skipped later.
func validate(doc generation.Result) error {
	if strings.TrimSpace(SectionText(doc, "hook")) == "" {
		return services.Wrap(services.ErrValidation, "script", "validate", "generated script has no hook", nil)
	}
	if len(ActiveSections(doc)) < 2 {
		return services.Wrap(services.ErrValidation, "script", "validate", "generated script has fewer than two usable sections", nil)
	}
	return nil
}
