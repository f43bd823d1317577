// Package narration turns script sections into voiceover takes: an MP3 per
// section plus a sibling JSON file of word timings for karaoke highlighting.
package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"fortuna/internal/services"
	"fortuna/internal/services/speech"
)

const (
	maxAttempts = 3
	retryPause  = 2 * time.Second
	// minAudioBytes guards against truncated responses that decode fine but
	// contain no playable audio.
	minAudioBytes = 100
)

// stage directions like "(pause)" are for the model, not the listener.
var parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// Synthesizer is the TTS dependency. Satisfied by *speech.Client.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (speech.Synthesis, error)
}

// Take is one narrated section on disk.
type Take struct {
	AudioPath    string
	SubtitlePath string
	Duration     float64
	Words        []speech.Word
}

// Narrator records script text to audio files with bounded retry.
type Narrator struct {
	tts     Synthesizer
	logger  *slog.Logger
	sleeper func(time.Duration)
}

func NewNarrator(tts Synthesizer, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{
		tts:     tts,
		logger:  logger.With("component", "narration"),
		sleeper: time.Sleep,
	}
}

// CleanText strips parenthetical stage directions and collapses whitespace.
func CleanText(text string) string {
	cleaned := parenthetical.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// Speak synthesizes text and writes the audio to audioPath with word timings
// in a sibling .json file. Transient synthesis failures are retried a fixed
// number of times with a short pause between attempts.
func (n *Narrator) Speak(ctx context.Context, text, audioPath string) (Take, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return Take{}, services.Wrap(services.ErrValidation, "narration", "speak", "nothing to say after cleanup", nil)
	}

	var (
		syn     speech.Synthesis
		lastErr error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Take{}, err
		}
		syn, lastErr = n.tts.Synthesize(ctx, cleaned)
		if lastErr == nil && len(syn.Audio) < minAudioBytes {
			lastErr = services.Wrap(services.ErrTransient, "narration", "speak",
				fmt.Sprintf("audio too small (%d bytes)", len(syn.Audio)), nil)
		}
		if lastErr == nil {
			break
		}
		n.logger.Warn("synthesis attempt failed", "attempt", attempt, "error", lastErr)
		if attempt < maxAttempts {
			n.sleeper(retryPause)
		}
	}
	if lastErr != nil {
		return Take{}, lastErr
	}

	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		return Take{}, fmt.Errorf("narration: create audio dir: %w", err)
	}
	if err := os.WriteFile(audioPath, syn.Audio, 0o644); err != nil {
		return Take{}, fmt.Errorf("narration: write audio: %w", err)
	}

	words := syn.Words
	if len(words) == 0 && syn.Duration > 0 {
		words = pseudoWords(cleaned, syn.Duration)
	}
	take := Take{
		AudioPath: audioPath,
		Duration:  takeDuration(syn, words),
		Words:     words,
	}
	if len(words) > 0 {
		subtitlePath := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".json"
		encoded, err := json.MarshalIndent(words, "", "  ")
		if err != nil {
			return Take{}, fmt.Errorf("narration: encode subtitles: %w", err)
		}
		if err := os.WriteFile(subtitlePath, encoded, 0o644); err != nil {
			return Take{}, fmt.Errorf("narration: write subtitles: %w", err)
		}
		take.SubtitlePath = subtitlePath
	}
	n.logger.Info("take recorded", "path", audioPath, "duration", take.Duration, "words", len(words))
	return take, nil
}

// pseudoWords distributes words evenly across the clip when the engine
// reported no boundaries, so highlighting still tracks roughly.
func pseudoWords(text string, duration float64) []speech.Word {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	per := duration / float64(len(fields))
	words := make([]speech.Word, len(fields))
	for i, f := range fields {
		words[i] = speech.Word{Text: f, Start: float64(i) * per, Duration: per}
	}
	return words
}

func takeDuration(syn speech.Synthesis, words []speech.Word) float64 {
	if syn.Duration > 0 {
		return syn.Duration
	}
	if len(words) > 0 {
		last := words[len(words)-1]
		return last.Start + last.Duration
	}
	return 0
}
