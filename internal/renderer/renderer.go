// Package renderer captures animated HTML scenes to PNG frame sequences with
// headless Chrome. The scene template draws the gradient background, the eto
// artwork, and the karaoke text; this package drives it frame by frame so the
// assembler can encode the result.
package renderer

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"fortuna/internal/services/speech"
	"fortuna/internal/zodiac"
)

// animationStyles are the template's animation programs. One is chosen per
// scene by content hash so reruns of the same script produce the same video.
var animationStyles = []string{"sakura", "ink", "zen", "wave"}

// Config sizes the capture. Width and height describe the portrait canvas.
type Config struct {
	TemplatePath string
	Width        int
	Height       int
	FPS          int
	ChromePath   string
	Timeout      time.Duration
}

// Scene is one section's render input.
type Scene struct {
	Section  string
	Text     string
	Header   string
	Duration float64
	Words    []speech.Word
	Theme    zodiac.Theme
}

// FrameCount returns how many frames the scene needs at the configured rate.
func (c Config) FrameCount(duration float64) int {
	return int(duration * float64(c.FPS))
}

// AnimationFor picks the scene's animation style deterministically from its
// section name and text.
func AnimationFor(sc Scene) string {
	h := fnv.New32a()
	h.Write([]byte(sc.Section))
	h.Write([]byte(sc.Text))
	return animationStyles[h.Sum32()%uint32(len(animationStyles))]
}

// SceneURL builds the file:// URL that loads the template with the scene's
// content and palette in the query string.
func SceneURL(templatePath string, sc Scene) string {
	q := url.Values{}
	q.Set("text", sc.Text)
	q.Set("header", sc.Header)
	q.Set("c1", sc.Theme.Gradient[0])
	q.Set("c2", sc.Theme.Gradient[1])
	q.Set("c3", sc.Theme.Gradient[2])
	q.Set("glow", sc.Theme.Glow)
	q.Set("elem", string(sc.Theme.Element))
	q.Set("anim", AnimationFor(sc))
	return "file://" + filepath.ToSlash(templatePath) + "?" + q.Encode()
}

// ActiveWordIndex returns the index of the word being spoken at t seconds, or
// -1 between words.
func ActiveWordIndex(words []speech.Word, t float64) int {
	for i, w := range words {
		if w.Start <= t && t < w.Start+w.Duration {
			return i
		}
	}
	return -1
}

// FramePath names frame i inside dir.
func FramePath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
}

// FramePattern is the ffmpeg input pattern matching FramePath output.
func FramePattern(dir string) string {
	return filepath.Join(dir, "frame_%04d.png")
}

// FramesDirName names the per-scene frame directory under the workspace.
func FramesDirName(section string) string {
	return "frames_" + strings.ToLower(strings.TrimSpace(section))
}
