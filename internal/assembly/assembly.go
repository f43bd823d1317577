// Package assembly encodes rendered frames and narration into the final
// short with ffmpeg: frames+audio become scene clips, clips concatenate, and
// a looped music bed is mixed under the narration. The hard 59 second shorts
// ceiling is enforced here.
package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"fortuna/internal/services"
)

// MaxDurationSeconds is the shorts container limit.
const MaxDurationSeconds = 59.0

// musicVolume keeps the bed under the narration.
const musicVolume = 0.3

var commandContext = exec.CommandContext

// Assembler wraps the ffmpeg and ffprobe binaries.
type Assembler struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

func New(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Assembler {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{ffmpeg: ffmpegBinary, ffprobe: ffprobeBinary, logger: logger.With("component", "assembly")}
}

func sceneClipArgs(framesPattern, audioPath string, fps int, outPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-framerate", strconv.Itoa(fps),
		"-i", framesPattern,
		"-i", audioPath,
		"-c:v", "libx264",
		"-preset", "medium",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outPath,
	}
}

// SceneClip encodes one scene's frame sequence with its narration track.
func (a *Assembler) SceneClip(ctx context.Context, framesPattern, audioPath string, fps int, outPath string) error {
	if fps <= 0 {
		return services.Wrap(services.ErrValidation, "assembly", "scene clip", "fps must be positive", nil)
	}
	return a.run(ctx, "scene clip", sceneClipArgs(framesPattern, audioPath, fps, outPath))
}

// concatListContent renders the ffmpeg concat demuxer list. Single quotes in
// paths are escaped the way the demuxer expects.
func concatListContent(clips []string) string {
	var b strings.Builder
	for _, clip := range clips {
		escaped := strings.ReplaceAll(clip, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

func concatArgs(listPath, outPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
}

// Concat joins scene clips in order without re-encoding.
func (a *Assembler) Concat(ctx context.Context, clips []string, outPath string) error {
	if len(clips) == 0 {
		return services.Wrap(services.ErrValidation, "assembly", "concat", "no clips to assemble", nil)
	}
	listPath := filepath.Join(filepath.Dir(outPath), "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatListContent(clips)), 0o644); err != nil {
		return fmt.Errorf("assembly: write concat list: %w", err)
	}
	defer os.Remove(listPath)
	return a.run(ctx, "concat", concatArgs(listPath, outPath))
}

// ProbeDuration reports a media file's duration in seconds.
func (a *Assembler) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := commandContext(ctx, a.ffprobe, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "assembly", "probe", "ffprobe "+path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "assembly", "probe",
			fmt.Sprintf("unparseable duration %q for %s", strings.TrimSpace(string(output)), path), nil)
	}
	return dur, nil
}

// capDuration clamps to the shorts ceiling.
func capDuration(d float64) float64 {
	if d > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return d
}

func finalizeArgs(videoPath, musicPath string, duration float64, outPath string) []string {
	dur := strconv.FormatFloat(duration, 'f', 2, 64)
	if musicPath == "" {
		return []string{
			"-y",
			"-hide_banner",
			"-loglevel", "error",
			"-i", videoPath,
			"-t", dur,
			"-c", "copy",
			outPath,
		}
	}
	vol := strconv.FormatFloat(musicVolume, 'f', 1, 64)
	filter := "[1:a]volume=" + vol + ",afade=t=in:d=1.5,afade=t=out:st=" +
		strconv.FormatFloat(maxFloat(duration-1.5, 0), 'f', 2, 64) + ":d=1.5[m];" +
		"[0:a][m]amix=inputs=2:duration=first[mix]"
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-stream_loop", "-1",
		"-i", musicPath,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[mix]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-t", dur,
		outPath,
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Finalize trims the assembled video to the shorts ceiling and, when a music
// path is given, loops the bed under the narration with fades.
func (a *Assembler) Finalize(ctx context.Context, videoPath, musicPath, outPath string) error {
	dur, err := a.ProbeDuration(ctx, videoPath)
	if err != nil {
		return err
	}
	capped := capDuration(dur)
	if capped < dur {
		a.logger.Warn("video exceeds shorts limit, trimming", "duration", dur, "cap", capped)
	}
	return a.run(ctx, "finalize", finalizeArgs(videoPath, musicPath, capped, outPath))
}

// PickMusic selects a bed track for a mood. Search order narrows from
// mood-specific folders to the music root; within a folder the first track
// in sorted order wins so reruns stay reproducible.
func PickMusic(musicRoot, mood string) (string, bool) {
	mood = strings.ToLower(strings.TrimSpace(mood))
	searchDirs := []string{
		filepath.Join(musicRoot, "mood", mood),
		filepath.Join(musicRoot, mood),
		filepath.Join(musicRoot, "zen"),
		musicRoot,
	}
	for _, dir := range searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		var tracks []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".mp3", ".wav", ".m4a":
				tracks = append(tracks, e.Name())
			}
		}
		if len(tracks) > 0 {
			sort.Strings(tracks)
			return filepath.Join(dir, tracks[0]), true
		}
	}
	return "", false
}

func (a *Assembler) run(ctx context.Context, op string, args []string) error {
	a.logger.Debug("running ffmpeg", "op", op, "args", strings.Join(args, " "))
	cmd := commandContext(ctx, a.ffmpeg, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, "assembly", op,
			strings.TrimSpace(string(output)), err)
	}
	return nil
}
