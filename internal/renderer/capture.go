package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"fortuna/internal/services"
)

// Renderer drives headless Chrome over the scene template.
type Renderer struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Renderer, error) {
	if cfg.TemplatePath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "renderer", "new", "template path is required", nil)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "renderer", "new", "geometry and fps must be positive", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{cfg: cfg, logger: logger.With("component", "renderer")}, nil
}

// RenderScene captures the scene into framesDir and returns the frame paths
// in order. The browser is launched fresh per scene; a wedged page then costs
// one scene, not the whole run.
func (r *Renderer) RenderScene(ctx context.Context, sc Scene, framesDir string) ([]string, error) {
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("renderer: create frames dir: %w", err)
	}
	total := r.cfg.FrameCount(sc.Duration)
	if total <= 0 {
		return nil, services.Wrap(services.ErrValidation, "renderer", "render",
			fmt.Sprintf("scene %q has no frames (duration %.2fs)", sc.Section, sc.Duration), nil)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if r.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromePath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancelRun()

	pageURL := SceneURL(r.cfg.TemplatePath, sc)
	r.logger.Info("rendering scene", "section", sc.Section, "frames", total, "anim", AnimationFor(sc))

	if err := chromedp.Run(runCtx,
		chromedp.EmulateViewport(int64(r.cfg.Width), int64(r.cfg.Height)),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible("#text-container", chromedp.ByID),
	); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "renderer", "render", "load scene template", err)
	}

	frames := make([]string, 0, total)
	activeWord := -1
	for i := 0; i < total; i++ {
		t := float64(i) / float64(r.cfg.FPS)

		if idx := ActiveWordIndex(sc.Words, t); idx != activeWord && idx >= 0 {
			activeWord = idx
			if err := chromedp.Run(runCtx,
				chromedp.Evaluate(fmt.Sprintf("window.setWordActive(%d)", idx), nil),
			); err != nil {
				return nil, services.Wrap(services.ErrExternalTool, "renderer", "render", "advance karaoke highlight", err)
			}
		}

		var shot []byte
		if err := chromedp.Run(runCtx,
			chromedp.Evaluate(fmt.Sprintf("window.seek(%f)", t), nil),
			chromedp.CaptureScreenshot(&shot),
		); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "renderer", "render",
				fmt.Sprintf("capture frame %d/%d", i+1, total), err)
		}
		path := FramePath(framesDir, i)
		if err := os.WriteFile(path, shot, 0o644); err != nil {
			return nil, fmt.Errorf("renderer: write frame: %w", err)
		}
		frames = append(frames, path)
	}
	return frames, nil
}
