package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fortuna/internal/config"
)

const userAgent = "Fortuna-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyRunStarted(ctx context.Context, sign, task string) error
	NotifyScriptReady(ctx context.Context, sign, task string, sections int) error
	NotifyRenderCompleted(ctx context.Context, sign string, duration time.Duration) error
	NotifyVideoReady(ctx context.Context, sign, outputPath string) error
	NotifyUploadCompleted(ctx context.Context, sign, videoID, publishAt string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned. Event
// classes can be muted individually in config.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		generation: cfg.Notifications.Generation,
		render:     cfg.Notifications.Render,
		upload:     cfg.Notifications.Upload,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	generation bool
	render     bool
	upload     bool
	errors     bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, sign, task string) error {
	if !n.generation {
		return nil
	}
	data := payload{
		title:   "Fortuna - Run Started",
		message: fmt.Sprintf("🔮 Producing %s video for %s", strings.TrimSpace(task), strings.TrimSpace(sign)),
		tags:    []string{"fortuna", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScriptReady(ctx context.Context, sign, task string, sections int) error {
	if !n.generation {
		return nil
	}
	data := payload{
		title:   "Fortuna - Script Ready",
		message: fmt.Sprintf("✍️ %s script for %s: %d sections", strings.TrimSpace(task), strings.TrimSpace(sign), sections),
		tags:    []string{"fortuna", "script", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, sign string, duration time.Duration) error {
	if !n.render {
		return nil
	}
	data := payload{
		title:   "Fortuna - Render Complete",
		message: fmt.Sprintf("🎬 Rendered %s in %s", strings.TrimSpace(sign), duration.Round(time.Second)),
		tags:    []string{"fortuna", "render", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoReady(ctx context.Context, sign, outputPath string) error {
	if !n.render {
		return nil
	}
	message := fmt.Sprintf("✅ Video ready: %s", strings.TrimSpace(sign))
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, outputPath)
	}
	data := payload{
		title:    "Fortuna - Video Ready",
		message:  message,
		tags:     []string{"fortuna", "video", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, sign, videoID, publishAt string) error {
	if !n.upload {
		return nil
	}
	message := fmt.Sprintf("🚀 Uploaded %s (video %s)", strings.TrimSpace(sign), strings.TrimSpace(videoID))
	if publishAt = strings.TrimSpace(publishAt); publishAt != "" {
		message = fmt.Sprintf("%s\nGoes public at %s", message, publishAt)
	}
	data := payload{
		title:   "Fortuna - Upload Complete",
		message: message,
		tags:    []string{"fortuna", "upload", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Fortuna - Error",
		message:  builder.String(),
		tags:     []string{"fortuna", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Fortuna - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"fortuna", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, string) error              { return nil }
func (noopService) NotifyScriptReady(context.Context, string, string, int) error        { return nil }
func (noopService) NotifyRenderCompleted(context.Context, string, time.Duration) error  { return nil }
func (noopService) NotifyVideoReady(context.Context, string, string) error              { return nil }
func (noopService) NotifyUploadCompleted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
