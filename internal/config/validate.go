package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.APIKey == "" && c.GoogleAI.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fortuna/config.toml"
		}
		return fmt.Errorf("generation.api_key or google_ai.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'fortuna config init')", defaultPath)
	}
	switch c.Generation.FallbackPolicy {
	case "placeholder", "fail":
	default:
		return fmt.Errorf("generation.fallback_policy must be \"placeholder\" or \"fail\", got %q", c.Generation.FallbackPolicy)
	}
	if err := ensurePositiveMap(map[string]int{
		"generation.timeout_seconds":             c.Generation.TimeoutSeconds,
		"generation.max_passes":                  c.Generation.MaxPasses,
		"generation.rate_limit_cooldown_seconds": c.Generation.RateLimitCooldownSeconds,
		"generation.retry_cooldown_seconds":      c.Generation.RetryCooldownSeconds,
		"generation.pass_pause_seconds":          c.Generation.PassPauseSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.width":                c.Video.Width,
		"video.height":               c.Video.Height,
		"video.fps":                  c.Video.FPS,
		"video.max_duration_seconds": c.Video.MaxDurationSeconds,
		"video.render_timeout":       c.Video.RenderTimeout,
	}); err != nil {
		return err
	}
	// Shorts are portrait; a landscape geometry is almost always a typo.
	if c.Video.Width >= c.Video.Height {
		return errors.New("video.width must be smaller than video.height (portrait geometry)")
	}
	if c.Video.MaxDurationSeconds > 60 {
		return errors.New("video.max_duration_seconds must be 60 or less")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if !c.YouTube.Enabled {
		return nil
	}
	if strings.TrimSpace(c.YouTube.ClientID) == "" {
		return errors.New("youtube.client_id must be set when youtube.enabled is true (or set YOUTUBE_CLIENT_ID)")
	}
	if strings.TrimSpace(c.YouTube.ClientSecret) == "" {
		return errors.New("youtube.client_secret must be set when youtube.enabled is true (or set YOUTUBE_CLIENT_SECRET)")
	}
	if strings.TrimSpace(c.YouTube.RefreshToken) == "" {
		return errors.New("youtube.refresh_token must be set when youtube.enabled is true (or set YOUTUBE_REFRESH_TOKEN)")
	}
	switch c.YouTube.PrivacyStatus {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("youtube.privacy_status must be public, unlisted, or private, got %q", c.YouTube.PrivacyStatus)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
