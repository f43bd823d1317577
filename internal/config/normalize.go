package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeGeneration(); err != nil {
		return err
	}
	c.normalizeGoogleAI()
	c.normalizeSpeech()
	c.normalizeVideo()
	c.normalizeYouTube()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = defaultLedgerPath
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.TemplatePath) != "" {
		if c.Paths.TemplatePath, err = expandPath(c.Paths.TemplatePath); err != nil {
			return fmt.Errorf("paths.template_path: %w", err)
		}
	}
	if strings.TrimSpace(c.Paths.MusicDir) != "" {
		if c.Paths.MusicDir, err = expandPath(c.Paths.MusicDir); err != nil {
			return fmt.Errorf("paths.music_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeGeneration() error {
	c.Generation.APIKey = strings.TrimSpace(c.Generation.APIKey)
	if c.Generation.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Generation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Generation.BackupAPIKey = strings.TrimSpace(c.Generation.BackupAPIKey)
	if c.Generation.BackupAPIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY_BACKUP"); ok {
			c.Generation.BackupAPIKey = strings.TrimSpace(value)
		}
	}
	c.Generation.BaseURL = strings.TrimSpace(c.Generation.BaseURL)
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = defaultGenerationURL
	}
	c.Generation.Referer = strings.TrimSpace(c.Generation.Referer)
	if c.Generation.Referer == "" {
		c.Generation.Referer = defaultReferer
	}
	c.Generation.Title = strings.TrimSpace(c.Generation.Title)
	if c.Generation.Title == "" {
		c.Generation.Title = defaultTitle
	}
	if c.Generation.TimeoutSeconds <= 0 {
		c.Generation.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.Generation.FallbackPolicy = strings.ToLower(strings.TrimSpace(c.Generation.FallbackPolicy))
	if c.Generation.FallbackPolicy == "" {
		c.Generation.FallbackPolicy = defaultFallbackPolicy
	}
	if c.Generation.MaxPasses <= 0 {
		c.Generation.MaxPasses = defaultMaxPasses
	}
	if c.Generation.RateLimitCooldownSeconds <= 0 {
		c.Generation.RateLimitCooldownSeconds = defaultRateLimitCooldown
	}
	if c.Generation.RetryCooldownSeconds <= 0 {
		c.Generation.RetryCooldownSeconds = defaultRetryCooldown
	}
	if c.Generation.PassPauseSeconds <= 0 {
		c.Generation.PassPauseSeconds = defaultPassPause
	}
	if c.Generation.SecondaryCooldownSeconds <= 0 {
		c.Generation.SecondaryCooldownSeconds = defaultSecondaryCooldown
	}
	if c.Generation.SuccessCooldownSeconds <= 0 {
		c.Generation.SuccessCooldownSeconds = defaultSuccessCooldown
	}
	models := make([]string, 0, len(c.Generation.PinnedModels))
	for _, model := range c.Generation.PinnedModels {
		if trimmed := strings.TrimSpace(model); trimmed != "" {
			models = append(models, trimmed)
		}
	}
	c.Generation.PinnedModels = models
	return nil
}

func (c *Config) normalizeGoogleAI() {
	c.GoogleAI.APIKey = strings.TrimSpace(c.GoogleAI.APIKey)
	if c.GoogleAI.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_AI_API_KEY"); ok {
			c.GoogleAI.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.GoogleAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.GoogleAI.Model = strings.TrimSpace(c.GoogleAI.Model)
	if c.GoogleAI.Model == "" {
		c.GoogleAI.Model = defaultGeminiModel
	}
	c.GoogleAI.BaseURL = strings.TrimSpace(c.GoogleAI.BaseURL)
}

func (c *Config) normalizeSpeech() {
	c.Speech.Endpoint = strings.TrimSpace(c.Speech.Endpoint)
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
	if c.Speech.SpeakingRate <= 0 {
		c.Speech.SpeakingRate = defaultSpeechRate
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizeVideo() {
	if c.Video.Width <= 0 {
		c.Video.Width = defaultVideoWidth
	}
	if c.Video.Height <= 0 {
		c.Video.Height = defaultVideoHeight
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultVideoFPS
	}
	if c.Video.MaxDurationSeconds <= 0 {
		c.Video.MaxDurationSeconds = defaultVideoMaxDuration
	}
	if c.Video.RenderTimeout <= 0 {
		c.Video.RenderTimeout = defaultRenderTimeout
	}
	c.Video.ChromePath = strings.TrimSpace(c.Video.ChromePath)
}

func (c *Config) normalizeYouTube() {
	c.YouTube.ClientID = strings.TrimSpace(c.YouTube.ClientID)
	if c.YouTube.ClientID == "" {
		if value, ok := os.LookupEnv("YOUTUBE_CLIENT_ID"); ok {
			c.YouTube.ClientID = strings.TrimSpace(value)
		}
	}
	c.YouTube.ClientSecret = strings.TrimSpace(c.YouTube.ClientSecret)
	if c.YouTube.ClientSecret == "" {
		if value, ok := os.LookupEnv("YOUTUBE_CLIENT_SECRET"); ok {
			c.YouTube.ClientSecret = strings.TrimSpace(value)
		}
	}
	c.YouTube.RefreshToken = strings.TrimSpace(c.YouTube.RefreshToken)
	if c.YouTube.RefreshToken == "" {
		if value, ok := os.LookupEnv("YOUTUBE_REFRESH_TOKEN"); ok {
			c.YouTube.RefreshToken = strings.TrimSpace(value)
		}
	}
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = defaultCategoryID
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		c.YouTube.TimeoutSeconds = defaultUploadTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	signs := make([]string, 0, len(c.Workflow.Signs))
	seen := make(map[string]struct{}, len(c.Workflow.Signs))
	for _, sign := range c.Workflow.Signs {
		normalized := strings.ToLower(strings.TrimSpace(sign))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		signs = append(signs, normalized)
	}
	c.Workflow.Signs = signs
	if c.Workflow.SignPauseSeconds < 0 {
		c.Workflow.SignPauseSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
