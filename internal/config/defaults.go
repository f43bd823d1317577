package config

const (
	defaultWorkspaceDir   = "~/.local/share/fortuna/workspace"
	defaultOutputDir      = "~/fortuna/videos"
	defaultLogDir         = "~/.local/share/fortuna/logs"
	defaultLedgerPath     = "~/.local/share/fortuna/ledger.db"
	defaultLogRetention   = 60
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultGenerationURL  = "https://openrouter.ai/api/v1"
	defaultReferer        = "https://github.com/fortuna-sh/fortuna"
	defaultTitle          = "Fortuna Shorts Producer"
	defaultTimeoutSeconds = 60
	defaultFallbackPolicy = "placeholder"
	defaultMaxPasses      = 3

	defaultRateLimitCooldown = 30
	defaultRetryCooldown     = 3
	defaultPassPause         = 30
	defaultSecondaryCooldown = 5
	defaultSuccessCooldown   = 2

	defaultGeminiModel = "gemini-2.0-flash"

	defaultSpeechVoice   = "en-US-AriaNeural"
	defaultSpeechRate    = 1.0
	defaultSpeechTimeout = 120

	defaultVideoWidth       = 1080
	defaultVideoHeight      = 1920
	defaultVideoFPS         = 30
	defaultVideoMaxDuration = 59
	defaultRenderTimeout    = 120

	defaultPrivacyStatus  = "public"
	defaultCategoryID     = "24"
	defaultUploadTimeout  = 600
	defaultNotifyTimeout  = 10
	defaultSignPauseSecs  = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			LedgerPath:   defaultLedgerPath,
		},
		Generation: Generation{
			BaseURL:                  defaultGenerationURL,
			Referer:                  defaultReferer,
			Title:                    defaultTitle,
			TimeoutSeconds:           defaultTimeoutSeconds,
			FallbackPolicy:           defaultFallbackPolicy,
			MaxPasses:                defaultMaxPasses,
			RateLimitCooldownSeconds: defaultRateLimitCooldown,
			RetryCooldownSeconds:     defaultRetryCooldown,
			PassPauseSeconds:         defaultPassPause,
			SecondaryCooldownSeconds: defaultSecondaryCooldown,
			SuccessCooldownSeconds:   defaultSuccessCooldown,
		},
		GoogleAI: GoogleAI{
			Model:           defaultGeminiModel,
			ScreenplayFirst: true,
		},
		Speech: Speech{
			Voice:          defaultSpeechVoice,
			SpeakingRate:   defaultSpeechRate,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Video: Video{
			Width:              defaultVideoWidth,
			Height:             defaultVideoHeight,
			FPS:                defaultVideoFPS,
			MaxDurationSeconds: defaultVideoMaxDuration,
			RenderTimeout:      defaultRenderTimeout,
		},
		YouTube: YouTube{
			PrivacyStatus:  defaultPrivacyStatus,
			CategoryID:     defaultCategoryID,
			TimeoutSeconds: defaultUploadTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Generation:     true,
			Render:         true,
			Upload:         true,
			Errors:         true,
		},
		Workflow: Workflow{
			SignPauseSeconds: defaultSignPauseSecs,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
