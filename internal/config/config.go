package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	LedgerPath   string `toml:"ledger_path"`
	// TemplatePath overrides the built-in render template. Blank means the
	// embedded template is materialized under the workspace on each run.
	TemplatePath string `toml:"template_path"`
	// MusicDir points at a local background music library organized by mood.
	// Blank disables the music bed.
	MusicDir string `toml:"music_dir"`
}

// Generation contains the OpenRouter connection and fallback settings shared
// by every text generation task.
type Generation struct {
	APIKey         string `toml:"api_key"`
	BackupAPIKey   string `toml:"backup_api_key"`
	BaseURL        string `toml:"base_url"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// FallbackPolicy selects what happens when every provider path fails:
	// "placeholder" substitutes safe default content, "fail" aborts the run.
	FallbackPolicy string `toml:"fallback_policy"`

	// PinnedModels bypasses catalog discovery entirely when set.
	PinnedModels []string `toml:"pinned_models"`

	MaxPasses                int `toml:"max_passes"`
	RateLimitCooldownSeconds int `toml:"rate_limit_cooldown_seconds"`
	RetryCooldownSeconds     int `toml:"retry_cooldown_seconds"`
	PassPauseSeconds         int `toml:"pass_pause_seconds"`
	SecondaryCooldownSeconds int `toml:"secondary_cooldown_seconds"`
	SuccessCooldownSeconds   int `toml:"success_cooldown_seconds"`
}

// GoogleAI contains the Gemini secondary provider settings.
type GoogleAI struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	// ScreenplayFirst routes screenplay generation through Gemini before the
	// OpenRouter candidates rather than keeping it as a last resort.
	ScreenplayFirst bool `toml:"screenplay_first"`
}

// Speech contains configuration for narration synthesis.
type Speech struct {
	Endpoint       string  `toml:"endpoint"`
	Voice          string  `toml:"voice"`
	SpeakingRate   float64 `toml:"speaking_rate"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Video contains configuration for frame rendering and assembly.
type Video struct {
	Width              int    `toml:"width"`
	Height             int    `toml:"height"`
	FPS                int    `toml:"fps"`
	MaxDurationSeconds int    `toml:"max_duration_seconds"`
	ChromePath         string `toml:"chrome_path"`
	RenderTimeout      int    `toml:"render_timeout"`
}

// YouTube contains configuration for the upload stage.
type YouTube struct {
	Enabled        bool   `toml:"enabled"`
	ClientID       string `toml:"client_id"`
	ClientSecret   string `toml:"client_secret"`
	RefreshToken   string `toml:"refresh_token"`
	PrivacyStatus  string `toml:"privacy_status"`
	CategoryID     string `toml:"category_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Generation     bool   `toml:"generation"`
	Render         bool   `toml:"render"`
	Upload         bool   `toml:"upload"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for production runs.
type Workflow struct {
	// Signs limits a full production run to the named zodiac signs. Empty
	// means all twelve.
	Signs []string `toml:"signs"`
	// SignPauseSeconds separates per-sign productions in a full run.
	SignPauseSeconds int `toml:"sign_pause_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Fortuna.
//
// Configuration sections by subsystem:
//   - Paths: workspace, output, log directories and the production ledger
//   - Generation: OpenRouter connection and fallback orchestration knobs
//   - GoogleAI: Gemini secondary provider
//   - Speech: narration synthesis service
//   - Video: frame rendering and assembly geometry
//   - YouTube: upload credentials and privacy
//   - Notifications: ntfy push notification settings
//   - Workflow: production run pacing
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Generation    Generation    `toml:"generation"`
	GoogleAI      GoogleAI      `toml:"google_ai"`
	Speech        Speech        `toml:"speech"`
	Video         Video         `toml:"video"`
	YouTube       YouTube       `toml:"youtube"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fortuna/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fortuna.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for production runs. The
// output directory is created on a best-effort basis so configuration loads
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	if dir := filepath.Dir(c.Paths.LedgerPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for video assembly.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// GenerationCredentials returns the primary and backup API keys in rotation
// order, omitting blanks.
func (c *Config) GenerationCredentials() []string {
	keys := make([]string, 0, 2)
	if key := strings.TrimSpace(c.Generation.APIKey); key != "" {
		keys = append(keys, key)
	}
	if key := strings.TrimSpace(c.Generation.BackupAPIKey); key != "" {
		keys = append(keys, key)
	}
	return keys
}
