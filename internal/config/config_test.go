package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fortuna/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENROUTER_API_KEY", "OPENROUTER_API_KEY_BACKUP",
		"GOOGLE_AI_API_KEY", "GEMINI_API_KEY",
		"YOUTUBE_CLIENT_ID", "YOUTUBE_CLIENT_SECRET", "YOUTUBE_REFRESH_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	path := writeConfig(t, "")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Generation.APIKey != "or-key" {
		t.Fatalf("env fallback not applied: %q", cfg.Generation.APIKey)
	}
	if cfg.Generation.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("unexpected base url: %q", cfg.Generation.BaseURL)
	}
	if cfg.Generation.FallbackPolicy != "placeholder" {
		t.Fatalf("unexpected fallback policy: %q", cfg.Generation.FallbackPolicy)
	}
	if cfg.Generation.MaxPasses != 3 || cfg.Generation.RateLimitCooldownSeconds != 30 {
		t.Fatalf("unexpected generation defaults: %+v", cfg.Generation)
	}
	if cfg.Video.Width != 1080 || cfg.Video.Height != 1920 || cfg.Video.MaxDurationSeconds != 59 {
		t.Fatalf("unexpected video defaults: %+v", cfg.Video)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if strings.HasPrefix(cfg.Paths.WorkspaceDir, "~") {
		t.Fatalf("workspace dir not expanded: %q", cfg.Paths.WorkspaceDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearCredentialEnv(t)
	path := writeConfig(t, `
[generation]
api_key = "inline-key"
backup_api_key = "inline-backup"
fallback_policy = "FAIL"
pinned_models = [" google/gemini-2.0-flash-exp:free ", ""]

[workflow]
signs = ["Aries", "aries", " TAURUS "]

[logging]
format = "JSON"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.GenerationCredentials(); len(got) != 2 || got[0] != "inline-key" || got[1] != "inline-backup" {
		t.Fatalf("unexpected credentials: %v", got)
	}
	if cfg.Generation.FallbackPolicy != "fail" {
		t.Fatalf("policy not normalized: %q", cfg.Generation.FallbackPolicy)
	}
	if len(cfg.Generation.PinnedModels) != 1 || cfg.Generation.PinnedModels[0] != "google/gemini-2.0-flash-exp:free" {
		t.Fatalf("pinned models not trimmed: %v", cfg.Generation.PinnedModels)
	}
	if len(cfg.Workflow.Signs) != 2 || cfg.Workflow.Signs[0] != "aries" || cfg.Workflow.Signs[1] != "taurus" {
		t.Fatalf("signs not deduplicated: %v", cfg.Workflow.Signs)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format not normalized: %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	clearCredentialEnv(t)
	path := writeConfig(t, "")
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected credential validation error")
	}
}

func TestLoadRejectsBadFallbackPolicy(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "key")
	path := writeConfig(t, `
[generation]
fallback_policy = "explode"
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "fallback_policy") {
		t.Fatalf("expected fallback_policy error, got %v", err)
	}
}

func TestLoadRejectsLandscapeGeometry(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "key")
	path := writeConfig(t, `
[video]
width = 1920
height = 1080
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "portrait") {
		t.Fatalf("expected portrait geometry error, got %v", err)
	}
}

func TestLoadRequiresYouTubeCredentialsWhenEnabled(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "key")
	path := writeConfig(t, `
[youtube]
enabled = true
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "youtube.client_id") {
		t.Fatalf("expected youtube credential error, got %v", err)
	}
}

func TestLoadSecondaryOnlyConfiguration(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_AI_API_KEY", "gemini-key")
	path := writeConfig(t, "")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GoogleAI.APIKey != "gemini-key" {
		t.Fatalf("gemini env fallback not applied: %q", cfg.GoogleAI.APIKey)
	}
	if len(cfg.GenerationCredentials()) != 0 {
		t.Fatalf("expected no primary credentials, got %v", cfg.GenerationCredentials())
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "key")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample config not detected")
	}
	if cfg.Video.MaxDurationSeconds != 59 {
		t.Fatalf("sample defaults drifted: %+v", cfg.Video)
	}
}
