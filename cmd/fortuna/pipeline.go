package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"fortuna/internal/assembly"
	"fortuna/internal/config"
	"fortuna/internal/generation"
	"fortuna/internal/ledger"
	"fortuna/internal/narration"
	"fortuna/internal/notifications"
	"fortuna/internal/renderer"
	"fortuna/internal/screenplay"
	"fortuna/internal/script"
	"fortuna/internal/services/googleai"
	"fortuna/internal/services/openrouter"
	"fortuna/internal/services/speech"
	"fortuna/internal/uploader"
	"fortuna/internal/workflow"
)

type pipeline struct {
	producer *workflow.Producer
	ledger   *ledger.Store
}

func (p *pipeline) close() {
	if p.ledger != nil {
		_ = p.ledger.Close()
	}
}

// buildPipeline wires every pipeline collaborator from configuration.
// displayName seeds placeholder content when all generation paths fail; pass
// the sign name for single-sign runs and leave it empty for sweeps.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, displayName string) (*pipeline, error) {
	orClient := openrouter.NewClient(openrouter.Config{
		BaseURL:        cfg.Generation.BaseURL,
		Referer:        cfg.Generation.Referer,
		Title:          cfg.Generation.Title,
		TimeoutSeconds: cfg.Generation.TimeoutSeconds,
	})

	var secondary generation.SecondaryProvider
	if cfg.GoogleAI.APIKey != "" {
		gemini, err := googleai.NewClient(ctx, googleai.Config{
			APIKey:  cfg.GoogleAI.APIKey,
			Model:   cfg.GoogleAI.Model,
			BaseURL: cfg.GoogleAI.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("configure gemini provider: %w", err)
		}
		secondary = gemini
	}

	policy, err := generation.ParsePolicy(cfg.Generation.FallbackPolicy)
	if err != nil {
		return nil, err
	}
	timing := generation.Timing{
		RateLimitCooldown: time.Duration(cfg.Generation.RateLimitCooldownSeconds) * time.Second,
		GenericCooldown:   time.Duration(cfg.Generation.RetryCooldownSeconds) * time.Second,
		PassPause:         time.Duration(cfg.Generation.PassPauseSeconds) * time.Second,
		SecondaryCooldown: time.Duration(cfg.Generation.SecondaryCooldownSeconds) * time.Second,
		SuccessCooldown:   time.Duration(cfg.Generation.SuccessCooldownSeconds) * time.Second,
		MaxPasses:         cfg.Generation.MaxPasses,
	}
	var pinned []generation.Candidate
	for _, model := range cfg.Generation.PinnedModels {
		pinned = append(pinned, generation.Candidate{ID: model})
	}

	newOrchestrator := func(secondaryFirst bool) (*generation.Orchestrator, error) {
		return generation.New(generation.Config{
			Backend:        orClient,
			Catalog:        orClient,
			Secondary:      secondary,
			Credentials:    generation.NewCredentials(cfg.GenerationCredentials()...),
			SecondaryFirst: secondaryFirst,
			Policy:         policy,
			Timing:         timing,
			DisplayName:    displayName,
			Candidates:     pinned,
			Logger:         logger,
		})
	}

	scriptGen, err := newOrchestrator(false)
	if err != nil {
		return nil, err
	}
	planGen, err := newOrchestrator(secondary != nil && cfg.GoogleAI.ScreenplayFirst)
	if err != nil {
		return nil, err
	}

	tts, err := speech.NewClient(speech.Config{
		Endpoint:       cfg.Speech.Endpoint,
		Voice:          cfg.Speech.Voice,
		SpeakingRate:   cfg.Speech.SpeakingRate,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
	})
	if err != nil {
		return nil, err
	}

	templatePath := cfg.Paths.TemplatePath
	if templatePath == "" {
		templatePath, err = renderer.EnsureTemplate(filepath.Join(cfg.Paths.WorkspaceDir, "assets"))
		if err != nil {
			return nil, err
		}
	}
	sceneRenderer, err := renderer.New(renderer.Config{
		TemplatePath: templatePath,
		Width:        cfg.Video.Width,
		Height:       cfg.Video.Height,
		FPS:          cfg.Video.FPS,
		ChromePath:   cfg.Video.ChromePath,
		Timeout:      time.Duration(cfg.Video.RenderTimeout) * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}

	var upload workflow.VideoUploader
	if cfg.YouTube.Enabled {
		client, err := uploader.NewClient(uploader.Config{
			ClientID:       cfg.YouTube.ClientID,
			ClientSecret:   cfg.YouTube.ClientSecret,
			RefreshToken:   cfg.YouTube.RefreshToken,
			PrivacyStatus:  cfg.YouTube.PrivacyStatus,
			TimeoutSeconds: cfg.YouTube.TimeoutSeconds,
		}, logger)
		if err != nil {
			return nil, err
		}
		upload = client
	}

	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		return nil, err
	}

	producer, err := workflow.New(cfg, workflow.Deps{
		Writer:    script.NewWriter(scriptGen, logger),
		Director:  screenplay.NewDirector(planGen, logger),
		Narrator:  narration.NewNarrator(tts, logger),
		Renderer:  sceneRenderer,
		Assembler: assembly.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger),
		Uploader:  upload,
		Ledger:    store,
		Notifier:  notifications.NewService(cfg),
		Logger:    logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &pipeline{producer: producer, ledger: store}, nil
}
