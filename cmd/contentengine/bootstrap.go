package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contentengine/internal/config"
	"contentengine/internal/layout"
	"contentengine/internal/media/ffmpeg"
	"contentengine/internal/media/ffprobe"
	"contentengine/internal/metrics"
	"contentengine/internal/overlay"
	"contentengine/internal/pipeline"
	"contentengine/internal/queue"
	"contentengine/internal/services/drive"
	"contentengine/internal/services/googleauth"
	"contentengine/internal/services/llm"
	"contentengine/internal/services/sheets"
	"contentengine/internal/services/whisper"
	"contentengine/internal/strategy"
	"contentengine/internal/subtitles"
	"contentengine/internal/tracking"
	"contentengine/internal/workflow"
)

// remoteClients are the Google API clients shared by the run and check
// commands. Ledger is nil when no spreadsheet is configured.
type remoteClients struct {
	Drive  *drive.Client
	Ledger *sheets.Client
}

func connectRemote(ctx context.Context, cfg *config.Config) (remoteClients, error) {
	httpClient, err := googleauth.HTTPClient(ctx, cfg.Google)
	if err != nil {
		return remoteClients{}, err
	}
	if cfg.Google.TimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(cfg.Google.TimeoutSeconds) * time.Second
	}
	driveClient, err := drive.New(ctx, httpClient, cfg.Drive.PageSize)
	if err != nil {
		return remoteClients{}, fmt.Errorf("drive client: %w", err)
	}
	clients := remoteClients{Drive: driveClient}
	if cfg.TrackingRemote() {
		ledger, err := sheets.New(ctx, httpClient, sheets.Config{
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			LedgerSheet:   cfg.Sheets.LedgerSheet,
			MonitorSheet:  cfg.Sheets.MonitorSheet,
		}, nil)
		if err != nil {
			return remoteClients{}, fmt.Errorf("sheets client: %w", err)
		}
		clients.Ledger = ledger
	}
	return clients, nil
}

func newTracker(cfg *config.Config, store *queue.Store, ledger *sheets.Client, logger *slog.Logger) *tracking.Tracker {
	policy := tracking.Policy{
		LeaseTTL:    time.Duration(cfg.Workflow.LeaseMinutes) * time.Minute,
		MaxAttempts: cfg.Workflow.MaxAttempts,
	}
	if ledger == nil {
		return tracking.New(store, nil, policy, logger)
	}
	return tracking.New(store, ledger, policy, logger)
}

func newCompiler(cfg *config.Config) *subtitles.Compiler {
	return subtitles.NewCompiler(subtitles.StyleTable(cfg.Subtitles.Styles), subtitles.Options{
		PlayResX:           cfg.Subtitles.PlayResX,
		PlayResY:           cfg.Subtitles.PlayResY,
		HighlightWords:     cfg.Subtitles.HighlightWords,
		HighlightMinLength: cfg.Subtitles.HighlightMinLength,
	})
}

func newTitleRenderer(cfg *config.Config) *overlay.Renderer {
	opts := layout.DefaultOptions()
	opts.MaxWidthFraction = cfg.Overlay.MaxWidthFraction
	opts.LineSpacing = cfg.Overlay.LineSpacing
	opts.PaddingX = cfg.Overlay.PaddingX
	opts.PaddingY = cfg.Overlay.PaddingY
	opts.CornerRadius = cfg.Overlay.CornerRadius
	return overlay.NewRenderer(overlay.NewFontProvider(cfg.Overlay.FontPath), opts, overlay.DefaultPalette())
}

// buildManager wires every collaborator of a batch run.
func buildManager(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger) (*workflow.Manager, error) {
	remote, err := connectRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tracker := newTracker(cfg, store, remote.Ledger, logger)

	speech := whisper.NewClient(whisper.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Model:          cfg.Transcription.Model,
		Language:       cfg.Transcription.Language,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
	})
	chat := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	steps := pipeline.Build(pipeline.Dependencies{
		Config:     cfg,
		Files:      remote.Drive,
		Probe:      ffprobe.Inspect,
		Encoder:    ffmpeg.New(ffmpeg.SettingsFromConfig(cfg), logger),
		Speech:     speech,
		Strategist: strategy.NewGenerator(chat),
		Compiler:   newCompiler(cfg),
		Titles:     newTitleRenderer(cfg),
		Recorder:   tracker,
		Duplicates: store,
		Logger:     logger,
	})

	return workflow.NewManager(cfg, store, tracker, remote.Drive, steps, logger,
		workflow.WithMetrics(metrics.NewCollector()),
	), nil
}
