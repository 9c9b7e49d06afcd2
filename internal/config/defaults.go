package config

const (
	defaultConfigPath        = "~/.config/contentengine/config.toml"
	projectConfigName        = "contentengine.toml"
	defaultStagingDir        = "~/.local/share/contentengine/staging"
	defaultStateDir          = "~/.local/share/contentengine/state"
	defaultLogDir            = "~/.local/share/contentengine/logs"
	defaultDrivePageSize     = 100
	defaultLedgerSheet       = "Content Engine"
	defaultMonitorSheet      = "Backend Monitoring"
	defaultGoogleTimeout     = 120
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "anthropic/claude-3.5-sonnet"
	defaultLLMReferer        = "https://github.com/contentengine/contentengine"
	defaultLLMTitle          = "Content Engine Strategy"
	defaultLLMTimeout        = 60
	defaultWhisperBaseURL    = "https://api.openai.com/v1/audio/transcriptions"
	defaultWhisperModel      = "whisper-1"
	defaultWhisperTimeout    = 300
	defaultSubtitleMode      = "modern"
	defaultSubtitleFormat    = "ass"
	defaultHighlightMinLen   = 7
	defaultPlayResX          = 1080
	defaultPlayResY          = 1920
	defaultMaxWidthFraction  = 0.85
	defaultLineSpacing       = 5
	defaultPaddingX          = 30
	defaultPaddingY          = 15
	defaultCornerRadius      = 20
	defaultIntroMode         = "prepend"
	defaultIntroSeconds      = 6
	defaultIntroTitle        = "Watch This!"
	defaultShortMaxSeconds   = 180
	defaultVideoCodec        = "libx264"
	defaultAudioCodec        = "aac"
	defaultPreset            = "veryfast"
	defaultCRF               = 20
	defaultBatchSize         = 5
	defaultMaxAttempts       = 3
	defaultLeaseMinutes      = 120
	defaultStaleStagingHours = 24
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Drive: Drive{
			PageSize: defaultDrivePageSize,
		},
		Sheets: Sheets{
			LedgerSheet:  defaultLedgerSheet,
			MonitorSheet: defaultMonitorSheet,
		},
		Google: Google{
			TimeoutSeconds: defaultGoogleTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Transcription: Transcription{
			BaseURL:        defaultWhisperBaseURL,
			Model:          defaultWhisperModel,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Subtitles: Subtitles{
			Mode:               defaultSubtitleMode,
			Format:             defaultSubtitleFormat,
			HighlightMinLength: defaultHighlightMinLen,
			PlayResX:           defaultPlayResX,
			PlayResY:           defaultPlayResY,
		},
		Overlay: Overlay{
			MaxWidthFraction: defaultMaxWidthFraction,
			LineSpacing:      defaultLineSpacing,
			PaddingX:         defaultPaddingX,
			PaddingY:         defaultPaddingY,
			CornerRadius:     defaultCornerRadius,
		},
		Intro: Intro{
			Enabled:         true,
			Mode:            defaultIntroMode,
			Seconds:         defaultIntroSeconds,
			DefaultTitle:    defaultIntroTitle,
			ShortMaxSeconds: defaultShortMaxSeconds,
		},
		Media: Media{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
		},
		Workflow: Workflow{
			BatchSize:         defaultBatchSize,
			MaxAttempts:       defaultMaxAttempts,
			LeaseMinutes:      defaultLeaseMinutes,
			StaleStagingHours: defaultStaleStagingHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			ItemFailed:     true,
			BatchSummary:   true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
