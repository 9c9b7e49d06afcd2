package config

import (
	"fmt"
	"os"
	"strings"

	"contentengine/internal/subtitles"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGoogle()
	if err := c.normalizeCredentials(); err != nil {
		return err
	}
	c.normalizeModels()
	if err := c.normalizeRendering(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGoogle() {
	c.Drive.UploadFolderID = envFallback(c.Drive.UploadFolderID, "GOOGLE_DRIVE_FOLDER_ID_UPLOAD")
	c.Drive.FinalFolderID = envFallback(c.Drive.FinalFolderID, "GOOGLE_DRIVE_FOLDER_ID_FINAL")
	c.Sheets.SpreadsheetID = envFallback(c.Sheets.SpreadsheetID, "GOOGLE_SHEET_ID")
	c.Sheets.LedgerSheet = strings.TrimSpace(c.Sheets.LedgerSheet)
	if c.Sheets.LedgerSheet == "" {
		c.Sheets.LedgerSheet = defaultLedgerSheet
	}
	c.Sheets.MonitorSheet = strings.TrimSpace(c.Sheets.MonitorSheet)
	if c.Sheets.MonitorSheet == "" {
		c.Sheets.MonitorSheet = defaultMonitorSheet
	}
}

func (c *Config) normalizeCredentials() error {
	c.Google.CredentialsFile = envFallback(c.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	c.Google.CredentialsJSON = envFallback(c.Google.CredentialsJSON, "GOOGLE_SERVICE_ACCOUNT_JSON")
	var err error
	if c.Google.CredentialsFile, err = expandPath(c.Google.CredentialsFile); err != nil {
		return fmt.Errorf("google.credentials_file: %w", err)
	}
	if c.Google.TokenFile, err = expandPath(c.Google.TokenFile); err != nil {
		return fmt.Errorf("google.token_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeModels() {
	c.LLM.APIKey = envFallback(c.LLM.APIKey, "OPENROUTER_API_KEY")
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.Transcription.APIKey = envFallback(c.Transcription.APIKey, "OPENAI_API_KEY")
	c.Transcription.BaseURL = strings.TrimSpace(c.Transcription.BaseURL)
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaultWhisperBaseURL
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
}

func (c *Config) normalizeRendering() error {
	c.Subtitles.Mode = strings.ToLower(strings.TrimSpace(c.Subtitles.Mode))
	c.Subtitles.Format = strings.ToLower(strings.TrimSpace(c.Subtitles.Format))
	if len(c.Subtitles.Styles) == 0 {
		c.Subtitles.Styles = subtitles.DefaultStyles()
	}
	var err error
	if c.Subtitles.FontsDir, err = expandPath(c.Subtitles.FontsDir); err != nil {
		return fmt.Errorf("subtitles.fonts_dir: %w", err)
	}
	if c.Overlay.FontPath, err = expandPath(c.Overlay.FontPath); err != nil {
		return fmt.Errorf("overlay.font_path: %w", err)
	}
	c.Intro.Mode = strings.ToLower(strings.TrimSpace(c.Intro.Mode))
	if strings.TrimSpace(c.Intro.DefaultTitle) == "" {
		c.Intro.DefaultTitle = defaultIntroTitle
	}
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = "ffmpeg"
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = "ffprobe"
	}
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
