package config

import (
	"errors"
	"fmt"
	"strings"

	"contentengine/internal/subtitles"
)

// Validate ensures the configuration is internally consistent. It does not
// require remote identifiers; see RequireRemote.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateOverlay(); err != nil {
		return err
	}
	if err := c.validateIntro(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireRemote checks the identifiers a batch run cannot start without.
func (c *Config) RequireRemote() error {
	var missing []string
	if strings.TrimSpace(c.Drive.UploadFolderID) == "" {
		missing = append(missing, "drive.upload_folder_id (GOOGLE_DRIVE_FOLDER_ID_UPLOAD)")
	}
	if strings.TrimSpace(c.Drive.FinalFolderID) == "" {
		missing = append(missing, "drive.final_folder_id (GOOGLE_DRIVE_FOLDER_ID_FINAL)")
	}
	if strings.TrimSpace(c.Google.CredentialsFile) == "" && strings.TrimSpace(c.Google.CredentialsJSON) == "" {
		missing = append(missing, "google.credentials_file (GOOGLE_APPLICATION_CREDENTIALS)")
	}
	if strings.TrimSpace(c.Transcription.APIKey) == "" {
		missing = append(missing, "transcription.api_key (OPENAI_API_KEY)")
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, "llm.api_key (OPENROUTER_API_KEY)")
	}
	if len(missing) == 0 {
		return nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		path = defaultConfigPath
	}
	return fmt.Errorf("missing required settings: %s. Set them in %s (create with 'contentengine config init') or via environment", strings.Join(missing, ", "), path)
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.batch_size":    c.Workflow.BatchSize,
		"workflow.max_attempts":  c.Workflow.MaxAttempts,
		"workflow.lease_minutes": c.Workflow.LeaseMinutes,
		"drive.page_size":        c.Drive.PageSize,
	}); err != nil {
		return err
	}
	if c.Workflow.StaleStagingHours < 0 {
		return errors.New("workflow.stale_staging_hours must be zero or positive")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if _, err := subtitles.ParseMode(c.Subtitles.Mode); err != nil {
		return fmt.Errorf("subtitles.mode: %w", err)
	}
	if _, err := subtitles.ParseFormat(c.Subtitles.Format); err != nil {
		return fmt.Errorf("subtitles.format: %w", err)
	}
	if c.Subtitles.PlayResX <= 0 || c.Subtitles.PlayResY <= 0 {
		return errors.New("subtitles.play_res_x and play_res_y must be positive")
	}
	if err := subtitles.StyleTable(c.Subtitles.Styles).Validate(); err != nil {
		return fmt.Errorf("subtitles.styles: %w", err)
	}
	return nil
}

func (c *Config) validateOverlay() error {
	if c.Overlay.MaxWidthFraction <= 0 || c.Overlay.MaxWidthFraction > 1 {
		return errors.New("overlay.max_width_fraction must be in (0, 1]")
	}
	if c.Overlay.LineSpacing < 0 || c.Overlay.PaddingX < 0 || c.Overlay.PaddingY < 0 || c.Overlay.CornerRadius < 0 {
		return errors.New("overlay spacing, padding and corner_radius must not be negative")
	}
	return nil
}

func (c *Config) validateIntro() error {
	switch c.Intro.Mode {
	case "prepend", "overlay":
	default:
		return fmt.Errorf("intro.mode must be \"prepend\" or \"overlay\", got %q", c.Intro.Mode)
	}
	if c.Intro.Seconds <= 0 {
		return errors.New("intro.seconds must be positive")
	}
	if c.Intro.ShortMaxSeconds <= 0 {
		return errors.New("intro.short_max_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"google.timeout_seconds":        c.Google.TimeoutSeconds,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"transcription.timeout_seconds": c.Transcription.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
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
