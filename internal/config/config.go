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

	"contentengine/internal/subtitles"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Drive identifies the backlog and destination folders.
type Drive struct {
	UploadFolderID string `toml:"upload_folder_id"`
	FinalFolderID  string `toml:"final_folder_id"`
	PageSize       int    `toml:"page_size"`
}

// Sheets identifies the tracking spreadsheet.
type Sheets struct {
	SpreadsheetID string `toml:"spreadsheet_id"`
	LedgerSheet   string `toml:"ledger_sheet"`
	MonitorSheet  string `toml:"monitor_sheet"`
}

// Google holds credential locations shared by the Drive and Sheets clients.
type Google struct {
	CredentialsFile string `toml:"credentials_file"`
	CredentialsJSON string `toml:"credentials_json"`
	TokenFile       string `toml:"token_file"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// LLM contains chat-completion connection settings for strategy generation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription contains speech-to-text connection settings.
type Transcription struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Subtitles selects the subtitle mode and styling.
type Subtitles struct {
	Mode               string            `toml:"mode"`
	Format             string            `toml:"format"`
	FontsDir           string            `toml:"fonts_dir"`
	HighlightWords     bool              `toml:"highlight_words"`
	HighlightMinLength int               `toml:"highlight_min_length"`
	PlayResX           int               `toml:"play_res_x"`
	PlayResY           int               `toml:"play_res_y"`
	Styles             []subtitles.Style `toml:"styles"`
}

// Overlay controls the title card renderer.
type Overlay struct {
	FontPath         string  `toml:"font_path"`
	MaxWidthFraction float64 `toml:"max_width_fraction"`
	LineSpacing      float64 `toml:"line_spacing"`
	PaddingX         float64 `toml:"padding_x"`
	PaddingY         float64 `toml:"padding_y"`
	CornerRadius     float64 `toml:"corner_radius"`
}

// Intro controls the title intro added to short portrait videos.
type Intro struct {
	Enabled         bool   `toml:"enabled"`
	Mode            string `toml:"mode"`
	Seconds         int    `toml:"seconds"`
	DefaultTitle    string `toml:"default_title"`
	ShortMaxSeconds int    `toml:"short_max_seconds"`
}

// Media names the encoder binaries and output codec settings.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	Preset        string `toml:"preset"`
	CRF           int    `toml:"crf"`
}

// Workflow bounds a batch run.
type Workflow struct {
	BatchSize         int `toml:"batch_size"`
	MaxAttempts       int `toml:"max_attempts"`
	LeaseMinutes      int `toml:"lease_minutes"`
	StaleStagingHours int `toml:"stale_staging_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	ItemSucceeded  bool   `toml:"item_succeeded"`
	ItemFailed     bool   `toml:"item_failed"`
	BatchSummary   bool   `toml:"batch_summary"`
}

// Metrics configures the Prometheus textfile written after each run.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: staging, state (queue database and run lock), logs
//   - Drive, Sheets, Google: backlog folders, tracking spreadsheet, credentials
//   - LLM, Transcription: model endpoints for strategy and speech-to-text
//   - Subtitles, Overlay, Intro: artifact rendering
//   - Media: ffmpeg/ffprobe binaries and codec settings
//   - Workflow: batch cap, retry attempts, lease TTL
//   - Notifications, Metrics, Logging: operator visibility
type Config struct {
	Paths         Paths         `toml:"paths"`
	Drive         Drive         `toml:"drive"`
	Sheets        Sheets        `toml:"sheets"`
	Google        Google        `toml:"google"`
	LLM           LLM           `toml:"llm"`
	Transcription Transcription `toml:"transcription"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Overlay       Overlay       `toml:"overlay"`
	Intro         Intro         `toml:"intro"`
	Media         Media         `toml:"media"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
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
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
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

// EnsureDirectories creates the local directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath is the sqlite file holding the local processing ledger.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// LockPath is the file guarding against concurrent runs on this host.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "run.lock")
}

// TrackingRemote reports whether a spreadsheet is configured.
func (c *Config) TrackingRemote() bool {
	return strings.TrimSpace(c.Sheets.SpreadsheetID) != ""
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
