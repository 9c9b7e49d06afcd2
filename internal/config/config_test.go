package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"contentengine/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_DRIVE_FOLDER_ID_UPLOAD", "GOOGLE_DRIVE_FOLDER_ID_FINAL", "GOOGLE_SHEET_ID",
		"GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_SERVICE_ACCOUNT_JSON",
		"OPENAI_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPathsAndReadsEnv(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_DRIVE_FOLDER_ID_UPLOAD", "upload-folder")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "contentengine", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if want := filepath.Join(tempHome, ".local", "share", "contentengine", "staging"); cfg.Paths.StagingDir != want {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, want)
	}
	if cfg.QueueDBPath() != filepath.Join(tempHome, ".local", "share", "contentengine", "state", "queue.db") {
		t.Fatalf("unexpected queue path %q", cfg.QueueDBPath())
	}
	if cfg.Drive.UploadFolderID != "upload-folder" {
		t.Fatalf("expected upload folder from env, got %q", cfg.Drive.UploadFolderID)
	}
	if cfg.Transcription.APIKey != "sk-test" {
		t.Fatalf("expected transcription key from env, got %q", cfg.Transcription.APIKey)
	}
	if cfg.Workflow.BatchSize != 5 || cfg.Workflow.MaxAttempts != 3 {
		t.Fatalf("unexpected workflow defaults %+v", cfg.Workflow)
	}
	if len(cfg.Subtitles.Styles) != 3 {
		t.Fatalf("expected default style table, got %d styles", len(cfg.Subtitles.Styles))
	}
	if cfg.TrackingRemote() {
		t.Fatal("expected local-only tracking without a sheet id")
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	body := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"

[drive]
upload_folder_id = "in"
final_folder_id = "out"

[sheets]
spreadsheet_id = "sheet-1"

[subtitles]
mode = "Karaoke"
format = "srt"

[workflow]
batch_size = 2

[[subtitles.styles]]
name = "Default"
font = "Arial"
size = 70
primary_colour = "&H00FFFFFF"
scale_x = 100
scale_y = 100

[[subtitles.styles]]
name = "Highlight"
font = "Arial"
size = 72

[[subtitles.styles]]
name = "Karaoke"
font = "Arial"
size = 64
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected custom path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Subtitles.Mode != "karaoke" || cfg.Subtitles.Format != "srt" {
		t.Fatalf("unexpected subtitle settings %+v", cfg.Subtitles)
	}
	if cfg.Workflow.BatchSize != 2 {
		t.Fatalf("unexpected batch size %d", cfg.Workflow.BatchSize)
	}
	if len(cfg.Subtitles.Styles) != 3 || cfg.Subtitles.Styles[0].Fontname != "Arial" {
		t.Fatalf("unexpected styles %+v", cfg.Subtitles.Styles)
	}
	if !cfg.TrackingRemote() {
		t.Fatal("expected remote tracking with sheet id")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[workflow]\nbatch_sise = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "batch_sise") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestEnvDoesNotOverrideExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "cfg.toml")
	if err := os.WriteFile(path, []byte("[llm]\napi_key = \"from-file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "from-file" {
		t.Fatalf("expected file value to win, got %q", cfg.LLM.APIKey)
	}
}

func TestRequireRemoteListsMissingSettings(t *testing.T) {
	cfg := config.Default()
	err := cfg.RequireRemote()
	if err == nil {
		t.Fatal("expected error for missing identifiers")
	}
	for _, fragment := range []string{"drive.upload_folder_id", "drive.final_folder_id", "google.credentials_file", "llm.api_key"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err)
		}
	}
	cfg.Drive.UploadFolderID = "a"
	cfg.Drive.FinalFolderID = "b"
	cfg.Google.CredentialsJSON = "{}"
	cfg.Transcription.APIKey = "k"
	cfg.LLM.APIKey = "k"
	if err := cfg.RequireRemote(); err != nil {
		t.Fatalf("expected complete config to pass, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	base, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"batch size", func(c *config.Config) { c.Workflow.BatchSize = 0 }, "workflow.batch_size"},
		{"subtitle mode", func(c *config.Config) { c.Subtitles.Mode = "fancy" }, "subtitles.mode"},
		{"subtitle format", func(c *config.Config) { c.Subtitles.Format = "vtt" }, "subtitles.format"},
		{"width fraction", func(c *config.Config) { c.Overlay.MaxWidthFraction = 1.5 }, "overlay.max_width_fraction"},
		{"intro mode", func(c *config.Config) { c.Intro.Mode = "append" }, "intro.mode"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"styles", func(c *config.Config) { c.Subtitles.Styles = c.Subtitles.Styles[:1] }, "subtitles.styles"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			cfg.Subtitles.Styles = append(cfg.Subtitles.Styles[:0:0], base.Subtitles.Styles...)
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(root, "staging")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
