package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"contentengine/internal/config"
)

// ConfigOption adjusts the config built by NewConfig.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a config whose directories live under a per-test temp
// dir. Drive folder ids and API keys hold placeholders so RequireRemote
// passes without touching the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Drive.UploadFolderID = "upload-folder"
	cfg.Drive.FinalFolderID = "final-folder"
	cfg.Google.CredentialsJSON = `{"type":"service_account"}`
	cfg.LLM.APIKey = "test"
	cfg.Transcription.APIKey = "test"
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithBatchSize caps the number of items a run processes.
func WithBatchSize(n int) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Workflow.BatchSize = n
	}
}

// WithStubbedBinaries puts do-nothing executables for names (ffmpeg and
// ffprobe by default) first on PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, base string, _ *config.Config) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(base, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
