package stage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"contentengine/internal/services"
)

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.mp4")
	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(full, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RequireFile("merge", "body video", full); err != nil {
		t.Fatalf("expected file to satisfy requirement: %v", err)
	}
	for _, path := range []string{"", empty, filepath.Join(dir, "missing.mp4"), dir} {
		err := RequireFile("merge", "body video", path)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("RequireFile(%q): expected validation error, got %v", path, err)
		}
	}
}

func TestRequire(t *testing.T) {
	if err := Require("strategy", true, "transcript"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Require("strategy", false, "transcript"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJobElapsed(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job := NewJob(nil, nil, start)
	if got := job.Elapsed(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Fatalf("Elapsed = %s", got)
	}
	var nilJob *Job
	if nilJob.Elapsed(start) != 0 {
		t.Fatal("nil job should report zero elapsed")
	}
}

func TestHealthFromError(t *testing.T) {
	if h := FromError("upload", nil); !h.Ready || h.Name != "upload" {
		t.Fatalf("unexpected health %+v", h)
	}
	if h := FromError("upload", errors.New("no folder")); h.Ready || h.Detail != "no folder" {
		t.Fatalf("unexpected health %+v", h)
	}
}
