package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"contentengine/internal/textutil"
)

// DirPrefix marks per-item workspace directories under the staging root.
const DirPrefix = "item-"

// Workspace owns every temporary artifact produced while processing one
// backlog item. Paths follow the temp_* naming used by the render stages so an
// operator inspecting a stuck run can tell the artifacts apart.
type Workspace struct {
	dir  string
	base string
}

// NewWorkspace returns the workspace for a source id and display name. The
// directory is not created until Create is called.
func NewWorkspace(stagingDir, sourceID, name string) *Workspace {
	return &Workspace{
		dir:  filepath.Join(stagingDir, DirPrefix+textutil.SanitizeToken(sourceID)),
		base: textutil.Stem(name),
	}
}

// Create makes the workspace directory.
func (w *Workspace) Create() error {
	if w == nil {
		return errors.New("workspace not initialized")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create workspace %q: %w", w.dir, err)
	}
	return nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Base returns the sanitized stem shared by every artifact name.
func (w *Workspace) Base() string { return w.base }

func (w *Workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

// InputPath is the downloaded source video.
func (w *Workspace) InputPath() string { return w.path("temp_input_" + w.base + ".mp4") }

// AudioPath is the extracted transcription audio.
func (w *Workspace) AudioPath() string { return w.path("temp_audio_" + w.base + ".mp3") }

// SubtitlePath is the compiled subtitle document for the given format
// extension ("ass" or "srt").
func (w *Workspace) SubtitlePath(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "ass"
	}
	return w.path("temp_" + w.base + "." + ext)
}

// SubtitledPath is the body video after subtitle burn-in (or the unmodified
// copy when nothing was compiled).
func (w *Workspace) SubtitledPath() string { return w.path("temp_subtitled_" + w.base + ".mp4") }

// FramePath is the first frame extracted for the intro.
func (w *Workspace) FramePath() string { return w.path("temp_frame_" + w.base + ".png") }

// TitledFramePath is the first frame with the title overlay composited.
func (w *Workspace) TitledFramePath() string {
	return w.path("temp_frame_" + w.base + "_titled.png")
}

// OverlayPath is the transparent title overlay image.
func (w *Workspace) OverlayPath() string { return w.path("temp_overlay_" + w.base + ".png") }

// IntroPath is the static intro clip.
func (w *Workspace) IntroPath() string { return w.path("temp_intro_" + w.base + ".mp4") }

// FinalPath is the merged output that gets uploaded.
func (w *Workspace) FinalPath() string { return w.path(FinalName(w.base)) }

// FinalName is the uploaded file name for a stem.
func FinalName(base string) string { return "Final_" + base + ".mp4" }

// Cleanup removes the workspace and everything in it. A missing directory is
// not an error.
func (w *Workspace) Cleanup() error {
	if w == nil || strings.TrimSpace(w.dir) == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove workspace %q: %w", w.dir, err)
	}
	return nil
}
