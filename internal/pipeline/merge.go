package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"contentengine/internal/logging"
	"contentengine/internal/services"
	"contentengine/internal/stage"
)

// Merger produces the final video from the subtitled body and, when one was
// rendered, the intro clip or title overlay.
type Merger struct {
	encoder Encoder
	probe   Prober
	binary  string
	seconds int
	logger  *slog.Logger
}

// durationSlack absorbs container rounding when comparing the assembled
// video against its parts.
const durationSlack = 1.0

// NewMerger constructs the merge stage.
func NewMerger(d Dependencies) *Merger {
	m := &Merger{encoder: d.Encoder, probe: d.Probe, binary: "ffprobe", seconds: 6, logger: d.Logger}
	if d.Config != nil {
		if d.Config.Intro.Seconds > 0 {
			m.seconds = d.Config.Intro.Seconds
		}
		if d.Config.Media.FFprobeBinary != "" {
			m.binary = d.Config.Media.FFprobeBinary
		}
	}
	return m
}

// SetLogger implements stage.LoggerAware.
func (m *Merger) SetLogger(logger *slog.Logger) { m.logger = logger }

func (m *Merger) Prepare(_ context.Context, job *stage.Job) error {
	if err := stage.Require("merge", job.Metadata != nil, "video metadata"); err != nil {
		return err
	}
	if err := stage.RequireFile("merge", "subtitled video", job.BodyPath); err != nil {
		return err
	}
	if job.IntroPath != "" {
		return stage.RequireFile("merge", "intro clip", job.IntroPath)
	}
	if job.OverlayPath != "" {
		return stage.RequireFile("merge", "title overlay", job.OverlayPath)
	}
	return nil
}

func (m *Merger) Execute(ctx context.Context, job *stage.Job) error {
	final := job.Workspace.FinalPath()
	method := "none"
	switch {
	case job.IntroPath != "":
		method = "concat"
		if err := m.encoder.Concat(ctx, job.IntroPath, job.BodyPath, job.Metadata.Width, job.Metadata.Height, job.Metadata.HasAudio, final); err != nil {
			return err
		}
	case job.OverlayPath != "":
		method = "overlay"
		if err := m.encoder.OverlayImage(ctx, job.BodyPath, job.OverlayPath, m.seconds, final); err != nil {
			return err
		}
	default:
		if err := os.Rename(job.BodyPath, final); err != nil {
			return services.Wrap(services.ErrExternalTool, "merge", "rename", final, err)
		}
	}
	if err := m.verify(ctx, job, final, method == "concat"); err != nil {
		return err
	}
	job.FinalPath = final
	if m.logger != nil {
		m.logger.Info("final video assembled",
			logging.String(logging.FieldEventType, "merge_complete"),
			logging.String("method", method),
			logging.String("path", final),
		)
	}
	return nil
}

// verify probes the assembled file: it must keep the source geometry and be
// at least as long as the body, plus the intro when one was prepended.
func (m *Merger) verify(ctx context.Context, job *stage.Job, final string, prepended bool) error {
	if m.probe == nil {
		return nil
	}
	result, err := m.probe(ctx, m.binary, final)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "merge", "verify", "probe final video", err)
	}
	got, err := result.Metadata(0)
	if err != nil {
		return services.Wrap(services.ErrValidation, "merge", "verify", "final video has no video stream", err)
	}
	want := job.Metadata
	var issues []string
	if got.Width != want.Width || got.Height != want.Height {
		issues = append(issues, fmt.Sprintf("expected %dx%d but found %dx%d", want.Width, want.Height, got.Width, got.Height))
	}
	minDuration := want.Duration - durationSlack
	if prepended {
		minDuration += float64(m.seconds)
	}
	if want.Duration > 0 && got.Duration < minDuration {
		issues = append(issues, fmt.Sprintf("expected at least %.1fs but found %.1fs", minDuration, got.Duration))
	}
	if want.HasAudio && !got.HasAudio {
		issues = append(issues, "audio track missing")
	}
	if len(issues) > 0 {
		return services.Wrap(services.ErrValidation, "merge", "verify", strings.Join(issues, "; "), nil)
	}
	return nil
}

func (m *Merger) HealthCheck(context.Context) stage.Health {
	if m.encoder == nil {
		return stage.Unhealthy("merge", "ffmpeg runner unavailable")
	}
	return stage.Healthy("merge")
}
