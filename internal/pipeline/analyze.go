package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"contentengine/internal/deps"
	"contentengine/internal/logging"
	"contentengine/internal/media/ffprobe"
	"contentengine/internal/services"
	"contentengine/internal/stage"
)

// Analyzer probes the downloaded video for geometry and duration.
type Analyzer struct {
	probe    Prober
	binary   string
	shortMax float64
	logger   *slog.Logger
}

// NewAnalyzer constructs the analyze stage.
func NewAnalyzer(d Dependencies) *Analyzer {
	a := &Analyzer{probe: d.Probe, binary: "ffprobe", shortMax: ffprobe.ShortMaxSeconds, logger: d.Logger}
	if a.probe == nil {
		a.probe = ffprobe.Inspect
	}
	if d.Config != nil {
		a.binary = d.Config.Media.FFprobeBinary
		if d.Config.Intro.ShortMaxSeconds > 0 {
			a.shortMax = float64(d.Config.Intro.ShortMaxSeconds)
		}
	}
	return a
}

// SetLogger implements stage.LoggerAware.
func (a *Analyzer) SetLogger(logger *slog.Logger) { a.logger = logger }

func (a *Analyzer) Prepare(_ context.Context, job *stage.Job) error {
	return stage.RequireFile("analyze", "downloaded video", job.Workspace.InputPath())
}

func (a *Analyzer) Execute(ctx context.Context, job *stage.Job) error {
	result, err := a.probe(ctx, a.binary, job.Workspace.InputPath())
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "analyze", "ffprobe", "", err)
	}
	meta, err := result.Metadata(a.shortMax)
	if err != nil {
		if errors.Is(err, ffprobe.ErrNoVideoStream) {
			return services.Wrap(services.ErrValidation, "analyze", "metadata", "source has no video stream", err)
		}
		return services.Wrap(services.ErrValidation, "analyze", "metadata", "", err)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return services.Wrap(services.ErrValidation, "analyze", "metadata", "video stream reports no dimensions", nil)
	}
	job.Metadata = &meta
	job.Item.Orientation = meta.Orientation
	job.Item.DurationSeconds = meta.Duration
	if a.logger != nil {
		a.logger.Info("video analyzed",
			logging.String(logging.FieldEventType, "analyze_complete"),
			logging.Int("width", meta.Width),
			logging.Int("height", meta.Height),
			logging.Float64("duration_seconds", meta.Duration),
			logging.String("orientation", meta.Orientation),
			logging.String("length", meta.LengthCategory),
			logging.Bool("has_audio", meta.HasAudio),
		)
	}
	return nil
}

func (a *Analyzer) HealthCheck(context.Context) stage.Health {
	status := deps.CheckBinary(deps.Requirement{Name: "ffprobe", Command: a.binary})
	if !status.Available {
		return stage.Unhealthy("analyze", status.Detail)
	}
	return stage.Healthy("analyze")
}
