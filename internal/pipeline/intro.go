package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"contentengine/internal/layout"
	"contentengine/internal/logging"
	"contentengine/internal/overlay"
	"contentengine/internal/services"
	"contentengine/internal/stage"
)

// Intro modes.
const (
	IntroPrepend = "prepend"
	IntroOverlay = "overlay"
)

// IntroRenderer paints the title over the first frame of short portrait
// videos. In prepend mode the titled frame becomes a still clip; in overlay
// mode the transparent title image is kept for the merger.
type IntroRenderer struct {
	encoder Encoder
	titles  TitleRenderer
	enabled bool
	mode    string
	seconds int
	logger  *slog.Logger
}

// NewIntroRenderer constructs the intro stage.
func NewIntroRenderer(d Dependencies) *IntroRenderer {
	r := &IntroRenderer{encoder: d.Encoder, titles: d.Titles, mode: IntroPrepend, seconds: 6, logger: d.Logger}
	if r.titles == nil {
		r.titles = overlay.NewRenderer(nil, layout.DefaultOptions(), overlay.DefaultPalette())
	}
	if d.Config != nil {
		r.enabled = d.Config.Intro.Enabled
		if mode := strings.TrimSpace(d.Config.Intro.Mode); mode != "" {
			r.mode = mode
		}
		if d.Config.Intro.Seconds > 0 {
			r.seconds = d.Config.Intro.Seconds
		}
	}
	return r
}

// SetLogger implements stage.LoggerAware.
func (r *IntroRenderer) SetLogger(logger *slog.Logger) { r.logger = logger }

// Applies implements stage.Conditional.
func (r *IntroRenderer) Applies(job *stage.Job) bool {
	return r.enabled && job.Metadata != nil && job.Metadata.Portrait() && job.Metadata.Short()
}

func (r *IntroRenderer) Prepare(_ context.Context, job *stage.Job) error {
	if err := stage.Require("intro", job.Strategy != nil && strings.TrimSpace(job.Strategy.Title) != "", "title"); err != nil {
		return err
	}
	return stage.RequireFile("intro", "source video", job.Workspace.InputPath())
}

func (r *IntroRenderer) Execute(ctx context.Context, job *stage.Job) error {
	framePath := job.Workspace.FramePath()
	if err := r.encoder.ExtractFrame(ctx, job.Workspace.InputPath(), framePath); err != nil {
		return err
	}
	frame, err := overlay.ReadPNG(framePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "intro", "read frame", framePath, err)
	}
	bounds := frame.Bounds()
	canvas := layout.Canvas{Width: bounds.Dx(), Height: bounds.Dy()}
	title, spec, err := r.titles.Render(job.Strategy.Title, canvas)
	if err != nil {
		return services.Wrap(services.ErrValidation, "intro", "render title", "", err)
	}

	switch r.mode {
	case IntroOverlay:
		path := job.Workspace.OverlayPath()
		if err := overlay.WritePNG(path, title); err != nil {
			return services.Wrap(services.ErrExternalTool, "intro", "write overlay", path, err)
		}
		job.OverlayPath = path
	default:
		titled := job.Workspace.TitledFramePath()
		if err := overlay.WritePNG(titled, overlay.Composite(frame, title)); err != nil {
			return services.Wrap(services.ErrExternalTool, "intro", "write titled frame", titled, err)
		}
		intro := job.Workspace.IntroPath()
		if err := r.encoder.StillClip(ctx, titled, r.seconds, job.Metadata.Width, job.Metadata.Height, intro); err != nil {
			return err
		}
		job.IntroPath = intro
	}
	if r.logger != nil {
		r.logger.Info("intro rendered",
			logging.String(logging.FieldEventType, "intro_complete"),
			logging.String("mode", r.mode),
			logging.Int("lines", len(spec.Lines)),
			logging.Int("font_size", spec.FontSize),
		)
	}
	return nil
}

func (r *IntroRenderer) HealthCheck(context.Context) stage.Health {
	if !r.enabled {
		return stage.Healthy("intro")
	}
	if r.mode != IntroPrepend && r.mode != IntroOverlay {
		return stage.Unhealthy("intro", "unknown intro.mode "+r.mode)
	}
	return stage.Healthy("intro")
}
