package pipeline

import (
	"context"
	"log/slog"

	"contentengine/internal/fileutil"
	"contentengine/internal/logging"
	"contentengine/internal/services"
	"contentengine/internal/stage"
	"contentengine/internal/subtitles"
)

// SubtitleRenderer compiles the transcript and burns it into the video.
type SubtitleRenderer struct {
	compiler *subtitles.Compiler
	encoder  Encoder
	mode     subtitles.Mode
	format   subtitles.Format
	logger   *slog.Logger
}

// NewSubtitleRenderer constructs the subtitle stage.
func NewSubtitleRenderer(d Dependencies) *SubtitleRenderer {
	r := &SubtitleRenderer{
		compiler: d.Compiler,
		encoder:  d.Encoder,
		mode:     subtitles.ModeModern,
		format:   subtitles.FormatASS,
		logger:   d.Logger,
	}
	if r.compiler == nil {
		r.compiler = subtitles.NewCompiler(nil, subtitles.DefaultOptions())
	}
	if d.Config != nil {
		if mode, err := subtitles.ParseMode(d.Config.Subtitles.Mode); err == nil {
			r.mode = mode
		}
		if format, err := subtitles.ParseFormat(d.Config.Subtitles.Format); err == nil {
			r.format = format
		}
	}
	return r
}

// SetLogger implements stage.LoggerAware.
func (r *SubtitleRenderer) SetLogger(logger *slog.Logger) { r.logger = logger }

func (r *SubtitleRenderer) Prepare(_ context.Context, job *stage.Job) error {
	if err := stage.Require("subtitles", job.Transcript != nil, "transcript"); err != nil {
		return err
	}
	return stage.RequireFile("subtitles", "downloaded video", job.Workspace.InputPath())
}

func (r *SubtitleRenderer) Execute(ctx context.Context, job *stage.Job) error {
	input := job.Workspace.InputPath()
	output := job.Workspace.SubtitledPath()
	doc := r.compiler.Render(*job.Transcript, r.mode, r.format)
	if doc.Empty() {
		logging.WarnWithContext(r.logger, "no timed words to subtitle; keeping source video", "subtitles_skipped",
			logging.String(logging.FieldImpact, "video is published without subtitles"),
			logging.String(logging.FieldErrorHint, "none needed for silent clips"),
		)
		if err := fileutil.CopyFile(input, output); err != nil {
			return services.Wrap(services.ErrExternalTool, "subtitles", "copy source", "", err)
		}
		job.BodyPath = output
		return nil
	}

	subPath := job.Workspace.SubtitlePath(doc.Format.Extension())
	if err := subtitles.WriteFile(subPath, doc); err != nil {
		return services.Wrap(services.ErrExternalTool, "subtitles", "write", subPath, err)
	}
	job.SubtitlePath = subPath
	if err := r.encoder.BurnSubtitles(ctx, input, subPath, output); err != nil {
		return err
	}
	job.BodyPath = output
	if r.logger != nil {
		r.logger.Info("subtitles burned",
			logging.String(logging.FieldEventType, "subtitles_complete"),
			logging.String("mode", string(doc.Mode)),
			logging.String("format", string(doc.Format)),
			logging.Int("events", len(doc.Events)),
		)
	}
	return nil
}

func (r *SubtitleRenderer) HealthCheck(context.Context) stage.Health {
	if err := r.compiler.Styles().Validate(); err != nil {
		return stage.FromError("subtitles", err)
	}
	return stage.Healthy("subtitles")
}
