package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"contentengine/internal/logging"
	"contentengine/internal/services"
	"contentengine/internal/stage"
	"contentengine/internal/transcript"
)

// Transcriber extracts the audio track and sends it to speech-to-text.
// Videos without audio get an empty transcript rather than an error.
type Transcriber struct {
	encoder  Encoder
	speech   SpeechToText
	keyIsSet bool
	logger   *slog.Logger
}

// NewTranscriber constructs the transcribe stage.
func NewTranscriber(d Dependencies) *Transcriber {
	t := &Transcriber{encoder: d.Encoder, speech: d.Speech, logger: d.Logger}
	if d.Config != nil {
		t.keyIsSet = strings.TrimSpace(d.Config.Transcription.APIKey) != ""
	}
	return t
}

// SetLogger implements stage.LoggerAware.
func (t *Transcriber) SetLogger(logger *slog.Logger) { t.logger = logger }

func (t *Transcriber) Prepare(_ context.Context, job *stage.Job) error {
	if err := stage.Require("transcribe", job.Metadata != nil, "video metadata"); err != nil {
		return err
	}
	return stage.RequireFile("transcribe", "downloaded video", job.Workspace.InputPath())
}

func (t *Transcriber) Execute(ctx context.Context, job *stage.Job) error {
	if !job.Metadata.HasAudio {
		empty := transcript.Transcript{}
		job.Transcript = &empty
		logging.WarnWithContext(t.logger, "video has no audio track", "transcription_skipped",
			logging.String(logging.FieldImpact, "video is published without subtitles"),
			logging.String(logging.FieldErrorHint, "none needed for silent clips"),
		)
		return nil
	}
	audio := job.Workspace.AudioPath()
	if err := t.encoder.ExtractAudio(ctx, job.Workspace.InputPath(), audio); err != nil {
		return err
	}
	result, err := t.speech.Transcribe(ctx, audio)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcribe", "speech to text", "", err)
	}
	result = t.filter(result, job.Metadata.Duration)
	job.Transcript = &result
	if t.logger != nil {
		t.logger.Info("transcript received",
			logging.String(logging.FieldEventType, "transcribe_complete"),
			logging.Int("words", result.WordCount()),
			logging.Int("segments", len(result.Segments)),
		)
	}
	return nil
}

// filter drops segments the model invented over silence.
func (t *Transcriber) filter(result transcript.Transcript, duration float64) transcript.Transcript {
	filtered, removals := transcript.Filter(result, duration, transcript.DefaultFilterOptions())
	if len(removals) == 0 || t.logger == nil {
		return filtered
	}
	reasons := make(map[string]int)
	for _, r := range removals {
		reasons[r.Reason]++
		t.logger.Debug("transcript segment dropped",
			logging.String("text", r.Segment.Text),
			logging.String("reason", r.Reason),
			logging.Float64("start", r.Segment.Start),
			logging.Float64("end", r.Segment.End),
		)
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "transcript_filtered"),
		logging.Int("segments_removed", len(removals)),
		logging.Int("segments_remaining", len(filtered.Segments)),
	}
	for reason, count := range reasons {
		attrs = append(attrs, logging.Int("removed_"+reason, count))
	}
	t.logger.Info("transcript filtered", logging.Args(attrs...)...)
	return filtered
}

func (t *Transcriber) HealthCheck(context.Context) stage.Health {
	switch {
	case t.speech == nil:
		return stage.Unhealthy("transcribe", "speech-to-text client unavailable")
	case !t.keyIsSet:
		return stage.Unhealthy("transcribe", "transcription.api_key not set")
	}
	return stage.Healthy("transcribe")
}
