package pipeline

import (
	"context"
	"log/slog"
	"time"

	"contentengine/internal/logging"
	"contentengine/internal/stage"
)

// Recorder appends the item to the processed set.
type Recorder struct {
	completer Completer
	now       func() time.Time
	logger    *slog.Logger
}

// NewRecorder constructs the record stage.
func NewRecorder(d Dependencies) *Recorder {
	return &Recorder{completer: d.Recorder, now: d.now, logger: d.Logger}
}

// SetLogger implements stage.LoggerAware.
func (r *Recorder) SetLogger(logger *slog.Logger) { r.logger = logger }

func (r *Recorder) Prepare(_ context.Context, job *stage.Job) error {
	return stage.Require("record", job.Item.FinalLink != "" || job.Item.FinalFileID != "", "uploaded file")
}

func (r *Recorder) Execute(ctx context.Context, job *stage.Job) error {
	elapsed := job.Elapsed(r.now())
	if err := r.completer.Complete(ctx, job.Item, elapsed); err != nil {
		return err
	}
	if r.logger != nil {
		r.logger.Info("item recorded as completed",
			logging.String(logging.FieldEventType, "record_complete"),
			logging.Duration("elapsed", elapsed),
		)
	}
	return nil
}

func (r *Recorder) HealthCheck(context.Context) stage.Health {
	if r.completer == nil {
		return stage.Unhealthy("record", "tracker unavailable")
	}
	return stage.Healthy("record")
}
