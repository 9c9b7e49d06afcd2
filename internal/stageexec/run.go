package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contentengine/internal/logging"
	"contentengine/internal/queue"
	"contentengine/internal/services"
	"contentengine/internal/stage"
)

// Progress persists the status an item holds while a stage runs.
type Progress interface {
	Advance(ctx context.Context, item *queue.Item, status queue.Status, message string) error
	Save(ctx context.Context, item *queue.Item) error
}

// Options controls one stage execution.
type Options struct {
	Logger     *slog.Logger
	Progress   Progress
	Handler    stage.Handler
	StageName  string
	Processing queue.Status
	Job        *stage.Job
	// Heartbeat, when set, runs for the duration of Execute.
	Heartbeat func(ctx context.Context) (stop func())
}

// StageError records which stage an item failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage name carried by err, if any.
func FailedStage(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}

// Run executes one stage for the job's item: it records the processing
// status, runs Prepare and Execute, and persists artifact fields the
// handler set on the item. Conditional handlers that do not apply are
// skipped without a status change.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return &StageError{Stage: opts.StageName, Err: fmt.Errorf("stage handler unavailable: %s", opts.StageName)}
	}
	if opts.Progress == nil {
		return fmt.Errorf("progress store is required")
	}
	if opts.Job == nil || opts.Job.Item == nil {
		return fmt.Errorf("queue item is required")
	}
	item := opts.Job.Item

	stageCtx := services.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if cond, ok := opts.Handler.(stage.Conditional); ok && !cond.Applies(opts.Job) {
		stageLogger.Info("stage skipped",
			logging.String(logging.FieldEventType, "stage_skipped"),
		)
		return nil
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String("source_name", strings.TrimSpace(item.Name)),
	)
	started := time.Now()

	if err := opts.Progress.Advance(stageCtx, item, opts.Processing, fmt.Sprintf("%s started", deriveStageLabel(opts.Processing))); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Job); err != nil {
		return fail(stageLogger, opts.StageName, err)
	}

	var stop func()
	if opts.Heartbeat != nil {
		stop = opts.Heartbeat(stageCtx)
	}
	execErr := opts.Handler.Execute(stageCtx, opts.Job)
	if stop != nil {
		stop()
	}
	if execErr != nil {
		return fail(stageLogger, opts.StageName, execErr)
	}

	item.LastHeartbeat = nil
	if err := opts.Progress.Save(stageCtx, item); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("progress_stage", strings.TrimSpace(item.ProgressStage)),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

func fail(logger *slog.Logger, stageName string, stageErr error) error {
	if errors.Is(stageErr, context.Canceled) {
		logger.Debug("stage interrupted by shutdown")
	} else {
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Alert("stage_failure"),
			logging.String("error_message", services.Reason(stageErr, 200)),
			logging.Error(stageErr),
		)
	}
	return &StageError{Stage: stageName, Err: stageErr}
}

func deriveStageLabel(status queue.Status) string {
	label := strings.ReplaceAll(string(status), "_", " ")
	if label == "" {
		return "Stage"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
