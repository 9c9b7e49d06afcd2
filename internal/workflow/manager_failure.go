package workflow

import (
	"context"
	"errors"
	"log/slog"

	"contentengine/internal/logging"
	"contentengine/internal/services"
	"contentengine/internal/stage"
)

// handleItemFailure records a failed attempt everywhere it is tracked. A
// cancelled context leaves the item in its processing state; the next run
// reclaims it.
func (m *Manager) handleItemFailure(ctx context.Context, logger *slog.Logger, job *stage.Job, stageName string, cause error, summary *Summary) {
	item := job.Item
	if errors.Is(cause, context.Canceled) {
		logger.Info("item interrupted",
			logging.String(logging.FieldEventType, "item_interrupted"),
			logging.String(logging.FieldStage, stageName),
		)
		return
	}

	summary.Failed++
	m.setLastError(cause)
	elapsed := job.Elapsed(m.now())
	logging.ErrorWithContext(logger, "item failed", "item_failed",
		logging.String(logging.FieldStage, stageName),
		logging.Int("attempt", item.Attempts),
		logging.String("error_message", services.Reason(cause, 200)),
		logging.Error(cause),
		logging.Alert("item_failure"),
		logging.String(logging.FieldErrorHint, hintFor(cause)),
	)

	if err := m.tracker.Fail(ctx, item, cause, elapsed); err != nil {
		logging.WarnWithContext(logger, "failure not recorded in processing record", "failure_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the ledger row for this item still shows Processing"),
			logging.String(logging.FieldErrorHint, "check spreadsheet access; the lease expires on its own"),
		)
	}
	m.setLastItem(item)
	m.tracker.Monitor(ctx, monitorError, "Failed "+item.Name+": "+services.Reason(cause, 120))
	if m.metrics != nil {
		m.metrics.RecordFailed(stageName, elapsed)
	}
	m.notifyItemFailed(ctx, item, stageName, cause)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "fix the configuration and rerun"
	case errors.Is(err, services.ErrValidation):
		return "inspect the source video; the item is retried on the next run"
	case errors.Is(err, services.ErrTimeout):
		return "raise the service timeout or check network latency"
	case errors.Is(err, services.ErrExternalTool):
		return "check the ffmpeg/ffprobe output in the log"
	default:
		return "the item is retried on the next run until max_attempts"
	}
}
