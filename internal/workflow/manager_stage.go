package workflow

import (
	"context"

	"contentengine/internal/logging"
	"contentengine/internal/queue"
	"contentengine/internal/services"
	"contentengine/internal/stage"
	"contentengine/internal/stageexec"
	"contentengine/internal/staging"
)

func (m *Manager) processItem(ctx context.Context, c candidate, summary *Summary) {
	summary.Processed++
	itemCtx := services.WithSourceID(ctx, c.ID)
	logger := logging.WithContext(itemCtx, m.logger)

	item, err := m.tracker.Begin(itemCtx, queue.Source{ID: c.ID, Name: c.Name, MimeType: c.MimeType, Link: c.Link})
	if item == nil {
		summary.Failed++
		m.setLastError(err)
		logging.ErrorWithContext(logger, "item could not be registered", "item_register_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the local queue database"),
		)
		return
	}
	itemCtx = services.WithItemID(itemCtx, item.ID)
	logger = logging.WithContext(itemCtx, m.logger)

	ws := staging.NewWorkspace(m.cfg.Paths.StagingDir, c.ID, c.Name)
	defer func() {
		if cleanupErr := ws.Cleanup(); cleanupErr != nil {
			logging.WarnWithContext(logger, "workspace cleanup failed", "workspace_cleanup_failed",
				logging.Error(cleanupErr),
				logging.String("workspace", ws.Dir()),
				logging.String(logging.FieldErrorHint, "remove the directory manually or wait for the stale sweep"),
				logging.String(logging.FieldImpact, "temporary files remain on disk"),
			)
		}
	}()
	job := stage.NewJob(item, ws, m.now())

	if err != nil {
		m.handleItemFailure(itemCtx, logger, job, "start", err, summary)
		return
	}

	logger.Info("item started",
		logging.String(logging.FieldEventType, "item_start"),
		logging.String("name", c.Name),
		logging.Int("attempt", item.Attempts),
	)
	m.tracker.Monitor(itemCtx, monitorRunning, "Processing "+c.Name)
	m.setLastItem(item)

	for _, step := range m.steps {
		err := stageexec.Run(itemCtx, stageexec.Options{
			Logger:     logger,
			Progress:   m.tracker,
			Handler:    step.Handler,
			StageName:  step.Name,
			Processing: step.Status,
			Job:        job,
			Heartbeat:  m.heartbeat.For(item.ID),
		})
		if err != nil {
			m.handleItemFailure(itemCtx, logger, job, step.Name, err, summary)
			return
		}
	}

	summary.Succeeded++
	elapsed := job.Elapsed(m.now())
	if m.metrics != nil {
		m.metrics.RecordSucceeded(elapsed)
	}
	m.setLastItem(item)
	logger.Info("item published",
		logging.String(logging.FieldEventType, "item_complete"),
		logging.String("final_link", item.FinalLink),
		logging.Duration("elapsed", elapsed),
	)
	m.notifyItemSucceeded(itemCtx, item)
}
