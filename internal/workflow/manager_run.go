package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"contentengine/internal/logging"
	"contentengine/internal/services"
	"contentengine/internal/services/drive"
	"contentengine/internal/staging"
	"contentengine/internal/tracking"
)

// Monitor states written to the status record.
const (
	monitorRunning = "RUNNING"
	monitorIdle    = "IDLE"
	monitorError   = "ERROR"
)

var derivedPrefixes = []string{"Final_", "Subtitled_"}

// RunBatch processes up to workflow.batch_size backlog videos sequentially.
// It returns an error only for run-level problems (configuration, lock,
// listing); item failures are counted in the Summary.
func (m *Manager) RunBatch(ctx context.Context) (Summary, error) {
	started := m.now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, m.logger)
	summary := Summary{RunID: runID}

	if err := m.cfg.RequireRemote(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "config check", "", err)
	}
	if err := m.cfg.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "ensure directories", "", err)
	}
	if m.preflight {
		if err := m.runPreflightChecks(ctx, logger); err != nil {
			return summary, err
		}
	}

	lock := flock.New(m.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return summary, ErrRunInProgress
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release run lock failed", logging.Error(err))
		}
	}()

	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("batch_size", m.cfg.Workflow.BatchSize),
	)

	if reclaimed, err := m.store.ResetStuckProcessing(ctx); err != nil {
		return summary, fmt.Errorf("reclaim interrupted items: %w", err)
	} else if reclaimed > 0 {
		logging.WarnWithContext(logger, "reclaimed items from an interrupted run", "items_reclaimed",
			logging.Int64("count", reclaimed),
			logging.String(logging.FieldImpact, "interrupted items restart from the beginning"),
			logging.String(logging.FieldErrorHint, "none; the previous run was stopped mid-item"),
		)
	}
	maxAge := time.Duration(m.cfg.Workflow.StaleStagingHours) * time.Hour
	staging.CleanStale(ctx, m.cfg.Paths.StagingDir, maxAge, logger)

	m.tracker.Monitor(ctx, monitorRunning, "Listing backlog")
	files, err := m.backlog.ListPending(ctx, m.cfg.Drive.UploadFolderID)
	if err != nil {
		m.tracker.Monitor(ctx, monitorError, "Backlog listing failed")
		return summary, services.Wrap(services.ErrTransient, "workflow", "list backlog", "", err)
	}
	summary.Listed = len(files)
	if m.metrics != nil {
		m.metrics.RecordListed(len(files))
	}

	snapshot, err := m.tracker.Snapshot(ctx)
	if err != nil {
		m.tracker.Monitor(ctx, monitorError, "Processing record unavailable")
		return summary, services.Wrap(services.ErrTransient, "workflow", "read processing record", "", err)
	}
	selected := m.selectCandidates(logger, files, snapshot, &summary)

	for _, c := range selected {
		if ctx.Err() != nil {
			break
		}
		m.processItem(ctx, c, &summary)
	}

	summary.Duration = m.now().Sub(started)
	m.finishBatch(ctx, logger, summary)
	return summary, ctx.Err()
}

// selectCandidates filters the listing down to what this run will process,
// preserving listing order.
func (m *Manager) selectCandidates(logger *slog.Logger, files []drive.File, snapshot *tracking.Snapshot, summary *Summary) []candidate {
	limit := m.cfg.Workflow.BatchSize
	var out []candidate
	for _, f := range files {
		reason := ""
		switch {
		case hasDerivedPrefix(f.Name):
			reason = SkipDerivedOutput
		case !f.IsVideo():
			reason = SkipNotVideo
		default:
			if d := snapshot.Decide(f.ID); !d.Process {
				reason = d.Reason
			}
		}
		if reason == "" && limit > 0 && len(out) >= limit {
			summary.Deferred++
			m.recordSkip(SkipBatchLimit)
			continue
		}
		if reason != "" {
			summary.Skipped++
			m.recordSkip(reason)
			logger.Debug("backlog file skipped",
				logging.String(logging.FieldSourceID, f.ID),
				logging.String("name", f.Name),
				logging.String("reason", reason),
			)
			continue
		}
		out = append(out, candidate{ID: f.ID, Name: f.Name, MimeType: f.MimeType, Link: f.WebViewLink})
	}
	logger.Info("backlog filtered",
		logging.String(logging.FieldEventType, "backlog_filtered"),
		logging.Int("listed", len(files)),
		logging.Int("selected", len(out)),
		logging.Int("skipped", summary.Skipped),
		logging.Int("deferred", summary.Deferred),
	)
	return out
}

func (m *Manager) recordSkip(reason string) {
	if m.metrics != nil {
		m.metrics.RecordSkipped(reason)
	}
}

func hasDerivedPrefix(name string) bool {
	for _, prefix := range derivedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (m *Manager) finishBatch(ctx context.Context, logger *slog.Logger, summary Summary) {
	state := monitorIdle
	if summary.Failed > 0 {
		state = monitorError
	}
	msg := fmt.Sprintf("Batch complete: %d published, %d failed, %d skipped", summary.Succeeded, summary.Failed, summary.Skipped)
	m.tracker.Monitor(context.WithoutCancel(ctx), state, msg)

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("listed", summary.Listed),
		logging.Int("processed", summary.Processed),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("deferred", summary.Deferred),
		logging.Duration("duration", summary.Duration),
	)

	if summary.Processed > 0 {
		m.notifyBatch(ctx, summary)
	}
	if m.metrics != nil {
		m.metrics.RecordBatch(m.now(), summary.Duration)
		if err := m.metrics.WriteTextfile(m.cfg.Metrics.TextfilePath); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metrics.textfile_path permissions"),
				logging.String(logging.FieldImpact, "run metrics are stale"),
			)
		}
	}
}
