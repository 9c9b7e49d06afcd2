package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"contentengine/internal/logging"
	"contentengine/internal/queue"
)

// HeartbeatMonitor refreshes the local heartbeat of the item being worked on
// so `status` can tell a live stage from a stuck one.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
}

// NewHeartbeatMonitor creates a new monitor.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{store: store, logger: logger, interval: interval}
}

// For returns a starter suitable for stageexec.Options.Heartbeat, or nil
// when heartbeats are disabled.
func (h *HeartbeatMonitor) For(itemID int64) func(context.Context) func() {
	if h == nil || h.store == nil || h.interval <= 0 {
		return nil
	}
	return func(ctx context.Context) func() {
		hbCtx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go h.StartLoop(hbCtx, &wg, itemID)
		return func() {
			cancel()
			wg.Wait()
		}
	}
}

// StartLoop runs a heartbeat updater for a specific item until context cancellation.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, itemID int64) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, logging.NewComponentLogger(h.logger, "workflow-heartbeat"))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, itemID); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Debug("heartbeat update cancelled")
				} else {
					logger.Warn("heartbeat update failed", logging.Error(err))
				}
			}
		}
	}
}
