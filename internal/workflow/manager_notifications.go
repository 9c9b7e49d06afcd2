package workflow

import (
	"context"
	"errors"

	"contentengine/internal/logging"
	"contentengine/internal/notifications"
	"contentengine/internal/queue"
)

func (m *Manager) notifyItemSucceeded(ctx context.Context, item *queue.Item) {
	m.publish(ctx, notifications.EventItemSucceeded, notifications.Payload{
		"name": item.Name,
		"link": item.FinalLink,
	})
}

func (m *Manager) notifyItemFailed(ctx context.Context, item *queue.Item, stageName string, cause error) {
	m.publish(ctx, notifications.EventItemFailed, notifications.Payload{
		"name":  item.Name,
		"stage": stageName,
		"error": cause,
	})
}

func (m *Manager) notifyBatch(ctx context.Context, summary Summary) {
	m.publish(ctx, notifications.EventBatchCompleted, notifications.Payload{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"duration":  summary.Duration,
	})
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		logger := logging.WithContext(ctx, m.logger)
		if errors.Is(err, context.Canceled) {
			logger.Debug("notification skipped during shutdown", logging.String("event", string(event)))
			return
		}
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "operator was not notified"),
		)
	}
}
