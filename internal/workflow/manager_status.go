package workflow

import (
	"context"

	"contentengine/internal/logging"
	"contentengine/internal/queue"
	"contentengine/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	LastError   string                  `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LastItem    *queue.Item             `json:"last_item,omitempty" yaml:"last_item,omitempty"`
	QueueStats  map[queue.Status]int    `json:"queue_stats" yaml:"queue_stats"`
	StageHealth map[string]stage.Health `json:"stage_health" yaml:"stage_health"`
}

// Status returns queue counts, stage readiness and the last item touched by
// this manager.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	lastErr := m.lastErr
	lastItem := m.lastItem
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(m.steps))
	for _, step := range m.steps {
		if step.Handler == nil {
			health[step.Name] = stage.Unhealthy(step.Name, "handler missing")
			continue
		}
		health[step.Name] = step.Handler.HealthCheck(ctx)
	}

	summary := StatusSummary{QueueStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastItem != nil {
		copy := *lastItem
		summary.LastItem = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item != nil {
		copy := *item
		m.lastItem = &copy
	} else {
		m.lastItem = nil
	}
	m.mu.Unlock()
}
