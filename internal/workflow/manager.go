package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"contentengine/internal/config"
	"contentengine/internal/logging"
	"contentengine/internal/metrics"
	"contentengine/internal/notifications"
	"contentengine/internal/pipeline"
	"contentengine/internal/queue"
	"contentengine/internal/services/drive"
	"contentengine/internal/tracking"
)

const defaultHeartbeatInterval = 30 * time.Second

// Backlog lists the videos waiting in the upload folder.
type Backlog interface {
	ListPending(ctx context.Context, folderID string) ([]drive.File, error)
}

// Manager runs one batch over the backlog at a time.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	tracker   *tracking.Tracker
	backlog   Backlog
	steps     []pipeline.Step
	logger    *slog.Logger
	notifier  notifications.Service
	metrics   *metrics.Collector
	heartbeat *HeartbeatMonitor
	preflight bool
	now       func() time.Time

	mu       sync.RWMutex
	lastErr  error
	lastItem *queue.Item
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithNotifier replaces the ntfy notifier built from config.
func WithNotifier(n notifications.Service) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithPreflight toggles the local readiness checks at the start of a run.
func WithPreflight(enabled bool) Option {
	return func(m *Manager) { m.preflight = enabled }
}

// WithHeartbeatInterval sets how often in-flight items refresh their
// heartbeat. Zero disables the loop.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(m *Manager) {
		m.heartbeat = NewHeartbeatMonitor(m.store, m.logger, interval)
	}
}

// NewManager constructs a batch manager over the given stage list.
func NewManager(cfg *config.Config, store *queue.Store, tracker *tracking.Tracker, backlog Backlog, steps []pipeline.Step, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:       cfg,
		store:     store,
		tracker:   tracker,
		backlog:   backlog,
		steps:     steps,
		logger:    logging.NewComponentLogger(logger, "workflow-manager"),
		notifier:  notifications.NewService(cfg),
		preflight: true,
		now:       time.Now,
	}
	m.heartbeat = NewHeartbeatMonitor(store, m.logger, defaultHeartbeatInterval)
	for _, opt := range opts {
		opt(m)
	}
	return m
}
