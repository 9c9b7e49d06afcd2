package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for processed items.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Collector holds the batch run metrics.
type Collector struct {
	registry *prometheus.Registry

	itemsListed    prometheus.Counter
	itemsSkipped   *prometheus.CounterVec
	itemsProcessed *prometheus.CounterVec
	stageFailures  *prometheus.CounterVec
	itemDuration   prometheus.Histogram
	batchDuration  prometheus.Gauge
	lastBatch      prometheus.Gauge
}

// NewCollector creates the collector on its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		itemsListed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contentengine_items_listed_total",
			Help: "Backlog files seen by batch runs",
		}),
		itemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentengine_items_skipped_total",
			Help: "Backlog files skipped, by reason",
		}, []string{"reason"}),
		itemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentengine_items_processed_total",
			Help: "Items that ran through the pipeline, by outcome",
		}, []string{"outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contentengine_stage_failures_total",
			Help: "Item failures by the stage that raised them",
		}, []string{"stage"}),
		itemDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contentengine_item_duration_seconds",
			Help:    "Wall time spent on one item",
			Buckets: []float64{15, 30, 60, 120, 300, 600, 1200, 2400},
		}),
		batchDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contentengine_batch_duration_seconds",
			Help: "Wall time of the most recent batch",
		}),
		lastBatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contentengine_last_batch_timestamp_seconds",
			Help: "Unix time the most recent batch finished",
		}),
	}
	c.registry.MustRegister(
		c.itemsListed,
		c.itemsSkipped,
		c.itemsProcessed,
		c.stageFailures,
		c.itemDuration,
		c.batchDuration,
		c.lastBatch,
	)
	return c
}

// Registry exposes the underlying registry for tests and exporters.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordListed counts backlog files returned by the listing.
func (c *Collector) RecordListed(n int) {
	if n > 0 {
		c.itemsListed.Add(float64(n))
	}
}

// RecordSkipped counts a file the batch chose not to process.
func (c *Collector) RecordSkipped(reason string) {
	c.itemsSkipped.WithLabelValues(label(reason)).Inc()
}

// RecordSucceeded records a published item.
func (c *Collector) RecordSucceeded(elapsed time.Duration) {
	c.itemsProcessed.WithLabelValues(OutcomeSucceeded).Inc()
	c.itemDuration.Observe(elapsed.Seconds())
}

// RecordFailed records a failed item and the stage that failed it.
func (c *Collector) RecordFailed(stage string, elapsed time.Duration) {
	c.itemsProcessed.WithLabelValues(OutcomeFailed).Inc()
	c.stageFailures.WithLabelValues(label(stage)).Inc()
	c.itemDuration.Observe(elapsed.Seconds())
}

// RecordBatch stamps the end of a batch.
func (c *Collector) RecordBatch(finished time.Time, elapsed time.Duration) {
	c.batchDuration.Set(elapsed.Seconds())
	c.lastBatch.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (c *Collector) WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
