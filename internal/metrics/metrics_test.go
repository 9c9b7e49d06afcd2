package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectorRegistersEverything(t *testing.T) {
	c := NewCollector()
	require.NotNil(t, c.Registry())

	c.RecordListed(1)
	c.RecordSkipped("completed")
	c.RecordSucceeded(time.Second)
	c.RecordFailed("upload", time.Second)
	c.RecordBatch(time.Unix(100, 0), time.Minute)

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
}

func TestRecordOutcomes(t *testing.T) {
	c := NewCollector()

	c.RecordListed(4)
	c.RecordListed(0)
	c.RecordSkipped("completed")
	c.RecordSkipped("completed")
	c.RecordSkipped("")
	c.RecordSucceeded(90 * time.Second)
	c.RecordFailed("transcribe", 10*time.Second)

	assert.Equal(t, 4.0, testutil.ToFloat64(c.itemsListed))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.itemsSkipped.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.itemsSkipped.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.itemsProcessed.WithLabelValues(OutcomeSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.itemsProcessed.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stageFailures.WithLabelValues("transcribe")))
}

func TestRecordBatch(t *testing.T) {
	c := NewCollector()
	c.RecordBatch(time.Unix(1700000000, 0), 2*time.Minute)

	assert.Equal(t, 120.0, testutil.ToFloat64(c.batchDuration))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(c.lastBatch))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordSucceeded(time.Minute)

	path := filepath.Join(t.TempDir(), "contentengine.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `contentengine_items_processed_total{outcome="succeeded"} 1`))
}

func TestWriteTextfileSkipsEmptyPath(t *testing.T) {
	c := NewCollector()
	assert.NoError(t, c.WriteTextfile("  "))
}
