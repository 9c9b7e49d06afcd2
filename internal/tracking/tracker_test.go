package tracking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentengine/internal/logging"
	"contentengine/internal/queue"
	"contentengine/internal/services"
	"contentengine/internal/services/sheets"
	"contentengine/internal/testsupport"
	"contentengine/internal/tracking"
)

type fakeLedger struct {
	rows        []sheets.Row
	starts      []sheets.Start
	completions []sheets.Completion
	monitor     [][2]string
	readErr     error
	now         time.Time
}

func (f *fakeLedger) Rows(context.Context) ([]sheets.Row, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return append([]sheets.Row(nil), f.rows...), nil
}

func (f *fakeLedger) RecordStart(_ context.Context, start sheets.Start) error {
	f.starts = append(f.starts, start)
	f.rows = append(f.rows, sheets.Row{
		Number:    len(f.rows) + 2,
		Timestamp: f.now,
		Status:    sheets.StatusProcessing,
		SourceID:  start.SourceID,
	})
	return nil
}

func (f *fakeLedger) RecordCompletion(_ context.Context, done sheets.Completion) error {
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].SourceID == done.SourceID {
			f.rows[i].Status = done.Status
			f.rows[i].FinalLink = done.FinalLink
			f.rows[i].Strategy = done.Strategy
			f.completions = append(f.completions, done)
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, "sheets", "find row", done.SourceID, nil)
}

func (f *fakeLedger) UpdateMonitor(_ context.Context, state, message string) error {
	f.monitor = append(f.monitor, [2]string{state, message})
	return nil
}

func newTracker(t *testing.T, ledger tracking.Ledger, policy tracking.Policy, now time.Time) (*tracking.Tracker, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tr := tracking.New(store, ledger, policy, logging.NewNop(), tracking.WithClock(func() time.Time { return now }))
	return tr, store
}

func source(id string) queue.Source {
	return queue.Source{ID: id, Name: id + ".mp4", MimeType: "video/mp4", Link: "https://drive.example/" + id}
}

func TestBeginAppendsLeaseRowAndCountsAttempt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{now: now}
	tr, store := newTracker(t, ledger, tracking.Policy{LeaseTTL: time.Hour, MaxAttempts: 3}, now)
	ctx := context.Background()

	item, err := tr.Begin(ctx, source("a"))
	require.NoError(t, err)
	assert.Equal(t, 1, item.Attempts)
	assert.Equal(t, queue.StatusDownloading, item.Status)
	require.Len(t, ledger.starts, 1)
	assert.Equal(t, "a", ledger.starts[0].SourceID)

	stored, err := store.GetBySourceID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.Attempts)
}

func TestCompleteRewritesLatestRow(t *testing.T) {
	now := time.Now()
	ledger := &fakeLedger{now: now}
	tr, _ := newTracker(t, ledger, tracking.Policy{LeaseTTL: time.Hour}, now)
	ctx := context.Background()

	item, err := tr.Begin(ctx, source("a"))
	require.NoError(t, err)
	item.FinalLink = "https://drive.example/final"
	item.Platforms = []string{"TikTok", "Instagram Reels"}
	item.StrategyText = "TITLE: x"
	require.NoError(t, tr.Complete(ctx, item, 90*time.Second))

	require.Len(t, ledger.completions, 1)
	done := ledger.completions[0]
	assert.Equal(t, sheets.StatusCompleted, done.Status)
	assert.Equal(t, "https://drive.example/final", done.FinalLink)
	assert.Equal(t, 90*time.Second, done.Duration)
	assert.Equal(t, queue.StatusDone, item.Status)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Decide("a").Process)
	assert.Equal(t, tracking.ReasonCompleted, snap.Decide("a").Reason)
}

func TestFailRecordsReasonAndAllowsRetry(t *testing.T) {
	now := time.Now()
	ledger := &fakeLedger{now: now}
	tr, _ := newTracker(t, ledger, tracking.Policy{LeaseTTL: time.Hour, MaxAttempts: 2}, now)
	ctx := context.Background()

	item, err := tr.Begin(ctx, source("a"))
	require.NoError(t, err)
	cause := services.Wrap(services.ErrTransient, "download", "get", "connection reset", nil)
	require.NoError(t, tr.Fail(ctx, item, cause, time.Second))

	require.Len(t, ledger.completions, 1)
	assert.Equal(t, sheets.StatusFailed, ledger.completions[0].Status)
	assert.Contains(t, ledger.completions[0].Strategy, "connection reset")
	assert.Equal(t, queue.StatusFailed, item.Status)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	decision := snap.Decide("a")
	assert.True(t, decision.Process, "one failed attempt out of two should be retried")

	item, err = tr.Begin(ctx, source("a"))
	require.NoError(t, err)
	require.NoError(t, tr.Fail(ctx, item, errors.New("again"), time.Second))

	snap, err = tr.Snapshot(ctx)
	require.NoError(t, err)
	decision = snap.Decide("a")
	assert.False(t, decision.Process)
	assert.Equal(t, tracking.ReasonExhausted, decision.Reason)
}

func TestLeaseBlocksUntilExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{rows: []sheets.Row{
		{Number: 2, Timestamp: now.Add(-10 * time.Minute), Status: sheets.StatusProcessing, SourceID: "fresh"},
		{Number: 3, Timestamp: now.Add(-3 * time.Hour), Status: sheets.StatusProcessing, SourceID: "stale"},
		{Number: 4, Status: sheets.StatusProcessing, SourceID: "unparsable"},
	}}
	tr, _ := newTracker(t, ledger, tracking.Policy{LeaseTTL: time.Hour, MaxAttempts: 3}, now)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)

	assert.False(t, snap.Decide("fresh").Process)
	assert.Equal(t, tracking.ReasonLeased, snap.Decide("fresh").Reason)
	assert.True(t, snap.Decide("stale").Process)
	assert.True(t, snap.Decide("unparsable").Process)
	assert.True(t, snap.Decide("never-seen").Process)
}

func TestInterruptedLocalItemOverridesOwnLease(t *testing.T) {
	now := time.Now()
	ledger := &fakeLedger{now: now}
	tr, store := newTracker(t, ledger, tracking.Policy{LeaseTTL: time.Hour, MaxAttempts: 3}, now)
	ctx := context.Background()

	_, err := tr.Begin(ctx, source("a"))
	require.NoError(t, err)
	reset, err := store.ResetStuckProcessing(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reset)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	decision := snap.Decide("a")
	assert.True(t, decision.Process, "a lease written by this host's killed run should not block it")
}

func TestLastLedgerRowWins(t *testing.T) {
	now := time.Now()
	ledger := &fakeLedger{rows: []sheets.Row{
		{Number: 2, Timestamp: now, Status: sheets.StatusCompleted, SourceID: "a"},
		{Number: 3, Timestamp: now, Status: sheets.StatusFailed, SourceID: "a"},
		{Number: 4, Timestamp: now, Status: "Success", SourceID: "b"},
	}}
	tr, _ := newTracker(t, ledger, tracking.Policy{LeaseTTL: time.Hour, MaxAttempts: 3}, now)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Decide("a").Process)
	assert.False(t, snap.Decide("b").Process, "unknown statuses count as done")
	done := snap.DoneSet()
	assert.Contains(t, done, "b")
	assert.NotContains(t, done, "a")
}

func TestCompletionAppendsRowWhenLeaseMissing(t *testing.T) {
	now := time.Now()
	ledger := &fakeLedger{now: now}
	tr, store := newTracker(t, ledger, tracking.Policy{LeaseTTL: time.Hour}, now)
	ctx := context.Background()

	item := testsupport.Track(t, store, "a", "a.mp4")
	require.NoError(t, tr.Complete(ctx, item, time.Second))

	assert.Len(t, ledger.starts, 1)
	assert.Len(t, ledger.completions, 1)
}

func TestLocalOnlyTracker(t *testing.T) {
	now := time.Now()
	tr, _ := newTracker(t, nil, tracking.Policy{LeaseTTL: time.Hour, MaxAttempts: 1}, now)
	ctx := context.Background()

	assert.False(t, tr.Remote())
	item, err := tr.Begin(ctx, source("a"))
	require.NoError(t, err)
	require.NoError(t, tr.Advance(ctx, item, queue.StatusTranscribing, "transcribing"))
	assert.Equal(t, "Transcribing", item.ProgressStage)
	require.NoError(t, tr.Complete(ctx, item, time.Second))
	tr.Monitor(ctx, "Idle", "nothing to do")

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	rec, ok := snap.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, tracking.StatusCompleted, rec.Status)
}

func TestSnapshotPropagatesLedgerErrors(t *testing.T) {
	ledger := &fakeLedger{readErr: services.Wrap(services.ErrTransient, "sheets", "read ledger", "", errors.New("boom"))}
	tr, _ := newTracker(t, ledger, tracking.Policy{}, time.Now())

	_, err := tr.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTransient)
}

func TestMonitorWritesStatusRecord(t *testing.T) {
	ledger := &fakeLedger{}
	tr, _ := newTracker(t, ledger, tracking.Policy{}, time.Now())

	tr.Monitor(context.Background(), "Processing", "Downloading clip.mp4")

	require.Len(t, ledger.monitor, 1)
	assert.Equal(t, [2]string{"Processing", "Downloading clip.mp4"}, ledger.monitor[0])
}
