package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contentengine/internal/logging"
	"contentengine/internal/queue"
	"contentengine/internal/services"
	"contentengine/internal/services/sheets"
)

const reasonLimit = 200

// Ledger is the shared processing ledger the tracker mirrors local state to.
// *sheets.Client satisfies it.
type Ledger interface {
	Rows(ctx context.Context) ([]sheets.Row, error)
	RecordStart(ctx context.Context, start sheets.Start) error
	RecordCompletion(ctx context.Context, done sheets.Completion) error
	UpdateMonitor(ctx context.Context, state, message string) error
}

// Policy bounds how long a Processing row holds an item and how often a
// failed item is retried.
type Policy struct {
	LeaseTTL    time.Duration
	MaxAttempts int
}

// Tracker records item lifecycle transitions in the local queue store and,
// when configured, the remote ledger.
type Tracker struct {
	store  *queue.Store
	ledger Ledger
	policy Policy
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New builds a tracker. A nil ledger keeps all state local.
func New(store *queue.Store, ledger Ledger, policy Policy, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		ledger: ledger,
		policy: policy,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "tracking"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Remote reports whether a shared ledger is attached.
func (t *Tracker) Remote() bool {
	return t != nil && t.ledger != nil
}

// Snapshot reads the local store and the ledger once and merges them into
// the latest known record per source id.
func (t *Tracker) Snapshot(ctx context.Context) (*Snapshot, error) {
	items, err := t.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot local records: %w", err)
	}
	snap := newSnapshot(t.policy, t.now())
	for _, item := range items {
		snap.mergeLocal(item)
	}
	if t.ledger != nil {
		rows, err := t.ledger.Rows(ctx)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			snap.mergeRemote(row)
		}
	}
	return snap, nil
}

// Begin registers the item locally, counts the attempt and appends the
// Processing lease row.
func (t *Tracker) Begin(ctx context.Context, src queue.Source) (*queue.Item, error) {
	item, err := t.store.Track(ctx, src)
	if err != nil {
		return nil, err
	}
	item.BeginAttempt(t.now())
	if err := t.store.Update(ctx, item); err != nil {
		return nil, err
	}
	if t.ledger != nil {
		if err := t.ledger.RecordStart(ctx, sheets.Start{
			SourceID:   src.ID,
			SourceLink: src.Link,
			Name:       src.Name,
		}); err != nil {
			return item, err
		}
	}
	return item, nil
}

// Advance moves the item to status and persists the progress message.
func (t *Tracker) Advance(ctx context.Context, item *queue.Item, status queue.Status, message string) error {
	item.Status = status
	item.SetProgress(stageLabel(status), message, progressFor(status))
	now := t.now().UTC()
	item.LastHeartbeat = &now
	return t.store.Update(ctx, item)
}

// Save persists artifact fields set on the item without changing status.
func (t *Tracker) Save(ctx context.Context, item *queue.Item) error {
	return t.store.Update(ctx, item)
}

// Complete marks the item done and rewrites its ledger row with the result.
func (t *Tracker) Complete(ctx context.Context, item *queue.Item, elapsed time.Duration) error {
	item.SetDone(t.now())
	if err := t.store.Update(ctx, item); err != nil {
		return err
	}
	return t.finish(ctx, item, sheets.Completion{
		SourceID:  item.SourceID,
		FinalLink: item.FinalLink,
		Platforms: item.Platforms,
		Status:    sheets.StatusCompleted,
		Strategy:  item.StrategyText,
		Duration:  elapsed,
	})
}

// Fail marks the item failed with a short reason. Ledger errors are logged
// and returned so the caller can report them, but the local record is
// already written.
func (t *Tracker) Fail(ctx context.Context, item *queue.Item, cause error, elapsed time.Duration) error {
	reason := services.Reason(cause, reasonLimit)
	item.SetFailed(reason)
	if err := t.store.Update(ctx, item); err != nil {
		return err
	}
	return t.finish(ctx, item, sheets.Completion{
		SourceID:  item.SourceID,
		FinalLink: item.FinalLink,
		Platforms: item.Platforms,
		Status:    sheets.StatusFailed,
		Strategy:  "Error: " + reason,
		Duration:  elapsed,
	})
}

func (t *Tracker) finish(ctx context.Context, item *queue.Item, done sheets.Completion) error {
	if t.ledger == nil {
		return nil
	}
	err := t.ledger.RecordCompletion(ctx, done)
	if errors.Is(err, services.ErrNotFound) {
		// The lease row was removed by hand; append a fresh one to update.
		if startErr := t.ledger.RecordStart(ctx, sheets.Start{SourceID: item.SourceID, SourceLink: item.SourceLink, Name: item.Name}); startErr != nil {
			return startErr
		}
		err = t.ledger.RecordCompletion(ctx, done)
	}
	return err
}

// Monitor writes the run status cell. Failures are logged and swallowed; the
// status record is informational.
func (t *Tracker) Monitor(ctx context.Context, state, message string) {
	if t.logger != nil {
		t.logger.Info(message,
			logging.String("state", state),
			logging.String(logging.FieldEventType, "monitor_update"),
		)
	}
	if t.ledger == nil {
		return
	}
	if err := t.ledger.UpdateMonitor(ctx, state, message); err != nil {
		logging.WarnWithContext(t.logger, "status record update failed", "monitor_update_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check spreadsheet sharing and the monitor sheet name"),
			logging.String(logging.FieldImpact, "status cell is stale"),
		)
	}
}

func stageLabel(status queue.Status) string {
	label := strings.ReplaceAll(string(status), "_", " ")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

var progressSteps = map[queue.Status]float64{
	queue.StatusDownloading:        5,
	queue.StatusAnalyzing:          15,
	queue.StatusTranscribing:       25,
	queue.StatusStrategyGenerating: 40,
	queue.StatusSubtitleRendering:  50,
	queue.StatusIntroRendering:     65,
	queue.StatusMerging:            75,
	queue.StatusUploading:          85,
	queue.StatusRecording:          95,
	queue.StatusDone:               100,
}

func progressFor(status queue.Status) float64 {
	return progressSteps[status]
}
