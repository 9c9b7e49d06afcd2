package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"contentengine/internal/config"
	"contentengine/internal/logging"
	"contentengine/internal/pipeline"
	"contentengine/internal/queue"
	"contentengine/internal/services"
	"contentengine/internal/services/drive"
	"contentengine/internal/stage"
	"contentengine/internal/testsupport"
	"contentengine/internal/tracking"
	"contentengine/internal/workflow"
)

type fakeBacklog struct {
	files []drive.File
	err   error
}

func (b *fakeBacklog) ListPending(context.Context, string) ([]drive.File, error) {
	return b.files, b.err
}

type recordingHandler struct {
	name    string
	mu      sync.Mutex
	seen    []string
	failFor map[string]error
	execute func(*stage.Job) error
}

func (h *recordingHandler) Prepare(context.Context, *stage.Job) error { return nil }

func (h *recordingHandler) Execute(_ context.Context, job *stage.Job) error {
	h.mu.Lock()
	h.seen = append(h.seen, job.Item.SourceID)
	h.mu.Unlock()
	if err, ok := h.failFor[job.Item.SourceID]; ok {
		return err
	}
	if h.execute != nil {
		return h.execute(job)
	}
	return nil
}

func (h *recordingHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(h.name)
}

func (h *recordingHandler) calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

type harness struct {
	cfg     *config.Config
	store   *queue.Store
	tracker *tracking.Tracker
	work    *recordingHandler
	finish  *recordingHandler
	backlog *fakeBacklog
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	tracker := tracking.New(store, nil, tracking.Policy{
		LeaseTTL:    time.Duration(cfg.Workflow.LeaseMinutes) * time.Minute,
		MaxAttempts: cfg.Workflow.MaxAttempts,
	}, logging.NewNop())

	h := &harness{cfg: cfg, store: store, tracker: tracker, backlog: &fakeBacklog{}}
	h.work = &recordingHandler{name: "work", failFor: map[string]error{}, execute: func(job *stage.Job) error {
		if err := job.Workspace.Create(); err != nil {
			return err
		}
		job.Item.FinalLink = "https://drive.example/final/" + job.Item.SourceID
		return os.WriteFile(job.Workspace.InputPath(), []byte("video"), 0o644)
	}}
	h.finish = &recordingHandler{name: "record", failFor: map[string]error{}, execute: func(job *stage.Job) error {
		return tracker.Complete(context.Background(), job.Item, time.Second)
	}}
	return h
}

func (h *harness) manager() *workflow.Manager {
	steps := []pipeline.Step{
		{Name: "work", Status: queue.StatusDownloading, Handler: h.work},
		{Name: "record", Status: queue.StatusRecording, Handler: h.finish},
	}
	return workflow.NewManager(h.cfg, h.store, h.tracker, h.backlog, steps, logging.NewNop(),
		workflow.WithPreflight(false),
		workflow.WithHeartbeatInterval(0),
	)
}

func video(id, name string) drive.File {
	return drive.File{ID: id, Name: name, MimeType: "video/mp4", WebViewLink: "https://drive.example/" + id}
}

func TestRunBatchProcessesBacklog(t *testing.T) {
	h := newHarness(t)
	h.backlog.files = []drive.File{video("a", "First.mp4"), video("b", "Second.mov")}

	summary, err := h.manager().RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 0 || summary.Processed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.ExitError() != nil {
		t.Fatalf("expected nil exit error, got %v", summary.ExitError())
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	for _, id := range []string{"a", "b"} {
		item, err := h.store.GetBySourceID(context.Background(), id)
		if err != nil || item == nil {
			t.Fatalf("lookup %s: %v", id, err)
		}
		if item.Status != queue.StatusDone {
			t.Fatalf("item %s status %s, want done", id, item.Status)
		}
	}
}

func TestRunBatchSkipsCompletedItems(t *testing.T) {
	h := newHarness(t)
	h.backlog.files = []drive.File{video("a", "First.mp4")}
	mgr := h.manager()
	if _, err := mgr.RunBatch(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	summary, err := mgr.RunBatch(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 1 {
		t.Fatalf("expected completed item skipped, got %+v", summary)
	}
	if got := len(h.work.calls()); got != 1 {
		t.Fatalf("expected one stage call across both runs, got %d", got)
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	h.backlog.files = []drive.File{video("bad", "Broken.mp4"), video("good", "Fine.mp4")}
	h.work.failFor["bad"] = errors.New("ffmpeg exploded")

	summary, err := h.manager().RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Failed != 1 || summary.Succeeded != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.ExitError() == nil {
		t.Fatal("expected exit error when an item failed")
	}
	bad, err := h.store.GetBySourceID(context.Background(), "bad")
	if err != nil || bad == nil {
		t.Fatalf("lookup bad: %v", err)
	}
	if bad.Status != queue.StatusFailed {
		t.Fatalf("bad status %s, want failed", bad.Status)
	}
	if bad.ErrorMessage == "" {
		t.Fatal("expected failure reason recorded")
	}
	if got := h.finish.calls(); len(got) != 1 || got[0] != "good" {
		t.Fatalf("record stage calls = %v", got)
	}
}

func TestRunBatchRemovesWorkspaces(t *testing.T) {
	h := newHarness(t)
	h.backlog.files = []drive.File{video("ok", "Keep.mp4"), video("bad", "Drop.mp4")}
	h.finish.failFor["bad"] = errors.New("upload refused")

	if _, err := h.manager().RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	entries, err := os.ReadDir(h.cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, filepath.Join(h.cfg.Paths.StagingDir, e.Name()))
		}
		t.Fatalf("expected staging empty, found %v", names)
	}
}

func TestRunBatchFiltersBacklog(t *testing.T) {
	h := newHarness(t)
	h.backlog.files = []drive.File{
		video("final", "Final_Clip.mp4"),
		video("subbed", "Subtitled_Clip.mp4"),
		{ID: "doc", Name: "notes.txt", MimeType: "text/plain"},
		video("real", "Clip.mp4"),
	}

	summary, err := h.manager().RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Skipped != 3 || summary.Processed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := h.work.calls(); len(got) != 1 || got[0] != "real" {
		t.Fatalf("work calls = %v", got)
	}
}

func TestRunBatchDefersBeyondBatchSize(t *testing.T) {
	h := newHarness(t, testsupport.WithBatchSize(2))
	h.backlog.files = []drive.File{video("1", "a.mp4"), video("2", "b.mp4"), video("3", "c.mp4")}

	summary, err := h.manager().RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Processed != 2 || summary.Deferred != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := h.work.calls(); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("expected listing order preserved, got %v", got)
	}
}

func TestRunBatchEmptyBacklog(t *testing.T) {
	h := newHarness(t)
	summary, err := h.manager().RunBatch(context.Background())
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if summary.Listed != 0 || summary.Processed != 0 || summary.ExitError() != nil {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunBatchListingFailure(t *testing.T) {
	h := newHarness(t)
	h.backlog.err = errors.New("drive unavailable")
	if _, err := h.manager().RunBatch(context.Background()); err == nil {
		t.Fatal("expected listing error")
	}
}

func TestRunBatchRefusesConcurrentRun(t *testing.T) {
	h := newHarness(t)
	lock := flock.New(h.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("take lock: locked=%v err=%v", locked, err)
	}
	defer lock.Unlock()

	_, err = h.manager().RunBatch(context.Background())
	if !errors.Is(err, workflow.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestRunBatchRetriesFailedUntilExhausted(t *testing.T) {
	h := newHarness(t)
	h.cfg.Workflow.MaxAttempts = 2
	h.tracker = tracking.New(h.store, nil, tracking.Policy{MaxAttempts: 2}, logging.NewNop())
	h.backlog.files = []drive.File{video("flaky", "Flaky.mp4")}
	h.work.failFor["flaky"] = errors.New("transient")
	mgr := h.manager()

	for run := 0; run < 3; run++ {
		if _, err := mgr.RunBatch(context.Background()); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}
	if got := len(h.work.calls()); got != 2 {
		t.Fatalf("expected 2 attempts before exhaustion, got %d", got)
	}
}

func TestStatusReportsStageHealth(t *testing.T) {
	h := newHarness(t)
	h.backlog.files = []drive.File{video("a", "First.mp4")}
	mgr := h.manager()
	if _, err := mgr.RunBatch(context.Background()); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	status := mgr.Status(context.Background())
	if !status.StageHealth["work"].Ready || !status.StageHealth["record"].Ready {
		t.Fatalf("unexpected stage health %+v", status.StageHealth)
	}
	if status.QueueStats[queue.StatusDone] != 1 {
		t.Fatalf("unexpected stats %+v", status.QueueStats)
	}
	if status.LastItem == nil || status.LastItem.SourceID != "a" {
		t.Fatalf("unexpected last item %+v", status.LastItem)
	}
}

func TestRunBatchAbortsOnMissingConfiguration(t *testing.T) {
	h := newHarness(t)
	h.cfg.Drive.FinalFolderID = ""
	h.backlog.files = []drive.File{video("a", "First.mp4")}

	summary, err := h.manager().RunBatch(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls := h.work.calls(); len(calls) != 0 {
		t.Fatalf("expected no stage calls, got %v", calls)
	}
	if summary.Processed != 0 || summary.Listed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
