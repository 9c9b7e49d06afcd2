package stageexec_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"contentengine/internal/queue"
	"contentengine/internal/services"
	"contentengine/internal/stage"
	"contentengine/internal/stageexec"
)

type recordingProgress struct {
	advanced []queue.Status
	saves    int
}

func (p *recordingProgress) Advance(_ context.Context, item *queue.Item, status queue.Status, _ string) error {
	item.Status = status
	p.advanced = append(p.advanced, status)
	return nil
}

func (p *recordingProgress) Save(context.Context, *queue.Item) error {
	p.saves++
	return nil
}

type fakeHandler struct {
	prepareErr error
	executeErr error
	executed   bool
}

func (h *fakeHandler) Prepare(context.Context, *stage.Job) error { return h.prepareErr }

func (h *fakeHandler) Execute(context.Context, *stage.Job) error {
	h.executed = true
	return h.executeErr
}

func (h *fakeHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy("fake") }

type conditionalHandler struct {
	fakeHandler
	applies bool
}

func (h *conditionalHandler) Applies(*stage.Job) bool { return h.applies }

func newJob() *stage.Job {
	return stage.NewJob(&queue.Item{ID: 1, SourceID: "src"}, nil, time.Time{})
}

func TestRunAdvancesAndSaves(t *testing.T) {
	progress := &recordingProgress{}
	handler := &fakeHandler{}
	heartbeats := 0
	err := stageexec.Run(context.Background(), stageexec.Options{
		Progress:   progress,
		Handler:    handler,
		StageName:  "merge",
		Processing: queue.StatusMerging,
		Job:        newJob(),
		Heartbeat: func(context.Context) func() {
			heartbeats++
			return func() {}
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(progress.advanced) != 1 || progress.advanced[0] != queue.StatusMerging {
		t.Fatalf("advanced = %v", progress.advanced)
	}
	if progress.saves != 1 || !handler.executed || heartbeats != 1 {
		t.Fatalf("saves=%d executed=%v heartbeats=%d", progress.saves, handler.executed, heartbeats)
	}
}

func TestRunReportsFailedStage(t *testing.T) {
	progress := &recordingProgress{}
	cause := services.Wrap(services.ErrValidation, "upload", "prepare", "final video missing", nil)
	err := stageexec.Run(context.Background(), stageexec.Options{
		Progress:   progress,
		Handler:    &fakeHandler{prepareErr: cause},
		StageName:  "upload",
		Processing: queue.StatusUploading,
		Job:        newJob(),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := stageexec.FailedStage(err); got != "upload" {
		t.Fatalf("FailedStage = %q", got)
	}
	if progress.saves != 0 {
		t.Fatalf("expected no save after failure")
	}
}

func TestRunSkipsConditionalStage(t *testing.T) {
	progress := &recordingProgress{}
	handler := &conditionalHandler{applies: false}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Progress:   progress,
		Handler:    handler,
		StageName:  "intro",
		Processing: queue.StatusIntroRendering,
		Job:        newJob(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if handler.executed || len(progress.advanced) != 0 {
		t.Fatalf("expected skipped stage, executed=%v advanced=%v", handler.executed, progress.advanced)
	}
}

func TestRunRequiresHandler(t *testing.T) {
	err := stageexec.Run(context.Background(), stageexec.Options{
		Progress:  &recordingProgress{},
		StageName: "record",
		Job:       newJob(),
	})
	if err == nil || stageexec.FailedStage(err) != "record" {
		t.Fatalf("expected stage error for missing handler, got %v", err)
	}
}
