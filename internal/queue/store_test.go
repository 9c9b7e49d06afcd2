package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"contentengine/internal/queue"
	"contentengine/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if store.Path() != filepath.Join(cfg.Paths.StateDir, "queue.db") {
		t.Fatalf("unexpected db path %q", store.Path())
	}
	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.IntegrityCheck || health.SchemaVersion != 1 {
		t.Fatalf("unexpected health %#v", health)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	testsupport.Track(t, store, "file-1", "clip.mp4")
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	item, err := reopened.GetBySourceID(context.Background(), "file-1")
	if err != nil {
		t.Fatalf("GetBySourceID failed: %v", err)
	}
	if item == nil || item.Name != "clip.mp4" {
		t.Fatalf("expected persisted row, got %#v", item)
	}
}

func TestTrackIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.Track(t, store, "file-1", "clip.mp4")
	if first.Status != queue.StatusPending || first.Attempts != 0 {
		t.Fatalf("unexpected new item %#v", first)
	}
	first.Status = queue.StatusDone
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	second, err := store.Track(ctx, queue.Source{ID: "file-1", Name: "renamed.mp4", MimeType: "video/mp4"})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %d and %d", first.ID, second.ID)
	}
	if second.Status != queue.StatusDone {
		t.Fatalf("tracking again must not reset status, got %s", second.Status)
	}
	if second.Name != "renamed.mp4" {
		t.Fatalf("expected refreshed name, got %q", second.Name)
	}
	if second.SourceLink == "" {
		t.Fatal("expected missing link to keep the stored value")
	}
}

func TestTrackRequiresSourceID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Track(context.Background(), queue.Source{Name: "x.mp4"}); err == nil {
		t.Fatal("expected error for empty source id")
	}
}

func TestUpdateRoundTripsPipelineFields(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.Track(t, store, "file-2", "talk.mov")
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	item.BeginAttempt(now)
	item.ContentHash = "abc123"
	item.Orientation = "portrait"
	item.DurationSeconds = 42.5
	item.Title = "Hook *Now*"
	item.StrategyText = "TITLE: Hook"
	item.Platforms = []string{"TikTok", "Instagram Reels", "YouTube Shorts"}
	item.FinalLink = "https://drive.example/final"
	item.SetDone(now)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Attempts != 1 || got.Status != queue.StatusDone {
		t.Fatalf("unexpected status/attempts %s/%d", got.Status, got.Attempts)
	}
	if got.PlatformList() != "TikTok, Instagram Reels, YouTube Shorts" {
		t.Fatalf("unexpected platforms %q", got.PlatformList())
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(now) {
		t.Fatalf("unexpected completed_at %v", got.CompletedAt)
	}
	if got.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared on done")
	}
	if got.DurationSeconds != 42.5 || got.Orientation != "portrait" || got.ContentHash != "abc123" {
		t.Fatalf("unexpected media fields %#v", got)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	item, err := store.GetByID(context.Background(), 999)
	if err != nil || item != nil {
		t.Fatalf("expected nil,nil got %#v, %v", item, err)
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.Track(t, store, "a", "a.mp4")
	b := testsupport.Track(t, store, "b", "b.mp4")
	testsupport.Track(t, store, "c", "c.mp4")
	a.SetFailed("boom")
	b.Status = queue.StatusMerging
	for _, item := range []*queue.Item{a, b} {
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	failed, err := store.ItemsByStatus(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("ItemsByStatus failed: %v", err)
	}
	if len(failed) != 1 || failed[0].SourceID != "a" || failed[0].ErrorMessage != "boom" {
		t.Fatalf("unexpected failed items %#v", failed)
	}
	mixed, err := store.List(ctx, queue.StatusPending, queue.StatusMerging)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mixed) != 2 {
		t.Fatalf("expected 2 items, got %d", len(mixed))
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	stuck := []queue.Status{queue.StatusDownloading, queue.StatusTranscribing, queue.StatusUploading}
	var ids []int64
	for i, status := range stuck {
		item := testsupport.Track(t, store, string(rune('a'+i)), "x.mp4")
		item.Status = status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}
	done := testsupport.Track(t, store, "done", "done.mp4")
	done.SetDone(time.Now())
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	n, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if n != int64(len(stuck)) {
		t.Fatalf("expected %d resets, got %d", len(stuck), n)
	}
	for _, id := range ids {
		item, _ := store.GetByID(ctx, id)
		if item.Status != queue.StatusPending || item.ProgressMessage != queue.InterruptedReason {
			t.Fatalf("item %d not reset: %#v", id, item)
		}
	}
	after, _ := store.GetByID(ctx, done.ID)
	if after.Status != queue.StatusDone {
		t.Fatalf("done item must be untouched, got %s", after.Status)
	}
}

func TestRetryFailedResetsAttempts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.Track(t, store, "a", "a.mp4")
	second := testsupport.Track(t, store, "b", "b.mp4")
	for _, item := range []*queue.Item{first, second} {
		item.BeginAttempt(time.Now())
		item.BeginAttempt(time.Now())
		item.SetFailed("nope")
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	n, err := store.RetryFailed(ctx, first.ID)
	if err != nil || n != 1 {
		t.Fatalf("RetryFailed(id) = %d, %v", n, err)
	}
	got, _ := store.GetByID(ctx, first.ID)
	if got.Status != queue.StatusPending || got.Attempts != 0 || got.ErrorMessage != "" {
		t.Fatalf("unexpected retried item %#v", got)
	}

	n, err = store.RetryFailed(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RetryFailed() = %d, %v", n, err)
	}
}

func TestFindDoneByContentHash(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	published := testsupport.Track(t, store, "orig", "a.mp4")
	published.ContentHash = "h1"
	published.FinalLink = "https://drive.example/final-a"
	published.SetDone(time.Now())
	if err := store.Update(ctx, published); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	match, err := store.FindDoneByContentHash(ctx, "h1", "copy")
	if err != nil {
		t.Fatalf("FindDoneByContentHash failed: %v", err)
	}
	if match == nil || match.SourceID != "orig" {
		t.Fatalf("expected original, got %#v", match)
	}
	self, err := store.FindDoneByContentHash(ctx, "h1", "orig")
	if err != nil || self != nil {
		t.Fatalf("expected own row excluded, got %#v, %v", self, err)
	}
	none, err := store.FindDoneByContentHash(ctx, "", "copy")
	if err != nil || none != nil {
		t.Fatalf("expected nil for empty hash, got %#v, %v", none, err)
	}
}

func TestHealthCountsAndClear(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.Track(t, store, "p", "p.mp4")
	running := testsupport.Track(t, store, "r", "r.mp4")
	running.Status = queue.StatusRecording
	finished := testsupport.Track(t, store, "d", "d.mp4")
	finished.SetDone(time.Now())
	for _, item := range []*queue.Item{running, finished} {
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	want := queue.HealthSummary{Total: 3, Pending: 1, Processing: 1, Done: 1}
	if health != want {
		t.Fatalf("health = %#v, want %#v", health, want)
	}

	cleared, err := store.ClearDone(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearDone = %d, %v", cleared, err)
	}
	removed, err := store.Remove(ctx, running.ID)
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Strategy_Generating "); !ok || status != queue.StatusStrategyGenerating {
		t.Fatalf("unexpected parse %q %v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to fail")
	}
	if !queue.IsProcessingStatus(queue.StatusIntroRendering) || queue.IsProcessingStatus(queue.StatusDone) {
		t.Fatal("unexpected processing classification")
	}
}
