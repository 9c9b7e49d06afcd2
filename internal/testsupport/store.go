package testsupport

import (
	"context"
	"testing"

	"contentengine/internal/config"
	"contentengine/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Track inserts a ledger row for a fake backlog video.
func Track(t testing.TB, store *queue.Store, id, name string) *queue.Item {
	t.Helper()

	item, err := store.Track(context.Background(), queue.Source{
		ID:       id,
		Name:     name,
		MimeType: "video/mp4",
		Link:     "https://drive.example/" + id,
	})
	if err != nil {
		t.Fatalf("store.Track: %v", err)
	}
	return item
}
