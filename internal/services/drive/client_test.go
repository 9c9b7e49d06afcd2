package drive_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"contentengine/internal/services"
	"contentengine/internal/services/drive"
)

func newClient(t *testing.T, handler http.Handler) *drive.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := drive.New(context.Background(), server.Client(), 2, option.WithEndpoint(server.URL+"/drive/v3/"))
	if err != nil {
		t.Fatalf("drive.New: %v", err)
	}
	return client
}

func TestListPendingFollowsPages(t *testing.T) {
	var queries []string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drive/v3/files" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		queries = append(queries, q.Get("q"))
		if q.Get("orderBy") != "createdTime desc" || q.Get("supportsAllDrives") != "true" {
			t.Errorf("unexpected query %v", q)
		}
		page := map[string]any{
			"files": []any{
				map[string]any{"id": "a", "name": "one.mp4", "mimeType": "video/mp4", "createdTime": "2026-01-02T03:04:05Z", "webViewLink": "https://view/a"},
				map[string]any{"id": "b", "name": "two.mov", "mimeType": "video/quicktime"},
			},
			"nextPageToken": "p2",
		}
		if q.Get("pageToken") == "p2" {
			page = map[string]any{
				"files": []any{map[string]any{"id": "c", "name": "three.mp4", "mimeType": "video/mp4", "size": "42"}},
			}
		}
		_ = json.NewEncoder(w).Encode(page)
	}))

	files, err := client.ListPending(context.Background(), "folder-1")
	if err != nil {
		t.Fatalf("ListPending returned error: %v", err)
	}
	if len(files) != 3 || files[0].ID != "a" || files[2].ID != "c" {
		t.Fatalf("unexpected files %#v", files)
	}
	if files[0].CreatedTime.IsZero() || files[0].WebViewLink != "https://view/a" || !files[1].IsVideo() {
		t.Fatalf("unexpected metadata %#v", files[0])
	}
	if files[2].Size != 42 {
		t.Fatalf("expected size 42, got %d", files[2].Size)
	}
	if len(queries) != 2 || !strings.Contains(queries[0], "'folder-1' in parents") || !strings.Contains(queries[0], "mimeType contains 'video/'") {
		t.Fatalf("unexpected queries %v", queries)
	}
}

func TestListPendingRequiresFolder(t *testing.T) {
	client := newClient(t, http.NotFoundHandler())
	if _, err := client.ListPending(context.Background(), " "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDownloadWritesFile(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drive/v3/files/vid-1" || r.URL.Query().Get("alt") != "media" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = io.WriteString(w, "video-bytes")
	}))

	dest := filepath.Join(t.TempDir(), "sub", "temp_input_clip.mp4")
	n, err := client.Download(context.Background(), "vid-1", dest)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	data, _ := os.ReadFile(dest)
	if n != int64(len("video-bytes")) || string(data) != "video-bytes" {
		t.Fatalf("unexpected download %d %q", n, data)
	}
}

func TestDownloadMissingIsNotFound(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"File not found"}}`)
	}))
	_, err := client.Download(context.Background(), "gone", filepath.Join(t.TempDir(), "x.mp4"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadReturnsLink(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/upload/drive/v3/files") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "Final_clip.mp4") || !strings.Contains(string(body), "final-folder") {
			t.Errorf("metadata missing from upload body")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "new-id", "name": "Final_clip.mp4", "webViewLink": "https://view/new-id"})
	}))

	path := filepath.Join(t.TempDir(), "Final_clip.mp4")
	if err := os.WriteFile(path, []byte("final"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	created, err := client.Upload(context.Background(), "final-folder", path, "Final_clip.mp4")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if created.ID != "new-id" || created.WebViewLink != "https://view/new-id" {
		t.Fatalf("unexpected created file %#v", created)
	}
}
