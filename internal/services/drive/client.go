// Package drive lists, downloads and uploads backlog videos in Google Drive
// folders.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"contentengine/internal/services"
)

const (
	listFields      = "nextPageToken, files(id, name, webViewLink, webContentLink, createdTime, mimeType, size)"
	uploadFields    = "id, name, webViewLink"
	defaultPageSize = 100
	videoMimePrefix = "video/"
)

// File is the subset of Drive metadata the pipeline uses.
type File struct {
	ID             string
	Name           string
	MimeType       string
	WebViewLink    string
	WebContentLink string
	CreatedTime    time.Time
	Size           int64
}

// IsVideo reports whether Drive classified the file as video.
func (f File) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(f.MimeType), videoMimePrefix)
}

// Client wraps the Drive v3 files API.
type Client struct {
	svc      *drive.Service
	pageSize int64
}

// New constructs a client around an authorized HTTP client. Extra options
// (endpoint overrides in tests) are passed through to the API client.
func New(ctx context.Context, httpClient *http.Client, pageSize int, opts ...option.ClientOption) (*Client, error) {
	all := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "drive", "new service", "unable to create Drive service", err)
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{svc: svc, pageSize: int64(pageSize)}, nil
}

// ListPending returns the video files in folderID, newest first, across
// every result page.
func (c *Client) ListPending(ctx context.Context, folderID string) ([]File, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "drive", "list", "upload folder id is empty", nil)
	}
	query := fmt.Sprintf("'%s' in parents and (mimeType contains '%s') and trashed = false", escapeQuery(folderID), videoMimePrefix)
	var files []File
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(query).
			OrderBy("createdTime desc").
			PageSize(c.pageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Fields(listFields).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, services.Wrap(classify(err), "drive", "list", "list upload folder", err)
		}
		for _, f := range resp.Files {
			files = append(files, fromAPI(f))
		}
		if resp.NextPageToken == "" {
			return files, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Download streams the file content into dest and returns the byte count.
func (c *Client) Download(ctx context.Context, fileID, dest string) (int64, error) {
	resp, err := c.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return 0, services.Wrap(classify(err), "drive", "download", "fetch "+fileID, err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create download directory: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create download file: %w", err)
	}
	n, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(dest)
		return n, services.Wrap(services.ErrTransient, "drive", "download", "copy content of "+fileID, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("close download file: %w", closeErr)
	}
	return n, nil
}

// Upload stores path in folderID under name and returns the created file
// with its share link.
func (c *Client) Upload(ctx context.Context, folderID, path, name string) (File, error) {
	src, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "video/mp4"
	}
	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}
	created, err := c.svc.Files.Create(meta).
		Media(src, googleapi.ContentType(contentType)).
		SupportsAllDrives(true).
		Fields(uploadFields).
		Context(ctx).
		Do()
	if err != nil {
		return File{}, services.Wrap(classify(err), "drive", "upload", "upload "+name, err)
	}
	return fromAPI(created), nil
}

// FolderName resolves a folder id to its display name; check uses it to prove
// access to both configured folders.
func (c *Client) FolderName(ctx context.Context, folderID string) (string, error) {
	f, err := c.svc.Files.Get(folderID).SupportsAllDrives(true).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		return "", services.Wrap(classify(err), "drive", "folder", "lookup "+folderID, err)
	}
	return f.Name, nil
}

func fromAPI(f *drive.File) File {
	out := File{
		ID:             f.Id,
		Name:           f.Name,
		MimeType:       f.MimeType,
		WebViewLink:    f.WebViewLink,
		WebContentLink: f.WebContentLink,
		Size:           f.Size,
	}
	if created, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		out.CreatedTime = created
	}
	return out
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return services.ErrTransient
	}
	for _, item := range apiErr.Errors {
		if strings.Contains(item.Reason, "RateLimit") || strings.Contains(item.Reason, "rateLimit") {
			return services.ErrTransient
		}
	}
	switch apiErr.Code {
	case http.StatusNotFound:
		return services.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.ErrConfiguration
	}
	return services.ErrTransient
}

func escapeQuery(value string) string {
	return strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), `'`, `\'`)
}
