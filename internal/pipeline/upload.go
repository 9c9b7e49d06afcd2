package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"contentengine/internal/logging"
	"contentengine/internal/services"
	"contentengine/internal/stage"
	"contentengine/internal/staging"
)

// Uploader publishes the final video to the output folder.
type Uploader struct {
	files    FileTransfer
	folderID string
	logger   *slog.Logger
}

// NewUploader constructs the upload stage.
func NewUploader(d Dependencies) *Uploader {
	u := &Uploader{files: d.Files, logger: d.Logger}
	if d.Config != nil {
		u.folderID = d.Config.Drive.FinalFolderID
	}
	return u
}

// SetLogger implements stage.LoggerAware.
func (u *Uploader) SetLogger(logger *slog.Logger) { u.logger = logger }

func (u *Uploader) Prepare(_ context.Context, job *stage.Job) error {
	return stage.RequireFile("upload", "final video", job.FinalPath)
}

func (u *Uploader) Execute(ctx context.Context, job *stage.Job) error {
	name := staging.FinalName(job.Workspace.Base())
	file, err := u.files.Upload(ctx, u.folderID, job.FinalPath, name)
	if err != nil {
		return services.Wrap(services.ErrTransient, "upload", "drive upload", name, err)
	}
	job.Item.FinalFileID = file.ID
	job.Item.FinalLink = file.WebViewLink
	if u.logger != nil {
		u.logger.Info("final video uploaded",
			logging.String(logging.FieldEventType, "upload_complete"),
			logging.String("file_id", file.ID),
			logging.String("link", file.WebViewLink),
		)
	}
	return nil
}

func (u *Uploader) HealthCheck(context.Context) stage.Health {
	switch {
	case u.files == nil:
		return stage.Unhealthy("upload", "drive client unavailable")
	case strings.TrimSpace(u.folderID) == "":
		return stage.Unhealthy("upload", "drive.final_folder_id not set")
	}
	return stage.Healthy("upload")
}
