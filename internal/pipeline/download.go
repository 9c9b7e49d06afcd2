package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"contentengine/internal/fileutil"
	"contentengine/internal/logging"
	"contentengine/internal/services"
	"contentengine/internal/stage"
)

// Downloader fetches the source video into the workspace and fingerprints it.
type Downloader struct {
	files      FileTransfer
	duplicates DuplicateFinder
	folderID   string
	logger     *slog.Logger
}

// NewDownloader constructs the download stage.
func NewDownloader(deps Dependencies) *Downloader {
	d := &Downloader{files: deps.Files, duplicates: deps.Duplicates, logger: deps.Logger}
	if deps.Config != nil {
		d.folderID = deps.Config.Drive.UploadFolderID
	}
	return d
}

// SetLogger implements stage.LoggerAware.
func (d *Downloader) SetLogger(logger *slog.Logger) { d.logger = logger }

func (d *Downloader) Prepare(_ context.Context, job *stage.Job) error {
	if err := stage.Require("download", job.Item != nil && strings.TrimSpace(job.Item.SourceID) != "", "source id"); err != nil {
		return err
	}
	if err := stage.Require("download", job.Workspace != nil, "workspace"); err != nil {
		return err
	}
	return job.Workspace.Create()
}

func (d *Downloader) Execute(ctx context.Context, job *stage.Job) error {
	dest := job.Workspace.InputPath()
	n, err := d.files.Download(ctx, job.Item.SourceID, dest)
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "fetch", job.Item.Name, err)
	}
	if n == 0 {
		return services.Wrap(services.ErrValidation, "download", "fetch", "source file is empty", nil)
	}
	hash, err := fileutil.HashFile(dest)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "download", "hash", dest, err)
	}
	job.Item.ContentHash = hash

	if d.duplicates != nil {
		if prior, err := d.duplicates.FindDoneByContentHash(ctx, hash, job.Item.SourceID); err == nil && prior != nil {
			logging.WarnWithContext(d.logger, "source content matches an already processed video", "duplicate_content",
				logging.String("duplicate_of", prior.SourceID),
				logging.String("duplicate_link", prior.FinalLink),
				logging.Alert("duplicate_content"),
				logging.String(logging.FieldErrorHint, "remove the duplicate from the upload folder"),
				logging.String(logging.FieldImpact, "the same video will be published twice"),
			)
		}
	}
	if d.logger != nil {
		d.logger.Info("source downloaded",
			logging.String(logging.FieldEventType, "download_complete"),
			logging.Int64("bytes", n),
			logging.String("content_hash", hash),
		)
	}
	return nil
}

func (d *Downloader) HealthCheck(context.Context) stage.Health {
	switch {
	case d.files == nil:
		return stage.Unhealthy("download", "drive client unavailable")
	case strings.TrimSpace(d.folderID) == "":
		return stage.Unhealthy("download", "drive.upload_folder_id not set")
	}
	return stage.Healthy("download")
}
