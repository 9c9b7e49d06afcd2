package pipeline

import (
	"context"
	"image"
	"log/slog"
	"time"

	"contentengine/internal/config"
	"contentengine/internal/layout"
	"contentengine/internal/media/ffprobe"
	"contentengine/internal/queue"
	"contentengine/internal/services/drive"
	"contentengine/internal/strategy"
	"contentengine/internal/subtitles"
	"contentengine/internal/transcript"
)

// FileTransfer moves videos between the backlog folder and local disk.
type FileTransfer interface {
	Download(ctx context.Context, fileID, dest string) (int64, error)
	Upload(ctx context.Context, folderID, path, name string) (drive.File, error)
}

// Prober inspects a local media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Encoder is the media filter boundary. *ffmpeg.Runner satisfies it.
type Encoder interface {
	ExtractAudio(ctx context.Context, input, output string) error
	BurnSubtitles(ctx context.Context, input, subtitlePath, output string) error
	ExtractFrame(ctx context.Context, input, output string) error
	StillClip(ctx context.Context, image string, seconds, width, height int, output string) error
	OverlayImage(ctx context.Context, input, image string, seconds int, output string) error
	Concat(ctx context.Context, intro, body string, width, height int, bodyHasAudio bool, output string) error
}

// SpeechToText turns an audio file into a timed transcript.
type SpeechToText interface {
	Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error)
}

// StrategyGenerator drafts a title and captions from a transcript.
type StrategyGenerator interface {
	Generate(ctx context.Context, transcriptText string, c strategy.Context) (strategy.Strategy, error)
}

// TitleRenderer paints a title card onto a transparent canvas.
type TitleRenderer interface {
	Render(title string, canvas layout.Canvas) (*image.RGBA, layout.Spec, error)
}

// Completer records a finished item in the processed set.
type Completer interface {
	Complete(ctx context.Context, item *queue.Item, elapsed time.Duration) error
}

// DuplicateFinder looks up a finished item with identical content.
type DuplicateFinder interface {
	FindDoneByContentHash(ctx context.Context, hash, excludeSourceID string) (*queue.Item, error)
}

// Dependencies bundles every collaborator the stage handlers use.
type Dependencies struct {
	Config     *config.Config
	Files      FileTransfer
	Probe      Prober
	Encoder    Encoder
	Speech     SpeechToText
	Strategist StrategyGenerator
	Compiler   *subtitles.Compiler
	Titles     TitleRenderer
	Recorder   Completer
	Duplicates DuplicateFinder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
