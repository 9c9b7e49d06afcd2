package stage

import (
	"time"

	"contentengine/internal/media/ffprobe"
	"contentengine/internal/queue"
	"contentengine/internal/staging"
	"contentengine/internal/strategy"
	"contentengine/internal/transcript"
)

// Job carries one item's artifacts between stages. It lives only for the
// duration of a single attempt; everything durable is copied onto Item.
type Job struct {
	Item      *queue.Item
	Workspace *staging.Workspace
	StartedAt time.Time

	Metadata   *ffprobe.Metadata
	Transcript *transcript.Transcript
	Strategy   *strategy.Strategy

	// SubtitlePath is empty when the transcript compiled to nothing.
	SubtitlePath string
	BodyPath     string
	IntroPath    string
	OverlayPath  string
	FinalPath    string
}

// NewJob binds an item to its workspace.
func NewJob(item *queue.Item, ws *staging.Workspace, now time.Time) *Job {
	return &Job{Item: item, Workspace: ws, StartedAt: now}
}

// Elapsed is the wall time since the attempt began.
func (j *Job) Elapsed(now time.Time) time.Duration {
	if j == nil || j.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(j.StartedAt)
}
