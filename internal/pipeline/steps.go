package pipeline

import (
	"contentengine/internal/queue"
	"contentengine/internal/stage"
)

// Step pairs a handler with the status an item holds while it runs.
type Step struct {
	Name    string
	Status  queue.Status
	Handler stage.Handler
}

// Build returns the stage list in execution order.
func Build(deps Dependencies) []Step {
	return []Step{
		{Name: "download", Status: queue.StatusDownloading, Handler: NewDownloader(deps)},
		{Name: "analyze", Status: queue.StatusAnalyzing, Handler: NewAnalyzer(deps)},
		{Name: "transcribe", Status: queue.StatusTranscribing, Handler: NewTranscriber(deps)},
		{Name: "strategy", Status: queue.StatusStrategyGenerating, Handler: NewStrategist(deps)},
		{Name: "subtitles", Status: queue.StatusSubtitleRendering, Handler: NewSubtitleRenderer(deps)},
		{Name: "intro", Status: queue.StatusIntroRendering, Handler: NewIntroRenderer(deps)},
		{Name: "merge", Status: queue.StatusMerging, Handler: NewMerger(deps)},
		{Name: "upload", Status: queue.StatusUploading, Handler: NewUploader(deps)},
		{Name: "record", Status: queue.StatusRecording, Handler: NewRecorder(deps)},
	}
}
