package queue

import (
	"strings"
	"time"
)

// Status represents where a backlog item sits in the content pipeline.
type Status string

const (
	StatusPending            Status = "pending"
	StatusDownloading        Status = "downloading"
	StatusAnalyzing          Status = "analyzing"
	StatusTranscribing       Status = "transcribing"
	StatusStrategyGenerating Status = "strategy_generating"
	StatusSubtitleRendering  Status = "subtitle_rendering"
	StatusIntroRendering     Status = "intro_rendering"
	StatusMerging            Status = "merging"
	StatusUploading          Status = "uploading"
	StatusRecording          Status = "recording"
	StatusDone               Status = "done"
	StatusFailed             Status = "failed"
)

// InterruptedReason is the progress message set on items reclaimed after a killed run.
const InterruptedReason = "Reclaimed after interrupted run"

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusAnalyzing,
	StatusTranscribing,
	StatusStrategyGenerating,
	StatusSubtitleRendering,
	StatusIntroRendering,
	StatusMerging,
	StatusUploading,
	StatusRecording,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:        {},
	StatusAnalyzing:          {},
	StatusTranscribing:       {},
	StatusStrategyGenerating: {},
	StatusSubtitleRendering:  {},
	StatusIntroRendering:     {},
	StatusMerging:            {},
	StatusUploading:          {},
	StatusRecording:          {},
}

// processingList returns the in-flight statuses in pipeline order.
func processingList() []Status {
	out := make([]Status, 0, len(processingStatuses))
	for _, status := range allStatuses {
		if _, ok := processingStatuses[status]; ok {
			out = append(out, status)
		}
	}
	return out
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Done       int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath         string
	DatabaseExists bool
	SchemaVersion  int
	IntegrityCheck bool
	TotalItems     int
	Error          string
}

// Item mirrors one backlog video and its processing record on this host.
type Item struct {
	ID              int64
	SourceID        string
	Name            string
	MimeType        string
	SourceLink      string
	Status          Status
	Attempts        int
	ContentHash     string
	Orientation     string
	DurationSeconds float64
	Title           string
	StrategyText    string
	Platforms       []string
	FinalFileID     string
	FinalLink       string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// PlatformList renders the platform names the way the tracking sheet stores them.
func (i Item) PlatformList() string {
	return strings.Join(i.Platforms, ", ")
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// BeginAttempt moves the item into its first stage and counts the attempt.
func (i *Item) BeginAttempt(now time.Time) {
	i.Attempts++
	i.Status = StatusDownloading
	i.ErrorMessage = ""
	i.CompletedAt = nil
	heartbeat := now.UTC()
	i.LastHeartbeat = &heartbeat
	i.SetProgress("Starting", "", 0)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.LastHeartbeat = nil
	i.SetProgress("Failed", message, 0)
}

// SetDone marks the item finished.
func (i *Item) SetDone(now time.Time) {
	i.Status = StatusDone
	i.ErrorMessage = ""
	i.LastHeartbeat = nil
	completed := now.UTC()
	i.CompletedAt = &completed
	i.SetProgress("Done", "", 100)
}
