package workflow

import (
	"errors"
	"fmt"
	"time"
)

// ErrRunInProgress reports that another batch holds the host lock.
var ErrRunInProgress = errors.New("another batch run holds the lock")

// Skip reasons reported for backlog files that are not processed.
const (
	SkipDerivedOutput = "derived output"
	SkipNotVideo      = "not a video"
	SkipBatchLimit    = "batch limit"
)

// Summary counts what a batch run did.
type Summary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Listed    int           `json:"listed" yaml:"listed"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Deferred  int           `json:"deferred" yaml:"deferred"`
	Processed int           `json:"processed" yaml:"processed"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// ExitError is non-nil only when at least one item failed.
func (s Summary) ExitError() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d items failed", s.Failed, s.Processed)
}

// candidate is a backlog file selected for this run.
type candidate struct {
	ID       string
	Name     string
	MimeType string
	Link     string
}
