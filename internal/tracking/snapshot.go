package tracking

import (
	"sort"
	"strings"
	"time"

	"contentengine/internal/queue"
	"contentengine/internal/services/sheets"
)

// Status is the ledger-level state of an item.
type Status string

const (
	StatusProcessing Status = sheets.StatusProcessing
	StatusCompleted  Status = sheets.StatusCompleted
	StatusFailed     Status = sheets.StatusFailed
)

// Record is the merged view of one source id.
type Record struct {
	SourceID     string
	Status       Status
	FinalLink    string
	Platforms    []string
	StrategyText string
	UpdatedAt    time.Time
	Attempts     int
	// Interrupted is set when the local store reclaimed this item from a
	// killed run on this host, so a remote Processing row is our own.
	Interrupted bool
	Remote      bool
}

// Decision explains whether an item should be processed this run.
type Decision struct {
	Process bool
	Reason  string
}

// Skip reasons.
const (
	ReasonCompleted = "completed"
	ReasonLeased    = "leased by another run"
	ReasonExhausted = "attempts exhausted"
)

// Snapshot is the read-once view of the ledger taken at run start.
type Snapshot struct {
	records map[string]*Record
	policy  Policy
	takenAt time.Time
}

func newSnapshot(policy Policy, now time.Time) *Snapshot {
	return &Snapshot{records: make(map[string]*Record), policy: policy, takenAt: now}
}

func (s *Snapshot) record(id string) *Record {
	rec, ok := s.records[id]
	if !ok {
		rec = &Record{SourceID: id}
		s.records[id] = rec
	}
	return rec
}

func (s *Snapshot) mergeLocal(item *queue.Item) {
	if item == nil || strings.TrimSpace(item.SourceID) == "" {
		return
	}
	rec := s.record(item.SourceID)
	rec.Attempts = item.Attempts
	rec.FinalLink = item.FinalLink
	rec.Platforms = item.Platforms
	rec.StrategyText = item.StrategyText
	rec.UpdatedAt = item.UpdatedAt
	switch {
	case item.Status == queue.StatusDone:
		rec.Status = StatusCompleted
	case item.Status == queue.StatusFailed:
		rec.Status = StatusFailed
	case item.IsProcessing():
		rec.Status = StatusProcessing
	case item.Status == queue.StatusPending && item.ProgressMessage == queue.InterruptedReason:
		rec.Interrupted = true
	}
}

// mergeRemote applies ledger rows in sheet order so the last row per id wins.
// The ledger is authoritative for status; attempts stay local.
func (s *Snapshot) mergeRemote(row sheets.Row) {
	id := strings.TrimSpace(row.SourceID)
	if id == "" {
		return
	}
	rec := s.record(id)
	rec.Remote = true
	rec.Status = parseStatus(row.Status)
	rec.UpdatedAt = row.Timestamp
	if link := strings.TrimSpace(row.FinalLink); link != "" && !strings.HasPrefix(link, "Processing") {
		rec.FinalLink = link
	}
	if row.Strategy != "" {
		rec.StrategyText = row.Strategy
	}
	if row.Platforms != "" && !strings.HasPrefix(row.Platforms, "Processing") {
		rec.Platforms = splitList(row.Platforms)
	}
}

// parseStatus maps ledger text to a Status. Anything that is not a
// recognised Processing or Failed marker counts as completed, since only
// failed ids are eligible for another attempt.
func parseStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "processing", "processing...":
		return StatusProcessing
	case "failed", "error":
		return StatusFailed
	default:
		return StatusCompleted
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Decide applies the idempotency, lease and retry rules to one source id.
func (s *Snapshot) Decide(sourceID string) Decision {
	rec, ok := s.records[sourceID]
	if !ok {
		return Decision{Process: true}
	}
	switch rec.Status {
	case StatusCompleted:
		return Decision{Reason: ReasonCompleted}
	case StatusProcessing:
		if rec.Interrupted || rec.UpdatedAt.IsZero() {
			return Decision{Process: true, Reason: "lease expired"}
		}
		if s.policy.LeaseTTL > 0 && s.takenAt.Sub(rec.UpdatedAt) < s.policy.LeaseTTL {
			return Decision{Reason: ReasonLeased}
		}
		return Decision{Process: true, Reason: "lease expired"}
	case StatusFailed:
		if s.policy.MaxAttempts > 0 && rec.Attempts >= s.policy.MaxAttempts {
			return Decision{Reason: ReasonExhausted}
		}
		return Decision{Process: true, Reason: "retry"}
	}
	return Decision{Process: true}
}

// Lookup returns the merged record for an id.
func (s *Snapshot) Lookup(sourceID string) (Record, bool) {
	rec, ok := s.records[sourceID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Records returns every merged record ordered by source id.
func (s *Snapshot) Records() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// DoneSet returns the ids whose latest status is not Failed and that carry
// a status at all.
func (s *Snapshot) DoneSet() map[string]struct{} {
	done := make(map[string]struct{})
	for id, rec := range s.records {
		if rec.Status != "" && rec.Status != StatusFailed {
			done[id] = struct{}{}
		}
	}
	return done
}

// TakenAt is when the snapshot was read.
func (s *Snapshot) TakenAt() time.Time { return s.takenAt }
