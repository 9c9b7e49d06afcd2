package queue

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const itemColumns = "id, source_id, name, mime_type, source_link, status, attempts, content_hash, orientation, duration_seconds, title, strategy_text, platforms, final_file_id, final_link, error_message, progress_stage, progress_percent, progress_message, last_heartbeat, completed_at, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		sourceID        string
		name            string
		mimeType        sql.NullString
		sourceLink      sql.NullString
		statusStr       string
		attempts        sql.NullInt64
		contentHash     sql.NullString
		orientation     sql.NullString
		duration        sql.NullFloat64
		title           sql.NullString
		strategyText    sql.NullString
		platforms       sql.NullString
		finalFileID     sql.NullString
		finalLink       sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		heartbeatRaw    sql.NullString
		completedRaw    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceID,
		&name,
		&mimeType,
		&sourceLink,
		&statusStr,
		&attempts,
		&contentHash,
		&orientation,
		&duration,
		&title,
		&strategyText,
		&platforms,
		&finalFileID,
		&finalLink,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&heartbeatRaw,
		&completedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		SourceID:        sourceID,
		Name:            name,
		MimeType:        mimeType.String,
		SourceLink:      sourceLink.String,
		Status:          Status(statusStr),
		Attempts:        int(attempts.Int64),
		ContentHash:     contentHash.String,
		Orientation:     orientation.String,
		DurationSeconds: duration.Float64,
		Title:           title.String,
		StrategyText:    strategyText.String,
		Platforms:       splitPlatforms(platforms.String),
		FinalFileID:     finalFileID.String,
		FinalLink:       finalLink.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		LastHeartbeat:   parseNullableTime(heartbeatRaw),
		CompletedAt:     parseNullableTime(completedRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func splitPlatforms(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return timestamp(*value)
}

// timestamp is the stored form of every time column.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
