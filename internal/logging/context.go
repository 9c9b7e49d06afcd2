package logging

import (
	"context"
	"log/slog"

	"contentengine/internal/services"
)

// Standard attribute keys. Dashboards and `contentengine logs` filter on
// these, so keep them stable.
const (
	FieldComponent = "component"
	FieldItemID    = "item_id"
	// FieldSourceID is the Drive file id of the video.
	FieldSourceID = "source_id"
	FieldStage    = "stage"
	// FieldRunID ties every line of one batch run together.
	FieldRunID = "run_id"
	// FieldAlert marks records that were also pushed to ntfy.
	FieldAlert = "alert"
	// FieldEventType classifies a record (stage_start, item_failed, ...).
	FieldEventType = "event_type"
	// FieldErrorHint is the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact states what the warning costs.
	FieldImpact = "impact"
)

// ContextFields returns the item, source, stage and run attributes carried
// by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldItemID, id))
	}
	if src, ok := services.SourceIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSourceID, src))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
	}
	return fields
}

// WithContext returns logger with the ContextFields of ctx attached.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
