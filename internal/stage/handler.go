package stage

import (
	"context"
	"log/slog"
)

// Handler describes the contract the workflow needs from each stage.
// Prepare verifies the artifact the previous stage was expected to leave on
// the job; Execute does the work.
type Handler interface {
	Prepare(context.Context, *Job) error
	Execute(context.Context, *Job) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by handlers that accept a per-item logger.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// Conditional is implemented by handlers that only run for some items.
type Conditional interface {
	Applies(*Job) bool
}
