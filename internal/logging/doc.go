// Package logging assembles structured slog loggers and formatting helpers used
// across the content engine.
//
// It owns the console and JSON handlers and the daily log file. Context-aware
// helpers tag stage log lines with the item, source and run identifiers
// stored on the context. NewNop returns a logger for tests.
package logging
