// Package services defines shared utilities consumed by the pipeline stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp queue item IDs, backlog source IDs, stage
//     names, and run identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures so
//     the workflow manager can tell a per-item failure from a fatal
//     configuration problem.
//
// Subpackages hold the clients for the external collaborators (Drive, Sheets,
// speech-to-text, LLM) and the shared HTTP retry policy.
package services
