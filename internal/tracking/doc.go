// Package tracking keeps the processed set: the local sqlite mirror in
// internal/queue and, when a spreadsheet is configured, the shared ledger in
// internal/services/sheets.
//
// A run reads one Snapshot at start. Completed ids are never reprocessed,
// Processing rows block other runs until their lease expires and Failed ids
// are retried until the local attempt counter reaches the configured cap.
package tracking
