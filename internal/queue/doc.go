// Package queue keeps the host-local processing ledger in SQLite.
//
// Every backlog file the batch run touches gets one row keyed by its remote
// file id. The row mirrors the remote processing record (status, final link,
// platforms, strategy text) and adds what only this host needs: the attempt
// counter consulted before retrying failures, the content hash used to spot
// re-uploaded duplicates, and progress fields for the status command.
//
// The database is treated as a cache of the remote ledger rather than a
// long-term archive. Schema changes bump the version in schema.go; operators
// delete the database to adopt the new schema.
package queue
