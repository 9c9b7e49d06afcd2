// Package stageexec runs a single pipeline stage for one item: status
// transition, Prepare, Execute with an optional heartbeat, and persistence of
// the result. Failures come back as *StageError so callers know which stage
// raised them.
package stageexec
