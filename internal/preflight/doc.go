// Package preflight provides readiness checks for the filesystem paths and
// external services a batch run depends on.
//
// The workflow manager runs the local checks before listing the backlog so a
// missing directory or credential fails the run before any item starts. The
// "contentengine check" command runs the same set, optionally with the
// online LLM round trip.
package preflight
