// Package pipeline holds the stage handlers that turn one backlog video into
// a published one: download, analyze, transcribe, strategy, subtitles,
// intro, merge, upload and record.
//
// Handlers share artifacts through stage.Job and talk to the outside world
// only through the collaborator interfaces in Dependencies, so the workflow
// manager and tests can swap any boundary.
package pipeline
