// Package logs reads the daily run logs written under paths.log_dir.
//
// Latest finds the newest log file; Tail returns its last lines and an
// offset from which later calls continue, optionally waiting for new output
// so `contentengine logs --follow` can watch a run in progress.
package logs
