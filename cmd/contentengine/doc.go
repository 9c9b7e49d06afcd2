// Command contentengine processes the video backlog in a Drive upload folder.
//
// `contentengine run` is meant to be invoked by cron or a systemd timer; each
// invocation processes one batch and exits. The remaining subcommands inspect
// local state, verify configuration and expose the subtitle and title card
// renderers for manual use.
package main
